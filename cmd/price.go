package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/farelab/farewatch/internal/booking"
	"github.com/farelab/farewatch/internal/browser"
)

var (
	priceFrom   string
	priceTo     string
	priceDepart string
	priceReturn string
	priceObDep  string
	priceObArr  string
	priceRetDep string
	priceRetArr string
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Walk a selection to the booking page and extract the confirmed price",
	Long:  "Selects the given outbound (and return) by their listed times, continues into the booking page, and prints the confirmed total, fare breakdown, flight details and baggage allowance as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		b := browser.Connect(cfg.Browser.CDPURL)
		defer b.Close()

		checker := booking.NewChecker(b)
		details, err := checker.Check(cmd.Context(), booking.Request{
			From:        priceFrom,
			To:          priceTo,
			DepartDate:  priceDepart,
			ReturnDate:  priceReturn,
			OutboundDep: priceObDep,
			OutboundArr: priceObArr,
			ReturnDep:   priceRetDep,
			ReturnArr:   priceRetArr,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(details)
	},
}

func init() {
	priceCmd.Flags().StringVar(&priceFrom, "from", "", "departure airport code (e.g. SZX)")
	priceCmd.Flags().StringVar(&priceTo, "to", "", "arrival airport code (e.g. CKG)")
	priceCmd.Flags().StringVar(&priceDepart, "depart", "", "departure date (YYYY-MM-DD)")
	priceCmd.Flags().StringVar(&priceReturn, "return", "", "return date (YYYY-MM-DD)")
	priceCmd.Flags().StringVar(&priceObDep, "ob-dep", "", "outbound departure time (HH:MM)")
	priceCmd.Flags().StringVar(&priceObArr, "ob-arr", "", "outbound arrival time (HH:MM)")
	priceCmd.Flags().StringVar(&priceRetDep, "ret-dep", "", "return departure time (HH:MM)")
	priceCmd.Flags().StringVar(&priceRetArr, "ret-arr", "", "return arrival time (HH:MM)")

	_ = priceCmd.MarkFlagRequired("from")
	_ = priceCmd.MarkFlagRequired("to")
	_ = priceCmd.MarkFlagRequired("depart")
	_ = priceCmd.MarkFlagRequired("ob-dep")
	_ = priceCmd.MarkFlagRequired("ob-arr")

	rootCmd.AddCommand(priceCmd)
}
