package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/farelab/farewatch/internal/browser"
	"github.com/farelab/farewatch/internal/model"
	"github.com/farelab/farewatch/internal/search"
)

var (
	searchMode           string
	searchFrom           string
	searchTo             string
	searchDate           string
	searchReturnDate     string
	searchTripType       string
	searchOutboundFlight string
	searchOutboundPrice  int
	searchJSON           bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one fare query against the live result page",
	RunE: func(cmd *cobra.Command, args []string) error {
		b := browser.Connect(cfg.Browser.CDPURL)
		defer b.Close()

		s := newSearcher(b)
		res, err := s.Search(cmd.Context(), model.Query{
			Mode:           model.MonitorMode(searchMode),
			Depart:         searchFrom,
			Arrive:         searchTo,
			DepartDate:     searchDate,
			ReturnDate:     searchReturnDate,
			TripType:       searchTripType,
			OutboundFlight: searchOutboundFlight,
			OutboundPrice:  searchOutboundPrice,
		})
		if err != nil {
			return err
		}

		if searchJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.View.Table)
		if res.View.Hint != "" {
			fmt.Fprintln(cmd.OutOrStdout(), res.View.Hint)
		}
		return nil
	},
}

func newSearcher(b *browser.Browser) *search.Searcher {
	return search.New(b,
		search.WithTimeout(time.Duration(cfg.Search.TimeoutSecs)*time.Second),
		search.WithSettle(time.Duration(cfg.Search.SettleMillis)*time.Millisecond),
	)
}

func init() {
	searchCmd.Flags().StringVar(&searchMode, "mode", "outbound_day", "query mode: outbound_day, roundtrip_locked or return_after_outbound")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "departure city")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "arrival city")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "departure date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchReturnDate, "return-date", "", "return date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchTripType, "trip-type", "", "outbound_day pricing context: oneway or roundtrip_context")
	searchCmd.Flags().StringVar(&searchOutboundFlight, "outbound-flight", "", "locked outbound flight designator")
	searchCmd.Flags().IntVar(&searchOutboundPrice, "outbound-price", 0, "already-paid outbound price in CNY")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the raw result as JSON")

	_ = searchCmd.MarkFlagRequired("from")
	_ = searchCmd.MarkFlagRequired("to")
	_ = searchCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(searchCmd)
}
