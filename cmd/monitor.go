package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/browser"
	"github.com/farelab/farewatch/internal/history"
	"github.com/farelab/farewatch/internal/model"
	"github.com/farelab/farewatch/internal/monitor"
	"github.com/farelab/farewatch/pkg/gateway"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Manage and run fare price monitors",
}

var monitorRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Check every enabled monitor and alert on price changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store := monitor.NewStore(cfg.Store.Path)
		records := store.Load()
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No monitors configured.")
			return nil
		}

		b := browser.Connect(cfg.Browser.CDPURL)
		defer b.Close()

		notifier := gateway.New(cfg.Gateway.URL, cfg.Gateway.Channel, cfg.Gateway.ChatID)

		opts := []monitor.RunnerOption{}
		hist, err := history.Open(cfg.History.Path)
		if err != nil {
			zap.L().Warn("history unavailable, observations will not be logged", zap.Error(err))
		} else {
			defer hist.Close()
			if err := hist.Migrate(ctx); err != nil {
				zap.L().Warn("history migrate failed", zap.Error(err))
			} else {
				opts = append(opts, monitor.WithHistory(hist))
			}
		}

		runner := monitor.NewRunner(newSearcher(b), notifier, opts...)
		result := runner.RunAll(ctx, records)

		if result.Dirty {
			if err := store.Save(result.Records); err != nil {
				return eris.Wrap(err, "save monitors")
			}
		}

		for i, report := range result.Reports {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			fmt.Fprintln(cmd.OutOrStdout(), report)
		}
		return nil
	},
}

var monitorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured monitors",
	RunE: func(cmd *cobra.Command, args []string) error {
		records := monitor.NewStore(cfg.Store.Path).Load()
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No monitors configured.")
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"ID", "Route", "Dates", "Mode", "Status", "Last checked"})
		for _, rec := range records {
			dates := rec.DepartDate
			if rec.ReturnDate != "" {
				dates += " / " + rec.ReturnDate
			}
			status := rec.Status
			if status == "" {
				status = model.StatusEnabled
			}
			checked := "never"
			if rec.LastChecked > 0 {
				checked = time.UnixMilli(rec.LastChecked).Format("2006-01-02 15:04")
			}
			t.AppendRow(table.Row{shortID(rec.ID), rec.Depart + " - " + rec.Arrive, dates, string(rec.Mode), status, checked})
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var (
	addFrom           string
	addTo             string
	addDate           string
	addReturnDate     string
	addMode           string
	addOutboundFlight string
	addOutboundPrice  int
	addReturnFlight   string
	addBaselineTotal  int
)

var monitorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a monitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := model.MonitorRecord{
			ID:                 uuid.NewString(),
			Depart:             addFrom,
			Arrive:             addTo,
			DepartDate:         addDate,
			ReturnDate:         addReturnDate,
			Mode:               model.MonitorMode(addMode),
			OutboundFlight:     addOutboundFlight,
			OutboundPrice:      addOutboundPrice,
			ReturnFlight:       addReturnFlight,
			BaselineTotalPrice: addBaselineTotal,
		}
		if err := validateMonitor(rec); err != nil {
			return err
		}

		store := monitor.NewStore(cfg.Store.Path)
		records := append(store.Load(), rec)
		if err := store.Save(records); err != nil {
			return eris.Wrap(err, "save monitors")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added monitor %s (%s -> %s, %s)\n", shortID(rec.ID), rec.Depart, rec.Arrive, rec.Mode)
		return nil
	},
}

func validateMonitor(rec model.MonitorRecord) error {
	if rec.Depart == "" || rec.Arrive == "" || rec.DepartDate == "" {
		return eris.New("from, to and date are required")
	}
	switch rec.Mode {
	case model.ModeOutboundDay:
		return nil
	case model.ModeRoundtripLocked, model.ModeReturnAfterOutbound:
		if rec.ReturnDate == "" || rec.OutboundFlight == "" {
			return eris.Errorf("%s needs return-date and outbound-flight", rec.Mode)
		}
		if rec.Mode == model.ModeReturnAfterOutbound && rec.OutboundPrice <= 0 {
			return eris.New("return_after_outbound needs a positive outbound-price")
		}
		return nil
	default:
		return eris.Errorf("unknown mode %q", rec.Mode)
	}
}

var monitorEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a monitor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], model.StatusEnabled)
	},
}

var monitorDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a monitor without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], model.StatusDisabled)
	},
}

func setStatus(cmd *cobra.Command, id, status string) error {
	store := monitor.NewStore(cfg.Store.Path)
	records := store.Load()
	for i := range records {
		if records[i].ID == id || strings.HasPrefix(records[i].ID, id) {
			records[i].Status = status
			if err := store.Save(records); err != nil {
				return eris.Wrap(err, "save monitors")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Monitor %s is now %s\n", shortID(records[i].ID), status)
			return nil
		}
	}
	return eris.Errorf("no monitor matching %q", id)
}

var historyLimit int

var monitorHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show recent price observations for a monitor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records := monitor.NewStore(cfg.Store.Path).Load()
		id := args[0]
		for _, rec := range records {
			if rec.ID == id || strings.HasPrefix(rec.ID, id) {
				id = rec.ID
				break
			}
		}

		hist, err := history.Open(cfg.History.Path)
		if err != nil {
			return eris.Wrap(err, "open history")
		}
		defer hist.Close()
		if err := hist.Migrate(cmd.Context()); err != nil {
			return err
		}

		observations, err := hist.List(cmd.Context(), id, historyLimit)
		if err != nil {
			return err
		}
		if len(observations) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No observations recorded.")
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Observed", "Flight", "Price"})
		for _, o := range observations {
			t.AppendRow(table.Row{o.ObservedAt.Local().Format("2006-01-02 15:04"), o.Flight, fmt.Sprintf("CNY%d", o.Amount)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	monitorAddCmd.Flags().StringVar(&addFrom, "from", "", "departure city")
	monitorAddCmd.Flags().StringVar(&addTo, "to", "", "arrival city")
	monitorAddCmd.Flags().StringVar(&addDate, "date", "", "departure date (YYYY-MM-DD)")
	monitorAddCmd.Flags().StringVar(&addReturnDate, "return-date", "", "return date (YYYY-MM-DD)")
	monitorAddCmd.Flags().StringVar(&addMode, "mode", "outbound_day", "monitor mode")
	monitorAddCmd.Flags().StringVar(&addOutboundFlight, "outbound-flight", "", "locked outbound flight designator")
	monitorAddCmd.Flags().IntVar(&addOutboundPrice, "outbound-price", 0, "already-paid outbound price in CNY")
	monitorAddCmd.Flags().StringVar(&addReturnFlight, "return-flight", "", "watched return flight designator")
	monitorAddCmd.Flags().IntVar(&addBaselineTotal, "baseline-total", 0, "baseline round-trip total in CNY")
	_ = monitorAddCmd.MarkFlagRequired("from")
	_ = monitorAddCmd.MarkFlagRequired("to")
	_ = monitorAddCmd.MarkFlagRequired("date")

	monitorHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of observations to show")

	monitorCmd.AddCommand(monitorRunCmd, monitorListCmd, monitorAddCmd, monitorEnableCmd, monitorDisableCmd, monitorHistoryCmd)
	rootCmd.AddCommand(monitorCmd)
}
