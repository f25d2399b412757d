package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/service"
)

var (
	showDate  string
	seedAt    string
	stepsDate string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Load one day and print its steps, heart rate and sleep",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		date, err := dateFlag(showDate, e.loc)
		if err != nil {
			return err
		}
		view, err := service.NewDayView(e.gateway, e.loc, date, e.logger)
		if err != nil {
			return err
		}
		defer view.Close()

		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		state, err := view.WaitIdle(waitCtx)
		if err != nil {
			return err
		}
		if state.Err != nil {
			return state.Err
		}
		d := service.Display(state.Metrics)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", state.SelectedDate)
		fmt.Fprintf(out, "  steps:      %s\n", d.Steps)
		fmt.Fprintf(out, "  heart rate: %s\n", d.HeartRate)
		fmt.Fprintf(out, "  sleep:      %s\n", d.Sleep)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo steps, heart rate and sleep records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		at := time.Now()
		if seedAt != "" {
			if at, err = time.Parse(time.RFC3339, seedAt); err != nil {
				return fmt.Errorf("--at: %w", err)
			}
		}
		records := service.DemoRecords(at)
		if err := e.gateway.Insert(cmd.Context(), records...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %d demo records ending %s\n", len(records), at.Format(time.RFC3339))
		return nil
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Correct a day's step count",
}

var stepsSetCmd = &cobra.Command{
	Use:   "set <count>",
	Short: "Record a manual steps sample at the start of the day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, func(ctx context.Context, s *service.EditSession) error {
			s.SetSteps(args[0])
			return s.Save(ctx)
		})
	},
}

var stepsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete every steps sample of the day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, func(ctx context.Context, s *service.EditSession) error {
			return s.DeleteSteps(ctx)
		})
	},
}

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "day to show, YYYY-MM-DD (default today)")
	seedCmd.Flags().StringVar(&seedAt, "at", "", "end time of the demo records, RFC 3339 (default now)")
	stepsCmd.PersistentFlags().StringVar(&stepsDate, "date", "", "day to edit, YYYY-MM-DD (default today)")
	stepsCmd.AddCommand(stepsSetCmd)
	stepsCmd.AddCommand(stepsDeleteCmd)
}

// runEdit opens an edit session for --date and applies fn. Unparseable
// input is an error on the command line.
func runEdit(cmd *cobra.Command, fn func(context.Context, *service.EditSession) error) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	date, err := dateFlag(stepsDate, e.loc)
	if err != nil {
		return err
	}
	opts := append(e.editOpts, service.WithParsePolicy(service.ParseStrict))
	session := service.NewEditSession(e.gateway, date, internal.DayMetrics{}, e.loc, nil, opts...)
	if err := fn(cmd.Context(), session); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated steps for %s\n", date)
	return nil
}
