package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/attend-cli/pkg/qualification"
)

// NewReportCommand creates the report command.
func NewReportCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	flags := &windowFlags{}

	cmd := &cobra.Command{
		Use:   "report <export>",
		Short: "Show each participant's minutes inside a session window",
		Long: `Show the minutes every participant accumulated inside [start, end)
next to the qualification threshold. Participants appear in the order
they first joined.

Examples:
  attend report meeting.csv --start "03/21/24, 02:00:00 PM" --end "03/21/24, 03:00:00 PM"
  attend report meeting.csv --start 2024-03-21T14:00:00Z --end 2024-03-21T15:00:00Z -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd, deps, flags, args[0])
		},
	}
	flags.register(cmd)
	return cmd
}

func runReport(ctx context.Context, cmd *cobra.Command, deps *CommandDeps, flags *windowFlags, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return err
	}
	start, end, err := flags.window(cfg)
	if err != nil {
		return err
	}

	tr, err := deps.openTracker(ctx, cfg, path)
	if err != nil {
		return err
	}
	res, err := tr.Evaluate(ctx, qualification.Criteria{
		Window:      qualification.Window{Start: start, End: end},
		MinFraction: cfg.Qualification.MinAttendanceFraction,
	})
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), cfg.Output.Format, res, func(w io.Writer) error {
		return outputReportText(w, res)
	})
}

func outputReportText(w io.Writer, res *qualification.Result) error {
	win := res.Criteria.Window
	fmt.Fprintf(w, "Window:     %s to %s (%d minutes)\n", formatTime(win.Start), formatTime(win.End), win.Minutes())
	fmt.Fprintf(w, "Threshold:  %d minutes (%.2f of window)\n", res.ThresholdMinutes, res.Criteria.MinFraction)
	fmt.Fprintf(w, "Qualified:  %d of %d\n\n", len(res.Qualified), len(res.Totals))

	if len(res.Totals) == 0 {
		fmt.Fprintln(w, "No in-meeting activity found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tMINUTES\tQUALIFIED")
	fmt.Fprintln(tw, "-----\t-------\t---------")
	for _, pt := range res.Totals {
		mark := "no"
		if pt.Qualified {
			mark = "yes"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", pt.Email, pt.Minutes, mark)
	}
	return tw.Flush()
}
