package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/attend-cli/pkg/ingest/attendance"
	"github.com/otherjamesbrown/attend-cli/pkg/tracker"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	var encoding, delimiter string

	cmd := &cobra.Command{
		Use:   "inspect <export>",
		Short: "Show the sections decoded from an export",
		Long: `Locate the section headings in an attendance export and print what each
section decodes to: the meeting start time, the participant summary rows
and the in-meeting activity intervals.

Use this to check heading text, encoding and datetime pattern settings
before running qualify.

Examples:
  attend inspect meeting.csv
  attend inspect meeting.csv --encoding utf-8 --export-delimiter ','
  attend inspect meeting.csv -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd, deps, encoding, delimiter, args[0])
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "", "Export text encoding (overrides config)")
	cmd.Flags().StringVar(&delimiter, "export-delimiter", "", "Export field delimiter (overrides config)")
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, deps *CommandDeps, encoding, delimiter, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}
	if encoding != "" {
		cfg.Export.Encoding = encoding
	}
	if delimiter != "" {
		cfg.Export.Delimiter = delimiter
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tr, err := deps.openTracker(ctx, cfg, path)
	if err != nil {
		return err
	}
	summary, err := tr.Inspect(ctx)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), cfg.Output.Format, summary, func(w io.Writer) error {
		return outputSummaryText(w, summary)
	})
}

func outputSummaryText(w io.Writer, s *tracker.Summary) error {
	fmt.Fprintf(w, "Export:      %s\n", s.Source)
	fmt.Fprintf(w, "Rows:        %d\n", s.Rows)
	fmt.Fprintf(w, "Start time:  %s\n\n", formatTime(s.StartTime))

	fmt.Fprintln(w, "Sections:")
	for _, label := range attendance.AllSections() {
		if off, ok := s.Offsets[label.String()]; ok {
			fmt.Fprintf(w, "  %-22s row %d\n", label, off)
		} else {
			fmt.Fprintf(w, "  %-22s (not found)\n", label)
		}
	}

	fmt.Fprintf(w, "\nParticipants (%d):\n", len(s.Participants))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tFIRST JOIN\tLAST LEAVE\tDURATION\tROLE")
	for _, p := range s.Participants {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name, p.Email, formatTime(p.FirstJoin), formatTime(p.LastLeave), p.InMeetingDuration, p.Role)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nIn-meeting activities (%d):\n", len(s.Activities))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tJOIN\tLEAVE\tDURATION\tROLE")
	for _, a := range s.Activities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Name, a.Email, formatTime(a.JoinTime), formatTime(a.LeaveTime), a.Duration, a.Role)
	}
	return tw.Flush()
}
