package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/attend-cli/config"
	"github.com/otherjamesbrown/attend-cli/pkg/logging"
	"github.com/otherjamesbrown/attend-cli/pkg/qualification"
	"github.com/otherjamesbrown/attend-cli/pkg/sink"
)

// QualifyOutput is the structured result of a qualify run.
type QualifyOutput struct {
	Report       *sink.Report `json:"report" yaml:"report"`
	Sink         string       `json:"sink" yaml:"sink"`
	Participants int          `json:"participants" yaml:"participants"`
}

type qualifyFlags struct {
	windowFlags
	sinkType   string
	outputPath string
	joinWith   string
}

// NewQualifyCommand creates the qualify command.
func NewQualifyCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	flags := &qualifyFlags{}

	cmd := &cobra.Command{
		Use:   "qualify <export>",
		Short: "List participants who attended enough of a session",
		Long: `Decode a meeting attendance export and list the participants whose
accumulated presence inside [start, end) reaches the minimum fraction of the
window.

The threshold is floor(window minutes * min-fraction). The qualified emails
are joined with the output delimiter and written to the configured sink
(stdout by default). With --output json or yaml the full run report is
printed instead.

Examples:
  attend qualify meeting.csv --start "03/21/24, 02:00:00 PM" --end "03/21/24, 03:00:00 PM"
  attend qualify meeting.csv --start 2024-03-21T14:00:00Z --end 2024-03-21T15:00:00Z --min-fraction 0.5
  attend qualify meeting.csv --start ... --end ... --sink file --output-path qualified.txt
  attend qualify meeting.csv --start ... --end ... --sink postgres -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQualify(cmd.Context(), cmd, deps, flags, args[0])
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.sinkType, "sink", "", "Result sink: stdout, file, postgres, redis (overrides config)")
	cmd.Flags().StringVar(&flags.outputPath, "output-path", "", "File written by the file sink (overrides config)")
	cmd.Flags().StringVar(&flags.joinWith, "delimiter", "", "Delimiter between qualified emails (overrides config)")

	return cmd
}

func runQualify(ctx context.Context, cmd *cobra.Command, deps *CommandDeps, flags *qualifyFlags, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}
	if flags.sinkType != "" {
		cfg.Sink.Type = config.SinkType(flags.sinkType)
	}
	if flags.outputPath != "" {
		cfg.Sink.Path = flags.outputPath
		if flags.sinkType == "" && cfg.Sink.Type == config.SinkStdout {
			cfg.Sink.Type = config.SinkFile
		}
	}
	if flags.joinWith != "" {
		cfg.Output.Delimiter = flags.joinWith
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

	criteria := qualification.Criteria{
		Window:      qualification.Window{Start: start, End: end},
		MinFraction: cfg.Qualification.MinAttendanceFraction,
	}
	report, res, err := tr.Report(ctx, criteria, cfg.Output.Delimiter)
	if err != nil {
		return err
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	log := deps.logger().WithContext(ctx)

	out := cmd.OutOrStdout()
	structured := cfg.Output.Format != config.OutputFormatText && cfg.Output.Format != ""
	result := QualifyOutput{Report: report, Sink: string(cfg.Sink.Type), Participants: len(res.Totals)}

	// Structured output replaces the delimited line on stdout.
	if structured && cfg.Sink.Type == config.SinkStdout {
		return writeOutput(out, cfg.Output.Format, result, nil)
	}

	if err := deliver(ctx, deps, cfg.Sink, out, report); err != nil {
		return err
	}
	log.Info("Qualification delivered",
		logging.F("sink", string(cfg.Sink.Type)),
		logging.F("qualified", len(report.Qualified)))

	if structured {
		return writeOutput(out, cfg.Output.Format, result, nil)
	}
	if cfg.Sink.Type != config.SinkStdout {
		fmt.Fprintf(cmd.ErrOrStderr(), "Qualified %d of %d participants (threshold %d minutes); run %s written to %s sink\n",
			len(report.Qualified), len(res.Totals), report.ThresholdMinutes, report.RunID, cfg.Sink.Type)
	}
	return nil
}

// deliver opens the configured sink, writes r and closes it.
func deliver(ctx context.Context, deps *CommandDeps, cfg config.SinkConfig, out io.Writer, r *sink.Report) (err error) {
	open := deps.OpenSink
	if open == nil {
		open = sink.New
	}
	s, err := open(ctx, cfg, deps.sinkDeps(out))
	if err != nil {
		return err
	}
	s = sink.Instrument(s, deps.Metrics, deps.Tracer, deps.logger())
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s sink: %w", s.Name(), cerr)
		}
	}()
	return s.Write(ctx, r)
}
