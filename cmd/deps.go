// Package cmd provides CLI commands for the attend tool.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/attend-cli/config"
	"github.com/otherjamesbrown/attend-cli/credentials"
	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
	"github.com/otherjamesbrown/attend-cli/pkg/ingest/attendance"
	"github.com/otherjamesbrown/attend-cli/pkg/logging"
	"github.com/otherjamesbrown/attend-cli/pkg/observability"
	"github.com/otherjamesbrown/attend-cli/pkg/sink"
	"github.com/otherjamesbrown/attend-cli/pkg/tracker"
)

// CommandDeps holds the dependencies shared by the attend commands.
// Tests replace the function fields.
type CommandDeps struct {
	LoadConfig func() (*config.Config, error)
	OpenSink   func(ctx context.Context, cfg config.SinkConfig, deps sink.Deps) (sink.Sink, error)
	Secrets    credentials.Store

	// ReadSecret prompts for a secret value.
	ReadSecret func(prompt string) (string, error)

	Logger   logging.Logger
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Tracer   *observability.Tracer
}

// DefaultDeps returns the default dependencies for production use.
func DefaultDeps() *CommandDeps {
	return &CommandDeps{
		LoadConfig: config.LoadConfig,
		OpenSink:   sink.New,
		Secrets:    credentials.Default(),
		ReadSecret: readSecretFromTerminal,
	}
}

func (d *CommandDeps) logger() logging.Logger {
	if d.Logger == nil {
		return logging.NewNopLogger()
	}
	return d.Logger
}

func (d *CommandDeps) loadConfig() (*config.Config, error) {
	if d.LoadConfig == nil {
		return config.LoadConfig()
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func (d *CommandDeps) sinkDeps(out io.Writer) sink.Deps {
	sd := sink.Deps{
		Stdout:  out,
		Secrets: d.Secrets,
		Logger:  d.logger(),
	}
	if d.Registry != nil {
		sd.Registerer = d.Registry
	}
	if sd.Secrets == nil {
		sd.Secrets = credentials.Default()
	}
	return sd
}

// openTracker reads the export at path with the configured format.
func (d *CommandDeps) openTracker(ctx context.Context, cfg *config.Config, path string) (*tracker.Tracker, error) {
	decoder, err := cfg.DecoderOptions()
	if err != nil {
		return nil, err
	}
	return tracker.Open(ctx, path, tracker.Options{
		Table:   cfg.TableOptions(),
		Decoder: decoder,
		Metrics: d.Metrics,
		Tracer:  d.Tracer,
		Logger:  d.logger(),
	})
}

// parseWindowTime accepts a timestamp in the export's datetime pattern or
// RFC 3339.
func parseWindowTime(flag, pattern, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: --%s is required", aterrors.ErrInvalidConfig, flag)
	}
	if t, err := attendance.ParseTime(pattern, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: --%s %q matches neither %q nor RFC 3339",
		aterrors.ErrInvalidConfig, flag, value, pattern)
}

// windowFlags are the flags shared by qualify and report.
type windowFlags struct {
	start       string
	end         string
	minFraction float64
	encoding    string
	delimiter   string
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.start, "start", "", "Session start (datetime pattern or RFC 3339)")
	cmd.Flags().StringVar(&w.end, "end", "", "Session end (datetime pattern or RFC 3339)")
	cmd.Flags().Float64Var(&w.minFraction, "min-fraction", config.DefaultMinFraction, "Fraction of the window a participant must attend")
	cmd.Flags().StringVar(&w.encoding, "encoding", "", "Export text encoding (overrides config)")
	cmd.Flags().StringVar(&w.delimiter, "export-delimiter", "", "Export field delimiter (overrides config)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

// apply overlays explicitly set flags on cfg and revalidates it.
func (w *windowFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("min-fraction") {
		cfg.Qualification.MinAttendanceFraction = w.minFraction
	}
	if w.encoding != "" {
		cfg.Export.Encoding = w.encoding
	}
	if w.delimiter != "" {
		cfg.Export.Delimiter = w.delimiter
	}
	return cfg.Validate()
}

func (w *windowFlags) window(cfg *config.Config) (start, end time.Time, err error) {
	pattern := cfg.Attendance.DatetimePattern
	if start, err = parseWindowTime("start", pattern, w.start); err != nil {
		return
	}
	end, err = parseWindowTime("end", pattern, w.end)
	return
}

// readSecretFromTerminal reads a line without echo when stdin is a
// terminal, and a plain line otherwise.
func readSecretFromTerminal(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
