// Package main provides the attend CLI entry point.
// attend decides which meeting participants attended enough of a session
// to qualify, working from the attendance export a meeting service produces.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/attend-cli/cmd"
	"github.com/otherjamesbrown/attend-cli/config"
	"github.com/otherjamesbrown/attend-cli/pkg/buildinfo"
	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
	"github.com/otherjamesbrown/attend-cli/pkg/logging"
	"github.com/otherjamesbrown/attend-cli/pkg/observability"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitCancelled = 130
)

// Global flags and state.
var (
	cfgFile         string
	outputFormat    string
	logLevel        string
	logJSON         bool
	debug           bool
	metricsTextfile string

	// cfg holds the loaded configuration.
	cfg *config.Config

	// appDeps is shared by every attend subcommand.
	appDeps = cmd.DefaultDeps()

	// registry collects the metrics of one run.
	registry = prometheus.NewRegistry()

	logger = logging.NewNopLogger()

	cmdStartTime time.Time
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "attend",
	Short: "Qualify meeting participants from attendance exports",
	Long: `attend reads the attendance export a meeting service produces and lists
the participants who were present for enough of a session window.

An export is a delimited text file with headed sections: a start time, a
participant summary, the in-meeting activity intervals and a consent
section. attend locates the sections by their heading text, decodes the
activity rows and sums each participant's minutes inside the window.

COMMON WORKFLOWS:
  Check an export:    attend inspect meeting.csv
  Qualify attendees:  attend qualify meeting.csv --start ... --end ...
  Explain a result:   attend report meeting.csv --start ... --end ...
  Store sink secrets: attend auth set postgres-password

Configuration lives in ~/.attend/config.yaml (attend config init) and may be
overridden with ATTEND_* environment variables and command-line flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		cmdStartTime = time.Now()

		// Skip initialization for commands that don't need it.
		if skipInit(c) {
			return nil
		}

		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		logger = newLogger(cfg)
		appDeps.Logger = logger
		appDeps.Registry = registry
		appDeps.Metrics = observability.NewMetrics(registry)
		appDeps.Tracer = observability.NewTracer()
		appDeps.LoadConfig = func() (*config.Config, error) { return cfg, nil }

		logger.Debug("Configuration loaded",
			logging.F("command", c.CommandPath()),
			logging.F("sink", string(cfg.Sink.Type)),
			logging.F("output", string(cfg.Output.Format)))
		return nil
	},
}

// skipInit reports whether c runs without loading configuration.
func skipInit(c *cobra.Command) bool {
	switch c.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return c.HasParent() && c.Parent().Name() == "config"
}

// configPath returns the --config path or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return config.ExpandPath(cfgFile)
	}
	return config.ConfigPath()
}

// loadConfig reads the config file and environment, then applies the
// global flags.
func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}
	c, err := config.LoadConfigFrom(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if outputFormat != "" {
		c.Output.Format = config.OutputFormat(outputFormat)
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if debug {
		c.LogLevel = string(logging.LevelDebug)
	}
	if logJSON {
		c.LogJSON = true
	}
	if metricsTextfile != "" {
		c.MetricsTextfile = metricsTextfile
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func newLogger(c *config.Config) logging.Logger {
	format := logging.FormatAuto
	if c.LogJSON {
		format = logging.FormatJSON
	}
	return logging.NewLogger(&logging.Config{
		Level:     logging.Level(c.LogLevel),
		Component: "attend",
		Format:    format,
		Output:    os.Stderr,
	})
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash, and build time of the attend CLI.

Examples:
  attend version
  attend version --output json`,
	RunE: func(c *cobra.Command, args []string) error {
		info := buildinfo.Get()

		switch config.OutputFormat(outputFormat) {
		case config.OutputFormatJSON:
			return outputJSON(c.OutOrStdout(), info)
		case config.OutputFormatYAML:
			return outputYAML(c.OutOrStdout(), info)
		}

		out := c.OutOrStdout()
		fmt.Fprintf(out, "attend version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
		fmt.Fprintf(out, "  platform:   %s\n", info.Platform)
		return nil
	},
}

// configCmd groups the configuration subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and modify the attend CLI configuration settings.`,
}

// configShowCmd displays current configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration: the config file overlaid with
ATTEND_* environment variables and global flags.`,
	RunE: func(c *cobra.Command, args []string) error {
		current, err := loadConfig()
		if err != nil {
			return err
		}
		path, _ := configPath()

		out := c.OutOrStdout()
		switch current.Output.Format {
		case config.OutputFormatJSON:
			doc, err := current.Document()
			if err != nil {
				return err
			}
			return outputJSON(out, doc)
		case config.OutputFormatYAML:
			return outputYAML(out, current)
		}

		fmt.Fprintf(out, "# Config file: %s\n", path)
		return outputYAML(out, current)
	},
}

// configInitCmd initializes configuration.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default values if one doesn't exist.`,
	RunE: func(c *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}
		out := c.OutOrStdout()

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "Configuration file already exists: %s\n", path)
			fmt.Fprintln(out, "Use 'attend config show' to view current settings.")
			return nil
		}

		defaults := config.DefaultConfig()
		if err := config.SaveConfigTo(defaults, path); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Fprintf(out, "Created configuration file: %s\n", path)
		fmt.Fprintln(out, "\nDefault settings:")
		fmt.Fprintf(out, "  Datetime pattern: %s\n", defaults.Attendance.DatetimePattern)
		fmt.Fprintf(out, "  Min fraction:     %.2f\n", defaults.Qualification.MinAttendanceFraction)
		fmt.Fprintf(out, "  Sink:             %s\n", defaults.Sink.Type)
		return nil
	},
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file. The result is validated
before it is saved.

Section headings are set with attendance.headings.<section>, where section
is start_time, participants, meeting_activities or video_audio_consent.

Examples:
  attend config set attendance.datetime_pattern "%m/%d/%y, %I:%M:%S %p"
  attend config set export.encoding utf-16
  attend config set export.delimiter tab
  attend config set qualification.min_attendance_fraction 0.8
  attend config set sink.type postgres
  attend config set attendance.headings.participants "2. Participants"`,
	Args: cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		path, err := configPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}
		current, err := config.LoadConfigFrom(path)
		if err != nil {
			// A broken file is repaired one key at a time from the defaults.
			current = config.DefaultConfig()
		}

		if err := current.Set(key, value); err != nil {
			return err
		}
		if err := config.SaveConfigTo(current, path); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Fprintf(c.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for attend.

To load completions:

Bash:
  $ source <(attend completion bash)

Zsh:
  $ attend completion zsh > "${fpath[1]}/_attend"

Fish:
  $ attend completion fish | source

PowerShell:
  PS> attend completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(c *cobra.Command, args []string) error {
		out := c.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.attend/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	rootCmd.AddGroup(
		&cobra.Group{ID: "attendance", Title: "Attendance:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	for _, c := range []*cobra.Command{
		cmd.NewQualifyCommand(appDeps),
		cmd.NewReportCommand(appDeps),
		cmd.NewInspectCommand(appDeps),
	} {
		c.GroupID = "attendance"
		rootCmd.AddCommand(c)
	}

	authCmd := cmd.NewAuthCommand(appDeps)
	authCmd.GroupID = "setup"
	rootCmd.AddCommand(authCmd)

	configCmd.GroupID = "setup"
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)

	completionCmd.GroupID = "setup"
	rootCmd.AddCommand(completionCmd)

	versionCmd.GroupID = "setup"
	rootCmd.AddCommand(versionCmd)

	registry.MustRegister(collectors.NewGoCollector())
}

func main() {
	// Set up signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	cmdErr := rootCmd.ExecuteContext(ctx)

	writeMetrics()

	if cmdErr != nil {
		printError(os.Stderr, cmdErr)
		os.Exit(exitCode(cmdErr))
	}
}

// writeMetrics exports the run's metrics when a textfile is configured.
func writeMetrics() {
	if cfg == nil || cfg.MetricsTextfile == "" {
		return
	}
	path, err := config.ExpandPath(cfg.MetricsTextfile)
	if err == nil {
		err = observability.WriteTextfile(path, registry)
	}
	if err != nil {
		logger.Warn("Metrics not written", logging.F("path", cfg.MetricsTextfile), logging.Err(err))
		return
	}
	logger.Debug("Metrics written",
		logging.F("path", path),
		logging.F("duration", time.Since(cmdStartTime)))
}

// printError writes err and, for classified errors, what to try next.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	code := aterrors.CodeOf(err)
	if code == aterrors.CodeUnknown || code == aterrors.CodeCancelled {
		return
	}
	fmt.Fprintf(w, "  %s\n", aterrors.GetDescription(code))
	fmt.Fprintf(w, "  Try: %s\n", aterrors.GetSuggestedAction(code))
}

// exitCode maps err to the process exit status.
func exitCode(err error) int {
	switch aterrors.CodeOf(err) {
	case "":
		return exitOK
	case aterrors.CodeCancelled:
		return exitCancelled
	case aterrors.CodeInvalidConfig:
		return exitUsage
	}
	if errors.Is(err, context.Canceled) {
		return exitCancelled
	}
	return exitFailure
}

// outputJSON outputs data as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML outputs data as YAML.
func outputYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(v)
}
