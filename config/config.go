// Package config provides configuration management for the attend command-line tool.
// It supports loading configuration from YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
	"github.com/otherjamesbrown/attend-cli/pkg/ingest/attendance"
	"github.com/otherjamesbrown/attend-cli/pkg/ingest/table"
	"github.com/otherjamesbrown/attend-cli/pkg/logging"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// SinkType selects where qualification results are written.
type SinkType string

const (
	SinkStdout   SinkType = "stdout"
	SinkFile     SinkType = "file"
	SinkPostgres SinkType = "postgres"
	SinkRedis    SinkType = "redis"
)

// Default configuration values.
const (
	DefaultConfigDir       = ".attend"
	DefaultConfigFile      = "config.yaml"
	DefaultOutputFormat    = OutputFormatText
	DefaultOutputDelimiter = ","
	DefaultMinFraction     = 0.75
	DefaultSinkType        = SinkStdout
	DefaultSinkTable       = "attendance_runs"
	DefaultSinkChannel     = "events.attendance.qualified"
	DefaultKeyPrefix       = "attendance:qualified:"
	DefaultKeyTTL          = 7 * 24 * time.Hour
	DefaultRedisAddr       = "localhost:6379"
	DefaultLogLevel        = "warn"
)

// ExportConfig describes how export files are read.
type ExportConfig struct {
	// Encoding is a WHATWG label or utf-16 variant.
	Encoding string `yaml:"encoding"`

	// Delimiter separates fields; "tab" and "\t" are accepted.
	Delimiter string `yaml:"delimiter"`
}

// AttendanceConfig describes the export layout.
type AttendanceConfig struct {
	// DatetimePattern is an strftime pattern, or a Go layout when it has no '%'.
	DatetimePattern string `yaml:"datetime_pattern"`

	// Headings maps section labels (start_time, participants,
	// meeting_activities, video_audio_consent) to the heading text in
	// the export's first column.
	Headings map[string]string `yaml:"headings"`
}

// QualificationConfig holds the default qualification criteria.
type QualificationConfig struct {
	MinAttendanceFraction float64 `yaml:"min_attendance_fraction"`
}

// OutputConfig controls how results are rendered on stdout.
type OutputConfig struct {
	Format    OutputFormat `yaml:"format"`
	Delimiter string       `yaml:"delimiter"`
}

// PostgresConfig holds connection settings for the postgres sink.
// The password comes from the credential store.
type PostgresConfig struct {
	URL      string `yaml:"url,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// RedisConfig holds connection settings for the redis sink.
// The password comes from the credential store.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Username string `yaml:"username,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// SinkConfig selects and configures the result sink.
type SinkConfig struct {
	Type SinkType `yaml:"type"`

	// Path is the output file for the file sink; "-" means stdout.
	Path string `yaml:"path,omitempty"`

	// Table is the postgres table receiving run rows.
	Table string `yaml:"table,omitempty"`

	// Channel is the redis pub/sub channel for result events.
	Channel string `yaml:"channel,omitempty"`

	// KeyPrefix prefixes the redis key holding the delimited result.
	KeyPrefix string `yaml:"key_prefix,omitempty"`

	// KeyTTL expires the redis key; zero keeps it forever.
	KeyTTL time.Duration `yaml:"-"`

	Postgres PostgresConfig `yaml:"postgres,omitempty"`
	Redis    RedisConfig    `yaml:"redis,omitempty"`
}

// Config holds the attend configuration settings.
type Config struct {
	Export        ExportConfig        `yaml:"export"`
	Attendance    AttendanceConfig    `yaml:"attendance"`
	Qualification QualificationConfig `yaml:"qualification"`
	Output        OutputConfig        `yaml:"output"`
	Sink          SinkConfig          `yaml:"sink"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// LogJSON forces JSON logs even on a terminal.
	LogJSON bool `yaml:"log_json,omitempty"`

	// MetricsTextfile, when set, receives Prometheus metrics after each run.
	MetricsTextfile string `yaml:"metrics_textfile,omitempty"`
}

// DefaultConfig returns a Config matching the stock meeting export.
func DefaultConfig() *Config {
	headings := make(map[string]string, len(attendance.DefaultHeadingText))
	for label, text := range attendance.DefaultHeadingText {
		headings[label.String()] = text
	}

	return &Config{
		Export: ExportConfig{
			Encoding:  table.DefaultEncoding,
			Delimiter: table.DefaultDelimiter,
		},
		Attendance: AttendanceConfig{
			DatetimePattern: attendance.DefaultDatetimePattern,
			Headings:        headings,
		},
		Qualification: QualificationConfig{
			MinAttendanceFraction: DefaultMinFraction,
		},
		Output: OutputConfig{
			Format:    DefaultOutputFormat,
			Delimiter: DefaultOutputDelimiter,
		},
		Sink: SinkConfig{
			Type:      DefaultSinkType,
			Path:      "-",
			Table:     DefaultSinkTable,
			Channel:   DefaultSinkChannel,
			KeyPrefix: DefaultKeyPrefix,
			KeyTTL:    DefaultKeyTTL,
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "attendance",
				User:     "attend",
				SSLMode:  "prefer",
			},
			Redis: RedisConfig{
				Addr: DefaultRedisAddr,
			},
		},
		LogLevel: DefaultLogLevel,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $ATTEND_CONFIG_DIR if set, otherwise ~/.attend
func ConfigDir() (string, error) {
	if dir := os.Getenv("ATTEND_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.attend/config.yaml or $ATTEND_CONFIG_DIR/config.yaml)
// 3. Environment variables (ATTEND_*)
func LoadConfig() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom is LoadConfig with an explicit file path. A missing file
// is not an error.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// sinkFile mirrors SinkConfig with the TTL as a duration string.
type sinkFile struct {
	Type      SinkType       `yaml:"type"`
	Path      string         `yaml:"path,omitempty"`
	Table     string         `yaml:"table,omitempty"`
	Channel   string         `yaml:"channel,omitempty"`
	KeyPrefix string         `yaml:"key_prefix,omitempty"`
	KeyTTL    string         `yaml:"key_ttl,omitempty"`
	Postgres  PostgresConfig `yaml:"postgres,omitempty"`
	Redis     RedisConfig    `yaml:"redis,omitempty"`
}

type configFile struct {
	Export          ExportConfig        `yaml:"export"`
	Attendance      AttendanceConfig    `yaml:"attendance"`
	Qualification   QualificationConfig `yaml:"qualification"`
	Output          OutputConfig        `yaml:"output"`
	Sink            sinkFile            `yaml:"sink"`
	LogLevel        string              `yaml:"log_level"`
	LogJSON         bool                `yaml:"log_json,omitempty"`
	MetricsTextfile string              `yaml:"metrics_textfile,omitempty"`
}

// loadFromFile overlays the YAML file at path onto cfg. Only keys present
// in the file replace defaults.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	fileCfg := toFile(cfg)
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("%w: parsing config file: %v", aterrors.ErrInvalidConfig, err)
	}

	return fromFile(cfg, fileCfg)
}

func toFile(cfg *Config) configFile {
	ttl := ""
	if cfg.Sink.KeyTTL != 0 {
		ttl = cfg.Sink.KeyTTL.String()
	}
	return configFile{
		Export:        cfg.Export,
		Attendance:    cfg.Attendance,
		Qualification: cfg.Qualification,
		Output:        cfg.Output,
		Sink: sinkFile{
			Type:      cfg.Sink.Type,
			Path:      cfg.Sink.Path,
			Table:     cfg.Sink.Table,
			Channel:   cfg.Sink.Channel,
			KeyPrefix: cfg.Sink.KeyPrefix,
			KeyTTL:    ttl,
			Postgres:  cfg.Sink.Postgres,
			Redis:     cfg.Sink.Redis,
		},
		LogLevel:        cfg.LogLevel,
		LogJSON:         cfg.LogJSON,
		MetricsTextfile: cfg.MetricsTextfile,
	}
}

func fromFile(cfg *Config, f configFile) error {
	var ttl time.Duration
	if f.Sink.KeyTTL != "" {
		d, err := time.ParseDuration(f.Sink.KeyTTL)
		if err != nil {
			return fmt.Errorf("%w: parsing sink.key_ttl: %v", aterrors.ErrInvalidConfig, err)
		}
		ttl = d
	}

	cfg.Export = f.Export
	cfg.Attendance = f.Attendance
	cfg.Qualification = f.Qualification
	cfg.Output = f.Output
	cfg.Sink = SinkConfig{
		Type:      f.Sink.Type,
		Path:      f.Sink.Path,
		Table:     f.Sink.Table,
		Channel:   f.Sink.Channel,
		KeyPrefix: f.Sink.KeyPrefix,
		KeyTTL:    ttl,
		Postgres:  f.Sink.Postgres,
		Redis:     f.Sink.Redis,
	}
	cfg.LogLevel = f.LogLevel
	cfg.LogJSON = f.LogJSON
	cfg.MetricsTextfile = f.MetricsTextfile
	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
// Unparseable numeric values are ignored.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("ATTEND_ENCODING"); v != "" {
		cfg.Export.Encoding = v
	}
	if v := os.Getenv("ATTEND_DELIMITER"); v != "" {
		cfg.Export.Delimiter = v
	}
	if v := os.Getenv("ATTEND_DATETIME_PATTERN"); v != "" {
		cfg.Attendance.DatetimePattern = v
	}
	if v := os.Getenv("ATTEND_MIN_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Qualification.MinAttendanceFraction = f
		}
	}
	if v := os.Getenv("ATTEND_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = OutputFormat(v)
	}
	if v := os.Getenv("ATTEND_SINK"); v != "" {
		cfg.Sink.Type = SinkType(v)
	}
	if v := os.Getenv("ATTEND_SINK_PATH"); v != "" {
		cfg.Sink.Path = v
	}
	if v := os.Getenv("ATTEND_REDIS_ADDR"); v != "" {
		cfg.Sink.Redis.Addr = v
	}
	if v := os.Getenv("ATTEND_PG_URL"); v != "" {
		cfg.Sink.Postgres.URL = v
	}
	if v := os.Getenv("ATTEND_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ATTEND_LOG_JSON"); v == "true" || v == "1" {
		cfg.LogJSON = true
	}
	if v := os.Getenv("ATTEND_METRICS_TEXTFILE"); v != "" {
		cfg.MetricsTextfile = v
	}
}

// Validate checks that the configuration is valid. Errors wrap
// aterrors.ErrInvalidConfig.
func (c *Config) Validate() error {
	if _, err := table.LookupEncoding(c.Export.Encoding); err != nil {
		return fmt.Errorf("export.encoding: %w", err)
	}
	if _, err := table.ParseDelimiter(c.Export.Delimiter); err != nil {
		return fmt.Errorf("export.delimiter: %w", err)
	}
	if _, err := attendance.TimeLayout(c.Attendance.DatetimePattern); err != nil {
		return fmt.Errorf("attendance.datetime_pattern: %w", err)
	}
	if _, err := c.HeadingMapping(); err != nil {
		return fmt.Errorf("attendance.headings: %w", err)
	}
	if f := c.Qualification.MinAttendanceFraction; f < 0 || f > 1 {
		return invalid("qualification.min_attendance_fraction must be within [0, 1], got %v", f)
	}
	if !c.Output.Format.IsValid() {
		return invalid("invalid output.format: %q (must be text, json, or yaml)", c.Output.Format)
	}
	if c.Output.Delimiter == "" {
		return invalid("output.delimiter must not be empty")
	}
	if !c.Sink.Type.IsValid() {
		return invalid("invalid sink.type: %q (must be stdout, file, postgres, or redis)", c.Sink.Type)
	}
	if c.Sink.Type == SinkFile && c.Sink.Path == "" {
		return invalid("sink.path is required for the file sink")
	}
	if c.Sink.Type == SinkPostgres && c.Sink.Table == "" {
		return invalid("sink.table is required for the postgres sink")
	}
	if c.Sink.Type == SinkRedis && c.Sink.Redis.Addr == "" {
		return invalid("sink.redis.addr is required for the redis sink")
	}
	if c.Sink.KeyTTL < 0 {
		return invalid("sink.key_ttl must not be negative")
	}
	if !logging.ValidLevel(c.LogLevel) {
		return invalid("invalid log_level: %q (must be debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{aterrors.ErrInvalidConfig}, args...)...)
}

// HeadingMapping converts the configured headings into the decoder's
// heading-text to section mapping.
func (c *Config) HeadingMapping() (attendance.HeadingMapping, error) {
	text := make(map[attendance.SectionLabel]string, len(c.Attendance.Headings))
	for name, heading := range c.Attendance.Headings {
		label, err := attendance.ParseSectionLabel(name)
		if err != nil {
			return nil, err
		}
		text[label] = heading
	}
	m := attendance.HeadingsFromText(text)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// DecoderOptions returns the attendance decoder options.
func (c *Config) DecoderOptions() (attendance.Options, error) {
	headings, err := c.HeadingMapping()
	if err != nil {
		return attendance.Options{}, err
	}
	return attendance.Options{
		DatetimePattern: c.Attendance.DatetimePattern,
		Headings:        headings,
	}, nil
}

// TableOptions returns the row source options.
func (c *Config) TableOptions() table.Options {
	return table.Options{
		Encoding:  c.Export.Encoding,
		Delimiter: c.Export.Delimiter,
	}
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// IsValid checks if the sink type is known.
func (t SinkType) IsValid() bool {
	switch t {
	case SinkStdout, SinkFile, SinkPostgres, SinkRedis:
		return true
	default:
		return false
	}
}

// MarshalYAML renders the file layout, with sink.key_ttl as a duration
// string.
func (c *Config) MarshalYAML() (interface{}, error) {
	return toFile(c), nil
}

// Document returns the configuration keyed as in the config file.
func (c *Config) Document() (map[string]interface{}, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	doc := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return doc, nil
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}
	return SaveConfigTo(cfg, configPath)
}

// SaveConfigTo writes cfg as YAML to path, creating the directory.
func SaveConfigTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	fileCfg := toFile(cfg)
	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// settableKeys lists keys accepted by Set.
var settableKeys = map[string]func(*Config, string) error{
	"export.encoding":                       func(c *Config, v string) error { c.Export.Encoding = v; return nil },
	"export.delimiter":                      func(c *Config, v string) error { c.Export.Delimiter = v; return nil },
	"attendance.datetime_pattern":           func(c *Config, v string) error { c.Attendance.DatetimePattern = v; return nil },
	"qualification.min_attendance_fraction": setFloat(func(c *Config) *float64 { return &c.Qualification.MinAttendanceFraction }),
	"output.format":                         func(c *Config, v string) error { c.Output.Format = OutputFormat(v); return nil },
	"output.delimiter":                      func(c *Config, v string) error { c.Output.Delimiter = v; return nil },
	"sink.type":                             func(c *Config, v string) error { c.Sink.Type = SinkType(v); return nil },
	"sink.path":                             func(c *Config, v string) error { c.Sink.Path = v; return nil },
	"sink.table":                            func(c *Config, v string) error { c.Sink.Table = v; return nil },
	"sink.channel":                          func(c *Config, v string) error { c.Sink.Channel = v; return nil },
	"sink.key_ttl":                          setDuration(func(c *Config) *time.Duration { return &c.Sink.KeyTTL }),
	"sink.redis.addr":                       func(c *Config, v string) error { c.Sink.Redis.Addr = v; return nil },
	"sink.postgres.url":                     func(c *Config, v string) error { c.Sink.Postgres.URL = v; return nil },
	"log_level":                             func(c *Config, v string) error { c.LogLevel = v; return nil },
	"log_json":                              setBool(func(c *Config) *bool { return &c.LogJSON }),
	"metrics_textfile":                      func(c *Config, v string) error { c.MetricsTextfile = v; return nil },
}

// SettableKeys returns the keys accepted by Set, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to the dotted key. Headings are set with
// attendance.headings.<section>. The result is validated.
func (c *Config) Set(key, value string) error {
	if section, ok := strings.CutPrefix(key, "attendance.headings."); ok {
		if _, err := attendance.ParseSectionLabel(section); err != nil {
			return err
		}
		if c.Attendance.Headings == nil {
			c.Attendance.Headings = make(map[string]string)
		}
		c.Attendance.Headings[section] = value
		return c.Validate()
	}

	set, ok := settableKeys[key]
	if !ok {
		return invalid("unknown key %q (valid keys: %s, attendance.headings.<section>)", key, strings.Join(SettableKeys(), ", "))
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return c.Validate()
}

func setFloat(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return invalid("not a number: %q", v)
		}
		*field(c) = f
		return nil
	}
}

func setDuration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return invalid("not a duration: %q", v)
		}
		*field(c) = d
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return invalid("not a boolean: %q", v)
		}
		*field(c) = b
		return nil
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
