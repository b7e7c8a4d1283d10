package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/attend-cli/config"
	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
	"github.com/otherjamesbrown/attend-cli/pkg/observability"
	"github.com/otherjamesbrown/attend-cli/pkg/sink"
)

// Window 13:00-14:00 precedes every join, so each participant totals zero.
var earlyWindow = []string{"--start", "2024-03-21T13:00:00Z", "--end", "2024-03-21T14:00:00Z"}

func qualifyArgs(extra ...string) []string {
	return append(append([]string{fixture}, earlyWindow...), extra...)
}

func TestNewQualifyCommand(t *testing.T) {
	cmd := NewQualifyCommand(createTestDeps(mockConfig()))

	assert.Equal(t, "qualify <export>", cmd.Use)
	for _, name := range []string{"start", "end", "min-fraction", "sink", "output-path", "delimiter", "encoding", "export-delimiter"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestNewQualifyCommand_WithNilDeps(t *testing.T) {
	cmd := NewQualifyCommand(nil)
	assert.NotNil(t, cmd)
}

func TestQualify_StdoutSink(t *testing.T) {
	cmd := NewQualifyCommand(createTestDeps(mockConfig()))

	out, _, err := execute(t, cmd, qualifyArgs("--min-fraction", "0")...)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com,bob@example.com\n", out)
}

func TestQualify_DatetimePatternFlags(t *testing.T) {
	cmd := NewQualifyCommand(createTestDeps(mockConfig()))

	out, _, err := execute(t, cmd, fixture,
		"--start", "03/21/24, 01:00:00 PM",
		"--end", "03/21/24, 02:00:00 PM",
		"--min-fraction", "0",
		"--delimiter", ";")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com;bob@example.com\n", out)
}

func TestQualify_NobodyQualifies(t *testing.T) {
	cmd := NewQualifyCommand(createTestDeps(mockConfig()))

	out, _, err := execute(t, cmd, fixture,
		"--start", "2024-03-21T14:00:00Z",
		"--end", "2024-03-21T15:00:00Z",
		"--min-fraction", "0.5")
	require.NoError(t, err)
	assert.Equal(t, "\n", out)
}

func TestQualify_ConfigFractionUsedWithoutFlag(t *testing.T) {
	cfg := mockConfig()
	cfg.Qualification.MinAttendanceFraction = 0.5

	out, _, err := execute(t, NewQualifyCommand(createTestDeps(cfg)), qualifyArgs()...)
	require.NoError(t, err)
	assert.Equal(t, "\n", out, "threshold 30 is out of reach of zero-minute totals")
}

func TestQualify_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qualified.txt")
	cmd := NewQualifyCommand(createTestDeps(mockConfig()))

	out, errOut, err := execute(t, cmd, qualifyArgs("--min-fraction", "0", "--output-path", path)...)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Qualified 2 of 2 participants")
	assert.Contains(t, errOut, "file sink")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com,bob@example.com", string(data))
}

func TestQualify_JSONOutput(t *testing.T) {
	cfg := mockConfig()
	cfg.Output.Format = config.OutputFormatJSON

	out, _, err := execute(t, NewQualifyCommand(createTestDeps(cfg)), qualifyArgs("--min-fraction", "0")...)
	require.NoError(t, err)

	var got QualifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Report)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, got.Report.Qualified)
	assert.Equal(t, int64(0), got.Report.ThresholdMinutes)
	assert.Equal(t, "stdout", got.Sink)
	assert.Equal(t, 2, got.Participants)
	assert.NotEmpty(t, got.Report.RunID)
}

func TestQualify_CustomSink(t *testing.T) {
	rec := &recordingSink{name: "postgres"}
	cfg := mockConfig()
	deps := createTestDeps(cfg)
	reg := prometheus.NewRegistry()
	deps.Metrics = observability.NewMetrics(reg)
	deps.Registry = reg
	deps.OpenSink = func(_ context.Context, sc config.SinkConfig, sd sink.Deps) (sink.Sink, error) {
		assert.Equal(t, config.SinkPostgres, sc.Type)
		assert.NotNil(t, sd.Registerer)
		return rec, nil
	}

	_, _, err := execute(t, NewQualifyCommand(deps), qualifyArgs("--min-fraction", "0", "--sink", "postgres")...)
	require.NoError(t, err)

	require.Len(t, rec.reports, 1)
	assert.Equal(t, fixture, rec.reports[0].Source)
	assert.Equal(t, "alice@example.com,bob@example.com", rec.reports[0].Delimited())
	assert.True(t, rec.closed)
	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.SinkWritesTotal.WithLabelValues("postgres", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(deps.Metrics.QualificationsTotal))
}

func TestQualify_SinkWriteFailure(t *testing.T) {
	deps := createTestDeps(mockConfig())
	deps.OpenSink = func(context.Context, config.SinkConfig, sink.Deps) (sink.Sink, error) {
		return &recordingSink{name: "redis", err: errors.New("connection reset")}, nil
	}

	_, _, err := execute(t, NewQualifyCommand(deps), qualifyArgs("--sink", "redis")...)
	require.Error(t, err)
	assert.Equal(t, aterrors.CodeSink, aterrors.CodeOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestQualify_SinkOpenFailure(t *testing.T) {
	deps := createTestDeps(mockConfig())
	deps.OpenSink = func(context.Context, config.SinkConfig, sink.Deps) (sink.Sink, error) {
		return nil, &aterrors.SinkError{Sink: "postgres", Cause: errors.New("connection refused")}
	}

	_, _, err := execute(t, NewQualifyCommand(deps), qualifyArgs("--sink", "postgres")...)
	require.Error(t, err)
	assert.Equal(t, aterrors.CodeSink, aterrors.CodeOf(err))
}

func TestQualify_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code aterrors.ErrorCode
	}{
		{
			name: "fraction above one",
			args: qualifyArgs("--min-fraction", "1.5"),
			code: aterrors.CodeInvalidConfig,
		},
		{
			name: "unknown sink",
			args: qualifyArgs("--sink", "kafka"),
			code: aterrors.CodeInvalidConfig,
		},
		{
			name: "unparseable start",
			args: []string{fixture, "--start", "yesterday", "--end", "2024-03-21T14:00:00Z"},
			code: aterrors.CodeInvalidConfig,
		},
		{
			name: "missing export",
			args: append([]string{"testdata/absent.tsv"}, earlyWindow...),
			code: aterrors.CodeIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewQualifyCommand(createTestDeps(mockConfig())), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, aterrors.CodeOf(err), "error: %v", err)
		})
	}
}

func TestQualify_MissingSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headless.tsv")
	require.NoError(t, os.WriteFile(path, []byte("Start time\n\nMeeting start\t03/21/24, 02:15:07 PM\n"), 0600))

	_, _, err := execute(t, NewQualifyCommand(createTestDeps(mockConfig())), append([]string{path}, earlyWindow...)...)
	require.Error(t, err)
	assert.Equal(t, aterrors.CodeMissingSection, aterrors.CodeOf(err))
}

func TestQualify_RequiresWindowFlags(t *testing.T) {
	_, _, err := execute(t, NewQualifyCommand(createTestDeps(mockConfig())), fixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestParseWindowTime(t *testing.T) {
	pattern := mockConfig().Attendance.DatetimePattern

	got, err := parseWindowTime("start", pattern, "03/21/24, 02:15:07 PM")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-21T14:15:07Z", got.Format("2006-01-02T15:04:05Z07:00"))

	got, err = parseWindowTime("start", pattern, "2024-03-21T14:15:07Z")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Hour())

	_, err = parseWindowTime("end", pattern, "")
	assert.True(t, aterrors.IsInvalidConfig(err))

	_, err = parseWindowTime("end", pattern, "noon")
	require.Error(t, err)
	assert.True(t, aterrors.IsInvalidConfig(err))
	assert.Contains(t, err.Error(), "--end")
}
