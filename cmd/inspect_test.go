package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/attend-cli/config"
	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
	"github.com/otherjamesbrown/attend-cli/pkg/tracker"
)

func TestInspect_Text(t *testing.T) {
	out, _, err := execute(t, NewInspectCommand(createTestDeps(mockConfig())), fixture)
	require.NoError(t, err)

	assert.Contains(t, out, "Rows:        18")
	assert.Contains(t, out, "Start time:  2024-03-21 14:15:07")
	assert.Regexp(t, `participants\s+row 6`, out)
	assert.Regexp(t, `meeting_activities\s+row 11`, out)
	assert.Contains(t, out, "Participants (2):")
	assert.Contains(t, out, "In-meeting activities (3):")
	assert.Contains(t, out, "Bob Jones")
}

func TestInspect_JSON(t *testing.T) {
	cfg := mockConfig()
	cfg.Output.Format = config.OutputFormatJSON

	out, _, err := execute(t, NewInspectCommand(createTestDeps(cfg)), fixture)
	require.NoError(t, err)

	var got tracker.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Offsets["start_time"])
	assert.Equal(t, 17, got.Offsets["video_audio_consent"])
	require.Len(t, got.Activities, 3)
	assert.Equal(t, "alice@example.com", got.Activities[2].Email)
}

func TestInspect_WrongDelimiter(t *testing.T) {
	// Split on a character the export never uses, every row is one field.
	_, _, err := execute(t, NewInspectCommand(createTestDeps(mockConfig())), fixture, "--export-delimiter", "|")
	require.Error(t, err)
	assert.Equal(t, aterrors.CodeMalformedRow, aterrors.CodeOf(err))
}

func TestInspect_UnknownEncoding(t *testing.T) {
	_, _, err := execute(t, NewInspectCommand(createTestDeps(mockConfig())), fixture, "--encoding", "klingon")
	require.Error(t, err)
	assert.True(t, aterrors.IsInvalidConfig(err))
}
