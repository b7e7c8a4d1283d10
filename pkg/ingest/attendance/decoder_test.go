package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

func at(hour, min, sec int) time.Time {
	return time.Date(2024, time.March, 21, hour, min, sec, 0, time.UTC)
}

func newSampleDecoder(t *testing.T, rows [][]string) *Decoder {
	t.Helper()
	d, err := NewDecoder(rows, DefaultOptions())
	require.NoError(t, err)
	return d
}

func TestDecoder_StartTime(t *testing.T) {
	d := newSampleDecoder(t, sampleRows())

	got, err := d.StartTime()
	require.NoError(t, err)
	assert.Equal(t, at(14, 15, 7), got)
}

func TestDecoder_StartTime_MinimalTable(t *testing.T) {
	rows := [][]string{
		{"Start time"},
		{""},
		{"", "03/21/24, 02:15:07 PM"},
	}
	d := newSampleDecoder(t, rows)

	got, err := d.StartTime()
	require.NoError(t, err)
	assert.True(t, got.Equal(at(14, 15, 7)))
}

func TestDecoder_Participants(t *testing.T) {
	d := newSampleDecoder(t, sampleRows())

	participants, err := d.Participants()
	require.NoError(t, err)
	require.Len(t, participants, 2)

	assert.Equal(t, Participant{
		Name:              "Alice Smith",
		Email:             "alice@example.com",
		FirstJoin:         at(14, 14, 0),
		LastLeave:         at(15, 1, 0),
		InMeetingDuration: "47m",
		ParticipantID:     "alice@example.com",
		Role:              "Organizer",
	}, participants[0])
	assert.Equal(t, "bob@example.com", participants[1].Email)
	assert.Equal(t, at(14, 20, 30), participants[1].FirstJoin)
}

func TestDecoder_InMeetingActivities(t *testing.T) {
	d := newSampleDecoder(t, sampleRows())

	activities, err := d.InMeetingActivities()
	require.NoError(t, err)
	require.Len(t, activities, 3)

	assert.Equal(t, InMeetingActivity{
		Name:      "Alice Smith",
		Email:     "alice@example.com",
		JoinTime:  at(14, 14, 0),
		LeaveTime: at(14, 40, 0),
		Duration:  "26m",
		Role:      "Organizer",
	}, activities[0])
	assert.Equal(t, "bob@example.com", activities[1].Email)
	assert.Equal(t, at(14, 45, 0), activities[2].JoinTime)
}

func TestDecoder_RepeatedCallsAreEqual(t *testing.T) {
	d := newSampleDecoder(t, sampleRows())

	s1, err := d.StartTime()
	require.NoError(t, err)
	s2, err := d.StartTime()
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	p1, err := d.Participants()
	require.NoError(t, err)
	p2, err := d.Participants()
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	a1, err := d.InMeetingActivities()
	require.NoError(t, err)
	a2, err := d.InMeetingActivities()
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestDecoder_SnapshotsRows(t *testing.T) {
	rows := sampleRows()
	d := newSampleDecoder(t, rows)

	rows[6][4] = "mallory@example.com"
	rows[2] = []string{"garbage"}

	participants, err := d.Participants()
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", participants[0].Email)

	_, err = d.StartTime()
	assert.NoError(t, err)
}

func TestDecoder_LeadingRowsShiftOffsetsOnly(t *testing.T) {
	base := newSampleDecoder(t, sampleRows())

	shifted := append([][]string{
		{"1. Summary"},
		{"Meeting title", "Weekly sync"},
		{},
	}, sampleRows()...)
	moved := newSampleDecoder(t, shifted)

	for _, label := range AllSections() {
		a, _ := base.Offsets().Offset(label)
		b, _ := moved.Offsets().Offset(label)
		assert.Equal(t, a+3, b, "section %s", label)
	}

	s1, _ := base.StartTime()
	s2, _ := moved.StartTime()
	assert.Equal(t, s1, s2)

	p1, _ := base.Participants()
	p2, _ := moved.Participants()
	assert.Equal(t, p1, p2)

	a1, _ := base.InMeetingActivities()
	a2, _ := moved.InMeetingActivities()
	assert.Equal(t, a1, a2)
}

func TestDecoder_MissingSection(t *testing.T) {
	rows := sampleRows()[:15] // drop the consent section
	d := newSampleDecoder(t, rows)

	_, err := d.Participants()
	require.NoError(t, err, "participants do not depend on the consent section")

	_, err = d.InMeetingActivities()
	require.Error(t, err)
	assert.True(t, aterrors.IsMissingSection(err))

	d = newSampleDecoder(t, [][]string{{"nothing here"}})
	_, err = d.StartTime()
	assert.True(t, aterrors.IsMissingSection(err))
}

func TestDecoder_EmptySection(t *testing.T) {
	rows := [][]string{
		{"2. Participants"},
		{"Name", "First Join"},
		{},
		{"3. In-Meeting Activities"},
		{"Name", "Join Time"},
		{},
		{"4. Explicit Audio and Video Consent Information"},
	}
	d := newSampleDecoder(t, rows)

	participants, err := d.Participants()
	require.NoError(t, err)
	assert.Empty(t, participants)

	activities, err := d.InMeetingActivities()
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestDecoder_InvertedRangeIsEmpty(t *testing.T) {
	// Activities heading before participants: the participant range ends
	// before it starts.
	rows := [][]string{
		{"3. In-Meeting Activities"},
		{},
		{"2. Participants"},
		{},
	}
	d := newSampleDecoder(t, rows)

	participants, err := d.Participants()
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestDecoder_MalformedRow(t *testing.T) {
	rows := sampleRows()
	rows[7] = []string{"Bob Jones", "03/21/24, 02:20:30 PM"}
	d := newSampleDecoder(t, rows)

	_, err := d.Participants()
	require.Error(t, err)
	assert.True(t, aterrors.IsMalformedRow(err))
	assert.Contains(t, err.Error(), "row 7")
}

func TestDecoder_StartTimeRowPastEnd(t *testing.T) {
	d := newSampleDecoder(t, [][]string{{"Start time"}})

	_, err := d.StartTime()
	require.Error(t, err)
	assert.True(t, aterrors.IsMalformedRow(err))
}

func TestDecoder_FormatError(t *testing.T) {
	rows := sampleRows()
	rows[12][2] = "2024-03-21 14:50"
	d := newSampleDecoder(t, rows)

	_, err := d.InMeetingActivities()
	require.Error(t, err)
	assert.True(t, aterrors.IsFormat(err))

	var de *aterrors.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 12, de.Row)
	assert.Equal(t, 2, de.Field)
	assert.Equal(t, "meeting_activities", de.Section)
}

func TestDecoder_GoLayoutPattern(t *testing.T) {
	rows := [][]string{
		{"Start time"},
		{},
		{"", "3/21/24, 2:15:07 PM"},
	}
	d, err := NewDecoder(rows, Options{DatetimePattern: "1/2/06, 3:04:05 PM"})
	require.NoError(t, err)

	got, err := d.StartTime()
	require.NoError(t, err)
	assert.Equal(t, at(14, 15, 7), got)
}

func TestNewDecoder_InvalidPattern(t *testing.T) {
	_, err := NewDecoder(sampleRows(), Options{})
	require.Error(t, err)
	assert.True(t, aterrors.IsInvalidConfig(err))
}

func TestParseTime_DefaultPattern(t *testing.T) {
	got, err := ParseTime(DefaultDatetimePattern, "03/21/24, 02:15:07 PM")
	require.NoError(t, err)
	assert.Equal(t, at(14, 15, 7), got)

	_, err = ParseTime(DefaultDatetimePattern, "21.03.2024 14:15")
	assert.Error(t, err)
}
