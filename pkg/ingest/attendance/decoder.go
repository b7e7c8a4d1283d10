package attendance

import (
	"strings"
	"time"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

// Options configures a Decoder.
type Options struct {
	// DatetimePattern is used for every timestamp field in every section.
	DatetimePattern string

	// Headings maps heading text to sections. Nil means DefaultHeadings.
	Headings HeadingMapping
}

// DefaultOptions returns the options for the default export format.
func DefaultOptions() Options {
	return Options{
		DatetimePattern: DefaultDatetimePattern,
		Headings:        DefaultHeadings(),
	}
}

// Decoder decodes the sections of one export. It holds a private copy of
// the rows taken at construction. Accessors decode on every call.
type Decoder struct {
	rows    [][]string
	offsets SectionOffsets
	layout  string
}

// NewDecoder snapshots rows and locates their sections.
func NewDecoder(rows [][]string, opts Options) (*Decoder, error) {
	layout, err := TimeLayout(opts.DatetimePattern)
	if err != nil {
		return nil, err
	}

	headings := opts.Headings
	if headings == nil {
		headings = DefaultHeadings()
	}

	snapshot := make([][]string, len(rows))
	for i, row := range rows {
		snapshot[i] = append([]string(nil), row...)
	}

	return &Decoder{
		rows:    snapshot,
		offsets: Locate(snapshot, headings),
		layout:  layout,
	}, nil
}

// Offsets returns the located section offsets.
func (d *Decoder) Offsets() SectionOffsets {
	return d.offsets
}

// RowCount returns the number of rows in the snapshot.
func (d *Decoder) RowCount() int {
	return len(d.rows)
}

// StartTime decodes the meeting start time.
func (d *Decoder) StartTime() (time.Time, error) {
	off, err := d.offsets.Require(SectionStartTime)
	if err != nil {
		return time.Time{}, err
	}

	row, err := d.row(SectionStartTime, off, startTimeFields)
	if err != nil {
		return time.Time{}, err
	}
	return d.parseTime(SectionStartTime, off, 1, row[1])
}

// Participants decodes the participant summary section.
func (d *Decoder) Participants() ([]Participant, error) {
	start, end, err := d.bounds(SectionParticipants, SectionMeetingActivities)
	if err != nil {
		return nil, err
	}

	participants := make([]Participant, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		row, err := d.row(SectionParticipants, i, participantFields)
		if err != nil {
			return nil, err
		}

		firstJoin, err := d.parseTime(SectionParticipants, i, 1, row[1])
		if err != nil {
			return nil, err
		}
		lastLeave, err := d.parseTime(SectionParticipants, i, 2, row[2])
		if err != nil {
			return nil, err
		}

		participants = append(participants, Participant{
			Name:              row[0],
			FirstJoin:         firstJoin,
			LastLeave:         lastLeave,
			InMeetingDuration: row[3],
			Email:             row[4],
			ParticipantID:     row[5],
			Role:              row[6],
		})
	}
	return participants, nil
}

// InMeetingActivities decodes the per-interval activity section.
func (d *Decoder) InMeetingActivities() ([]InMeetingActivity, error) {
	start, end, err := d.bounds(SectionMeetingActivities, SectionVideoAudioConsent)
	if err != nil {
		return nil, err
	}

	activities := make([]InMeetingActivity, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		row, err := d.row(SectionMeetingActivities, i, activityFields)
		if err != nil {
			return nil, err
		}

		joinTime, err := d.parseTime(SectionMeetingActivities, i, 1, row[1])
		if err != nil {
			return nil, err
		}
		leaveTime, err := d.parseTime(SectionMeetingActivities, i, 2, row[2])
		if err != nil {
			return nil, err
		}

		activities = append(activities, InMeetingActivity{
			Name:      row[0],
			JoinTime:  joinTime,
			LeaveTime: leaveTime,
			Duration:  row[3],
			Email:     row[4],
			Role:      row[5],
		})
	}
	return activities, nil
}

// bounds returns the half-open data range of section, which ends where the
// trailer before next begins.
func (d *Decoder) bounds(section, next SectionLabel) (int, int, error) {
	start, err := d.offsets.Require(section)
	if err != nil {
		return 0, 0, err
	}
	nextOff, err := d.offsets.Require(next)
	if err != nil {
		return 0, 0, err
	}
	return start, dataEnd(nextOff), nil
}

func (d *Decoder) row(section SectionLabel, index, want int) ([]string, error) {
	if index < 0 || index >= len(d.rows) {
		return nil, aterrors.MalformedRow(section.String(), index, -1, want)
	}
	row := d.rows[index]
	if len(row) < want {
		return nil, aterrors.MalformedRow(section.String(), index, len(row), want)
	}
	return row, nil
}

func (d *Decoder) parseTime(section SectionLabel, row, field int, value string) (time.Time, error) {
	t, err := time.Parse(d.layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, aterrors.Format(section.String(), row, field, value, err)
	}
	return t, nil
}
