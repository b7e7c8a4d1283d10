// Package attendance decodes sectioned attendance exports from meeting
// platforms into typed records.
//
// An export is a flat table in which some rows carry a section heading in
// their first field. Locate maps each heading to the row where its data
// starts, and Decoder turns the row ranges between headings into records.
package attendance

import (
	"fmt"
	"strings"
	"time"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

// SectionLabel identifies a logical section of an attendance export.
type SectionLabel int

const (
	SectionStartTime SectionLabel = iota + 1
	SectionParticipants
	SectionMeetingActivities
	SectionVideoAudioConsent
)

var sectionNames = map[SectionLabel]string{
	SectionStartTime:         "start_time",
	SectionParticipants:      "participants",
	SectionMeetingActivities: "meeting_activities",
	SectionVideoAudioConsent: "video_audio_consent",
}

// AllSections returns every section label in export order.
func AllSections() []SectionLabel {
	return []SectionLabel{
		SectionStartTime,
		SectionParticipants,
		SectionMeetingActivities,
		SectionVideoAudioConsent,
	}
}

// String returns the snake_case name of the label.
func (l SectionLabel) String() string {
	if name, ok := sectionNames[l]; ok {
		return name
	}
	return fmt.Sprintf("section(%d)", int(l))
}

// IsValid reports whether l is one of the known labels.
func (l SectionLabel) IsValid() bool {
	_, ok := sectionNames[l]
	return ok
}

// ParseSectionLabel converts a snake_case name back into a label.
func ParseSectionLabel(s string) (SectionLabel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for label, name := range sectionNames {
		if name == s {
			return label, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown section label %q", aterrors.ErrInvalidConfig, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l SectionLabel) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("unknown section label %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *SectionLabel) UnmarshalText(text []byte) error {
	parsed, err := ParseSectionLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Participant is a participant's whole-meeting summary row.
type Participant struct {
	Name              string    `json:"name" yaml:"name"`
	Email             string    `json:"email" yaml:"email"`
	FirstJoin         time.Time `json:"first_join" yaml:"first_join"`
	LastLeave         time.Time `json:"last_leave" yaml:"last_leave"`
	InMeetingDuration string    `json:"in_meeting_duration" yaml:"in_meeting_duration"`
	ParticipantID     string    `json:"participant_id" yaml:"participant_id"`
	Role              string    `json:"role" yaml:"role"`
}

// InMeetingActivity is one contiguous presence interval of one participant.
// A participant who rejoins has several.
type InMeetingActivity struct {
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	JoinTime  time.Time `json:"join_time" yaml:"join_time"`
	LeaveTime time.Time `json:"leave_time" yaml:"leave_time"`
	Duration  string    `json:"duration" yaml:"duration"`
	Role      string    `json:"role" yaml:"role"`
}
