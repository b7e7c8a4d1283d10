package attendance

import (
	"fmt"
	"sort"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

// DefaultHeadingText is the heading text the default mapping recognises for
// each section.
var DefaultHeadingText = map[SectionLabel]string{
	SectionStartTime:         "Start time",
	SectionParticipants:      "2. Participants",
	SectionMeetingActivities: "3. In-Meeting Activities",
	SectionVideoAudioConsent: "4. Explicit Audio and Video Consent Information",
}

// HeadingMapping maps raw heading text, as it appears in the first field of
// a row, to the section it introduces.
type HeadingMapping map[string]SectionLabel

// DefaultHeadings returns the mapping built from DefaultHeadingText.
func DefaultHeadings() HeadingMapping {
	return HeadingsFromText(DefaultHeadingText)
}

// HeadingsFromText builds a mapping from per-label heading text.
func HeadingsFromText(text map[SectionLabel]string) HeadingMapping {
	m := make(HeadingMapping, len(text))
	for label, heading := range text {
		m[heading] = label
	}
	return m
}

// Validate reports labels that are unknown or have no heading text.
func (m HeadingMapping) Validate() error {
	seen := make(map[SectionLabel]bool, len(m))
	for heading, label := range m {
		if !label.IsValid() {
			return fmt.Errorf("%w: heading %q maps to unknown section %d", aterrors.ErrInvalidConfig, heading, int(label))
		}
		if heading == "" {
			return fmt.Errorf("%w: section %s has an empty heading", aterrors.ErrInvalidConfig, label)
		}
		seen[label] = true
	}

	var missing []string
	for _, label := range AllSections() {
		if !seen[label] {
			missing = append(missing, label.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: no heading configured for: %v", aterrors.ErrInvalidConfig, missing)
	}
	return nil
}

// Clone returns a copy of the mapping.
func (m HeadingMapping) Clone() HeadingMapping {
	out := make(HeadingMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
