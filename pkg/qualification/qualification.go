// Package qualification decides which participants attended enough of a
// session window.
//
// Overlap is computed per in-meeting activity and summed per email. The
// per-activity formula is kept exactly as the attendance tracker has always
// computed it: the overlap start is taken from the leave time and the
// overlap end from the join time, and negative results are not clamped.
// For an ordinary interval (join before leave) inside the window this yields
// a negative number of minutes. See OverlapMinutes.
package qualification

import (
	"math"
	"time"

	"github.com/otherjamesbrown/attend-cli/pkg/ingest/attendance"
)

// Window is a session time window, start inclusive and end exclusive.
type Window struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Minutes returns the window length in whole minutes, floored.
func (w Window) Minutes() int64 {
	return floorMinutes(w.End.Sub(w.Start))
}

// Criteria is a window plus the fraction of it a participant must attend.
// Neither field is validated here.
type Criteria struct {
	Window      Window  `json:"window" yaml:"window"`
	MinFraction float64 `json:"min_fraction" yaml:"min_fraction"`
}

// ParticipantTotal is the accumulated overlap for one email.
type ParticipantTotal struct {
	Email     string `json:"email" yaml:"email"`
	Minutes   int64  `json:"minutes" yaml:"minutes"`
	Qualified bool   `json:"qualified" yaml:"qualified"`
}

// Result is the outcome of evaluating activities against criteria.
type Result struct {
	Criteria         Criteria           `json:"criteria" yaml:"criteria"`
	ThresholdMinutes int64              `json:"threshold_minutes" yaml:"threshold_minutes"`
	Totals           []ParticipantTotal `json:"totals" yaml:"totals"`
	Qualified        []string           `json:"qualified" yaml:"qualified"`
}

// ThresholdMinutes returns floor(windowMinutes * minFraction). A window
// that ends at or before its start gives a threshold of zero or less.
func ThresholdMinutes(w Window, minFraction float64) int64 {
	return int64(math.Floor(float64(w.Minutes()) * minFraction))
}

// OverlapMinutes returns the minutes an activity contributes to w.
//
// An activity that joins at or after the window end contributes zero.
// Otherwise the contribution is floor((min(end, join) - max(start, leave)) / 1m),
// which may be negative.
func OverlapMinutes(a attendance.InMeetingActivity, w Window) int64 {
	if !a.JoinTime.Before(w.End) {
		return 0
	}
	start := latest(w.Start, a.LeaveTime)
	end := earliest(w.End, a.JoinTime)
	return floorMinutes(end.Sub(start))
}

// Evaluate accumulates overlap per email and compares each total with the
// threshold. Emails keep the order in which they first appear.
func Evaluate(activities []attendance.InMeetingActivity, c Criteria) *Result {
	threshold := ThresholdMinutes(c.Window, c.MinFraction)

	index := make(map[string]int)
	totals := make([]ParticipantTotal, 0)
	for _, a := range activities {
		i, ok := index[a.Email]
		if !ok {
			i = len(totals)
			index[a.Email] = i
			totals = append(totals, ParticipantTotal{Email: a.Email})
		}
		totals[i].Minutes += OverlapMinutes(a, c.Window)
	}

	qualified := make([]string, 0, len(totals))
	for i := range totals {
		if totals[i].Minutes >= threshold {
			totals[i].Qualified = true
			qualified = append(qualified, totals[i].Email)
		}
	}

	return &Result{
		Criteria:         c,
		ThresholdMinutes: threshold,
		Totals:           totals,
		Qualified:        qualified,
	}
}

// Qualify returns the emails whose accumulated overlap with
// [windowStart, windowEnd) is at least minFraction of the window.
func Qualify(activities []attendance.InMeetingActivity, windowStart, windowEnd time.Time, minFraction float64) []string {
	return Evaluate(activities, Criteria{
		Window:      Window{Start: windowStart, End: windowEnd},
		MinFraction: minFraction,
	}).Qualified
}

// floorMinutes divides d by one minute rounding toward negative infinity.
func floorMinutes(d time.Duration) int64 {
	m := d / time.Minute
	if d%time.Minute != 0 && d < 0 {
		m--
	}
	return int64(m)
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func earliest(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
