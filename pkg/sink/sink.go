// Package sink delivers qualification results to files, PostgreSQL and Redis.
package sink

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/attend-cli/pkg/qualification"
)

// DefaultDelimiter joins qualified emails, matching the historical output file.
const DefaultDelimiter = ","

// Sink receives one Report per qualification run.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string
	Write(ctx context.Context, r *Report) error
	Close() error
}

// Report is the persisted outcome of a qualification run.
type Report struct {
	RunID            string    `json:"run_id" yaml:"run_id"`
	Source           string    `json:"source" yaml:"source"`
	WindowStart      time.Time `json:"window_start" yaml:"window_start"`
	WindowEnd        time.Time `json:"window_end" yaml:"window_end"`
	MinFraction      float64   `json:"min_fraction" yaml:"min_fraction"`
	ThresholdMinutes int64     `json:"threshold_minutes" yaml:"threshold_minutes"`
	Qualified        []string  `json:"qualified" yaml:"qualified"`
	Delimiter        string    `json:"delimiter" yaml:"delimiter"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}

// NewReport builds a Report for res with a fresh run ID.
func NewReport(source string, res *qualification.Result, delimiter string) *Report {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	qualified := make([]string, len(res.Qualified))
	copy(qualified, res.Qualified)

	return &Report{
		RunID:            uuid.NewString(),
		Source:           source,
		WindowStart:      res.Criteria.Window.Start,
		WindowEnd:        res.Criteria.Window.End,
		MinFraction:      res.Criteria.MinFraction,
		ThresholdMinutes: res.ThresholdMinutes,
		Qualified:        qualified,
		Delimiter:        delimiter,
		CreatedAt:        time.Now().UTC(),
	}
}

// Delimited joins the qualified emails with the report's delimiter.
// No qualified emails yields an empty string.
func (r *Report) Delimited() string {
	d := r.Delimiter
	if d == "" {
		d = DefaultDelimiter
	}
	return strings.Join(r.Qualified, d)
}
