// Package tracker ties an export file to the decoder and the
// qualification engine, recording metrics and spans along the way.
package tracker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
	"github.com/otherjamesbrown/attend-cli/pkg/ingest/attendance"
	"github.com/otherjamesbrown/attend-cli/pkg/ingest/table"
	"github.com/otherjamesbrown/attend-cli/pkg/logging"
	"github.com/otherjamesbrown/attend-cli/pkg/observability"
	"github.com/otherjamesbrown/attend-cli/pkg/qualification"
	"github.com/otherjamesbrown/attend-cli/pkg/sink"
)

// Options configures a Tracker. Metrics, Tracer and Logger are optional.
type Options struct {
	Table   table.Options
	Decoder attendance.Options
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
	Logger  logging.Logger
}

// DefaultOptions returns options for the stock export format.
func DefaultOptions() Options {
	return Options{
		Table:   table.DefaultOptions(),
		Decoder: attendance.DefaultOptions(),
	}
}

// Tracker answers attendance questions about one export.
type Tracker struct {
	source  string
	decoder *attendance.Decoder
	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  logging.Logger
}

// Open reads the export at path and prepares a decoder over it.
func Open(ctx context.Context, path string, opts Options) (*Tracker, error) {
	t := newTracker(path, opts)

	ctx, span := t.startSpan(ctx, func(tr *observability.Tracer) (context.Context, trace.Span) {
		return tr.StartReadSpan(ctx, path)
	})
	rows, err := table.ReadFile(ctx, path, opts.Table)
	t.endSpan(span, err)
	if err != nil {
		return nil, err
	}

	if err := t.load(rows, opts.Decoder); err != nil {
		return nil, err
	}
	return t, nil
}

// New builds a Tracker over rows already in memory. source names them in
// reports.
func New(source string, rows [][]string, opts Options) (*Tracker, error) {
	t := newTracker(source, opts)
	if err := t.load(rows, opts.Decoder); err != nil {
		return nil, err
	}
	return t, nil
}

func newTracker(source string, opts Options) *Tracker {
	log := opts.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Tracker{
		source:  source,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		logger:  log.With(logging.F("source", source)),
	}
}

func (t *Tracker) load(rows [][]string, opts attendance.Options) error {
	d, err := attendance.NewDecoder(rows, opts)
	if err != nil {
		return err
	}
	t.decoder = d
	if t.metrics != nil {
		t.metrics.RecordRowsRead(len(rows))
	}
	t.logger.Debug("Export loaded",
		logging.F("rows", len(rows)),
		logging.F("sections", d.Offsets().Len()))
	return nil
}

// Source returns the export path or name.
func (t *Tracker) Source() string { return t.source }

// Decoder exposes the underlying decoder.
func (t *Tracker) Decoder() *attendance.Decoder { return t.decoder }

// Activities decodes the in-meeting activity section.
func (t *Tracker) Activities(ctx context.Context) ([]attendance.InMeetingActivity, error) {
	var out []attendance.InMeetingActivity
	err := t.decode(ctx, attendance.SectionMeetingActivities, func() (int, error) {
		var err error
		out, err = t.decoder.InMeetingActivities()
		return len(out), err
	})
	return out, err
}

// Participants decodes the participant section.
func (t *Tracker) Participants(ctx context.Context) ([]attendance.Participant, error) {
	var out []attendance.Participant
	err := t.decode(ctx, attendance.SectionParticipants, func() (int, error) {
		var err error
		out, err = t.decoder.Participants()
		return len(out), err
	})
	return out, err
}

// StartTime decodes the meeting start time.
func (t *Tracker) StartTime(ctx context.Context) (time.Time, error) {
	var out time.Time
	err := t.decode(ctx, attendance.SectionStartTime, func() (int, error) {
		var err error
		out, err = t.decoder.StartTime()
		return 1, err
	})
	return out, err
}

func (t *Tracker) decode(ctx context.Context, section attendance.SectionLabel, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, span := t.startSpan(ctx, func(tr *observability.Tracer) (context.Context, trace.Span) {
		return tr.StartDecodeSpan(ctx, section.String())
	})

	start := time.Now()
	n, err := fn()
	elapsed := time.Since(start)
	t.endSpan(span, err)

	if t.metrics != nil {
		if err != nil {
			t.metrics.RecordDecodeError(section.String(), string(aterrors.CodeOf(err)))
		} else {
			t.metrics.RecordDecoded(section.String(), n, elapsed.Seconds())
		}
	}
	if err != nil {
		t.logger.Debug("Section decode failed", logging.F("section", section.String()), logging.Err(err))
	}
	return err
}

// Evaluate decodes activities and evaluates them against c.
func (t *Tracker) Evaluate(ctx context.Context, c qualification.Criteria) (*qualification.Result, error) {
	activities, err := t.Activities(ctx)
	if err != nil {
		return nil, err
	}

	_, span := t.startSpan(ctx, func(tr *observability.Tracer) (context.Context, trace.Span) {
		return tr.StartQualifySpan(ctx, c.MinFraction)
	})
	res := qualification.Evaluate(activities, c)
	t.endSpan(span, nil)

	if t.metrics != nil {
		totals := make([]int64, len(res.Totals))
		for i, pt := range res.Totals {
			totals[i] = pt.Minutes
		}
		t.metrics.RecordQualification(len(res.Totals), len(res.Qualified), res.ThresholdMinutes, totals)
	}
	t.logger.WithContext(ctx).Info("Qualification evaluated",
		logging.F("threshold_minutes", res.ThresholdMinutes),
		logging.F("participants", len(res.Totals)),
		logging.F("qualified", len(res.Qualified)))
	return res, nil
}

// QualifiedParticipants returns the emails whose accumulated overlap with
// [start, end) reaches floor(window minutes * minFraction), in first-seen
// order.
func (t *Tracker) QualifiedParticipants(ctx context.Context, start, end time.Time, minFraction float64) ([]string, error) {
	res, err := t.Evaluate(ctx, qualification.Criteria{
		Window:      qualification.Window{Start: start, End: end},
		MinFraction: minFraction,
	})
	if err != nil {
		return nil, err
	}
	return res.Qualified, nil
}

// Report evaluates c and wraps the result for a sink.
func (t *Tracker) Report(ctx context.Context, c qualification.Criteria, delimiter string) (*sink.Report, *qualification.Result, error) {
	res, err := t.Evaluate(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	return sink.NewReport(t.source, res, delimiter), res, nil
}

// Summary describes an export's decoded contents.
type Summary struct {
	Source       string                         `json:"source" yaml:"source"`
	Rows         int                            `json:"rows" yaml:"rows"`
	Offsets      map[string]int                 `json:"offsets" yaml:"offsets"`
	StartTime    time.Time                      `json:"start_time" yaml:"start_time"`
	Participants []attendance.Participant       `json:"participants" yaml:"participants"`
	Activities   []attendance.InMeetingActivity `json:"activities" yaml:"activities"`
}

// Inspect decodes every section. The first decode failure is returned.
func (t *Tracker) Inspect(ctx context.Context) (*Summary, error) {
	s := &Summary{
		Source:  t.source,
		Rows:    t.decoder.RowCount(),
		Offsets: make(map[string]int),
	}
	for label, off := range t.decoder.Offsets().Map() {
		s.Offsets[label.String()] = off
	}

	var err error
	if s.StartTime, err = t.StartTime(ctx); err != nil {
		return nil, err
	}
	if s.Participants, err = t.Participants(ctx); err != nil {
		return nil, err
	}
	if s.Activities, err = t.Activities(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (t *Tracker) startSpan(ctx context.Context, start func(*observability.Tracer) (context.Context, trace.Span)) (context.Context, trace.Span) {
	if t.tracer == nil {
		return ctx, nil
	}
	return start(t.tracer)
}

func (t *Tracker) endSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	code := ""
	if err != nil {
		code = string(aterrors.CodeOf(err))
	}
	observability.EndSpan(span, err, code)
}
