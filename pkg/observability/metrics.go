// Package observability provides metrics and tracing for attendance
// decoding, qualification and result sinks.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for an attend run.
type Metrics struct {
	// Decode metrics
	RowsReadTotal     prometheus.Counter
	RecordsDecoded    *prometheus.CounterVec
	DecodeErrorsTotal *prometheus.CounterVec
	DecodeSeconds     *prometheus.HistogramVec

	// Qualification metrics
	QualificationsTotal   prometheus.Counter
	ParticipantsEvaluated prometheus.Gauge
	ParticipantsQualified prometheus.Gauge
	ThresholdMinutes      prometheus.Gauge
	ParticipantMinutes    prometheus.Histogram

	// Sink metrics
	SinkWritesTotal *prometheus.CounterVec
	SinkSeconds     *prometheus.HistogramVec
}

// NewMetrics creates and registers the metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RowsReadTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attend_rows_read_total",
				Help: "Raw rows read from exports",
			},
		),
		RecordsDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attend_records_decoded_total",
				Help: "Records decoded per section",
			},
			[]string{"section"},
		),
		DecodeErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attend_decode_errors_total",
				Help: "Decode failures per section and error code",
			},
			[]string{"section", "code"},
		),
		DecodeSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attend_decode_seconds",
				Help:    "Time to decode a section",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"section"},
		),

		QualificationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attend_qualifications_total",
				Help: "Qualification evaluations run",
			},
		),
		ParticipantsEvaluated: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "attend_participants_evaluated",
				Help: "Distinct emails in the last evaluation",
			},
		),
		ParticipantsQualified: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "attend_participants_qualified",
				Help: "Emails that met the threshold in the last evaluation",
			},
		),
		ThresholdMinutes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "attend_threshold_minutes",
				Help: "Threshold used by the last evaluation",
			},
		),
		ParticipantMinutes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "attend_participant_minutes",
				Help:    "Accumulated overlap minutes per participant",
				Buckets: []float64{-120, -60, -30, 0, 15, 30, 45, 60, 90, 120, 240},
			},
		),

		SinkWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attend_sink_writes_total",
				Help: "Result writes per sink and status",
			},
			[]string{"sink", "status"},
		),
		SinkSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "attend_sink_seconds",
				Help:    "Result write latency per sink",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sink"},
		),
	}
}

// RecordRowsRead adds n raw rows.
func (m *Metrics) RecordRowsRead(n int) {
	m.RowsReadTotal.Add(float64(n))
}

// RecordDecoded records a successful section decode.
func (m *Metrics) RecordDecoded(section string, records int, seconds float64) {
	m.RecordsDecoded.WithLabelValues(section).Add(float64(records))
	m.DecodeSeconds.WithLabelValues(section).Observe(seconds)
}

// RecordDecodeError records a failed section decode.
func (m *Metrics) RecordDecodeError(section, code string) {
	m.DecodeErrorsTotal.WithLabelValues(section, code).Inc()
}

// RecordQualification records the outcome of one evaluation.
func (m *Metrics) RecordQualification(evaluated, qualified int, threshold int64, totals []int64) {
	m.QualificationsTotal.Inc()
	m.ParticipantsEvaluated.Set(float64(evaluated))
	m.ParticipantsQualified.Set(float64(qualified))
	m.ThresholdMinutes.Set(float64(threshold))
	for _, t := range totals {
		m.ParticipantMinutes.Observe(float64(t))
	}
}

// RecordSinkWrite records a result write.
func (m *Metrics) RecordSinkWrite(sink string, err error, seconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SinkWritesTotal.WithLabelValues(sink, status).Inc()
	m.SinkSeconds.WithLabelValues(sink).Observe(seconds)
}

// WriteTextfile writes all metrics in g to path in the text exposition
// format, for the node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
