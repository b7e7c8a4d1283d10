package sink

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
	"github.com/otherjamesbrown/attend-cli/pkg/logging"
	"github.com/otherjamesbrown/attend-cli/pkg/observability"
)

// instrumented records metrics, a span and a log line around each Write.
type instrumented struct {
	Sink
	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  logging.Logger
}

// Instrument wraps s. Nil metrics, tracer or logger are skipped. Write
// errors from the wrapped sink are returned as *aterrors.SinkError.
func Instrument(s Sink, m *observability.Metrics, tr *observability.Tracer, log logging.Logger) Sink {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &instrumented{Sink: s, metrics: m, tracer: tr, logger: log}
}

func (i *instrumented) Write(ctx context.Context, r *Report) (err error) {
	var span trace.Span
	if i.tracer != nil {
		ctx, span = i.tracer.StartSinkSpan(ctx, i.Name(), r.RunID)
	}

	start := time.Now()
	err = i.Sink.Write(ctx, r)
	elapsed := time.Since(start)

	if err != nil {
		err = &aterrors.SinkError{Sink: i.Name(), Cause: err}
	}
	if span != nil {
		observability.EndSpan(span, err, string(aterrors.CodeOf(err)))
	}
	if i.metrics != nil {
		i.metrics.RecordSinkWrite(i.Name(), err, elapsed.Seconds())
	}

	log := i.logger.WithContext(ctx).With(logging.F("sink", i.Name()), logging.F("run_id", r.RunID))
	if err != nil {
		log.Error("Sink write failed", logging.Err(err))
		return err
	}
	log.Info("Sink write complete", logging.F("qualified", len(r.Qualified)), logging.F("duration", elapsed))
	return nil
}
