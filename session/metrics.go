package session

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const sessionTracerName = "kollab/session"

// opMetrics measures one reconciliation operation: total duration, time
// spent in remote calls, and the stage a failure occurred in. End emits a
// single structured log entry and closes the operation span.
type opMetrics struct {
	logger *log.Logger
	span   trace.Span
	op     string
	start  time.Time

	remoteDuration time.Duration
	errorStage     string
}

func (s *Session) startOp(ctx context.Context, op string) (context.Context, *opMetrics) {
	tracer := otel.Tracer(sessionTracerName)
	ctx, span := tracer.Start(ctx, "session."+op)
	span.SetAttributes(attribute.String("kollab.session.op", op))
	return ctx, &opMetrics{
		logger: s.logger,
		span:   span,
		op:     op,
		start:  time.Now(),
	}
}

func (m *opMetrics) ObserveRemote(d time.Duration) {
	if d <= 0 {
		return
	}
	m.remoteDuration += d
}

func (m *opMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *opMetrics) End(err error) {
	if m == nil {
		return
	}
	total := time.Since(m.start)

	fields := log.Fields{
		"op":       m.op,
		"total_ms": durationToMillis(total),
	}
	attrs := []attribute.KeyValue{
		attribute.Float64("kollab.session.total_ms", durationToMillis(total)),
	}
	if m.remoteDuration > 0 {
		fields["remote_ms"] = durationToMillis(m.remoteDuration)
		attrs = append(attrs, attribute.Float64("kollab.session.remote_ms", durationToMillis(m.remoteDuration)))
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
		attrs = append(attrs, attribute.String("kollab.session.error_stage", m.errorStage))
	}
	m.span.SetAttributes(attrs...)

	if err != nil {
		fields["error"] = err.Error()
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
		if m.logger != nil {
			m.logger.WithFields(fields).Error("session.operation")
		}
	} else {
		m.span.SetStatus(codes.Ok, "")
		if m.logger != nil {
			m.logger.WithFields(fields).Info("session.operation")
		}
	}
	m.span.End()
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
