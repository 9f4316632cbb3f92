package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const (
	spanPrefix     = "UC."
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Instruments carries the RED metrics, tracer and base logger shared by the
// use cases of one service.
type Instruments struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstruments(tel observability.Observability, service string) Instruments {
	metrics := observability.MetricsOf(tel)
	return Instruments{
		tracer:       observability.TracerOf(tel),
		log:          observability.LoggerOf(tel).With(observability.F("service", service)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (in Instruments) Logger() observability.Logger { return in.log }

// Run tracks one use case execution until End is called.
type Run struct {
	in      Instruments
	useCase string
	span    trace.Span
	ctx     context.Context
	log     observability.Logger
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

// Begin starts the span and the clock for useCase. The returned context
// carries the span and a logger enriched with use_case and trace ids.
func (in Instruments) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)

	fields := []observability.Field{observability.F("use_case", useCase)}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	ctx, logger := logctx.Enrich(ctx, in.log, fields...)

	return ctx, &Run{
		in:      in,
		useCase: useCase,
		span:    span,
		ctx:     ctx,
		log:     logger,
		start:   time.Now(),
		outcome: "success",
		status:  "OK",
	}
}

func (r *Run) Span() trace.Span { return r.span }

func (r *Run) Logger() observability.Logger { return r.log }

// Fail marks the run as failed with a status code such as USER_NOT_FOUND.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Status overrides the status text without changing the outcome.
func (r *Run) Status(status string) { r.status = status }

// Add appends fields to the use_case_done log line.
func (r *Run) Add(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// End records the span status, RED metrics and the use_case_done log.
func (r *Run) End(err error) {
	lat := time.Since(r.start).Seconds()
	if err != nil && r.outcome == "success" {
		r.Fail(statusFor(err))
	}

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.durHistogram.Observe(lat,
		observability.L("use_case", r.useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}
	fields = append(fields, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.log.Info("use_case_done", fields...)
}

// Publish sends e best-effort and records the external call metrics. A
// failure is logged and marked on the span but never returned.
func (r *Run) Publish(publisher domoutbox.Publisher, e domoutbox.Event) {
	if publisher == nil || e == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(r.ctx, publishTimeout)
	defer cancel()

	pubStart := time.Now()
	pubOutcome := "success"
	err := publisher.Publish(pubCtx, e)
	if err == nil && pubCtx.Err() != nil {
		err = pubCtx.Err()
	}
	if err != nil {
		pubOutcome = "error"
		r.span.RecordError(err)
		r.Status("EVENT_PUBLISH_FAILED")
		r.Add(observability.F("event_publish_error", err.Error()))
		r.log.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err),
		)
	}

	r.in.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", pubOutcome),
	)
	r.in.extHistogram.Observe(time.Since(pubStart).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
	)
}
