package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
)

const tracerName = "github.com/Apurer/workorder-dispatch/internal/domains/workorders/adapters/observability"

// Transitioner decorates the orchestrator with tracing, logging, and metrics.
type Transitioner struct {
	inner   ports.Transitioner
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics transitionMetrics
}

type Option func(*Transitioner)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transitioner) {
		t.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(t *Transitioner) {
		t.tracer = tr
	}
}

// WithMeter injects the meter used to create transition instruments.
func WithMeter(m metric.Meter) Option {
	return func(t *Transitioner) {
		t.metrics = newTransitionMetrics(m)
	}
}

// New wires a decorator around the orchestrator.
func New(inner ports.Transitioner, opts ...Option) ports.Transitioner {
	t := &Transitioner{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newTransitionMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	if t.tracer == nil {
		t.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if t.logger == nil {
		t.logger = defaultLogger()
	}
	return t
}

// Execute runs the transition inside a span.
func (t *Transitioner) Execute(ctx context.Context, cmd commands.StateCommand) (*types.StateCommandResult, error) {
	attrs := []attribute.KeyValue{
		attribute.String("workorder.command", cmd.Name()),
		attribute.String("workorder.begin_status", cmd.BeginStatus().Code()),
		attribute.String("workorder.end_status", cmd.EndStatus().Code()),
	}
	number := ""
	if order := cmd.WorkOrder(); order != nil {
		number = order.Number
		attrs = append(attrs, attribute.String("workorder.number", number))
	}
	ctx, span := t.tracer.Start(ctx, "Transitioner.Execute", trace.WithAttributes(attrs...))
	defer span.End()

	t.logger.LogAttrs(ctx, slog.LevelInfo, "executing transition",
		slog.String("work_order", number), slog.String("command", cmd.Name()))
	result, err := t.inner.Execute(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.metrics.recordFailed(ctx, cmd.Name())
		t.logger.LogAttrs(ctx, slog.LevelError, "transition failed",
			slog.String("work_order", number),
			slog.String("command", cmd.Name()),
			slog.String("error", err.Error()))
		return nil, err
	}
	t.metrics.recordExecuted(ctx, cmd.Name())
	if result != nil && result.WorkOrder != nil {
		span.SetAttributes(attribute.String("workorder.id", result.WorkOrder.ID.String()))
		t.logger.LogAttrs(ctx, slog.LevelInfo, "transition executed",
			slog.String("work_order", result.WorkOrder.Number),
			slog.String("status", result.WorkOrder.Status.Code()))
	}
	return result, nil
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type transitionMetrics struct {
	executed metric.Int64Counter
	failed   metric.Int64Counter
}

func newTransitionMetrics(m metric.Meter) transitionMetrics {
	if m == nil {
		return transitionMetrics{}
	}
	executed, _ := m.Int64Counter("workorders.transitions_executed", metric.WithDescription("Number of committed work order transitions"))
	failed, _ := m.Int64Counter("workorders.transitions_failed", metric.WithDescription("Number of work order transitions that failed to commit"))
	return transitionMetrics{executed: executed, failed: failed}
}

func (m transitionMetrics) recordExecuted(ctx context.Context, command string) {
	addCounter(ctx, m.executed, attribute.String("workorder.command", command))
}

func (m transitionMetrics) recordFailed(ctx context.Context, command string) {
	addCounter(ctx, m.failed, attribute.String("workorder.command", command))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

var _ ports.Transitioner = (*Transitioner)(nil)
