package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
)

const tracerName = "github.com/Apurer/workorder-dispatch/internal/platform/bus/observability"

// Bus decorates a bus strategy with tracing, logging, and metrics.
type Bus struct {
	inner   bus.Bus
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics busMetrics
}

type Option func(*Bus)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(b *Bus) {
		b.tracer = tr
	}
}

// WithMeter injects the meter used to create bus instruments.
func WithMeter(m metric.Meter) Option {
	return func(b *Bus) {
		b.metrics = newBusMetrics(m)
	}
}

// New wraps inner. The decorator keeps inner's routing untouched.
func New(inner bus.Bus, opts ...Option) bus.Bus {
	b := &Bus{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newBusMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.tracer == nil {
		b.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if b.logger == nil {
		b.logger = defaultLogger()
	}
	return b
}

// Send dispatches a request with a span around the inner strategy.
func (b *Bus) Send(ctx context.Context, request bus.Request) (any, error) {
	if request == nil {
		return nil, fmt.Errorf("%w: request", bus.ErrNilMessage)
	}
	attrs := messageAttrs(request.RequestType(), request)
	ctx, span := b.tracer.Start(ctx, "Bus.Send", trace.WithAttributes(attrs...))
	defer span.End()

	b.logger.LogAttrs(ctx, slog.LevelDebug, "sending request", slog.String("request_type", request.RequestType()))
	result, err := b.inner.Send(ctx, request)
	if err != nil {
		b.metrics.recordFailed(ctx, attrs...)
		return nil, b.handleError(ctx, span, err, "request failed", slog.String("request_type", request.RequestType()))
	}
	b.metrics.recordSent(ctx, attrs...)
	span.SetAttributes(attribute.String("bus.result_type", fmt.Sprintf("%T", result)))
	return result, nil
}

// Publish fans out a notification with a span around the inner strategy.
func (b *Bus) Publish(ctx context.Context, notification bus.Notification) error {
	if notification == nil {
		return fmt.Errorf("%w: notification", bus.ErrNilMessage)
	}
	attrs := messageAttrs(notification.NotificationType(), notification)
	ctx, span := b.tracer.Start(ctx, "Bus.Publish", trace.WithAttributes(attrs...))
	defer span.End()

	if err := b.inner.Publish(ctx, notification); err != nil {
		b.metrics.recordFailed(ctx, attrs...)
		return b.handleError(ctx, span, err, "publish failed", slog.String("notification_type", notification.NotificationType()))
	}
	b.metrics.recordPublished(ctx, attrs...)
	b.logger.LogAttrs(ctx, slog.LevelDebug, "notification published", slog.String("notification_type", notification.NotificationType()))
	return nil
}

func (b *Bus) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	b.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

func messageAttrs(typeName string, msg any) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("bus.message_type", typeName),
		attribute.Bool("bus.remotable", bus.IsRemotable(msg)),
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type busMetrics struct {
	sent      metric.Int64Counter
	failed    metric.Int64Counter
	published metric.Int64Counter
}

func newBusMetrics(m metric.Meter) busMetrics {
	if m == nil {
		return busMetrics{}
	}
	sent, _ := m.Int64Counter("bus.messages_sent", metric.WithDescription("Number of requests answered by the bus"))
	failed, _ := m.Int64Counter("bus.messages_failed", metric.WithDescription("Number of bus dispatches that failed"))
	published, _ := m.Int64Counter("bus.notifications_published", metric.WithDescription("Number of notifications published"))
	return busMetrics{sent: sent, failed: failed, published: published}
}

func (m busMetrics) recordSent(ctx context.Context, attrs ...attribute.KeyValue) {
	addCounter(ctx, m.sent, attrs...)
}

func (m busMetrics) recordFailed(ctx context.Context, attrs ...attribute.KeyValue) {
	addCounter(ctx, m.failed, attrs...)
}

func (m busMetrics) recordPublished(ctx context.Context, attrs ...attribute.KeyValue) {
	addCounter(ctx, m.published, attrs...)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

var _ bus.Bus = (*Bus)(nil)
