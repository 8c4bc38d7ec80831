package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
)

// CountTransitions subscribes a counter to announced transitions, keyed by end status.
func CountTransitions(m *bus.Mediator, meter metric.Meter) {
	if meter == nil {
		return
	}
	announced, _ := meter.Int64Counter("workorders.transitions_announced",
		metric.WithDescription("Number of WorkOrderTransitioned notifications received"))
	bus.Subscribe(m, func(ctx context.Context, n *types.WorkOrderTransitioned) error {
		addCounter(ctx, announced,
			attribute.String("workorder.command", n.CommandName),
			attribute.String("workorder.end_status", n.EndStatus.Code()))
		return nil
	})
}
