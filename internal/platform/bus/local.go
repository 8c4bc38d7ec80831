package bus

import "context"

var _ Bus = (*LocalBus)(nil)

// LocalBus dispatches everything in-process through a Mediator.
type LocalBus struct {
	mediator *Mediator
}

// NewLocalBus wraps the mediator.
func NewLocalBus(m *Mediator) *LocalBus {
	return &LocalBus{mediator: m}
}

func (b *LocalBus) Send(ctx context.Context, request Request) (any, error) {
	return b.mediator.Send(ctx, request)
}

func (b *LocalBus) Publish(ctx context.Context, notification Notification) error {
	return b.mediator.Publish(ctx, notification)
}
