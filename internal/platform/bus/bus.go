// Package bus provides a uniform Send/Publish contract with an in-process
// strategy and an HTTP-forwarding strategy selected per message type.
package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
)

// EndpointPath is the single relative path the remote strategy posts envelopes to.
const EndpointPath = "/api/bus"

var (
	// ErrNoHandler is returned when no handler is registered for a request type.
	ErrNoHandler = errors.New("no handler registered for request")
	// ErrNilMessage is returned when a nil request or notification is dispatched.
	ErrNilMessage = errors.New("message is nil")
	// ErrNoResult is returned when a request produced no result.
	ErrNoResult = errors.New("request produced no result")
	// ErrResultType is returned when a result cannot be converted to the expected type.
	ErrResultType = errors.New("unexpected result type")
	// ErrTransport wraps network failures of the remote strategy.
	ErrTransport = errors.New("bus transport failure")
	// ErrRemote is matched by every *RemoteError.
	ErrRemote = errors.New("remote bus returned an error")
)

// Request is a message dispatched to exactly one handler.
type Request interface {
	RequestType() string
}

// Notification is a message fanned out to zero or more subscribers.
type Notification interface {
	NotificationType() string
}

// Remotable marks message types allowed to cross the remote boundary.
type Remotable interface {
	IsRemotable()
}

// RemotableMessage is embedded by message types that implement Remotable.
type RemotableMessage struct{}

func (RemotableMessage) IsRemotable() {}

// IsRemotable reports whether msg carries the Remotable capability.
func IsRemotable(msg any) bool {
	_, ok := msg.(Remotable)
	return ok
}

// Bus dispatches requests and notifications.
type Bus interface {
	Send(ctx context.Context, request Request) (any, error)
	Publish(ctx context.Context, notification Notification) error
}

// Send dispatches request and converts the result to T.
func Send[T any](ctx context.Context, b Bus, request Request) (T, error) {
	var zero T
	result, err := b.Send(ctx, request)
	if err != nil {
		return zero, err
	}
	if isNil(result) {
		return zero, ErrNoResult
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrResultType, result, zero)
	}
	return typed, nil
}

// PublishAck is the result the endpoint returns for a forwarded notification.
type PublishAck struct {
	NotificationType string `json:"notificationType"`
}

// PublishAckTypeName is the catalog tag of *PublishAck.
const PublishAckTypeName = "bus.PublishAck"

// RegisterTypes adds the bus's own wire types to the catalog.
func RegisterTypes(c *envelope.Catalog) {
	envelope.MustRegister[*PublishAck](c, PublishAckTypeName)
}
