package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

type requestHandler func(ctx context.Context, req Request) (any, error)

type notificationHandler func(ctx context.Context, n Notification) error

// Mediator routes requests by their concrete Go type to a single handler and
// notifications to every subscriber.
type Mediator struct {
	mu          sync.RWMutex
	handlers    map[reflect.Type]requestHandler
	subscribers map[reflect.Type][]notificationHandler
}

// NewMediator builds an empty mediator.
func NewMediator() *Mediator {
	return &Mediator{
		handlers:    map[reflect.Type]requestHandler{},
		subscribers: map[reflect.Type][]notificationHandler{},
	}
}

// Handle registers the handler for Req. Registering the same type twice panics.
func Handle[Req Request, Res any](m *Mediator, handler func(ctx context.Context, req Req) (Res, error)) {
	typ := reflect.TypeFor[Req]()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handlers[typ]; exists {
		panic(fmt.Sprintf("bus: handler already registered for %s", typ))
	}
	m.handlers[typ] = func(ctx context.Context, req Request) (any, error) {
		typed, ok := req.(Req)
		if !ok {
			return nil, fmt.Errorf("%w: handler for %s received %T", ErrResultType, typ, req)
		}
		return handler(ctx, typed)
	}
}

// Subscribe appends a subscriber for notifications of type N.
func Subscribe[N Notification](m *Mediator, handler func(ctx context.Context, n N) error) {
	typ := reflect.TypeFor[N]()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[typ] = append(m.subscribers[typ], func(ctx context.Context, n Notification) error {
		typed, ok := n.(N)
		if !ok {
			return fmt.Errorf("subscriber for %s received %T", typ, n)
		}
		return handler(ctx, typed)
	})
}

// Send invokes the handler registered for the request's type.
func (m *Mediator) Send(ctx context.Context, request Request) (any, error) {
	if request == nil {
		return nil, fmt.Errorf("%w: request", ErrNilMessage)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	handler, ok := m.handlers[reflect.TypeOf(request)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, request.RequestType())
	}
	result, err := handler(ctx, request)
	if err != nil {
		return nil, err
	}
	if isNil(result) {
		return nil, fmt.Errorf("%w: %s", ErrNoResult, request.RequestType())
	}
	return result, nil
}

// Publish runs subscribers in registration order and joins their errors.
func (m *Mediator) Publish(ctx context.Context, notification Notification) error {
	if notification == nil {
		return fmt.Errorf("%w: notification", ErrNilMessage)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	subs := append([]notificationHandler(nil), m.subscribers[reflect.TypeOf(notification)]...)
	m.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := sub(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
