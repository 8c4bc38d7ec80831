package bus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
)

type pingRequest struct {
	bus.RemotableMessage
	Text string            `json:"text"`
	Tags []string          `json:"tags"`
	Meta map[string]int    `json:"meta"`
	Next *pingRequestChild `json:"next,omitempty"`
}

type pingRequestChild struct {
	Depth int `json:"depth"`
}

func (*pingRequest) RequestType() string { return "test.Ping" }

type pongResult struct {
	Echo  string `json:"echo"`
	Count int    `json:"count"`
}

type localOnlyRequest struct {
	N int
}

func (*localOnlyRequest) RequestType() string { return "test.LocalOnly" }

type pingedNotification struct {
	bus.RemotableMessage
	Text string `json:"text"`
}

func (*pingedNotification) NotificationType() string { return "test.Pinged" }

type localNotification struct{}

func (*localNotification) NotificationType() string { return "test.LocalNotification" }

func newTestCatalog(t *testing.T) *envelope.Catalog {
	t.Helper()
	catalog := envelope.NewCatalog()
	bus.RegisterTypes(catalog)
	require.NoError(t, envelope.Register[*pingRequest](catalog, "test.Ping"))
	require.NoError(t, envelope.Register[*pongResult](catalog, "test.Pong"))
	require.NoError(t, envelope.Register[*pingedNotification](catalog, "test.Pinged"))
	require.NoError(t, envelope.Register[*localOnlyRequest](catalog, "test.LocalOnly"))
	return catalog
}

func registerPing(m *bus.Mediator) {
	bus.Handle(m, func(_ context.Context, req *pingRequest) (*pongResult, error) {
		return &pongResult{Echo: req.Text, Count: len(req.Tags)}, nil
	})
}

func TestMediator_SendRoutesByType(t *testing.T) {
	m := bus.NewMediator()
	registerPing(m)

	res, err := bus.Send[*pongResult](context.Background(), bus.NewLocalBus(m), &pingRequest{Text: "hi", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	require.Equal(t, &pongResult{Echo: "hi", Count: 2}, res)
}

func TestMediator_SendWithoutHandler(t *testing.T) {
	m := bus.NewMediator()
	_, err := m.Send(context.Background(), &localOnlyRequest{})
	require.ErrorIs(t, err, bus.ErrNoHandler)
}

func TestMediator_NilResultIsAnError(t *testing.T) {
	m := bus.NewMediator()
	bus.Handle(m, func(context.Context, *localOnlyRequest) (*pongResult, error) {
		return nil, nil
	})
	_, err := m.Send(context.Background(), &localOnlyRequest{})
	require.ErrorIs(t, err, bus.ErrNoResult)
}

func TestMediator_DuplicateHandlerPanics(t *testing.T) {
	m := bus.NewMediator()
	registerPing(m)
	require.Panics(t, func() { registerPing(m) })
}

func TestSend_ResultTypeMismatch(t *testing.T) {
	m := bus.NewMediator()
	registerPing(m)
	_, err := bus.Send[string](context.Background(), m, &pingRequest{})
	require.ErrorIs(t, err, bus.ErrResultType)
}

func TestMediator_PublishFansOutAndJoinsErrors(t *testing.T) {
	m := bus.NewMediator()
	var calls []string
	boom := errors.New("boom")
	bus.Subscribe(m, func(_ context.Context, n *pingedNotification) error {
		calls = append(calls, "first:"+n.Text)
		return boom
	})
	bus.Subscribe(m, func(_ context.Context, n *pingedNotification) error {
		calls = append(calls, "second:"+n.Text)
		return nil
	})

	err := m.Publish(context.Background(), &pingedNotification{Text: "x"})
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"first:x", "second:x"}, calls)

	require.NoError(t, m.Publish(context.Background(), &localNotification{}))
}

func TestMediator_CanceledContext(t *testing.T) {
	m := bus.NewMediator()
	registerPing(m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Send(ctx, &pingRequest{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestIsRemotable(t *testing.T) {
	require.True(t, bus.IsRemotable(&pingRequest{}))
	require.False(t, bus.IsRemotable(&localOnlyRequest{}))
}
