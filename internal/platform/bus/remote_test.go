package bus_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus/httpapi"
	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
)

type countingTransport struct {
	calls atomic.Int32
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.next.RoundTrip(r)
}

type remoteHarness struct {
	server    *httptest.Server
	serverMed *bus.Mediator
	clientMed *bus.Mediator
	transport *countingTransport
	remote    *bus.RemoteBus
}

func newRemoteHarness(t *testing.T) *remoteHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog := newTestCatalog(t)

	serverMed := bus.NewMediator()
	router := gin.New()
	httpapi.NewEndpoint(catalog, bus.NewLocalBus(serverMed)).Register(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	clientMed := bus.NewMediator()
	transport := &countingTransport{next: http.DefaultTransport}
	remote, err := bus.NewRemoteBus(server.URL, catalog, bus.NewLocalBus(clientMed),
		bus.WithHTTPClient(&http.Client{Transport: transport}))
	require.NoError(t, err)

	return &remoteHarness{server: server, serverMed: serverMed, clientMed: clientMed, transport: transport, remote: remote}
}

func TestRemoteBus_ForwardsRemotableRequest(t *testing.T) {
	h := newRemoteHarness(t)
	var received *pingRequest
	bus.Handle(h.serverMed, func(_ context.Context, req *pingRequest) (*pongResult, error) {
		received = req
		return &pongResult{Echo: req.Text, Count: req.Meta["n"]}, nil
	})

	sent := &pingRequest{
		Text: "hello",
		Tags: []string{"x", "y"},
		Meta: map[string]int{"n": 7},
		Next: &pingRequestChild{Depth: 2},
	}
	res, err := bus.Send[*pongResult](context.Background(), h.remote, sent)
	require.NoError(t, err)
	require.Equal(t, &pongResult{Echo: "hello", Count: 7}, res)
	require.Equal(t, sent, received)
	require.EqualValues(t, 1, h.transport.calls.Load())
}

func TestRemoteBus_NonRemotableStaysLocal(t *testing.T) {
	h := newRemoteHarness(t)
	bus.Handle(h.clientMed, func(_ context.Context, req *localOnlyRequest) (*pongResult, error) {
		return &pongResult{Count: req.N}, nil
	})

	res, err := bus.Send[*pongResult](context.Background(), h.remote, &localOnlyRequest{N: 3})
	require.NoError(t, err)
	require.Equal(t, 3, res.Count)
	require.EqualValues(t, 0, h.transport.calls.Load())
}

func TestRemoteBus_PostsEnvelopeToFixedPath(t *testing.T) {
	catalog := newTestCatalog(t)
	var gotPath, gotMethod string
	var gotPayload any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		data, _ := io.ReadAll(r.Body)
		env, err := envelope.FromWireFormat(data)
		require.NoError(t, err)
		gotPayload, err = catalog.Unwrap(env)
		require.NoError(t, err)

		respEnv, err := catalog.Wrap(&pongResult{Echo: "ok"})
		require.NoError(t, err)
		body, err := envelope.ToWireFormat(respEnv)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	remote, err := bus.NewRemoteBus(server.URL+"/", catalog, bus.NewMediator())
	require.NoError(t, err)

	sent := &pingRequest{Text: "wire"}
	res, err := bus.Send[*pongResult](context.Background(), remote, sent)
	require.NoError(t, err)
	require.Equal(t, "ok", res.Echo)
	require.Equal(t, bus.EndpointPath, gotPath)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, sent, gotPayload)
}

func TestRemoteBus_EmptyResponseIsAnError(t *testing.T) {
	catalog := newTestCatalog(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	remote, err := bus.NewRemoteBus(server.URL, catalog, bus.NewMediator())
	require.NoError(t, err)
	_, err = remote.Send(context.Background(), &pingRequest{})
	require.ErrorIs(t, err, bus.ErrNoResult)
}

func TestRemoteBus_ServerErrorsSurface(t *testing.T) {
	h := newRemoteHarness(t)
	boom := errors.New("database unavailable")
	bus.Handle(h.serverMed, func(context.Context, *pingRequest) (*pongResult, error) {
		return nil, boom
	})

	_, err := h.remote.Send(context.Background(), &pingRequest{})
	var remoteErr *bus.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)
	require.Contains(t, remoteErr.Problem.Detail, "database unavailable")
	require.ErrorIs(t, err, bus.ErrRemote)
}

func TestRemoteBus_MissingServerHandler(t *testing.T) {
	h := newRemoteHarness(t)
	_, err := h.remote.Send(context.Background(), &pingRequest{})
	require.ErrorIs(t, err, bus.ErrNoHandler)
}

func TestRemoteBus_UnknownTypeOnServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serverCatalog := envelope.NewCatalog()
	bus.RegisterTypes(serverCatalog)
	router := gin.New()
	httpapi.NewEndpoint(serverCatalog, bus.NewMediator()).Register(router)
	server := httptest.NewServer(router)
	defer server.Close()

	remote, err := bus.NewRemoteBus(server.URL, newTestCatalog(t), bus.NewMediator())
	require.NoError(t, err)
	_, err = remote.Send(context.Background(), &pingRequest{})
	require.ErrorIs(t, err, envelope.ErrUnknownType)
}

func TestRemoteBus_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	remote, err := bus.NewRemoteBus(url, newTestCatalog(t), bus.NewMediator())
	require.NoError(t, err)
	_, err = remote.Send(context.Background(), &pingRequest{})
	require.ErrorIs(t, err, bus.ErrTransport)
}

func TestRemoteBus_PublishRemotableAndLocal(t *testing.T) {
	h := newRemoteHarness(t)
	var serverSeen, clientSeen int
	bus.Subscribe(h.serverMed, func(_ context.Context, n *pingedNotification) error {
		serverSeen++
		return nil
	})
	bus.Subscribe(h.clientMed, func(_ context.Context, n *localNotification) error {
		clientSeen++
		return nil
	})

	require.NoError(t, h.remote.Publish(context.Background(), &pingedNotification{Text: "x"}))
	require.NoError(t, h.remote.Publish(context.Background(), &localNotification{}))
	require.Equal(t, 1, serverSeen)
	require.Equal(t, 1, clientSeen)
	require.EqualValues(t, 1, h.transport.calls.Load())
}

func TestNewRemoteBus_Validates(t *testing.T) {
	_, err := bus.NewRemoteBus(" ", envelope.NewCatalog(), bus.NewMediator())
	require.Error(t, err)
	_, err = bus.NewRemoteBus("http://x", nil, bus.NewMediator())
	require.Error(t, err)
}

func TestRemoteBus_TimeoutAppliesRegardlessOfOptionOrder(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	callerClient := &http.Client{Transport: http.DefaultTransport}
	remote, err := bus.NewRemoteBus(server.URL, newTestCatalog(t), bus.NewMediator(),
		bus.WithTimeout(50*time.Millisecond),
		bus.WithHTTPClient(callerClient))
	require.NoError(t, err)
	require.Zero(t, callerClient.Timeout)

	start := time.Now()
	_, err = remote.Send(context.Background(), &pingRequest{})
	require.ErrorIs(t, err, bus.ErrTransport)
	require.Less(t, time.Since(start), 5*time.Second)

	_, err = bus.NewRemoteBus(server.URL, newTestCatalog(t), bus.NewMediator(),
		bus.WithHTTPClient(callerClient),
		bus.WithTimeout(time.Second))
	require.NoError(t, err)
	require.Zero(t, callerClient.Timeout)
}
