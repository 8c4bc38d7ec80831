package bus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
	apierrors "github.com/Apurer/workorder-dispatch/internal/shared/errors"
)

const maxResponseBytes = 8 << 20

var _ Bus = (*RemoteBus)(nil)

// RemoteError carries a non-success response from the remote endpoint.
type RemoteError struct {
	StatusCode int
	Problem    apierrors.ProblemDetail
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote bus returned status %d: %s", e.StatusCode, e.Problem.Error())
}

func (e *RemoteError) Unwrap() []error {
	errs := []error{ErrRemote}
	switch e.Problem.Type {
	case apierrors.TypeUnknownMessage:
		errs = append(errs, envelope.ErrUnknownType)
	case apierrors.TypeMalformedEnvelope:
		errs = append(errs, envelope.ErrMalformedEnvelope)
	case apierrors.TypeNoResult:
		errs = append(errs, ErrNoResult)
	case apierrors.TypeNoHandler:
		errs = append(errs, ErrNoHandler)
	}
	return errs
}

// RemoteBus forwards Remotable messages to a remote endpoint and dispatches
// everything else to an embedded local bus.
type RemoteBus struct {
	url     string
	catalog *envelope.Catalog
	local   Bus
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

type RemoteOption func(*RemoteBus)

// WithHTTPClient overrides the default instrumented client.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(b *RemoteBus) {
		if client != nil {
			b.client = client
		}
	}
}

// WithTimeout bounds each forwarded call, including reading the response.
// It applies to a copy of the client, whatever the option order.
func WithTimeout(timeout time.Duration) RemoteOption {
	return func(b *RemoteBus) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) RemoteOption {
	return func(b *RemoteBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewRemoteBus wires the remote strategy. baseURL must be absolute; EndpointPath is appended.
func NewRemoteBus(baseURL string, catalog *envelope.Catalog, local Bus, opts ...RemoteOption) (*RemoteBus, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote bus base URL is required")
	}
	if catalog == nil {
		return nil, errors.New("remote bus catalog is required")
	}
	if local == nil {
		return nil, errors.New("remote bus local fallback is required")
	}
	b := &RemoteBus{
		url:     baseURL + EndpointPath,
		catalog: catalog,
		local:   local,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.timeout > 0 {
		client := *b.client
		client.Timeout = b.timeout
		b.client = &client
	}
	return b, nil
}

// Send forwards Remotable requests; other requests stay in-process.
func (b *RemoteBus) Send(ctx context.Context, request Request) (any, error) {
	if !IsRemotable(request) {
		return b.local.Send(ctx, request)
	}
	return b.forward(ctx, request)
}

// Publish forwards Remotable notifications and expects a PublishAck back.
func (b *RemoteBus) Publish(ctx context.Context, notification Notification) error {
	if !IsRemotable(notification) {
		return b.local.Publish(ctx, notification)
	}
	result, err := b.forward(ctx, notification)
	if err != nil {
		return err
	}
	if _, ok := result.(*PublishAck); !ok {
		return fmt.Errorf("%w: got %T, want *bus.PublishAck", ErrResultType, result)
	}
	return nil
}

func (b *RemoteBus) forward(ctx context.Context, message any) (any, error) {
	env, err := b.catalog.Wrap(message)
	if err != nil {
		return nil, err
	}
	body, err := envelope.ToWireFormat(env)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	b.logger.LogAttrs(ctx, slog.LevelDebug, "forwarding message", slog.String("type_name", env.TypeName), slog.String("url", b.url))
	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.LogAttrs(ctx, slog.LevelError, "remote bus call failed", slog.String("type_name", env.TypeName), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeRemoteError(resp.StatusCode, data)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty response for %s", ErrNoResult, env.TypeName)
	}
	respEnv, err := envelope.FromWireFormat(data)
	if err != nil {
		return nil, err
	}
	result, err := b.catalog.Unwrap(respEnv)
	if err != nil {
		return nil, err
	}
	if isNil(result) {
		return nil, fmt.Errorf("%w: null %s for %s", ErrNoResult, respEnv.TypeName, env.TypeName)
	}
	return result, nil
}

func decodeRemoteError(status int, data []byte) error {
	remoteErr := &RemoteError{StatusCode: status}
	if err := json.Unmarshal(data, &remoteErr.Problem); err != nil || remoteErr.Problem.Title == "" {
		remoteErr.Problem = apierrors.ProblemDetail{
			Title:  http.StatusText(status),
			Status: status,
			Detail: strings.TrimSpace(string(data)),
		}
	}
	return remoteErr
}
