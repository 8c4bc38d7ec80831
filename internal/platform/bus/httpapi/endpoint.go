// Package httpapi exposes the local bus over the single envelope endpoint.
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
	apierrors "github.com/Apurer/workorder-dispatch/internal/shared/errors"
)

const maxEnvelopeBytes = 8 << 20

// Endpoint unwraps inbound envelopes, dispatches them on the local bus and
// wraps the result.
type Endpoint struct {
	catalog   *envelope.Catalog
	bus       bus.Bus
	logger    *slog.Logger
	responder *apierrors.Responder
}

type Option func(*Endpoint)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Endpoint) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithErrorMapper consults mapper after the envelope and bus mappings.
func WithErrorMapper(mapper apierrors.ErrorMapper) Option {
	return func(e *Endpoint) {
		e.responder.AddMapper(mapper)
	}
}

// NewEndpoint wires the endpoint. local must be an in-process bus; passing a
// remote bus would forward the request again.
func NewEndpoint(catalog *envelope.Catalog, local bus.Bus, opts ...Option) *Endpoint {
	e := &Endpoint{
		catalog:   catalog,
		bus:       local,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		responder: apierrors.NewResponder("", MapError),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Register mounts POST bus.EndpointPath.
func (e *Endpoint) Register(routes gin.IRoutes) {
	routes.POST(bus.EndpointPath, e.Handle)
}

// Handle serves one envelope round trip.
func (e *Endpoint) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEnvelopeBytes))
	if err != nil {
		e.fail(c, apierrors.ErrBadRequest.WithDetail(err.Error()), "", err)
		return
	}
	env, err := envelope.FromWireFormat(data)
	if err != nil {
		e.fail(c, e.responder.ProblemFor(err), "", err)
		return
	}
	payload, err := e.catalog.Unwrap(env)
	if err != nil {
		e.fail(c, e.responder.ProblemFor(err), env.TypeName, err)
		return
	}

	result, err := e.dispatch(ctx, payload)
	if err != nil {
		e.fail(c, e.responder.ProblemFor(err), env.TypeName, err)
		return
	}
	respEnv, err := e.catalog.Wrap(result)
	if err != nil {
		e.fail(c, apierrors.ErrInternal.WithDetail(err.Error()), env.TypeName, err)
		return
	}
	body, err := envelope.ToWireFormat(respEnv)
	if err != nil {
		e.fail(c, apierrors.ErrInternal.WithDetail(err.Error()), env.TypeName, err)
		return
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "bus message dispatched",
		slog.String("type_name", env.TypeName), slog.String("result_type", respEnv.TypeName))
	c.Data(http.StatusOK, "application/json", body)
}

func (e *Endpoint) dispatch(ctx context.Context, payload any) (any, error) {
	switch msg := payload.(type) {
	case bus.Request:
		result, err := e.bus.Send(ctx, msg)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, bus.ErrNoResult
		}
		return result, nil
	case bus.Notification:
		if err := e.bus.Publish(ctx, msg); err != nil {
			return nil, err
		}
		return &bus.PublishAck{NotificationType: msg.NotificationType()}, nil
	default:
		return nil, apierrors.ErrUnsupportedKind.WithDetail("payload is neither a request nor a notification")
	}
}

func (e *Endpoint) fail(c *gin.Context, problem apierrors.ProblemDetail, typeName string, err error) {
	e.logger.LogAttrs(c.Request.Context(), slog.LevelError, "bus endpoint failed",
		slog.String("type_name", typeName),
		slog.Int("status", problem.Status),
		slog.String("error", err.Error()))
	e.responder.Respond(c, problem)
}

// MapError translates envelope and bus sentinels into problem details.
func MapError(err error) (apierrors.ProblemDetail, bool) {
	var unknown *envelope.UnknownTypeError
	switch {
	case errors.As(err, &unknown):
		return apierrors.NewUnknownMessageProblem(unknown.TypeName), true
	case errors.Is(err, envelope.ErrUnknownType):
		return apierrors.ErrUnknownMessage.WithDetail(err.Error()), true
	case errors.Is(err, envelope.ErrMalformedEnvelope), errors.Is(err, envelope.ErrDecode):
		return apierrors.ErrMalformedEnvelope.WithDetail(err.Error()), true
	case errors.Is(err, bus.ErrNoHandler):
		return apierrors.ErrNoHandler.WithDetail(err.Error()), true
	case errors.Is(err, bus.ErrNoResult):
		return apierrors.ErrNoResult.WithDetail(err.Error()), true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apierrors.ErrUnavailable.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
