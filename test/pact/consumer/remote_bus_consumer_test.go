//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
	pacttest "github.com/Apurer/workorder-dispatch/test/pact"
)

func exampleWorkOrder(t *testing.T) *domain.WorkOrder {
	t.Helper()
	creator, err := domain.NewEmployee(pacttest.CreatorUserName, "Jeffrey", "Palermo", "jeffrey@example.com", domain.RoleCreator)
	require.NoError(t, err)
	order, err := domain.NewWorkOrderBuilder(pacttest.ExistingWorkOrderNumber, creator).
		WithTitle("Fix sink").
		WithDescription("Kitchen sink drips").
		CreatedAt(time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)).
		Build()
	require.NoError(t, err)
	order.ID = uuid.MustParse("0b7c2f6e-5d1a-4a59-9a53-2f3d6f0e9c11")
	order.Status = domain.StatusDraft
	return order
}

func envelopeBody(env envelope.Envelope) matchers.Map {
	return matchers.Map{
		"TypeName": matchers.S(env.TypeName),
		"Body":     matchers.Like(env.Body),
	}
}

func TestRemoteBusContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	catalog := pacttest.Catalog(t)
	envelope.MustRegister[*pacttest.LegacyPing](catalog, pacttest.LegacyPingTypeName)

	order := exampleWorkOrder(t)
	lookupQuery := &types.WorkOrderByNumberQuery{Number: pacttest.ExistingWorkOrderNumber}
	lookupResult := &types.WorkOrderLookup{Found: true, WorkOrder: order}
	createRequest := &types.CreateWorkOrderRequest{
		CreatorUserName: pacttest.CreatorUserName,
		Title:           "Fix sink",
		Description:     "Kitchen sink drips",
	}
	createResult := &types.StateCommandResult{
		Outcome:                    types.OutcomeExecuted,
		CommandName:                commands.NameSaveDraft,
		TransitionVerbPresentTense: "Save",
		WorkOrder:                  order,
	}
	transitioned := &types.WorkOrderTransitioned{
		WorkOrderID: order.ID,
		Number:      order.Number,
		CommandName: commands.NameSaveDraft,
		BeginStatus: domain.StatusDraft,
		EndStatus:   domain.StatusDraft,
		Sequence:    1,
		UserName:    pacttest.CreatorUserName,
		At:          order.CreatedDate,
	}
	ack := &bus.PublishAck{NotificationType: transitioned.NotificationType()}
	ping := &pacttest.LegacyPing{Note: "hello"}

	jsonContentType := matchers.Regex("application/json", "application\\/json(?:;\\s?charset=utf-8)?")
	post := func(payload any) func(*pactconsumer.V2RequestBuilder) {
		env := pacttest.ExampleEnvelope(t, catalog, payload)
		return func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(envelopeBody(env))
		}
	}
	reply := func(payload any) func(*pactconsumer.V2ResponseBuilder) {
		env := pacttest.ExampleEnvelope(t, catalog, payload)
		return func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(envelopeBody(env))
		}
	}

	pact.AddInteraction().
		Given(pacttest.StateWorkOrderExists).
		UponReceiving("a lookup for an existing work order").
		WithRequest("POST", bus.EndpointPath, post(lookupQuery)).
		WillRespondWith(http.StatusOK, reply(lookupResult))

	pact.AddInteraction().
		Given(pacttest.StateEmployeesSeeded).
		UponReceiving("a request to create a work order").
		WithRequest("POST", bus.EndpointPath, post(createRequest)).
		WillRespondWith(http.StatusOK, reply(createResult))

	pact.AddInteraction().
		Given(pacttest.StateTransitionRelays).
		UponReceiving("a forwarded transition notification").
		WithRequest("POST", bus.EndpointPath, post(transitioned)).
		WillRespondWith(http.StatusOK, reply(ack))

	pact.AddInteraction().
		Given(pacttest.StateCatalogMismatch).
		UponReceiving("a message type the provider does not know").
		WithRequest("POST", bus.EndpointPath, post(ping)).
		WillRespondWith(http.StatusUnprocessableEntity, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":     matchers.S("/problems/unknown-message-type"),
				"title":    matchers.S("Unknown Message Type"),
				"status":   matchers.Like(http.StatusUnprocessableEntity),
				"typeName": matchers.S(pacttest.LegacyPingTypeName),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		host := config.Host
		if host == "" {
			host = "localhost"
		}
		remote, err := bus.NewRemoteBus(fmt.Sprintf("http://%s:%d", host, config.Port), catalog, bus.NewMediator(),
			bus.WithTimeout(5*time.Second))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		lookup, err := bus.Send[*types.WorkOrderLookup](ctx, remote, lookupQuery)
		if err != nil {
			return fmt.Errorf("lookup: %w", err)
		}
		if !lookup.Found || lookup.WorkOrder.Number != pacttest.ExistingWorkOrderNumber {
			return fmt.Errorf("unexpected lookup %+v", lookup)
		}

		created, err := bus.Send[*types.StateCommandResult](ctx, remote, createRequest)
		if err != nil {
			return fmt.Errorf("create: %w", err)
		}
		if !created.Succeeded() {
			return fmt.Errorf("expected executed outcome, got %q", created.Outcome)
		}

		if err := remote.Publish(ctx, transitioned); err != nil {
			return fmt.Errorf("publish: %w", err)
		}

		_, err = remote.Send(ctx, ping)
		var remoteErr *bus.RemoteError
		if !errors.As(err, &remoteErr) || remoteErr.StatusCode != http.StatusUnprocessableEntity {
			return fmt.Errorf("expected 422 remote error, got %v", err)
		}
		if !errors.Is(err, envelope.ErrUnknownType) {
			return fmt.Errorf("expected unknown type error, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}
