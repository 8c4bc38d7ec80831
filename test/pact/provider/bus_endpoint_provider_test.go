//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/workorder-dispatch/internal/app/api"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
	pacttest "github.com/Apurer/workorder-dispatch/test/pact"
)

func TestBusEndpointProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	fresh := func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
		app.reset(t)
		return nil, nil
	}
	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateEmployeesSeeded:  fresh,
		pacttest.StateCatalogMismatch:  fresh,
		pacttest.StateTransitionRelays: fresh,
		pacttest.StateWorkOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				return nil, app.seedWorkOrder()
			}
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp rebuilds the in-memory application for every provider state.
type contractProviderApp struct {
	mu      sync.RWMutex
	current *api.App
	cleanup func()
	server  *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	a := &contractProviderApp{}
	a.reset(t)
	a.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.RLock()
		router := a.current.Router
		a.mu.RUnlock()
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(func() {
		a.server.Close()
		a.mu.Lock()
		defer a.mu.Unlock()
		a.cleanup()
	})
	return a
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	cfg := api.Config{
		ServiceName:       pacttest.ProviderName,
		BusMode:           api.BusModeLocal,
		TransitionLockTTL: 5 * time.Second,
		BusRemoteTimeout:  5 * time.Second,
		SeedEmployees:     true,
	}
	next, cleanup, err := api.Build(context.Background(), cfg, nil)
	require.NoError(t, err)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cleanup != nil {
		a.cleanup()
	}
	a.current, a.cleanup = next, cleanup
}

func (a *contractProviderApp) seedWorkOrder() error {
	a.mu.RLock()
	app := a.current
	a.mu.RUnlock()
	result, err := bus.Send[*types.StateCommandResult](context.Background(), app.Bus, &types.CreateWorkOrderRequest{
		CreatorUserName: pacttest.CreatorUserName,
		Title:           "Fix sink",
		Description:     "Kitchen sink drips",
	})
	if err != nil {
		return err
	}
	if !result.Succeeded() || result.WorkOrder.Number != pacttest.ExistingWorkOrderNumber {
		return errors.New("seeded work order did not get number " + pacttest.ExistingWorkOrderNumber)
	}
	return nil
}
