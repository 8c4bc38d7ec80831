//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/platform/bus"
	"github.com/Apurer/workorder-dispatch/internal/platform/envelope"
)

const (
	ProviderName = "workorder-dispatch-api"
	ConsumerName = "workorder-dispatch-remote-bus"

	StateEmployeesSeeded  = "demo employees are seeded"
	StateWorkOrderExists  = "work order WO-001 exists in Draft"
	StateCatalogMismatch  = "the provider catalog lacks legacy messages"
	StateTransitionRelays = "transition notifications are accepted"
)

const (
	ExistingWorkOrderNumber = "WO-001"
	CreatorUserName         = "jpalermo"

	// LegacyPingTypeName is only registered by the consumer.
	LegacyPingTypeName = "workorders.LegacyPing"
)

// LegacyPing is a remotable request the provider does not know about.
type LegacyPing struct {
	bus.RemotableMessage
	Note string `json:"note"`
}

func (*LegacyPing) RequestType() string { return LegacyPingTypeName }

// Catalog returns the catalog both sides share.
func Catalog(t testing.TB) *envelope.Catalog {
	t.Helper()
	c := envelope.NewCatalog()
	bus.RegisterTypes(c)
	if err := types.Register(c); err != nil {
		t.Fatalf("register catalog: %v", err)
	}
	return c
}

// ExampleEnvelope wraps payload so pact examples carry a decodable body.
func ExampleEnvelope(t testing.TB, c *envelope.Catalog, payload any) envelope.Envelope {
	t.Helper()
	env, err := c.Wrap(payload)
	if err != nil {
		t.Fatalf("wrap example %T: %v", payload, err)
	}
	return env
}

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the remote bus consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
