package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_RespectsLevel(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Info("dropped")
	logger.Warn("kept", slog.String("work_order", "WO-001"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "WO-001", record["work_order"])
	assert.Contains(t, record, "source")
	assert.Same(t, logger, slog.Default())
}

func TestInstruments_NilSafe(t *testing.T) {
	var instruments *Instruments
	require.NotNil(t, instruments.Tracer("test"))
	meter := instruments.Meter("test")
	require.NotNil(t, meter)
	counter, err := meter.Int64Counter("noop")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "local", orDefault("  ", "local"))
	assert.Equal(t, "staging", orDefault(" staging ", "local"))
}
