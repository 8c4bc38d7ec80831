package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusFromCode_ResolvesKnownCodes(t *testing.T) {
	for _, status := range AllStatuses() {
		resolved, err := StatusFromCode(status.Code())
		require.NoError(t, err)
		require.True(t, resolved.Equals(status))
	}

	none, err := StatusFromCode("")
	require.NoError(t, err)
	require.True(t, none.IsNone())
}

func TestStatusFromCode_RejectsUnknownCode(t *testing.T) {
	_, err := StatusFromCode("XYZ")
	require.ErrorIs(t, err, ErrUnknownStatus)

	_, err = StatusFromKey("Archived")
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestAllStatuses_FixedOrder(t *testing.T) {
	keys := []string{}
	for _, s := range AllStatuses() {
		keys = append(keys, s.Key())
	}
	require.Equal(t, []string{"Draft", "Assigned", "InProgress", "Complete", "Cancelled"}, keys)
}

func TestStatus_JSONUsesCode(t *testing.T) {
	data, err := json.Marshal(StatusInProgress)
	require.NoError(t, err)
	require.JSONEq(t, `"IPG"`, string(data))

	var decoded WorkOrderStatus
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, StatusInProgress, decoded)

	require.ErrorIs(t, json.Unmarshal([]byte(`"NOPE"`), &decoded), ErrUnknownStatus)
}
