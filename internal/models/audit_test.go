package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuditLogMarshalsValuesAsJSON(t *testing.T) {
	log := AuditLog{ID: "a1", Action: AuditActionExport, NewValues: []byte(`{"status":200}`)}

	raw, err := json.Marshal(log)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, map[string]interface{}{"status": float64(200)}, decoded["new_values"])
	require.NotContains(t, decoded, "old_values")
	require.Equal(t, "a1", decoded["id"])
}
