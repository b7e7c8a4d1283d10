package sink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// jsonField returns the raw JSON of a top-level field.
func jsonField(t *testing.T, data []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	raw, ok := m[field]
	require.True(t, ok, "field %q missing from %s", field, data)
	return string(raw)
}
