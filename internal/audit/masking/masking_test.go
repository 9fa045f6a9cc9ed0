package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskJSONMasksKeyAndValue(t *testing.T) {
	out := MaskJSON(map[string]any{"api_key_secretvalue": "topsecret"})

	masked, ok := out["api_key_"]
	require.True(t, ok)
	assert.Contains(t, masked, "****")
}

func TestMaskJSONLeavesPlainKeysAlone(t *testing.T) {
	out := MaskJSON(map[string]any{"run_id": "run-1"})

	assert.Equal(t, "run-1", out["run_id"])
}

func TestMaskJSONKeepsCollidingKeysDistinct(t *testing.T) {
	out := MaskJSON(map[string]any{
		"client_secret_primary": "aaa111",
		"client_secret_backup":  "bbb222",
	})

	require.Len(t, out, 2)
	primary, ok := out["client_secret_primary"]
	require.True(t, ok)
	assert.Contains(t, primary, "****")
	backup, ok := out["client_secret_backup"]
	require.True(t, ok)
	assert.Contains(t, backup, "****")
}

func TestMaskJSONRecursesNestedMaps(t *testing.T) {
	out := MaskJSON(map[string]any{
		"nested": map[string]any{"token_abcdef": "shhh12345"},
	})

	nested, ok := out["nested"].(map[string]any)
	require.True(t, ok)
	masked, ok := nested["token_"]
	require.True(t, ok)
	assert.Contains(t, masked, "****")
}
