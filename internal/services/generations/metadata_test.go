package generations

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataPreservesUnknownKeys(t *testing.T) {
	raw := json.RawMessage(`{
		"edit_history": {
			"original_prompt": "a dragon",
			"edit_prompt": "make it blue",
			"previous_enhanced_prompt": "a majestic dragon",
			"timestamp": "2025-01-02T03:04:05Z"
		},
		"source": "mobile-app",
		"seed": 42
	}`)

	meta, err := ParseMetadata(raw)
	require.NoError(t, err)
	require.NotNil(t, meta)

	require.NotNil(t, meta.EditHistory)
	assert.Equal(t, "make it blue", meta.EditHistory.EditPrompt)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), meta.EditHistory.Timestamp)

	encoded, err := json.Marshal(meta)
	require.NoError(t, err)

	var round map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &round))
	assert.JSONEq(t, `"mobile-app"`, string(round["source"]))
	assert.JSONEq(t, `42`, string(round["seed"]))
	assert.Contains(t, round, "edit_history")
}

func TestParseMetadataEmptyInput(t *testing.T) {
	meta, err := ParseMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestDeriveStatus(t *testing.T) {
	exists := func(path string) bool { return path == "present" }

	assert.Equal(t, StatusComplete, DeriveStatus("present", "present", exists))
	assert.Equal(t, StatusImageOnly, DeriveStatus("present", "", exists))
	assert.Equal(t, StatusImageOnly, DeriveStatus("present", "missing", exists))
	assert.Equal(t, StatusComplete, DeriveStatus("missing", "present", exists))
	assert.Equal(t, StatusIncomplete, DeriveStatus("", "", exists))
	assert.Equal(t, StatusIncomplete, DeriveStatus("missing", "missing", exists))
}
