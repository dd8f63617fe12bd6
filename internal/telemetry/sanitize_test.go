package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePayload_StringifiesArrayContent(t *testing.T) {
	raw := `{"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`
	out := sanitizePayload(raw)

	obj, ok := out.(map[string]any)
	require.True(t, ok)
	messages := obj["messages"].([]any)
	msg := messages[0].(map[string]any)
	content, ok := msg["content"].(string)
	require.True(t, ok, "array content must be stringified")
	assert.Contains(t, content, "text")
}

func TestSanitizePayload_LeavesScalarContentAlone(t *testing.T) {
	raw := `{"messages":[{"role":"user","content":"plain text"}]}`
	out := sanitizePayload(raw)

	obj := out.(map[string]any)
	messages := obj["messages"].([]any)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "plain text", msg["content"])
}

func TestSanitizePayload_StreamedDeltaContent(t *testing.T) {
	raw := `{"streamed_data":[{"choices":[{"delta":{"content":{"type":"image"}}}]}]}`
	out := sanitizePayload(raw)

	obj := out.(map[string]any)
	streamed := obj["streamed_data"].([]any)
	entry := streamed[0].(map[string]any)
	choices := entry["choices"].([]any)
	choice := choices[0].(map[string]any)
	delta := choice["delta"].(map[string]any)
	_, isString := delta["content"].(string)
	assert.True(t, isString)
}

func TestSanitizePayload_InvalidJSONPassesThrough(t *testing.T) {
	raw := "not json"
	assert.Equal(t, raw, sanitizePayload(raw))
}
