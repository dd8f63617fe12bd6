package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// sanitizePayload stringifies any message or streamed-delta content field
// that is itself an object or array (image/tool-call content blocks), so
// each such content field is always a string — never a nested structure
// the log sink has to special-case (§4.7). Valid JSON is returned as the
// parsed value; invalid JSON passes through unchanged as the raw string.
func sanitizePayload(raw string) any {
	if !gjson.Valid(raw) {
		return raw
	}

	sanitized := raw

	if messages := gjson.Get(sanitized, "messages"); messages.IsArray() {
		for i, msg := range messages.Array() {
			content := msg.Get("content")
			if content.IsArray() || content.IsObject() {
				path := fmt.Sprintf("messages.%d.content", i)
				if out, err := sjson.Set(sanitized, path, content.Raw); err == nil {
					sanitized = out
				}
			}
		}
	}

	if streamed := gjson.Get(sanitized, "streamed_data"); streamed.IsArray() {
		for i, entry := range streamed.Array() {
			choices := entry.Get("choices")
			if !choices.IsArray() {
				continue
			}
			for j, choice := range choices.Array() {
				content := choice.Get("delta.content")
				if content.IsArray() || content.IsObject() {
					path := fmt.Sprintf("streamed_data.%d.choices.%d.delta.content", i, j)
					if out, err := sjson.Set(sanitized, path, content.Raw); err == nil {
						sanitized = out
					}
				}
			}
		}
	}

	var out any
	if err := json.Unmarshal([]byte(sanitized), &out); err != nil {
		return raw
	}
	return out
}
