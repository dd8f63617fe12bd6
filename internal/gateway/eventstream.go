package gateway

import (
	"encoding/json"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// bedrockSSEReader translates the upstream application/vnd.amazon.eventstream
// binary frames of a Bedrock converse-stream response into OpenAI-shaped SSE
// "data: ...\n\n" lines, one frame at a time, without buffering the whole
// response (§4.1 Bedrock streaming, §9 dedicated parser note).
type bedrockSSEReader struct {
	upstream          io.ReadCloser
	decoder           *eventstream.Decoder
	model             string
	systemFingerprint string
	firstChunkSeen    bool
	pending           []byte
	done              bool
}

func newBedrockSSEReader(upstream io.ReadCloser, model, systemFingerprint string) *bedrockSSEReader {
	return &bedrockSSEReader{
		upstream:          upstream,
		decoder:           eventstream.NewDecoder(),
		model:             model,
		systemFingerprint: systemFingerprint,
	}
}

func (r *bedrockSSEReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 && !r.done {
		msg, err := r.decoder.Decode(r.upstream, nil)
		if err != nil {
			if err == io.EOF {
				r.done = true
				break
			}
			// Checksum/framing failures are warnings, not fatal: skip the
			// malformed frame and keep decoding; a subsequent valid frame
			// resumes normal translation (§9).
			log.Warn().Err(err).Msg("bedrock eventstream frame decode failed, skipping")
			continue
		}
		r.pending = append(r.pending, r.translateMessage(msg)...)
	}

	if len(r.pending) == 0 {
		return 0, io.EOF
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *bedrockSSEReader) Close() error { return r.upstream.Close() }

// translateMessage dispatches on the eventstream frame's :event-type header
// and returns zero or more bytes of SSE payload to forward.
func (r *bedrockSSEReader) translateMessage(msg eventstream.Message) []byte {
	eventType := ""
	for _, h := range msg.Headers {
		if h.Name == ":event-type" {
			if s, ok := h.Value.Get().(string); ok {
				eventType = s
			}
		}
	}

	switch eventType {
	case "contentBlockDelta":
		var payload struct {
			Delta struct {
				Text string `json:"text"`
			} `json:"delta"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			log.Warn().Err(err).Msg("bedrock contentBlockDelta payload parse failed, skipping")
			return nil
		}
		return r.contentChunk(payload.Delta.Text)
	case "metadata":
		var payload struct {
			Usage struct {
				InputTokens  int `json:"inputTokens"`
				OutputTokens int `json:"outputTokens"`
				TotalTokens  int `json:"totalTokens"`
			} `json:"usage"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		out := r.finalChunk(payload.Usage.InputTokens, payload.Usage.OutputTokens, payload.Usage.TotalTokens)
		return append(out, []byte("data: [DONE]\n\n")...)
	default:
		// messageStart, contentBlockStart, contentBlockStop, messageStop
		// carry no content the client needs to see.
		return nil
	}
}

func (r *bedrockSSEReader) contentChunk(text string) []byte {
	delta := map[string]any{"content": text}
	if !r.firstChunkSeen {
		delta["role"] = "assistant"
		r.firstChunkSeen = true
	}

	chunk := map[string]any{
		"id":                 "chatcmpl-" + uuid.NewString(),
		"object":             "chat.completion.chunk",
		"created":            time.Now().Unix(),
		"model":              r.model,
		"system_fingerprint": r.systemFingerprint,
		"choices": []map[string]any{
			{"index": 0, "delta": delta, "finish_reason": nil},
		},
	}
	return sseLine(chunk)
}

func (r *bedrockSSEReader) finalChunk(input, output, total int) []byte {
	if total == 0 {
		total = input + output
	}
	chunk := map[string]any{
		"id":                 "chatcmpl-" + uuid.NewString(),
		"object":             "chat.completion.chunk",
		"created":            time.Now().Unix(),
		"model":              r.model,
		"system_fingerprint": r.systemFingerprint,
		"choices": []map[string]any{
			{"index": 0, "delta": map[string]any{}, "finish_reason": "stop"},
		},
		"usage": map[string]any{
			"prompt_tokens":     input,
			"completion_tokens": output,
			"total_tokens":      total,
		},
	}
	return sseLine(chunk)
}

func sseLine(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	out := make([]byte, 0, len(b)+8)
	out = append(out, "data: "...)
	out = append(out, b...)
	out = append(out, '\n', '\n')
	return out
}
