package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// AnthropicProvider talks to api.anthropic.com. A fresh instance is built
// per request by the registry, so model/stream below are exclusively owned
// by the one request that constructed this value — no process-wide slot.
// The streaming input-token count lives in telemetry.StreamAccumulator,
// which is likewise per request (see DESIGN.md).
type AnthropicProvider struct {
	BaseProvider
	model  string
	stream bool
}

func NewAnthropicProvider() *AnthropicProvider { return &AnthropicProvider{} }

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) BaseURL() string { return "https://api.anthropic.com" }

func (p *AnthropicProvider) TransformPath(path string) string {
	if path == "/v1/chat/completions" {
		return "/v1/messages"
	}
	return path
}

func (p *AnthropicProvider) ProcessHeaders(in http.Header) (http.Header, error) {
	out := in.Clone()
	out.Set("content-type", "application/json")
	out.Set("anthropic-version", "2023-06-01")

	auth := strings.TrimSpace(in.Get("authorization"))
	key := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if key == "" {
		return nil, NewError(KindMissingAPIKey, "missing authorization header")
	}

	out.Del("authorization")
	out.Set("x-api-key", key)
	return out, nil
}

func (p *AnthropicProvider) BeforeRequest(_ http.Header, body []byte) {
	p.model = gjson.GetBytes(body, "model").String()
	p.stream = gjson.GetBytes(body, "stream").Bool()
}

func (p *AnthropicProvider) ProcessResponse(_ context.Context, resp *http.Response) (*http.Response, error) {
	if upstreamID := resp.Header.Get("request-id"); upstreamID != "" && resp.Header.Get("x-request-id") == "" {
		resp.Header.Set("x-request-id", upstreamID)
	}

	if p.stream || strings.Contains(resp.Header.Get("content-type"), "text/event-stream") {
		// Chunks pass through unchanged; only the header propagation above
		// and telemetry (anthropicExtractor.ExtractStreaming) touch a
		// streaming reply.
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, WrapError(KindIOError, "failed to read anthropic response body", err)
	}

	translated, err := translateAnthropicToOpenAI(body, p.model)
	if err != nil {
		resp.Body = io.NopCloser(bytes.NewReader(body))
		resp.ContentLength = int64(len(body))
		return resp, nil
	}

	resp.Body = io.NopCloser(bytes.NewReader(translated))
	resp.ContentLength = int64(len(translated))
	resp.Header.Set("content-length", strconv.Itoa(len(translated)))
	resp.Header.Set("content-type", "application/json")
	return resp, nil
}

// translateAnthropicToOpenAI rewrites an Anthropic messages response into
// an OpenAI chat-completion body (§4.1, §6).
func translateAnthropicToOpenAI(body []byte, model string) ([]byte, error) {
	parsed := gjson.ParseBytes(body)
	if !parsed.Exists() {
		return nil, fmt.Errorf("empty anthropic response body")
	}

	var text strings.Builder
	for _, block := range parsed.Get("content").Array() {
		text.WriteString(block.Get("text").String())
	}

	id := parsed.Get("id").String()
	if id == "" {
		id = "chatcmpl-" + uuid.NewString()
	}

	inputTokens := parsed.Get("usage.input_tokens").Int()
	outputTokens := parsed.Get("usage.output_tokens").Int()

	out := map[string]any{
		"id":      id,
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": text.String(),
				},
				"finish_reason": mapAnthropicStopReason(parsed.Get("stop_reason").String()),
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     inputTokens,
			"completion_tokens": outputTokens,
			"total_tokens":      inputTokens + outputTokens,
		},
		"system_fingerprint": "anthropic-" + model,
	}

	return json.Marshal(out)
}

func mapAnthropicStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	default:
		return "stop"
	}
}
