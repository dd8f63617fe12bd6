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

// BedrockProvider talks to bedrock-runtime.<region>.amazonaws.com. A fresh
// instance is constructed per request by the registry: region/model/stream/
// systemFingerprint below replace the Arc<RwLock<...>> shared-state pattern
// of the original implementation (see DESIGN.md) — since nothing but the one
// request that called BeforeRequest ever touches this instance, plain
// fields are correct and need no synchronization.
type BedrockProvider struct {
	BaseProvider
	region            string
	model             string
	stream            bool
	systemFingerprint string
}

func NewBedrockProvider() *BedrockProvider {
	return &BedrockProvider{region: "us-east-1"}
}

func (p *BedrockProvider) Name() string { return "bedrock" }

func (p *BedrockProvider) BaseURL() string {
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", p.region)
}

func (p *BedrockProvider) BeforeRequest(headers http.Header, body []byte) {
	if region := headers.Get("x-aws-region"); region != "" {
		p.region = region
	}
	p.model = gjson.GetBytes(body, "model").String()
	p.stream = gjson.GetBytes(body, "stream").Bool()
	p.systemFingerprint = "bedrock-" + uuid.NewString()
}

func (p *BedrockProvider) TransformPath(_ string) string {
	suffix := "converse"
	if p.stream {
		suffix = "converse-stream"
	}
	return fmt.Sprintf("/model/%s/%s", p.model, suffix)
}

func (p *BedrockProvider) ProcessHeaders(in http.Header) (http.Header, error) {
	out := http.Header{}
	for name, values := range in {
		if strings.HasPrefix(strings.ToLower(name), "x-aws-") {
			for _, v := range values {
				out.Add(name, v)
			}
		}
	}
	out.Set("content-type", "application/json")
	return out, nil
}

func (p *BedrockProvider) PrepareRequestBody(body []byte) ([]byte, error) {
	parsed := gjson.ParseBytes(body)

	if parsed.Get("inferenceConfig").Exists() {
		return body, nil
	}

	var messages []map[string]any
	var systemBlocks []map[string]any

	for _, m := range parsed.Get("messages").Array() {
		role := m.Get("role").String()
		content := m.Get("content").String()
		if role == "system" {
			systemBlocks = append(systemBlocks, map[string]any{"text": content})
			continue
		}
		messages = append(messages, map[string]any{
			"role":    role,
			"content": []map[string]any{{"text": content}},
		})
	}

	maxTokens := parsed.Get("max_tokens").Int()
	if maxTokens == 0 {
		maxTokens = 1000
	}
	temperature := 0.7
	if parsed.Get("temperature").Exists() {
		temperature = parsed.Get("temperature").Float()
	}
	topP := 1.0
	if parsed.Get("top_p").Exists() {
		topP = parsed.Get("top_p").Float()
	}

	out := map[string]any{
		"messages": messages,
		"inferenceConfig": map[string]any{
			"maxTokens":   maxTokens,
			"temperature": temperature,
			"topP":        topP,
		},
	}
	if len(systemBlocks) > 0 {
		out["system"] = systemBlocks
	}

	return json.Marshal(out)
}

func (p *BedrockProvider) RequiresSigning() bool { return true }

func (p *BedrockProvider) SigningCredentials(headers http.Header) (accessKey, secretKey, region string, ok bool) {
	region = headers.Get("x-aws-region")
	if region == "" {
		region = p.region
	}
	accessKey = headers.Get("x-aws-access-key-id")
	secretKey = headers.Get("x-aws-secret-access-key")
	if accessKey == "" || secretKey == "" {
		return "", "", region, false
	}
	return accessKey, secretKey, region, true
}

func (p *BedrockProvider) SigningHost() string {
	return fmt.Sprintf("bedrock-runtime.%s.amazonaws.com", p.region)
}

func (p *BedrockProvider) ProcessResponse(_ context.Context, resp *http.Response) (*http.Response, error) {
	if resp.Header.Get("x-request-id") == "" {
		resp.Header.Set("x-request-id", "req-"+uuid.NewString())
	}

	if strings.Contains(resp.Header.Get("content-type"), "vnd.amazon.eventstream") {
		resp.Body = newBedrockSSEReader(resp.Body, p.model, p.systemFingerprint)
		resp.Header.Set("content-type", "text/event-stream")
		resp.Header.Set("cache-control", "no-cache")
		resp.Header.Set("connection", "keep-alive")
		resp.Header.Set("transfer-encoding", "chunked")
		resp.Header.Set("x-accel-buffering", "no")
		resp.ContentLength = -1
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, WrapError(KindIOError, "failed to read bedrock response body", err)
	}

	translated, err := translateBedrockConverseToOpenAI(body, p.model, p.systemFingerprint)
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

func translateBedrockConverseToOpenAI(body []byte, model, systemFingerprint string) ([]byte, error) {
	parsed := gjson.ParseBytes(body)
	if !parsed.Exists() {
		return nil, fmt.Errorf("empty bedrock response body")
	}

	var text strings.Builder
	for _, block := range parsed.Get("output.message.content").Array() {
		text.WriteString(block.Get("text").String())
	}

	inputTokens := parsed.Get("usage.inputTokens").Int()
	outputTokens := parsed.Get("usage.outputTokens").Int()
	totalTokens := parsed.Get("usage.totalTokens").Int()
	if totalTokens == 0 {
		totalTokens = inputTokens + outputTokens
	}

	out := map[string]any{
		"id":      "chatcmpl-" + uuid.NewString(),
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
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     inputTokens,
			"completion_tokens": outputTokens,
			"total_tokens":      totalTokens,
		},
		"system_fingerprint": systemFingerprint,
	}

	return json.Marshal(out)
}
