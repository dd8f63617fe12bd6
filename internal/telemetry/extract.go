package telemetry

import (
	"bytes"
	"encoding/json"
)

// StreamAccumulator holds the minimal per-stream state a streaming
// extractor needs to combine facts seen across chunks — e.g. Anthropic's
// input token count, disclosed once in message_start and needed again when
// message_delta reports output tokens. It MUST be constructed fresh per
// request by the caller; never shared or reused across requests. That
// per-request ownership is what replaces the old thread-local input-token
// slot (§3, §9).
type StreamAccumulator struct {
	AnthropicInputTokens *int
	// Model carries the model name disclosed in an earlier chunk (Anthropic's
	// message_start, Groq's first chunk) forward to a later chunk that omits
	// it, so a terminal-usage ProviderMetrics is never costed against "".
	Model string
}

// Extractor recovers ProviderMetrics from a provider's own response shape
// (§4.4). Exactly one implementation is selected per provider name:
// Anthropic and Groq have their own, and every other name (including
// bedrock and any unrecognized name) gets the openAICompatibleExtractor.
type Extractor interface {
	// Extract parses a complete, non-streaming response body.
	Extract(body []byte) ProviderMetrics
	// ExtractStreaming parses one decoded stream chunk (the JSON payload of
	// a single "data: " line, already stripped of the prefix). It returns
	// nil when the chunk carries no usable metrics, and terminal=true when
	// the returned metrics represent the final, authoritative usage for the
	// request.
	ExtractStreaming(chunk []byte, acc *StreamAccumulator) (metrics *ProviderMetrics, terminal bool)
}

// NewExtractor returns the Extractor registered for provider.
func NewExtractor(provider string) Extractor {
	switch provider {
	case "anthropic":
		return anthropicExtractor{}
	case "groq":
		return groqExtractor{}
	case "bedrock":
		// By the time telemetry observes a Bedrock stream it has already
		// been translated to OpenAI-chunk shape by bedrockSSEReader, so the
		// same extraction logic as the native OpenAI-compatible providers
		// applies unchanged.
		return openAICompatibleExtractor{provider: "bedrock"}
	default:
		return openAICompatibleExtractor{provider: provider}
	}
}

type openAICompatibleUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAICompatibleExtractor struct{ provider string }

func (e openAICompatibleExtractor) Extract(body []byte) ProviderMetrics {
	var parsed struct {
		Model string                 `json:"model"`
		Usage *openAICompatibleUsage `json:"usage"`
	}
	_ = json.Unmarshal(body, &parsed)

	m := ProviderMetrics{Model: parsed.Model}
	if parsed.Usage != nil {
		e.fill(&m, parsed.Model, *parsed.Usage)
	}
	return m
}

func (e openAICompatibleExtractor) ExtractStreaming(chunk []byte, _ *StreamAccumulator) (*ProviderMetrics, bool) {
	var parsed struct {
		Model   string                 `json:"model"`
		Usage   *openAICompatibleUsage `json:"usage"`
		Choices []json.RawMessage      `json:"choices"`
	}
	if err := json.Unmarshal(chunk, &parsed); err != nil {
		return nil, false
	}

	if parsed.Usage != nil {
		m := ProviderMetrics{Model: parsed.Model}
		e.fill(&m, parsed.Model, *parsed.Usage)
		return &m, true
	}

	if len(parsed.Choices) > 0 || bytes.Contains(chunk, []byte("finish_reason")) {
		return &ProviderMetrics{Model: parsed.Model}, false
	}
	return nil, false
}

func (e openAICompatibleExtractor) fill(m *ProviderMetrics, model string, u openAICompatibleUsage) {
	in, out, tot := u.PromptTokens, u.CompletionTokens, u.TotalTokens
	if tot == 0 {
		tot = in + out
	}
	m.InputTokens, m.OutputTokens, m.TotalTokens = &in, &out, &tot
	m.Cost = costPtr(CostPerToken(e.provider, model) * float64(tot))
}

type groqExtractor struct{}

func (groqExtractor) Extract(body []byte) ProviderMetrics {
	var parsed struct {
		Model string `json:"model"`
		XGroq *struct {
			Usage struct {
				openAICompatibleUsage
				TotalTime float64 `json:"total_time"`
			} `json:"usage"`
		} `json:"x_groq"`
		Usage *openAICompatibleUsage `json:"usage"`
	}
	_ = json.Unmarshal(body, &parsed)

	m := ProviderMetrics{Model: parsed.Model}
	switch {
	case parsed.XGroq != nil:
		openAICompatibleExtractor{provider: "groq"}.fill(&m, parsed.Model, parsed.XGroq.Usage.openAICompatibleUsage)
		m.ProviderLatency = durationFromSeconds(parsed.XGroq.Usage.TotalTime)
	case parsed.Usage != nil:
		openAICompatibleExtractor{provider: "groq"}.fill(&m, parsed.Model, *parsed.Usage)
	}
	return m
}

func (e groqExtractor) ExtractStreaming(chunk []byte, acc *StreamAccumulator) (*ProviderMetrics, bool) {
	m := e.Extract(chunk)
	if m.Model != "" {
		acc.Model = m.Model
	} else if acc.Model != "" {
		m.Model = acc.Model
		if m.TotalTokens != nil {
			m.Cost = costPtr(CostPerToken("groq", acc.Model) * float64(*m.TotalTokens))
		}
	}
	if m.TotalTokens != nil {
		return &m, true
	}
	partial, terminal := openAICompatibleExtractor{provider: "groq"}.ExtractStreaming(chunk, acc)
	if partial != nil && partial.Model == "" {
		partial.Model = acc.Model
	}
	return partial, terminal
}

type anthropicExtractor struct{}

func (anthropicExtractor) Extract(body []byte) ProviderMetrics {
	var parsed struct {
		Model string `json:"model"`
		Usage *struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	_ = json.Unmarshal(body, &parsed)

	m := ProviderMetrics{Model: parsed.Model}
	if parsed.Usage != nil {
		in, out := parsed.Usage.InputTokens, parsed.Usage.OutputTokens
		tot := in + out
		m.InputTokens, m.OutputTokens, m.TotalTokens = &in, &out, &tot
		m.Cost = costPtr(CostPerToken("anthropic", parsed.Model) * float64(tot))
	}
	return m
}

func (anthropicExtractor) ExtractStreaming(chunk []byte, acc *StreamAccumulator) (*ProviderMetrics, bool) {
	var event struct {
		Type    string `json:"type"`
		Message *struct {
			Model string `json:"model"`
			Usage struct {
				InputTokens int `json:"input_tokens"`
			} `json:"usage"`
		} `json:"message"`
		Usage *struct {
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(chunk, &event); err != nil {
		return nil, false
	}

	switch event.Type {
	case "message_start":
		if event.Message == nil {
			return nil, false
		}
		in := event.Message.Usage.InputTokens
		acc.AnthropicInputTokens = &in
		acc.Model = event.Message.Model
		return &ProviderMetrics{Model: event.Message.Model}, false

	case "message_delta":
		if event.Usage == nil {
			return nil, false
		}
		out := event.Usage.OutputTokens
		in := 0
		if acc.AnthropicInputTokens != nil {
			in = *acc.AnthropicInputTokens
		}
		tot := in + out
		m := ProviderMetrics{Model: acc.Model, InputTokens: &in, OutputTokens: &out, TotalTokens: &tot}
		m.Cost = costPtr(CostPerToken("anthropic", acc.Model) * float64(tot))
		return &m, true
	}
	return nil, false
}
