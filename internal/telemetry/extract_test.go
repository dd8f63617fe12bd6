package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatibleExtractor_Extract(t *testing.T) {
	e := NewExtractor("openai")
	m := e.Extract([]byte(`{"model":"gpt-4o","usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))

	require.NotNil(t, m.TotalTokens)
	assert.Equal(t, 15, *m.TotalTokens)
	assert.Equal(t, 10, *m.InputTokens)
	assert.Equal(t, 5, *m.OutputTokens)
	require.NotNil(t, m.Cost)
	assert.InDelta(t, 15*0.00003, *m.Cost, 1e-12)
}

func TestOpenAICompatibleExtractor_ExtractStreaming_NoUsageYieldsPartial(t *testing.T) {
	e := NewExtractor("openai")
	acc := &StreamAccumulator{}

	m, terminal := e.ExtractStreaming([]byte(`{"model":"gpt-4o","choices":[{"delta":{"content":"hi"}}]}`), acc)
	require.NotNil(t, m)
	assert.False(t, terminal)
	assert.Nil(t, m.TotalTokens)
}

func TestOpenAICompatibleExtractor_ExtractStreaming_TerminalUsage(t *testing.T) {
	e := NewExtractor("openai")
	acc := &StreamAccumulator{}

	m, terminal := e.ExtractStreaming([]byte(`{"model":"gpt-4o","usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`), acc)
	require.NotNil(t, m)
	assert.True(t, terminal)
	assert.Equal(t, 3, *m.TotalTokens)
}

func TestAnthropicExtractor_Streaming_CombinesStartAndDelta(t *testing.T) {
	e := NewExtractor("anthropic")
	acc := &StreamAccumulator{}

	start, terminal := e.ExtractStreaming([]byte(`{"type":"message_start","message":{"model":"claude-3-opus-20240229","usage":{"input_tokens":12}}}`), acc)
	require.NotNil(t, start)
	assert.False(t, terminal)
	require.NotNil(t, acc.AnthropicInputTokens)
	assert.Equal(t, 12, *acc.AnthropicInputTokens)

	final, terminal := e.ExtractStreaming([]byte(`{"type":"message_delta","usage":{"output_tokens":7}}`), acc)
	require.NotNil(t, final)
	assert.True(t, terminal)
	assert.Equal(t, 12, *final.InputTokens)
	assert.Equal(t, 7, *final.OutputTokens)
	assert.Equal(t, 19, *final.TotalTokens)
}

func TestAnthropicExtractor_Unary(t *testing.T) {
	e := NewExtractor("anthropic")
	m := e.Extract([]byte(`{"model":"claude-3-haiku-20240307","usage":{"input_tokens":4,"output_tokens":2}}`))
	require.NotNil(t, m.TotalTokens)
	assert.Equal(t, 6, *m.TotalTokens)
}

func TestGroqExtractor_XGroqUsage(t *testing.T) {
	e := NewExtractor("groq")
	m := e.Extract([]byte(`{"model":"llama-3.1-70b-versatile","x_groq":{"usage":{"prompt_tokens":5,"completion_tokens":3,"total_tokens":8,"total_time":0.42}}}`))

	require.NotNil(t, m.TotalTokens)
	assert.Equal(t, 8, *m.TotalTokens)
	assert.Equal(t, durationFromSeconds(0.42), m.ProviderLatency)
}

func TestBedrockExtractor_DelegatesToOpenAIShape(t *testing.T) {
	e := NewExtractor("bedrock")
	m := e.Extract([]byte(`{"model":"amazon.titan-text-premier-v1:0","usage":{"prompt_tokens":2,"completion_tokens":1,"total_tokens":3}}`))
	require.NotNil(t, m.TotalTokens)
	assert.Equal(t, 3, *m.TotalTokens)
}
