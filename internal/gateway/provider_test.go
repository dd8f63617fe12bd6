package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_DefaultsToOpenAI(t *testing.T) {
	p, err := NewProvider("")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestNewProvider_CaseInsensitive(t *testing.T) {
	p, err := NewProvider("ANTHROPIC")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider("mystery-llm")
	require.Error(t, err)
	assert.Equal(t, KindUnsupportedProvider, err.(*Error).Kind)
}

func TestNewProvider_FreshInstancePerCall(t *testing.T) {
	a, err := NewProvider("bedrock")
	require.NoError(t, err)
	b, err := NewProvider("bedrock")
	require.NoError(t, err)
	assert.NotSame(t, a, b, "each call must construct a new provider value")
}

func TestOpenAIProvider_MagicAPIKeyFallback(t *testing.T) {
	p := NewOpenAIProvider()
	in := http.Header{"X-Magicapi-Api-Key": []string{"mk-123"}}

	out, err := p.ProcessHeaders(in)
	require.NoError(t, err)
	assert.Equal(t, "Bearer mk-123", out.Get("authorization"))
	assert.Empty(t, out.Get("x-magicapi-api-key"))
}

func TestOpenAIProvider_MissingCredential(t *testing.T) {
	p := NewOpenAIProvider()
	_, err := p.ProcessHeaders(http.Header{})
	require.Error(t, err)
	assert.Equal(t, KindMissingAPIKey, err.(*Error).Kind)
}

func TestAnthropicProvider_RelocatesCredential(t *testing.T) {
	p := NewAnthropicProvider()
	in := http.Header{"Authorization": []string{"Bearer sk-ant-1"}}

	out, err := p.ProcessHeaders(in)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-1", out.Get("x-api-key"))
	assert.Empty(t, out.Get("authorization"))
	assert.Equal(t, "2023-06-01", out.Get("anthropic-version"))
}

func TestAnthropicProvider_PathRewrite(t *testing.T) {
	p := NewAnthropicProvider()
	assert.Equal(t, "/v1/messages", p.TransformPath("/v1/chat/completions"))
	assert.Equal(t, "/v1/models", p.TransformPath("/v1/models"))
}

func TestMapAnthropicStopReason(t *testing.T) {
	assert.Equal(t, "stop", mapAnthropicStopReason("end_turn"))
	assert.Equal(t, "length", mapAnthropicStopReason("max_tokens"))
	assert.Equal(t, "stop", mapAnthropicStopReason("stop_sequence"))
	assert.Equal(t, "stop", mapAnthropicStopReason("something_else"))
}

func TestFireworksProvider_StripsV1Prefix(t *testing.T) {
	p := NewFireworksProvider()
	assert.Equal(t, "/chat/completions", p.TransformPath("/v1/chat/completions"))
}

func TestRequireBearerToken(t *testing.T) {
	_, err := requireBearerToken(http.Header{})
	require.Error(t, err)
	assert.Equal(t, KindMissingAPIKey, err.(*Error).Kind)

	_, err = requireBearerToken(http.Header{"Authorization": []string{"Basic xyz"}})
	require.Error(t, err)
	assert.Equal(t, KindInvalidHeader, err.(*Error).Kind)

	_, err = requireBearerToken(http.Header{"Authorization": []string{"Bearer "}})
	require.Error(t, err)
	assert.Equal(t, KindInvalidHeader, err.(*Error).Kind)

	out, err := requireBearerToken(http.Header{"Authorization": []string{"Bearer tok-1"}})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", out.Get("authorization"))
}

func TestBedrockProvider_PrepareRequestBody(t *testing.T) {
	p := NewBedrockProvider()
	body := []byte(`{"messages":[{"role":"system","content":"s"},{"role":"user","content":"u"}],"max_tokens":8}`)

	out, err := p.PrepareRequestBody(body)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"maxTokens":8`)
	assert.Contains(t, string(out), `"system":[{"text":"s"}]`)
}

func TestBedrockProvider_TransformPathStreamVsUnary(t *testing.T) {
	p := NewBedrockProvider()
	p.model = "amazon.titan-text-premier-v1:0"

	p.stream = false
	assert.Equal(t, "/model/amazon.titan-text-premier-v1:0/converse", p.TransformPath(""))

	p.stream = true
	assert.Equal(t, "/model/amazon.titan-text-premier-v1:0/converse-stream", p.TransformPath(""))
}

func TestExtractTrackingHeaders(t *testing.T) {
	h := http.Header{
		"X-Project-Id": []string{"proj-1"},
		"X-User-Id":    []string{"user-1"},
		"X-Unrelated":  []string{"ignored"},
	}
	got := ExtractTrackingHeaders(h)
	assert.Equal(t, "proj-1", got["x-project-id"])
	assert.Equal(t, "user-1", got["x-user-id"])
	_, ok := got["x-unrelated"]
	assert.False(t, ok)
}
