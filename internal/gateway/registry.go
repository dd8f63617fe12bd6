package gateway

import "strings"

// NewProvider builds a fresh Provider instance for name, lowercased. A new
// value is constructed on every call — the cheap per-request construction
// the registry relies on to keep provider state request-scoped (§3, §5).
func NewProvider(name string) (Provider, error) {
	switch strings.ToLower(name) {
	case "openai", "":
		return NewOpenAIProvider(), nil
	case "anthropic":
		return NewAnthropicProvider(), nil
	case "bedrock":
		return NewBedrockProvider(), nil
	case "groq":
		return NewGroqProvider(), nil
	case "fireworks":
		return NewFireworksProvider(), nil
	case "together":
		return NewTogetherProvider(), nil
	default:
		return nil, NewError(KindUnsupportedProvider, "unsupported provider: "+name)
	}
}
