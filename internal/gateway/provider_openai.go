package gateway

import (
	"net/http"
	"strings"
)

// OpenAIProvider talks to api.openai.com. It is the reference "no transform"
// provider: path and body pass through unchanged, only the credential header
// is normalized.
type OpenAIProvider struct {
	BaseProvider
}

func NewOpenAIProvider() *OpenAIProvider { return &OpenAIProvider{} }

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) BaseURL() string { return "https://api.openai.com" }

// ProcessHeaders honors a caller's authorization: Bearer passthrough, with
// fallback to x-magicapi-api-key converted to Bearer (Open Question 1).
func (p *OpenAIProvider) ProcessHeaders(in http.Header) (http.Header, error) {
	out := in.Clone()
	out.Set("content-type", "application/json")

	if auth := in.Get("authorization"); strings.TrimSpace(auth) != "" {
		out.Set("authorization", auth)
		return out, nil
	}

	if magicKey := in.Get("x-magicapi-api-key"); magicKey != "" {
		out.Set("authorization", "Bearer "+magicKey)
		out.Del("x-magicapi-api-key")
		return out, nil
	}

	return nil, NewError(KindMissingAPIKey, "missing authorization or x-magicapi-api-key header")
}
