package gateway

import "net/http"

// GroqProvider talks to api.groq.com/openai. OpenAI-compatible wire shape;
// only the credential passthrough needs validation.
type GroqProvider struct {
	BaseProvider
}

func NewGroqProvider() *GroqProvider { return &GroqProvider{} }

func (p *GroqProvider) Name() string { return "groq" }

func (p *GroqProvider) BaseURL() string { return "https://api.groq.com/openai" }

func (p *GroqProvider) ProcessHeaders(in http.Header) (http.Header, error) {
	if in.Get("authorization") == "" {
		return nil, NewError(KindMissingAPIKey, "missing authorization header")
	}
	out := in.Clone()
	out.Set("content-type", "application/json")
	return out, nil
}
