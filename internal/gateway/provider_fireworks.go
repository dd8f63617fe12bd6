package gateway

import (
	"net/http"
	"strings"
)

// FireworksProvider talks to api.fireworks.ai/inference/v1.
type FireworksProvider struct {
	BaseProvider
}

func NewFireworksProvider() *FireworksProvider { return &FireworksProvider{} }

func (p *FireworksProvider) Name() string { return "fireworks" }

func (p *FireworksProvider) BaseURL() string { return "https://api.fireworks.ai/inference/v1" }

func (p *FireworksProvider) TransformPath(path string) string {
	return strings.TrimPrefix(path, "/v1")
}

func (p *FireworksProvider) ProcessHeaders(in http.Header) (http.Header, error) {
	return requireBearerToken(in)
}
