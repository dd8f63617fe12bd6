package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// TogetherProvider talks to api.together.xyz. Shares Fireworks's strict
// Bearer validation but additionally synthesizes a request id when upstream
// doesn't supply one.
type TogetherProvider struct {
	BaseProvider
}

func NewTogetherProvider() *TogetherProvider { return &TogetherProvider{} }

func (p *TogetherProvider) Name() string { return "together" }

func (p *TogetherProvider) BaseURL() string { return "https://api.together.xyz" }

func (p *TogetherProvider) ProcessHeaders(in http.Header) (http.Header, error) {
	return requireBearerToken(in)
}

func (p *TogetherProvider) ProcessResponse(_ context.Context, resp *http.Response) (*http.Response, error) {
	if resp.Header.Get("x-request-id") != "" {
		return resp, nil
	}

	if strings.Contains(resp.Header.Get("content-type"), "text/event-stream") {
		resp.Header.Set("x-request-id", synthesizeRequestID())
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, WrapError(KindIOError, "failed to read together response body", err)
	}

	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		id = synthesizeRequestID()
	}
	resp.Header.Set("x-request-id", id)

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func synthesizeRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
