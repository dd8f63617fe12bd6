package gateway

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

// Pipeline resolves a provider, transforms and signs the outbound request,
// dispatches it through the shared client, and translates the response —
// the request-lifecycle contract of §4.2. Steps run strictly sequentially
// per request; any failure short-circuits with the taxonomy of §7. The
// pipeline never retries an upstream request.
type Pipeline struct {
	client *http.Client
	signer *Signer
}

func NewPipeline(client *http.Client, signer *Signer) *Pipeline {
	return &Pipeline{client: client, signer: signer}
}

// Proxy executes proxy(provider_name, request) -> response | error.
func (pl *Pipeline) Proxy(ctx context.Context, providerName string, rc *RequestContext) (*http.Response, error) {
	provider, err := NewProvider(providerName)
	if err != nil {
		return nil, err
	}

	provider.BeforeRequest(rc.Headers, rc.Body)

	headersOut, err := provider.ProcessHeaders(rc.Headers)
	if err != nil {
		return nil, err
	}

	pathOut := provider.TransformPath(rc.Path)

	bodyOut, err := provider.PrepareRequestBody(rc.Body)
	if err != nil {
		return nil, err
	}

	target := provider.BaseURL() + pathOut
	if rc.Query != "" {
		target += "?" + rc.Query
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return nil, WrapError(KindHTTPBuildError, "failed to build upstream URL", err)
	}

	req, err := http.NewRequestWithContext(ctx, rc.Method, parsedURL.String(), bytes.NewReader(bodyOut))
	if err != nil {
		return nil, WrapError(KindHTTPBuildError, "failed to build upstream request", err)
	}
	req.Header = headersOut

	if provider.RequiresSigning() {
		headerAccessKey, headerSecretKey, headerRegion, _ := provider.SigningCredentials(rc.Headers)
		creds, region, err := pl.signer.ResolveCredentials(ctx, headerAccessKey, headerSecretKey, headerRegion)
		if err != nil {
			return nil, err
		}
		if err := pl.signer.Sign(ctx, req, bodyOut, creds, region); err != nil {
			return nil, err
		}
	}

	resp, err := pl.client.Do(req)
	if err != nil {
		return nil, WrapError(KindUpstreamRequestFailure, "upstream request failed", err)
	}

	return provider.ProcessResponse(ctx, resp)
}
