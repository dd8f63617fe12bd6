package gateway

import (
	"context"
	"net/http"
)

// RequestContext carries the per-request state that flows through the
// pipeline: the inbound method, path, query, headers, buffered body, remote
// address and a correlation id assigned once per request. It is never
// shared across requests.
type RequestContext struct {
	Method        string
	Path          string
	Query         string
	Headers       http.Header
	Body          []byte
	RemoteAddr    string
	CorrelationID string
}

// Provider abstracts one upstream LLM service. The registry constructs a
// fresh value per request (see registry.go), so an implementation is free to
// hold plain struct fields for anything it needs to remember between
// BeforeRequest and ProcessResponse — there is never more than one request
// using a given instance, so no locking is required.
type Provider interface {
	// Name is the stable lowercase identifier used for routing and metrics.
	Name() string

	// BaseURL is the scheme+host+optional-prefix for the upstream.
	BaseURL() string

	// TransformPath rewrites the caller-facing path into the upstream's
	// expected path. Default: identity.
	TransformPath(path string) string

	// ProcessHeaders builds the outbound header set from the caller's
	// headers. MUST set content-type: application/json and relocate the
	// caller's credential into the provider's expected header.
	ProcessHeaders(in http.Header) (http.Header, error)

	// PrepareRequestBody optionally rewrites the request body. Default:
	// identity.
	PrepareRequestBody(body []byte) ([]byte, error)

	// BeforeRequest lets a provider capture per-request state (e.g.
	// Bedrock's model from the body, Anthropic's streaming setup). Default:
	// no-op.
	BeforeRequest(headers http.Header, body []byte)

	// ProcessResponse optionally rewrites the upstream response (headers and
	// body, unary or streaming) into the canonical shape. Default: identity.
	ProcessResponse(ctx context.Context, resp *http.Response) (*http.Response, error)

	// RequiresSigning is true only for Bedrock.
	RequiresSigning() bool

	// SigningCredentials extracts signing material from request headers
	// when the provider requires signing. ok is false when nothing usable
	// was found in the headers (the caller falls back to process defaults).
	SigningCredentials(headers http.Header) (accessKey, secretKey, region string, ok bool)

	// SigningHost is the host to embed in the SigV4 signature.
	SigningHost() string
}

// BaseProvider implements the identity defaults from §4.1 so concrete
// providers only need to override what they actually change.
type BaseProvider struct{}

func (BaseProvider) TransformPath(path string) string { return path }

func (BaseProvider) PrepareRequestBody(body []byte) ([]byte, error) { return body, nil }

func (BaseProvider) BeforeRequest(http.Header, []byte) {}

func (BaseProvider) ProcessResponse(_ context.Context, resp *http.Response) (*http.Response, error) {
	return resp, nil
}

func (BaseProvider) RequiresSigning() bool { return false }

func (BaseProvider) SigningCredentials(http.Header) (string, string, string, bool) {
	return "", "", "", false
}

func (BaseProvider) SigningHost() string { return "" }
