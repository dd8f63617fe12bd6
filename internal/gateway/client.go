package gateway

import (
	"compress/gzip"
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/http2"
)

// NewHTTPClient builds the single process-wide outbound client used for all
// provider dispatch (§4.5). One client is shared read-only across every
// concurrent request; no per-request connection is allocated explicitly.
func NewHTTPClient(maxConnsPerHost int, keepAliveInterval time.Duration, tcpNoDelay bool) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: keepAliveInterval,
	}

	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetNoDelay(tcpNoDelay)
		}
		return conn, nil
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialContext,
		MaxIdleConns:          maxConnsPerHost * 4,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		// DisableCompression is true because this transport advertises and
		// decodes br itself (below); net/http's built-in transparent
		// decoding only ever covers gzip, so brotli responses would
		// otherwise pass through undecoded to the caller (§4.5).
		DisableCompression: true,
	}
	// Wires HTTP/2 explicitly (instead of relying solely on ForceAttemptHTTP2)
	// so the transport negotiates h2 wherever the upstream supports it.
	_ = http2.ConfigureTransport(transport)

	return &http.Client{
		Transport: &decodingTransport{base: transport},
		Timeout:   30 * time.Second,
	}
}

// decodingTransport wraps an http.RoundTripper, advertising gzip/br support
// and transparently decoding whichever the upstream responds with, the way
// the pack's envoy-based gateway does at its upstream filter.
type decodingTransport struct {
	base http.RoundTripper
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "gzip, br")
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			return resp, nil
		}
		resp.Body = &decodedBody{Reader: gz, underlying: resp.Body}
	case "br":
		resp.Body = &decodedBody{Reader: brotli.NewReader(resp.Body), underlying: resp.Body}
	default:
		return resp, nil
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return resp, nil
}

// decodedBody presents a decompressed io.Reader as the http.Response.Body
// io.ReadCloser, closing the original compressed body underneath it.
type decodedBody struct {
	io.Reader
	underlying io.ReadCloser
}

func (b *decodedBody) Close() error { return b.underlying.Close() }
