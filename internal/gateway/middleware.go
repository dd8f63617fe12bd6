// HTTP middleware: panic recovery, CORS, and the telemetry wrapper around
// the proxy pipeline (§4.6).
package gateway

import (
	"bufio"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/compresr/ai-gateway/internal/monitoring"
	"github.com/compresr/ai-gateway/internal/telemetry"
)

const headerRequestID = "x-request-id"

// panicRecovery catches a panic anywhere downstream, logs it, and responds
// with a 500 instead of tearing down the connection.
func panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("panic", err).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				WriteError(w, NewError(KindInternal, "internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// cors permits any origin/method/header per §6's response invariants.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// telemetryHandler wraps proxying a single /v1/* request: it builds the
// RequestContext, calls the pipeline, and on return assembles and records a
// RequestMetrics either from the buffered unary body or from a line-by-line
// tee of the streamed one, where each line is forwarded and flushed to the
// client before extraction runs on it in the same goroutine (§4.6).
type telemetryHandler struct {
	pipeline *Pipeline
	registry *telemetry.Registry
}

func newTelemetryHandler(pipeline *Pipeline, registry *telemetry.Registry) *telemetryHandler {
	return &telemetryHandler{pipeline: pipeline, registry: registry}
}

func (h *telemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx := monitoring.WithRequestIDContext(r.Context(), requestID)

	reqBody, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, WrapError(KindIOError, "failed to read request body", err))
		return
	}
	r.Body.Close()

	providerName := r.Header.Get("x-provider")
	if providerName == "" {
		providerName = "openai"
	}

	rc := &RequestContext{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Headers:       r.Header.Clone(),
		Body:          reqBody,
		RemoteAddr:    r.RemoteAddr,
		CorrelationID: requestID,
	}

	tracking := ExtractTrackingHeaders(r.Header)
	base := telemetry.RequestMetrics{
		ID:           requestID,
		Provider:     providerName,
		Method:       r.Method,
		Path:         r.URL.Path,
		RequestSize:  len(reqBody),
		ThreadID:     firstNonEmpty(r.Header.Get("x-thread-id"), synthesizeThreadID()),
		ProjectID:    tracking["x-project-id"],
		OrgID:        firstNonEmpty(tracking["x-organisation-id"], tracking["x-organization-id"]),
		UserID:       tracking["x-user-id"],
		ExperimentID: tracking["x-experiment-id"],
	}
	if gjson.ValidBytes(reqBody) {
		base.RequestBody = string(reqBody)
	}

	resp, err := h.pipeline.Proxy(ctx, providerName, rc)
	if err != nil {
		base.StatusCode = errStatusCode(err)
		base.ErrorCount = 1
		base.ErrorType = errKind(err)
		base.TotalLatency = time.Since(start)
		base.Timestamp = time.Now()
		h.registry.Record(base)

		monitoring.FromContext(ctx).Error().Err(err).Str("provider", providerName).Msg("proxy failed")
		WriteError(w, err)
		return
	}
	defer resp.Body.Close()

	if resp.Header.Get(headerRequestID) == "" {
		resp.Header.Set(headerRequestID, requestID)
	}
	base.ProviderRequestID = firstNonEmpty(resp.Header.Get("x-request-id"), resp.Header.Get("request-id"))

	copyHeader(w.Header(), resp.Header)

	if strings.Contains(resp.Header.Get("content-type"), "text/event-stream") {
		h.handleStreaming(w, resp, base, start)
		return
	}
	h.handleUnary(w, resp, base, start)
}

func (h *telemetryHandler) handleUnary(w http.ResponseWriter, resp *http.Response, base telemetry.RequestMetrics, start time.Time) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		WriteError(w, WrapError(KindIOError, "failed to read upstream response", err))
		return
	}

	base.TTFB = time.Since(start)
	base.TotalLatency = base.TTFB
	base.StatusCode = resp.StatusCode
	base.ResponseSize = len(body)
	if gjson.ValidBytes(body) {
		base.ResponseBody = string(body)
		base.Model = gjson.GetBytes(body, "model").String()
	}

	extractor := telemetry.NewExtractor(base.Provider)
	pm := extractor.Extract(body)
	base.ProviderMetrics = pm
	if base.Model == "" {
		base.Model = pm.Model
	}
	base.Timestamp = time.Now()
	h.registry.Record(base)

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

func (h *telemetryHandler) handleStreaming(w http.ResponseWriter, resp *http.Response, base telemetry.RequestMetrics, start time.Time) {
	w.Header().Set("cache-control", "no-cache")
	w.Header().Set("connection", "keep-alive")
	w.Header().Set("transfer-encoding", "chunked")
	w.Header().Set("x-accel-buffering", "no")
	w.WriteHeader(resp.StatusCode)

	base.IsStreaming = true
	base.StatusCode = resp.StatusCode

	flusher, _ := w.(http.Flusher)

	var (
		ttfbOnce sync.Once
		acc      telemetry.StreamAccumulator
		extractor = telemetry.NewExtractor(base.Provider)
		final     *telemetry.ProviderMetrics
		accumText strings.Builder
		chunks    int
	)

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			ttfbOnce.Do(func() { base.TTFB = time.Since(start) })

			if _, werr := io.WriteString(w, line); werr != nil {
				break
			}
			if flusher != nil {
				flusher.Flush()
			}

			if payload, ok := sseDataPayload(line); ok {
				chunks++
				if metrics, terminal := extractor.ExtractStreaming([]byte(payload), &acc); metrics != nil {
					if base.Model == "" {
						base.Model = metrics.Model
					}
					accumulateText(&accumText, payload)
					if terminal {
						final = metrics
					}
				}
			}
			base.ResponseSize += len(line)
		}
		if err != nil {
			break
		}
	}

	base.StreamedChunks = chunks
	base.TotalLatency = time.Since(start)

	if final != nil {
		base.ProviderMetrics = *final
	} else if accumText.Len() > 0 {
		estimated := telemetry.EstimateOutputTokens(base.Model, accumText.String())
		base.OutputTokens = &estimated
	}
	base.Timestamp = time.Now()
	h.registry.Record(base)
}

// sseDataPayload extracts the JSON payload of a "data: " SSE line, false for
// [DONE] or non-data lines.
func sseDataPayload(line string) (string, bool) {
	trimmed := strings.TrimRight(line, "\r\n")
	const prefix = "data: "
	if !strings.HasPrefix(trimmed, prefix) {
		return "", false
	}
	payload := strings.TrimPrefix(trimmed, prefix)
	if payload == "" || payload == "[DONE]" {
		return "", false
	}
	return payload, true
}

// accumulateText pulls any delta/message text out of a streamed chunk for
// the output-token estimate fallback.
func accumulateText(buf *strings.Builder, payload string) {
	if text := gjson.Get(payload, "choices.0.delta.content"); text.Exists() {
		buf.WriteString(text.String())
		return
	}
	if text := gjson.Get(payload, "delta.text"); text.Exists() {
		buf.WriteString(text.String())
	}
}

func copyHeader(dst, src http.Header) {
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

// synthesizeThreadID mirrors the original gateway's fallback
// (thread_<first uuid segment>) for requests that don't supply x-thread-id,
// so RequestMetrics.ThreadID is never empty (§3).
func synthesizeThreadID() string {
	id := uuid.NewString()
	if i := strings.Index(id, "-"); i >= 0 {
		id = id[:i]
	}
	return "thread_" + id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func errStatusCode(err error) int {
	if ge, ok := err.(*Error); ok {
		return ge.StatusCode()
	}
	return http.StatusInternalServerError
}

func errKind(err error) string {
	if ge, ok := err.(*Error); ok {
		return string(ge.Kind)
	}
	return string(KindInternal)
}
