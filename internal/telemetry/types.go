package telemetry

import "time"

// ProviderMetrics is what a single provider extractor can recover from a
// response or stream: token usage, derived cost, and provider-reported
// latency. Every field is optional because providers disclose different
// subsets (§3, §4.4).
type ProviderMetrics struct {
	Model           string     `json:"model,omitempty"`
	InputTokens     *int       `json:"input_tokens,omitempty"`
	OutputTokens    *int       `json:"output_tokens,omitempty"`
	TotalTokens     *int       `json:"total_tokens,omitempty"`
	Cost            *float64   `json:"cost,omitempty"`
	ProviderLatency time.Duration `json:"provider_latency_ns,omitempty"`
}

// RequestMetrics is the full per-request record the telemetry middleware
// assembles and hands to the registry (§3, §4.7). It embeds ProviderMetrics
// so every exporter sees both transport-level and provider-level facts in
// one record.
type RequestMetrics struct {
	ProviderMetrics

	ID                string    `json:"id"`
	Provider          string    `json:"provider"`
	Method            string    `json:"method"`
	Path              string    `json:"path"`
	StatusCode        int       `json:"status_code"`
	RequestSize       int       `json:"request_size"`
	ResponseSize      int       `json:"response_size"`
	IsStreaming       bool      `json:"is_streaming"`
	StreamedChunks    int       `json:"streamed_chunks,omitempty"`
	TotalLatency      time.Duration `json:"total_latency_ns"`
	TTFB              time.Duration `json:"ttfb_ns,omitempty"`
	ErrorCount        int       `json:"error_count,omitempty"`
	ErrorType         string    `json:"error_type,omitempty"`
	ThreadID          string    `json:"thread_id,omitempty"`
	ProjectID         string    `json:"project_id,omitempty"`
	OrgID             string    `json:"org_id,omitempty"`
	UserID            string    `json:"user_id,omitempty"`
	ExperimentID      string    `json:"experiment_id,omitempty"`
	ProviderRequestID string    `json:"provider_request_id,omitempty"`
	RequestBody       string    `json:"-"`
	ResponseBody      string    `json:"-"`
	Timestamp         time.Time `json:"timestamp"`
}

// OTelResource is the resource block of the log envelope (§4.7).
type OTelResource struct {
	ServiceName           string `json:"service.name"`
	ServiceVersion         string `json:"service.version"`
	DeploymentEnvironment string `json:"deployment.environment"`
}

// OTelLogEnvelope wraps a RequestMetrics record in an OpenTelemetry-shaped
// log body for exporters that expect that envelope (Elasticsearch, console).
type OTelLogEnvelope struct {
	Timestamp  time.Time      `json:"timestamp"`
	Resource   OTelResource   `json:"resource"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
}

// ToOTelLog builds the envelope for this record, sanitizing any embedded
// request/response payloads along the way (§4.7).
func (m RequestMetrics) ToOTelLog(serviceVersion, environment string) OTelLogEnvelope {
	attrs := map[string]any{
		"id":                 m.ID,
		"provider":           m.Provider,
		"method":             m.Method,
		"path":               m.Path,
		"status_code":        m.StatusCode,
		"request_size":       m.RequestSize,
		"response_size":      m.ResponseSize,
		"is_streaming":       m.IsStreaming,
		"total_latency_ms":   m.TotalLatency.Milliseconds(),
		"provider_latency_ms": m.ProviderLatency.Milliseconds(),
	}
	if m.Model != "" {
		attrs["model"] = m.Model
	}
	if m.TTFB > 0 {
		attrs["ttfb_ms"] = m.TTFB.Milliseconds()
	}
	if m.InputTokens != nil {
		attrs["input_tokens"] = *m.InputTokens
	}
	if m.OutputTokens != nil {
		attrs["output_tokens"] = *m.OutputTokens
	}
	if m.TotalTokens != nil {
		attrs["total_tokens"] = *m.TotalTokens
	}
	if m.Cost != nil {
		attrs["cost"] = *m.Cost
	}
	if m.ErrorCount > 0 {
		attrs["error_count"] = m.ErrorCount
	}
	if m.ErrorType != "" {
		attrs["error_type"] = m.ErrorType
	}
	if m.ThreadID != "" {
		attrs["thread_id"] = m.ThreadID
	}
	if m.ProjectID != "" {
		attrs["project_id"] = m.ProjectID
	}
	if m.OrgID != "" {
		attrs["org_id"] = m.OrgID
	}
	if m.UserID != "" {
		attrs["user_id"] = m.UserID
	}
	if m.ExperimentID != "" {
		attrs["experiment_id"] = m.ExperimentID
	}
	if m.ProviderRequestID != "" {
		attrs["provider_request_id"] = m.ProviderRequestID
	}
	if m.StreamedChunks > 0 {
		attrs["streamed_chunks"] = m.StreamedChunks
	}
	if m.RequestBody != "" {
		attrs["request"] = sanitizePayload(m.RequestBody)
	}
	if m.ResponseBody != "" {
		attrs["response"] = sanitizePayload(m.ResponseBody)
	}

	return OTelLogEnvelope{
		Timestamp: m.Timestamp,
		Resource: OTelResource{
			ServiceName:           "ai-gateway",
			ServiceVersion:        serviceVersion,
			DeploymentEnvironment: environment,
		},
		Name:       "ai_gateway_request_log",
		Attributes: attrs,
	}
}
