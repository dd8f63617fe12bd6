package gateway

import "net/http"

// TrackingHeaders are caller-supplied identifiers logged for telemetry but
// never forwarded upstream as control data (§4.1, §6).
var TrackingHeaders = []string{
	"x-project-id",
	"x-organisation-id",
	"x-organization-id",
	"x-user-id",
	"x-experiment-id",
}

// ExtractTrackingHeaders returns the present tracking header values, keyed
// by header name, for logging into telemetry.
func ExtractTrackingHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(TrackingHeaders))
	for _, name := range TrackingHeaders {
		if v := h.Get(name); v != "" {
			out[name] = v
		}
	}
	return out
}
