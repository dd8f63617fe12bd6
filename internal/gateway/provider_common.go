package gateway

import (
	"net/http"
	"strings"
)

// requireBearerToken validates that in carries a non-empty Bearer
// credential, as Fireworks and Together both require (§4.1).
func requireBearerToken(in http.Header) (http.Header, error) {
	auth := in.Get("authorization")
	if auth == "" {
		return nil, NewError(KindMissingAPIKey, "missing authorization header")
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, NewError(KindInvalidHeader, "authorization header must use the Bearer scheme")
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" {
		return nil, NewError(KindInvalidHeader, "authorization header has an empty bearer token")
	}

	out := in.Clone()
	out.Set("content-type", "application/json")
	out.Set("authorization", auth)
	return out, nil
}
