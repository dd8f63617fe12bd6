package gateway

import (
	"encoding/json"
	"net/http"
)

// ErrorKind is the gateway's error taxonomy (§7). Kinds, not Go type names,
// so the wire shape stays a flat string regardless of internal structure.
type ErrorKind string

const (
	KindUnsupportedProvider    ErrorKind = "UnsupportedProvider"
	KindInvalidMethod          ErrorKind = "InvalidMethod"
	KindInvalidHeader          ErrorKind = "InvalidHeader"
	KindInvalidRequestFormat   ErrorKind = "InvalidRequestFormat"
	KindInvalidHeaderValue     ErrorKind = "InvalidHeaderValue"
	KindUnsupportedModel       ErrorKind = "UnsupportedModel"
	KindJSONParseError         ErrorKind = "JsonParseError"
	KindRequestError           ErrorKind = "RequestError"
	KindMissingAPIKey          ErrorKind = "MissingApiKey"
	KindInvalidStatus          ErrorKind = "InvalidStatus"
	KindUpstreamRequestFailure ErrorKind = "UpstreamRequestFailure"
	KindIOError                ErrorKind = "IoError"
	KindAWSSigningError        ErrorKind = "AwsSigningError"
	KindAWSParamsError         ErrorKind = "AwsParamsError"
	KindEventStreamError       ErrorKind = "EventStreamError"
	KindHTTPBuildError         ErrorKind = "HttpBuildError"
	KindJSONSerializeError     ErrorKind = "JsonSerializeError"
	KindInternal               ErrorKind = "InternalError"
)

var statusByKind = map[ErrorKind]int{
	KindUnsupportedProvider:    http.StatusBadRequest,
	KindInvalidMethod:          http.StatusBadRequest,
	KindInvalidHeader:          http.StatusBadRequest,
	KindInvalidRequestFormat:   http.StatusBadRequest,
	KindInvalidHeaderValue:     http.StatusBadRequest,
	KindUnsupportedModel:       http.StatusBadRequest,
	KindJSONParseError:         http.StatusBadRequest,
	KindRequestError:           http.StatusBadRequest,
	KindMissingAPIKey:          http.StatusUnauthorized,
	KindInvalidStatus:          http.StatusBadGateway,
	KindUpstreamRequestFailure: http.StatusBadGateway,
	KindIOError:                http.StatusInternalServerError,
	KindAWSSigningError:        http.StatusInternalServerError,
	KindAWSParamsError:         http.StatusInternalServerError,
	KindEventStreamError:       http.StatusInternalServerError,
	KindHTTPBuildError:         http.StatusInternalServerError,
	KindJSONSerializeError:     http.StatusInternalServerError,
	KindInternal:               http.StatusInternalServerError,
}

// Error is the gateway's typed error: a taxonomy kind plus a human message.
// Its HTTP status is derived from Kind, never set independently, so the body
// and the status code can never disagree.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// StatusCode returns the HTTP status this error's kind maps to, defaulting
// to 500 for an unrecognized kind.
func (e *Error) StatusCode() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// WriteError writes the {"error":{"message":...,"type":...}} body and status
// code for err, wrapping a plain error as RequestError (400) if it isn't
// already a *Error.
func WriteError(w http.ResponseWriter, err error) {
	ge, ok := err.(*Error)
	if !ok {
		ge = &Error{Kind: KindRequestError, Message: err.Error()}
	}

	var body errorBody
	body.Error.Message = ge.Message
	body.Error.Type = string(ge.Kind)

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(ge.StatusCode())
	_ = json.NewEncoder(w).Encode(body)
}
