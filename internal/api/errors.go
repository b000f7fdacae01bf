package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"smartcover-proxy/internal/auth"
	"smartcover-proxy/internal/smartcover"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stable error codes returned in response bodies.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeNotFound           = "not_found"
	ErrCodeUnauthorized       = "unauthorised"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeTokenExpired       = "token_expired"
	ErrCodeTokenMalformed     = "token_malformed"
	ErrCodeWrongSubject       = "wrong_subject"
	ErrCodeMissingParam       = "missing_param"
	ErrCodeBadType            = "bad_type"
	ErrCodeInternal           = "internal_error"

	ErrCodeUpstreamUnreachable = "upstream_unreachable"
	ErrCodeUpstreamRejected    = "upstream_rejected"
	ErrCodeUpstreamBadPayload  = "upstream_bad_payload"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeRawJSON relays an upstream JSON body verbatim.
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(body)
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, code, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeAuthError maps token service failures onto 401 responses with
// stable codes. Messages stay generic; the specific failure is only in
// the code, never in prose that could aid probing.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		writeUnauthorized(w, ErrCodeTokenExpired, "token has expired")
	case errors.Is(err, auth.ErrWrongSubject):
		writeUnauthorized(w, ErrCodeWrongSubject, "token subject not recognised")
	default:
		writeUnauthorized(w, ErrCodeTokenMalformed, "invalid token")
	}
}

// writeUpstreamError maps upstream client failures onto proxy responses.
//
// Rejections relay the upstream's own status so a 503 from SmartCover
// surfaces as a 503 here, distinguishable from proxy faults. Transport
// failures and undecodable bodies map to 502 with their own codes.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var rejected *smartcover.RejectedError
	switch {
	case errors.As(err, &rejected):
		message := "upstream rejected the request"
		if rejected.Message != "" {
			message = rejected.Message
		}
		writeError(w, rejected.StatusCode, ErrCodeUpstreamRejected, message)
	case errors.Is(err, smartcover.ErrBadPayload):
		writeError(w, http.StatusBadGateway, ErrCodeUpstreamBadPayload, "upstream returned an unreadable response")
	case errors.Is(err, smartcover.ErrUnreachable):
		writeError(w, http.StatusBadGateway, ErrCodeUpstreamUnreachable, "upstream is unreachable")
	default:
		writeInternalError(w, "upstream request failed")
	}
}
