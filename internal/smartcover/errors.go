package smartcover

import (
	"errors"
	"fmt"
)

// Sentinel errors for upstream operations.
//
// These can be checked with errors.Is() for specific handling:
//
//	if errors.Is(err, smartcover.ErrUnreachable) {
//	    // 502 upstream_unreachable
//	}
var (
	// ErrUnreachable indicates a transport-level failure (DNS, refused
	// connection, timeout). Safe for the proxy's caller to retry.
	ErrUnreachable = errors.New("smartcover: upstream unreachable")

	// ErrRejected indicates the upstream answered but refused the request,
	// either with a non-2xx status or with an error envelope on HTTP 200.
	ErrRejected = errors.New("smartcover: upstream rejected request")

	// ErrBadPayload indicates the upstream body was not valid JSON.
	ErrBadPayload = errors.New("smartcover: malformed upstream payload")
)

// RejectedError carries the upstream status and message for a rejected
// request so the router can relay the status and a safe message.
type RejectedError struct {
	// StatusCode is the HTTP status to surface. Envelope-level errors
	// (response_code != 0 on HTTP 200) map to 502.
	StatusCode int

	// ResponseCode is the SmartCover envelope code, when present.
	ResponseCode int

	// Message is the upstream's own error text, truncated.
	Message string
}

func (e *RejectedError) Error() string {
	if e.ResponseCode != 0 {
		return fmt.Sprintf("smartcover: upstream rejected request: response_code=%d %s", e.ResponseCode, e.Message)
	}
	return fmt.Sprintf("smartcover: upstream rejected request: HTTP %d", e.StatusCode)
}

// Unwrap lets errors.Is(err, ErrRejected) match.
func (e *RejectedError) Unwrap() error {
	return ErrRejected
}
