// Package smartcover is a thin read-only client for the SmartCover
// telemetry API.
//
// One method exists per supported upstream operation (locations, summary,
// historical data, live data, alarms, alerts). Each performs a single
// outbound GET with the long-lived operator credential and relays the raw
// JSON body, so response shapes stay an upstream contract rather than a
// proxy one.
//
// Failures are classified into three sentinel errors: ErrUnreachable
// (transport/timeout), ErrRejected (non-2xx or a SmartCover error
// envelope) and ErrBadPayload (malformed JSON). The client never retries;
// the external caller decides.
//
// Thread Safety: the client is immutable after New and safe for
// concurrent use from multiple goroutines.
package smartcover
