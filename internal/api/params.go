package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"smartcover-proxy/internal/smartcover"
)

// requireIntParam parses a required integer query parameter.
//
// On failure it writes the 400 response itself and returns false, so
// handlers can bail out with a bare return.
func requireIntParam(w http.ResponseWriter, q url.Values, name string) (int, bool) {
	raw := q.Get(name)
	if raw == "" {
		writeError(w, http.StatusBadRequest, ErrCodeMissingParam, fmt.Sprintf("%s is required", name))
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadType, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	return n, true
}

// checkIntParams verifies that each named parameter parses as an integer
// when present. Values are forwarded upstream exactly as received; this
// only rejects requests SmartCover would fail anyway, before they leave
// the proxy.
func checkIntParams(w http.ResponseWriter, q url.Values, names ...string) bool {
	for _, name := range names {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		if _, err := strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadType, fmt.Sprintf("%s must be an integer", name))
			return false
		}
	}
	return true
}

// requireTimeParam parses a required timestamp parameter in the upstream
// "yyyy-MM-dd HH:mm" layout.
func requireTimeParam(w http.ResponseWriter, q url.Values, name string) (time.Time, bool) {
	raw := q.Get(name)
	if raw == "" {
		writeError(w, http.StatusBadRequest, ErrCodeMissingParam, fmt.Sprintf("%s is required", name))
		return time.Time{}, false
	}
	t, err := time.Parse(smartcover.TimeLayout, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadType,
			fmt.Sprintf("%s must use the format %q", name, smartcover.TimeLayout))
		return time.Time{}, false
	}
	return t, true
}

// extraParams copies the query with the given keys removed, so values
// carried in a typed query struct are never duplicated in the forwarded
// request.
func extraParams(q url.Values, exclude ...string) url.Values {
	out := make(url.Values, len(q))
	for key, vals := range q {
		out[key] = append([]string(nil), vals...)
	}
	for _, key := range exclude {
		out.Del(key)
	}
	return out
}
