package api

import "net/http"

// handleListAlarms relays GET /locations/alarms/list.
func (s *Server) handleListAlarms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !checkIntParams(w, q, "active", "date_format", "length", "offset", "organization", "location_id", "start_id", "end_id") {
		return
	}

	body, err := s.upstream.Alarms(r.Context(), q)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

// handleListAlerts relays GET /locations/alerts/list.
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !checkIntParams(w, q, "organization", "active", "date_format", "length", "offset") {
		return
	}

	body, err := s.upstream.Alerts(r.Context(), q)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}
