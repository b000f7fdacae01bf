package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"smartcover-proxy/internal/smartcover"
)

// handleListLocations relays GET /locations/list.
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !checkIntParams(w, q, "organization", "archived", "stock", "geojson", "flat", "date_format") {
		return
	}

	body, err := s.upstream.Locations(r.Context(), q)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

// handleLocationSummary relays GET /locations/summary.
func (s *Server) handleLocationSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !checkIntParams(w, q, "organization") {
		return
	}

	body, err := s.upstream.LocationSummary(r.Context(), q)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

// handleHistoricalData relays GET /locations/data with an explicit time range.
//
// The range is validated locally before anything goes upstream: both bounds
// present and well-formed, end after start, and the whole window within the
// 31-day maximum SmartCover serves per request.
func (s *Server) handleHistoricalData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	location, ok := requireIntParam(w, q, "location")
	if !ok {
		return
	}
	dataType, ok := requireIntParam(w, q, "data_type")
	if !ok {
		return
	}
	if !checkIntParams(w, q, "distance_style", "date_format", "epoch_time", "long_filter", "resample_interval", "resample_gaps") {
		return
	}

	start, ok := requireTimeParam(w, q, "start_time")
	if !ok {
		return
	}
	end, ok := requireTimeParam(w, q, "end_time")
	if !ok {
		return
	}
	if !end.After(start) {
		writeBadRequest(w, "end_time must be after start_time")
		return
	}
	if end.Sub(start) > smartcover.MaxDataWindow {
		writeBadRequest(w, "time window must not exceed 31 days")
		return
	}

	query := smartcover.DataQuery{
		Location:  location,
		DataType:  dataType,
		StartTime: q.Get("start_time"),
		EndTime:   q.Get("end_time"),
		Extra:     extraParams(q, "location", "data_type", "start_time", "end_time"),
	}

	body, err := s.upstream.Data(r.Context(), query)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

// handleLiveData relays GET /locations/live, a recent-window view over the
// data endpoint. The window ends now and defaults to 15 minutes.
func (s *Server) handleLiveData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	location, ok := requireIntParam(w, q, "location")
	if !ok {
		return
	}
	dataType, ok := requireIntParam(w, q, "data_type")
	if !ok {
		return
	}
	if !checkIntParams(w, q, "distance_style", "date_format", "epoch_time") {
		return
	}

	window := smartcover.DefaultLiveWindowMinutes
	if raw := q.Get("window_minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadType, "window_minutes must be an integer")
			return
		}
		if n < 1 || n > smartcover.MaxLiveWindowMinutes {
			writeBadRequest(w, "window_minutes must be between 1 and 1440")
			return
		}
		window = n
	}

	query := smartcover.LiveQuery{
		Location:      location,
		DataType:      dataType,
		WindowMinutes: window,
		Extra:         extraParams(q, "location", "data_type", "window_minutes"),
	}

	body, err := s.upstream.LiveData(r.Context(), query)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

// locationsPage is the slice of the list response needed to pick out a
// single location. Each element stays raw and is relayed untouched.
type locationsPage struct {
	Locations []json.RawMessage `json:"locations"`
}

// handleGetLocation fetches a single location by numeric ID.
//
// SmartCover has no single-location endpoint, so this filters the list
// endpoint by ID and unwraps the sole element, returning 404 when the ID
// matches nothing the operator credential can see.
func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadType, "location id must be an integer")
		return
	}

	params := url.Values{}
	params.Set("locations", strconv.Itoa(id))

	body, err := s.upstream.Locations(r.Context(), params)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	var page locationsPage
	if err := json.Unmarshal(body, &page); err != nil {
		writeError(w, http.StatusBadGateway, ErrCodeUpstreamBadPayload, "upstream returned an unreadable response")
		return
	}
	if len(page.Locations) == 0 {
		writeNotFound(w, "location not found")
		return
	}

	writeRawJSON(w, http.StatusOK, page.Locations[0])
}
