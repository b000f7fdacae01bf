package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"smartcover-proxy/internal/auth"
	"smartcover-proxy/internal/infrastructure/config"
	"smartcover-proxy/internal/infrastructure/logging"
	"smartcover-proxy/internal/smartcover"
)

const (
	testPassword = "correct-horse-battery-staple"
	testSecret   = "test-signing-secret-at-least-32-chars!"
)

// upstreamStub is a fake SmartCover API that records what reaches it.
type upstreamStub struct {
	server   *httptest.Server
	calls    atomic.Int64
	lastPath atomic.Value // string
	lastQry  atomic.Value // url.Values

	status atomic.Int64
	body   atomic.Value // string
}

func newUpstreamStub() *upstreamStub {
	stub := &upstreamStub{}
	stub.status.Store(http.StatusOK)
	stub.body.Store(`{"response_code":0,"locations":[]}`)
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)
		stub.lastPath.Store(r.URL.Path)
		stub.lastQry.Store(r.URL.Query())
		w.WriteHeader(int(stub.status.Load()))
		w.Write([]byte(stub.body.Load().(string))) //nolint:errcheck
	}))
	return stub
}

func (u *upstreamStub) respond(status int, body string) {
	u.status.Store(int64(status))
	u.body.Store(body)
}

func (u *upstreamStub) query() url.Values {
	q, _ := u.lastQry.Load().(url.Values)
	return q
}

// testHarness bundles the router under test with its fake upstream.
type testHarness struct {
	router   http.Handler
	upstream *upstreamStub
	auth     *auth.Service
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	stub := newUpstreamStub()
	t.Cleanup(stub.server.Close)

	tokenService, err := auth.NewService(config.AuthConfig{
		JWTSecret:     testSecret,
		TokenTTL:      60,
		AdminPassword: testPassword,
	})
	if err != nil {
		t.Fatalf("auth.NewService() error = %v", err)
	}

	client, err := smartcover.New(config.UpstreamConfig{
		BaseURL: stub.server.URL,
		Token:   "operator-credential",
		Timeout: 5,
	}, nil)
	if err != nil {
		t.Fatalf("smartcover.New() error = %v", err)
	}

	server, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 8080},
		Logger:   logging.Default(),
		Auth:     tokenService,
		Upstream: client,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &testHarness{
		router:   server.buildRouter(),
		upstream: stub,
		auth:     tokenService,
	}
}

func (h *testHarness) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *testHarness) issueToken(t *testing.T) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/v1/auth/token", "",
		`{"username":"admin","password":"`+testPassword+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /auth/token status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding token response: %v", err)
	}
	return resp.AccessToken
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) Error {
	t.Helper()
	var apiErr Error
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decoding error response %q: %v", rec.Body.String(), err)
	}
	return apiErr
}

func TestHealth_NoAuthNoUpstream(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
	if h.upstream.calls.Load() != 0 {
		t.Error("health check reached the upstream, must not")
	}
}

func TestRoot_ServiceIdentity(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding root response: %v", err)
	}
	if body["service"] != "smartcover-proxy" {
		t.Errorf("service = %v, want smartcover-proxy", body["service"])
	}
}

func TestToken_ValidCredentials(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/token", "",
		`{"username":"admin","password":"`+testPassword+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("access_token is empty")
	}
	if resp.TokenType != "bearer" {
		t.Errorf("token_type = %q, want bearer", resp.TokenType)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expires_in = %d, want 3600", resp.ExpiresIn)
	}
}

func TestToken_UniformFailure(t *testing.T) {
	h := newTestHarness(t)

	wrongPassword := h.do(t, http.MethodPost, "/api/v1/auth/token", "",
		`{"username":"admin","password":"wrong"}`)
	wrongUsername := h.do(t, http.MethodPost, "/api/v1/auth/token", "",
		`{"username":"root","password":"`+testPassword+`"}`)

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, wrongUsername} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		apiErr := decodeError(t, rec)
		if apiErr.Code != ErrCodeInvalidCredentials {
			t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeInvalidCredentials)
		}
	}

	// Both failure modes must be indistinguishable to the caller.
	if wrongPassword.Body.String() != wrongUsername.Body.String() {
		t.Errorf("failure bodies differ: %q vs %q", wrongPassword.Body.String(), wrongUsername.Body.String())
	}
}

func TestToken_MalformedBody(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/token", "", "not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProtected_MissingToken(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/locations/list", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", rec.Header().Get("WWW-Authenticate"))
	}
	if h.upstream.calls.Load() != 0 {
		t.Error("unauthenticated request reached the upstream")
	}
}

func TestProtected_GarbageToken(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/locations/list", "not-a-jwt", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != ErrCodeTokenMalformed {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeTokenMalformed)
	}
	if h.upstream.calls.Load() != 0 {
		t.Error("request with a bad token reached the upstream")
	}
}

func TestLocationsList_RelaysUpstream(t *testing.T) {
	h := newTestHarness(t)
	const body = `{"response_code":0,"locations":[{"id":1,"name":"MH-1"}]}`
	h.upstream.respond(http.StatusOK, body)

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/locations/list?organization=42", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != body {
		t.Errorf("body = %s, want verbatim upstream body", rec.Body.String())
	}
	if h.upstream.query().Get("organization") != "42" {
		t.Errorf("upstream organization = %q, want 42", h.upstream.query().Get("organization"))
	}
}

func TestLocationsList_RejectsBadType(t *testing.T) {
	h := newTestHarness(t)

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/locations/list?organization=acme", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != ErrCodeBadType {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeBadType)
	}
	if h.upstream.calls.Load() != 0 {
		t.Error("invalid request reached the upstream")
	}
}

func TestHistoricalData_ForwardsExactParams(t *testing.T) {
	h := newTestHarness(t)
	h.upstream.respond(http.StatusOK, `{"response_code":0,"data":[]}`)

	token := h.issueToken(t)
	target := "/api/v1/locations/data?location=123&data_type=2" +
		"&start_time=" + url.QueryEscape("2026-08-01 00:00") +
		"&end_time=" + url.QueryEscape("2026-08-02 00:00") +
		"&date_format=1&timezone=UTC"
	rec := h.do(t, http.MethodGet, target, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	q := h.upstream.query()
	want := map[string]string{
		"location":    "123",
		"data_type":   "2",
		"start_time":  "2026-08-01 00:00",
		"end_time":    "2026-08-02 00:00",
		"date_format": "1",
		"timezone":    "UTC",
	}
	for key, val := range want {
		if q.Get(key) != val {
			t.Errorf("upstream %s = %q, want %q", key, q.Get(key), val)
		}
	}
}

func TestHistoricalData_Validation(t *testing.T) {
	h := newTestHarness(t)
	token := h.issueToken(t)
	h.upstream.calls.Store(0)

	cases := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"missing location", "data_type=2&start_time=2026-08-01+00:00&end_time=2026-08-02+00:00", ErrCodeMissingParam},
		{"missing data_type", "location=1&start_time=2026-08-01+00:00&end_time=2026-08-02+00:00", ErrCodeMissingParam},
		{"location not int", "location=abc&data_type=2&start_time=2026-08-01+00:00&end_time=2026-08-02+00:00", ErrCodeBadType},
		{"missing start", "location=1&data_type=2&end_time=2026-08-02+00:00", ErrCodeMissingParam},
		{"bad time format", "location=1&data_type=2&start_time=yesterday&end_time=2026-08-02+00:00", ErrCodeBadType},
		{"end before start", "location=1&data_type=2&start_time=2026-08-02+00:00&end_time=2026-08-01+00:00", ErrCodeBadRequest},
		{"window too large", "location=1&data_type=2&start_time=2026-01-01+00:00&end_time=2026-08-01+00:00", ErrCodeBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(t, http.MethodGet, "/api/v1/locations/data?"+tc.query, token, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if apiErr := decodeError(t, rec); apiErr.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", apiErr.Code, tc.wantCode)
			}
		})
	}

	if h.upstream.calls.Load() != 0 {
		t.Error("invalid requests reached the upstream")
	}
}

func TestLiveData_DefaultWindow(t *testing.T) {
	h := newTestHarness(t)
	h.upstream.respond(http.StatusOK, `{"response_code":0,"data":[]}`)

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/locations/live?location=7&data_type=2", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	q := h.upstream.query()
	if q.Get("start_time") == "" || q.Get("end_time") == "" {
		t.Fatalf("upstream query missing computed window: %v", q)
	}
	if q.Get("window_minutes") != "" {
		t.Error("window_minutes leaked to the upstream")
	}
}

func TestLiveData_WindowBounds(t *testing.T) {
	h := newTestHarness(t)
	token := h.issueToken(t)

	for _, window := range []string{"0", "-5", "1441"} {
		rec := h.do(t, http.MethodGet, "/api/v1/locations/live?location=7&data_type=2&window_minutes="+window, token, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("window_minutes=%s status = %d, want 400", window, rec.Code)
		}
	}
}

func TestUpstreamRejection_RelaysStatus(t *testing.T) {
	h := newTestHarness(t)
	h.upstream.respond(http.StatusServiceUnavailable, "maintenance")

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/locations/list", token, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want relayed 503", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != ErrCodeUpstreamRejected {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeUpstreamRejected)
	}
}

func TestUpstreamEnvelopeError_MapsTo502(t *testing.T) {
	h := newTestHarness(t)
	h.upstream.respond(http.StatusOK, `{"response_code":4,"response_text":"invalid location"}`)

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/locations/list", token, "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.Code != ErrCodeUpstreamRejected {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeUpstreamRejected)
	}
	if apiErr.Message != "invalid location" {
		t.Errorf("message = %q, want the upstream text", apiErr.Message)
	}
}

func TestUpstreamDown_MapsToUnreachable(t *testing.T) {
	h := newTestHarness(t)
	token := h.issueToken(t)
	h.upstream.server.Close()

	rec := h.do(t, http.MethodGet, "/api/v1/locations/list", token, "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != ErrCodeUpstreamUnreachable {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeUpstreamUnreachable)
	}
}

func TestUpstreamBadPayload_MapsTo502(t *testing.T) {
	h := newTestHarness(t)
	h.upstream.respond(http.StatusOK, "<html>not json</html>")

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/locations/list", token, "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != ErrCodeUpstreamBadPayload {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeUpstreamBadPayload)
	}
}

func TestGetLocation_Found(t *testing.T) {
	h := newTestHarness(t)
	h.upstream.respond(http.StatusOK, `{"response_code":0,"locations":[{"id":123,"name":"MH-12"}]}`)

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/locations/123", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"id":123,"name":"MH-12"}` {
		t.Errorf("body = %s, want the single location object", got)
	}
	if h.upstream.query().Get("locations") != "123" {
		t.Errorf("upstream locations filter = %q, want 123", h.upstream.query().Get("locations"))
	}
}

func TestGetLocation_NotFound(t *testing.T) {
	h := newTestHarness(t)
	h.upstream.respond(http.StatusOK, `{"response_code":0,"locations":[]}`)

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/locations/999", token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetLocation_NonNumericID(t *testing.T) {
	h := newTestHarness(t)

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/locations/abc", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAlarmsAndAlerts_Relay(t *testing.T) {
	h := newTestHarness(t)
	const body = `{"response_code":0,"alarms":[]}`
	h.upstream.respond(http.StatusOK, body)

	token := h.issueToken(t)
	for _, target := range []string{
		"/api/v1/locations/alarms/list?active=1",
		"/api/v1/locations/alerts/list?active=1",
	} {
		rec := h.do(t, http.MethodGet, target, token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", target, rec.Code)
		}
		if rec.Body.String() != body {
			t.Errorf("GET %s body = %s, want verbatim upstream body", target, rec.Body.String())
		}
	}
}

func TestTokenInfo_ReportsExpiry(t *testing.T) {
	h := newTestHarness(t)

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/auth/token-info", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decoding token-info response: %v", err)
	}
	if !info.Valid {
		t.Error("valid = false, want true")
	}
	if info.Username != auth.AccountUsername {
		t.Errorf("username = %q, want %q", info.Username, auth.AccountUsername)
	}
	if info.ExpiresInSeconds <= 0 || info.ExpiresInSeconds > 3600 {
		t.Errorf("expires_in_seconds = %d, want within (0, 3600]", info.ExpiresInSeconds)
	}
	if info.ExpiresInHuman == "" || info.ExpiresInHuman == "expired" {
		t.Errorf("expires_in_human = %q, want a remaining duration", info.ExpiresInHuman)
	}
}

func TestAuditList_DisabledReturns404(t *testing.T) {
	h := newTestHarness(t)

	token := h.issueToken(t)
	rec := h.do(t, http.MethodGet, "/api/v1/audit/list", token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when the audit trail is disabled", rec.Code)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "expired"},
		{-10, "expired"},
		{30, "<1m"},
		{90, "1m"},
		{3600, "1h"},
		{3660, "1h 1m"},
		{90000, "1d 1h"},
		{183900, "2d 3h 5m"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.seconds); got != tc.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
