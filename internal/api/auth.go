package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smartcover-proxy/internal/audit"
	"smartcover-proxy/internal/auth"
	"smartcover-proxy/internal/observability/metrics"
)

// tokenRequest is the request body for POST /auth/token.
type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse is the response body for POST /auth/token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// tokenInfoResponse is the response body for GET /auth/token-info.
type tokenInfoResponse struct {
	Valid            bool   `json:"valid"`
	Username         string `json:"username"`
	IssuedAt         string `json:"issued_at,omitempty"`
	ExpiresAt        string `json:"expires_at"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
	ExpiresInHuman   string `json:"expires_in_human"`
}

// handleToken authenticates the configured account and returns a bearer token.
//
// The failure response is identical for a wrong username and a wrong
// password so callers cannot enumerate accounts.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	signed, expiresIn, err := s.auth.Issue(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.IncAuthAttempt(metrics.ResultError)
			s.auditLog(r, audit.ActionAuthFailed, req.Username, false, "invalid credentials")
			writeUnauthorized(w, ErrCodeInvalidCredentials, "invalid username or password")
			return
		}
		s.logger.Error("token issuance failed", "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	metrics.IncAuthAttempt(metrics.ResultSuccess)
	s.auditLog(r, audit.ActionTokenIssued, req.Username, true, "")

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
	})
}

// handleTokenInfo returns expiry information about the presented token.
//
// Purely stateless: everything is decoded from the token itself, which the
// auth middleware has already validated.
func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil || claims.ExpiresAt == nil {
		writeInternalError(w, "token claims unavailable")
		return
	}

	now := time.Now()
	expiresIn := int(claims.ExpiresAt.Time.Sub(now).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}

	resp := tokenInfoResponse{
		Valid:            true,
		Username:         claims.Subject,
		ExpiresAt:        claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
		ExpiresInSeconds: expiresIn,
		ExpiresInHuman:   formatDuration(expiresIn),
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, resp)
}

// formatDuration renders seconds as a short human-readable duration
// ("2d 3h 15m"), or "expired" when no time remains.
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "expired"
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}

	if len(parts) == 0 {
		return "<1m"
	}
	return strings.Join(parts, " ")
}
