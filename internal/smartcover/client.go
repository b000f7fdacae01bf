package smartcover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smartcover-proxy/internal/infrastructure/config"
	"smartcover-proxy/internal/infrastructure/logging"
	"smartcover-proxy/internal/observability/metrics"
)

// Upstream endpoint paths, relative to the configured base URL.
const (
	endpointLocations = "locations/list.php"
	endpointSummary   = "locations/summary.php"
	endpointData      = "locations/data.php"
	endpointAlarms    = "locations/alarms/list.php"
	endpointAlerts    = "locations/alerts/list.php"
)

// maxResponseSize bounds upstream response bodies (10 MB).
const maxResponseSize = 10 << 20

// maxRelayedMessageLen bounds the upstream error text relayed to callers.
const maxRelayedMessageLen = 512

// Client performs read-only requests against the SmartCover API.
//
// The operator credential is held here and nowhere else; it is attached
// to outbound requests and never appears in responses or logs.
type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a SmartCover client from configuration.
//
// Parameters:
//   - cfg: Upstream configuration (base URL, credential, timeout)
//   - logger: Structured logger (request metadata only, never the credential)
//
// Returns:
//   - *Client: Ready-to-use client
//   - error: If the base URL or credential is missing
func New(cfg config.UpstreamConfig, logger *logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("upstream credential is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		credential: cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Locations lists monitoring locations.
//
// Recognised parameters (all optional): organization, archived, stock,
// geojson, flat, timezone, date_format, locations. Anything else in
// params is forwarded unchanged.
func (c *Client) Locations(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return c.get(ctx, endpointLocations, params)
}

// LocationSummary returns aggregate location, alarm and alert counts.
func (c *Client) LocationSummary(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return c.get(ctx, endpointSummary, params)
}

// Data retrieves historical readings for one location and data type.
func (c *Client) Data(ctx context.Context, q DataQuery) (json.RawMessage, error) {
	return c.get(ctx, endpointData, q.Values())
}

// LiveData retrieves recent readings over a short window ending now.
// It is a convenience wrapper over the historical data endpoint.
func (c *Client) LiveData(ctx context.Context, q LiveQuery) (json.RawMessage, error) {
	return c.get(ctx, endpointData, q.Values(time.Now().UTC()))
}

// Alarms lists alarm events, optionally filtered to active ones.
func (c *Client) Alarms(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return c.get(ctx, endpointAlarms, params)
}

// Alerts lists alert events, optionally filtered to active ones.
func (c *Client) Alerts(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return c.get(ctx, endpointAlerts, params)
}

// envelope is the minimal slice of every SmartCover response the client
// inspects. All other fields pass through untouched, which keeps the proxy
// tolerant of upstream schema drift.
type envelope struct {
	ResponseCode *int   `json:"response_code"`
	ResponseText string `json:"response_text"`
}

// get performs one outbound request and classifies the outcome.
// No retries: latency stays predictable and upstream load is never amplified.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	target := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	start := time.Now()
	body, err := c.do(ctx, target)
	metrics.ObserveUpstream(endpoint, resultLabel(err), time.Since(start))

	if err != nil {
		if c.logger != nil {
			c.logger.Warn("upstream request failed",
				"endpoint", endpoint,
				"error", err,
			)
		}
		return nil, err
	}

	return body, nil
}

func (c *Client) do(ctx context.Context, target string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RejectedError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body)),
		}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}

	// SmartCover reports some failures inside an HTTP 200 envelope.
	if env.ResponseCode != nil && *env.ResponseCode != 0 {
		return nil, &RejectedError{
			StatusCode:   http.StatusBadGateway,
			ResponseCode: *env.ResponseCode,
			Message:      truncate(env.ResponseText),
		}
	}

	return json.RawMessage(body), nil
}

// truncate bounds upstream text before it is relayed or logged.
func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxRelayedMessageLen {
		return s[:maxRelayedMessageLen]
	}
	return s
}

// resultLabel maps an operation outcome to a metrics label.
func resultLabel(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	return metrics.ResultError
}
