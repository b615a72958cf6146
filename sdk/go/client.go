package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"fitcompkit/core"
	"fitcompkit/engine"
	"fitcompkit/leaderboard"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the tracker HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// LogStats records today's measurement for a user and returns the logged date.
func (c *Client) LogStats(ctx context.Context, userID string, m core.Measurement) (core.Date, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/stats", c.baseURL, url.PathEscape(userID))

	var body struct {
		Date core.Date `json:"date"`
	}
	if err := c.doJSON(ctx, http.MethodPost, u, m, &body); err != nil {
		return "", err
	}
	return body.Date, nil
}

// EditStats corrects today's already-logged measurement and returns the updated one.
func (c *Client) EditStats(ctx context.Context, userID string, patch core.MeasurementPatch) (core.Measurement, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Measurement{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/stats/today", c.baseURL, url.PathEscape(userID))

	var body struct {
		Measurement core.Measurement `json:"measurement"`
	}
	if err := c.doJSON(ctx, http.MethodPatch, u, patch, &body); err != nil {
		return core.Measurement{}, err
	}
	return body.Measurement, nil
}

// Progress fetches a user's full daily history in ascending date order.
func (c *Client) Progress(ctx context.Context, userID string) ([]core.DailyRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/progress", c.baseURL, url.PathEscape(userID))

	var body struct {
		Records []core.DailyRecord `json:"records"`
	}
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &body); err != nil {
		return nil, err
	}
	return body.Records, nil
}

// CreateCompetition creates a competition starting today with the creator as
// its first participant.
func (c *Client) CreateCompetition(ctx context.Context, name, endDate, creator string, baseline core.Measurement) (core.Competition, error) {
	req := struct {
		Name     string           `json:"name"`
		EndDate  string           `json:"end_date"`
		Creator  core.UserID      `json:"creator"`
		Baseline core.Measurement `json:"baseline"`
	}{name, endDate, core.UserID(creator), baseline}

	var comp core.Competition
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/competitions", req, &comp); err != nil {
		return core.Competition{}, err
	}
	return comp, nil
}

// JoinCompetition adds a user to an existing competition.
func (c *Client) JoinCompetition(ctx context.Context, name, userID string, baseline core.Measurement) (core.Competition, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Competition{}, ErrEmptyUserID
	}
	req := struct {
		User     core.UserID      `json:"user"`
		Baseline core.Measurement `json:"baseline"`
	}{core.UserID(userID), baseline}

	u := fmt.Sprintf("%s/competitions/%s/join", c.baseURL, url.PathEscape(name))
	var comp core.Competition
	if err := c.doJSON(ctx, http.MethodPost, u, req, &comp); err != nil {
		return core.Competition{}, err
	}
	return comp, nil
}

// ListCompetitions returns summaries of all known competitions.
func (c *Client) ListCompetitions(ctx context.Context) ([]engine.CompetitionSummary, error) {
	var body struct {
		Competitions []engine.CompetitionSummary `json:"competitions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/competitions", nil, &body); err != nil {
		return nil, err
	}
	return body.Competitions, nil
}

// Status fetches the full status report for a competition.
func (c *Client) Status(ctx context.Context, name string) (engine.StatusReport, error) {
	u := fmt.Sprintf("%s/competitions/%s/status", c.baseURL, url.PathEscape(name))
	var report engine.StatusReport
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &report); err != nil {
		return engine.StatusReport{}, err
	}
	return report, nil
}

// Leaderboard fetches the top n ranked participants of a competition.
func (c *Client) Leaderboard(ctx context.Context, name string, n int) ([]leaderboard.Entry, error) {
	u := fmt.Sprintf("%s/competitions/%s/leaderboard?n=%d", c.baseURL, url.PathEscape(name), n)
	var body struct {
		Entries []leaderboard.Entry `json:"entries"`
	}
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &body); err != nil {
		return nil, err
	}
	return body.Entries, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/healthz", nil, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, u string, payload, target any) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp, target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
