package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	wsadapter "fitcompkit/adapters/websocket"
	"fitcompkit/chart"
	"fitcompkit/core"
	"fitcompkit/engine"
	"fitcompkit/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

type createCompetitionRequest struct {
	Name     string           `json:"name"`
	EndDate  string           `json:"end_date"`
	Creator  core.UserID      `json:"creator"`
	Baseline core.Measurement `json:"baseline"`
}

type joinCompetitionRequest struct {
	User     core.UserID      `json:"user"`
	Baseline core.Measurement `json:"baseline"`
}

// NewMux builds an http.Handler exposing the tracker REST API and WebSocket stream.
// Routes:
//   - POST  {prefix}/users/{id}/stats
//   - PATCH {prefix}/users/{id}/stats/today
//   - GET   {prefix}/users/{id}/progress
//   - POST  {prefix}/competitions
//   - GET   {prefix}/competitions
//   - POST  {prefix}/competitions/{name}/join
//   - GET   {prefix}/competitions/{name}/status
//   - GET   {prefix}/competitions/{name}/chart
//   - GET   {prefix}/competitions/{name}/leaderboard?n=10
//   - GET   {prefix}/healthz
//   - WS    {prefix}/ws
func NewMux(svc *engine.TrackerService, hub *realtime.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, svc)
	})

	// WebSocket events
	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	// Users API
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/users/"), func(w http.ResponseWriter, r *http.Request) {
		parts := routeParts(r, opts.PathPrefix)
		if len(parts) < 3 {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		user, err := core.NormalizeUserID(core.UserID(parts[1]))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error(), nil)
			return
		}
		switch {
		case r.Method == http.MethodPost && parts[2] == "stats":
			var m core.Measurement
			if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "body must be a measurement object", nil)
				return
			}
			day, err := svc.LogToday(r.Context(), user, m)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, map[string]any{"date": day, "measurement": m})
		case r.Method == http.MethodPatch && len(parts) >= 4 && parts[2] == "stats" && parts[3] == "today":
			var patch core.MeasurementPatch
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "body must be a measurement patch", nil)
				return
			}
			m, err := svc.EditToday(r.Context(), user, patch)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, map[string]any{"measurement": m})
		case r.Method == http.MethodGet && parts[2] == "progress":
			records, err := svc.PersonalProgress(r.Context(), user)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if wantsChart(r) {
				writeJSON(w, chart.Personal(user, string(user), records, chartMetrics(r)...))
				return
			}
			writeJSON(w, map[string]any{"records": records})
		default:
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		}
	})

	// Competitions API
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/competitions"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req createCompetitionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "body must be a create request", nil)
				return
			}
			comp, err := svc.CreateCompetition(r.Context(), req.Name, req.EndDate, req.Creator, req.Baseline)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusCreated)
			writeJSON(w, comp)
		case http.MethodGet:
			list, err := svc.ListCompetitions(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, map[string]any{"competitions": list})
		default:
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		}
	})
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/competitions/"), func(w http.ResponseWriter, r *http.Request) {
		parts := routeParts(r, opts.PathPrefix)
		if len(parts) < 3 {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		name := parts[1]
		switch {
		case r.Method == http.MethodPost && parts[2] == "join":
			var req joinCompetitionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "body must be a join request", nil)
				return
			}
			comp, err := svc.JoinCompetition(r.Context(), name, req.User, req.Baseline)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, comp)
		case r.Method == http.MethodGet && parts[2] == "status":
			report, err := svc.CompetitionStatus(r.Context(), name)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, report)
		case r.Method == http.MethodGet && parts[2] == "chart":
			report, err := svc.CompetitionStatus(r.Context(), name)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, chart.Competition(name, report.Result.PerUser, report.Names))
		case r.Method == http.MethodGet && parts[2] == "leaderboard":
			n := 10
			if q := r.URL.Query().Get("n"); q != "" {
				v, err := strconv.Atoi(q)
				if err != nil || v < 1 {
					writeError(w, http.StatusBadRequest, "invalid_n", "n must be a positive integer", nil)
					return
				}
				n = v
			}
			entries, err := svc.TopN(r.Context(), name, n)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, map[string]any{"entries": entries})
		default:
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		}
	})

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

// Helpers

// writeServiceError maps engine and core errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, core.ErrDuplicateName):
		writeError(w, http.StatusConflict, "duplicate_name", err.Error(), nil)
	case errors.Is(err, core.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, "already_joined", err.Error(), nil)
	case errors.Is(err, core.ErrAlreadyLogged):
		writeError(w, http.StatusConflict, "already_logged", err.Error(), nil)
	case errors.Is(err, core.ErrNotLoggedYet):
		writeError(w, http.StatusNotFound, "not_logged_yet", err.Error(), nil)
	case errors.Is(err, core.ErrCompetitionEnded):
		writeError(w, http.StatusConflict, "competition_ended", err.Error(), nil)
	case errors.Is(err, core.ErrCompetitionNotStarted):
		writeError(w, http.StatusConflict, "competition_not_started", err.Error(), nil)
	case errors.Is(err, core.ErrInvalidDate), core.IsInvalidBaseline(err):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	default:
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	}
}

// healthCheck verifies the service is working properly
func healthCheck(w http.ResponseWriter, r *http.Request, svc *engine.TrackerService) {
	ctx := r.Context()

	// Verify storage works by listing competitions
	// This is a safe, lightweight check that doesn't affect real data
	_, err := svc.ListCompetitions(ctx)

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"storage": "ok",
		},
	}

	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, status)
}

func wantsChart(r *http.Request) bool {
	return r.URL.Query().Get("chart") == "1" || r.URL.Query().Get("chart") == "true"
}

func chartMetrics(r *http.Request) []chart.Metric {
	var metrics []chart.Metric
	for _, m := range r.URL.Query()["metric"] {
		metrics = append(metrics, chart.Metric(m))
	}
	return metrics
}

func routeParts(r *http.Request, prefix string) []string {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return split(path, '/')
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func split(p string, sep rune) []string {
	var parts []string
	cur := make([]rune, 0, len(p))
	// trim leading '/'
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for _, r := range p {
		if r == sep {
			if len(cur) > 0 {
				parts = append(parts, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a simple token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm int, burst int) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !limiter.allow(key) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ""
}

// clientKey uses API key if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*bucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	b.tokens += elapsed * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		b.last = now
		return false
	}
	b.tokens--
	b.last = now
	return true
}
