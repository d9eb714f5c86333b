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

	"github.com/google/uuid"

	wsadapter "promokit/adapters/websocket"
	"promokit/catalog"
	"promokit/core"
	"promokit/engine"
	"promokit/realtime"
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

// NewMux builds an http.Handler exposing the promotion REST API and WebSocket stream.
// Routes:
//   - POST   {prefix}/events
//   - GET    {prefix}/promotions
//   - POST   {prefix}/promotions
//   - GET    {prefix}/promotions/{id}
//   - PUT    {prefix}/promotions/{id}
//   - DELETE {prefix}/promotions/{id}
//   - POST   {prefix}/promotions/{id}/join
//   - GET    {prefix}/players/{id}
//   - GET    {prefix}/players/{id}/logs?limit=N
//   - GET    {prefix}/catalog/games
//   - GET    {prefix}/catalog/providers
//   - POST   {prefix}/admin/seed
//   - POST   {prefix}/admin/reset
//   - GET    {prefix}/healthz
//   - WS     {prefix}/ws
func NewMux(svc *engine.PromoService, hub *realtime.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, svc)
	})

	// WebSocket signals
	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/events"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		var ev core.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "body must be an event JSON object", nil)
			return
		}
		if ev.Vertical != "" && !core.ValidVertical(ev.Vertical) {
			writeError(w, http.StatusBadRequest, "invalid_vertical", "unknown vertical "+string(ev.Vertical), nil)
			return
		}
		results, err := svc.ProcessEvent(r.Context(), ev)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		writeJSON(w, map[string]any{"evaluations": results})
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/promotions"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			promos, err := svc.Promotions(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
				return
			}
			writeJSON(w, map[string]any{"promotions": promos})
		case http.MethodPost:
			var p core.PromotionConfig
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "body must be a promotion JSON object", nil)
				return
			}
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if err := svc.SavePromotion(r.Context(), p); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_promotion", err.Error(), nil)
				return
			}
			writeJSON(w, map[string]any{"ok": true, "id": p.ID})
		default:
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		}
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/promotions/"), func(w http.ResponseWriter, r *http.Request) {
		parts := split(strings.TrimPrefix(r.URL.Path, opts.PathPrefix), '/')
		if len(parts) < 2 {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		id := parts[1]
		if len(parts) >= 3 && parts[2] == "join" && r.Method == http.MethodPost {
			var body struct {
				PlayerID core.PlayerID `json:"player_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PlayerID == "" {
				writeError(w, http.StatusBadRequest, "invalid_body", "body must carry player_id", nil)
				return
			}
			if err := svc.Join(r.Context(), body.PlayerID, id); err != nil {
				if errors.Is(err, engine.ErrNotFound) {
					writeError(w, http.StatusNotFound, "not_found", "promotion "+id+" not found", nil)
					return
				}
				writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
				return
			}
			writeJSON(w, map[string]any{"ok": true})
			return
		}
		switch r.Method {
		case http.MethodGet:
			p, err := svc.Promotion(r.Context(), id)
			if err != nil {
				if errors.Is(err, engine.ErrNotFound) {
					writeError(w, http.StatusNotFound, "not_found", "promotion "+id+" not found", nil)
					return
				}
				writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
				return
			}
			writeJSON(w, p)
		case http.MethodPut:
			var p core.PromotionConfig
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "body must be a promotion JSON object", nil)
				return
			}
			p.ID = id
			if err := svc.SavePromotion(r.Context(), p); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_promotion", err.Error(), nil)
				return
			}
			writeJSON(w, map[string]any{"ok": true, "id": p.ID})
		case http.MethodDelete:
			if err := svc.DeletePromotion(r.Context(), id); err != nil {
				writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
				return
			}
			writeJSON(w, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		}
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/players/"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		parts := split(strings.TrimPrefix(r.URL.Path, opts.PathPrefix), '/')
		if len(parts) < 2 {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		player := core.PlayerID(parts[1])
		if len(parts) >= 3 && parts[2] == "logs" {
			limit := 0
			if raw := r.URL.Query().Get("limit"); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer", nil)
					return
				}
				limit = n
			}
			logs, err := svc.PlayerLogs(r.Context(), player, limit)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
				return
			}
			writeJSON(w, map[string]any{"logs": logs})
			return
		}
		state, err := svc.PlayerState(r.Context(), player)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		writeJSON(w, state)
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/catalog/games"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		writeJSON(w, map[string]any{"games": catalog.Games()})
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/catalog/providers"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		writeJSON(w, map[string]any{"providers": catalog.Providers()})
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/admin/seed"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		n, err := svc.SeedPromotions(r.Context(), catalog.SeedPromotions(time.Now().UTC()))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "seeded": n})
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/admin/reset"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		if err := svc.Reset(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
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

// healthCheck verifies the service is working properly
func healthCheck(w http.ResponseWriter, r *http.Request, svc *engine.PromoService) {
	ctx := r.Context()

	// Verify storage works with a lightweight read that touches no real data
	_, err := svc.PlayerState(ctx, "healthcheck_probe")

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
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
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
