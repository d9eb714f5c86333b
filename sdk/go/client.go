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

	"promokit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the promokit HTTP + WebSocket API.
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

// PostEvent submits one gameplay event for evaluation and returns the
// per-promotion results.
func (c *Client) PostEvent(ctx context.Context, ev core.Event) ([]core.EvaluationResult, error) {
	if strings.TrimSpace(string(ev.PlayerID)) == "" {
		return nil, ErrEmptyPlayerID
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Evaluations []core.EvaluationResult `json:"evaluations"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Evaluations, nil
}

// Join opts a player in to a promotion.
func (c *Client) Join(ctx context.Context, playerID, promotionID string) error {
	if strings.TrimSpace(playerID) == "" {
		return ErrEmptyPlayerID
	}
	payload, err := json.Marshal(map[string]string{"player_id": playerID})
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/promotions/%s/join", c.baseURL, url.PathEscape(promotionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		OK bool `json:"ok"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return err
	}
	if !body.OK {
		return errors.New("join rejected")
	}
	return nil
}

// Promotions lists the configured promotions.
func (c *Client) Promotions(ctx context.Context) ([]core.PromotionConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/promotions", nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Promotions []core.PromotionConfig `json:"promotions"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Promotions, nil
}

// Player fetches the current promotion state for a player.
func (c *Client) Player(ctx context.Context, playerID string) (core.PlayerState, error) {
	if strings.TrimSpace(playerID) == "" {
		return core.PlayerState{}, ErrEmptyPlayerID
	}
	u := fmt.Sprintf("%s/players/%s", c.baseURL, url.PathEscape(playerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return core.PlayerState{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.PlayerState{}, err
	}
	defer resp.Body.Close()

	var st core.PlayerState
	if err := decodeJSON(resp, &st); err != nil {
		return core.PlayerState{}, err
	}
	return st, nil
}

// PlayerLogs fetches the most recent evaluation log entries for a player.
// limit <= 0 returns the server default.
func (c *Client) PlayerLogs(ctx context.Context, playerID string, limit int) ([]core.LogEntry, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, ErrEmptyPlayerID
	}
	u, err := url.Parse(fmt.Sprintf("%s/players/%s/logs", c.baseURL, url.PathEscape(playerID)))
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		q := u.Query()
		q.Set("limit", fmt.Sprintf("%d", limit))
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Logs []core.LogEntry `json:"logs"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Logs, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u := c.baseURL + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeSignals connects to the WebSocket stream and emits core.Signal values.
// When player is non-empty the server filters to that player's signals. The
// returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeSignals(ctx context.Context, player string) (<-chan core.Signal, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	wsURL := c.wsURL
	if player != "" {
		u, err := url.Parse(wsURL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("player", player)
		u.RawQuery = q.Encode()
		wsURL = u.String()
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Signal, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var sig core.Signal
				if err := conn.ReadJSON(&sig); err != nil {
					return
				}
				select {
				case out <- sig:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
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
