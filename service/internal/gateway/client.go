// internal/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/feng-mou-mou/Railof1914/service/internal/models"
	"github.com/feng-mou-mou/Railof1914/service/internal/store"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 8 * time.Second

// maxErrorBody caps how much of a failed response is read for the error text.
const maxErrorBody = 4 << 10

// Client talks to the game backend. One request is sent per action, with no
// retries; successful responses replace the store snapshot.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	token   func() (string, error)
	store   *store.GameStateStore
	merged  MergedTownCache
	onLog   func(models.LogEntry)
	now     func() time.Time

	tilesMu sync.RWMutex
	tiles   map[string][]engine.Hex // Merged towns present in the last loaded state.
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithBearerToken attaches "Authorization: Bearer" using tokens from fn.
func WithBearerToken(fn func() (string, error)) Option { return func(c *Client) { c.token = fn } }

// WithMergedTownCache replaces the in-memory merged-town cache.
func WithMergedTownCache(m MergedTownCache) Option { return func(c *Client) { c.merged = m } }

// WithActionLog receives a human-readable entry for every successful action.
func WithActionLog(fn func(models.LogEntry)) Option { return func(c *Client) { c.onLog = fn } }

// New creates a client for baseURL that keeps st up to date.
func New(baseURL string, st *store.GameStateStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		store:   st,
		merged:  NewMemoryMergedTowns(),
		now:     time.Now,
		tiles:   map[string][]engine.Hex{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the snapshot store the client writes to.
func (c *Client) Store() *store.GameStateStore { return c.store }

// MergedTowns returns the merged-town cache.
func (c *Client) MergedTowns() MergedTownCache { return c.merged }

// do sends one request and decodes the JSON response into out. Non-2xx
// statuses and network failures become *TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Op: op, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		tok, err := c.token()
		if err != nil {
			return fmt.Errorf("%s: mint token: %w", op, err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	log.Debugf("gateway: %s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Message: errorText(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorText extracts "message" or "error" from a JSON body, falling back to
// the trimmed raw text.
func errorText(raw []byte) string {
	var env models.ActionResponse
	if err := json.Unmarshal(raw, &env); err == nil {
		if r := env.Reason(); r != "" {
			return r
		}
	}
	return strings.TrimSpace(string(raw))
}

// logAction forwards a success line to the action log.
func (c *Client) logAction(round int, actor engine.Faction, msg string) {
	if c.onLog == nil {
		return
	}
	c.onLog(models.LogEntry{Round: round, Actor: actor, Message: msg, AtMilli: c.now().UnixMilli()})
}
