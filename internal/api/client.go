// Package api is the single outbound gateway to the exam service. Every
// request carries the persisted bearer token, every response is decoded
// from the {success,data,message} envelope, and any 401 tears the session
// down before the failure is returned.
package api

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

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/config"
	"github.com/stemsi/examtester/internal/response"
	"github.com/stemsi/examtester/internal/storage"
)

const maxResponseBytes = 4 << 20

// Client talks to the exam service.
type Client struct {
	baseURL string
	http    *http.Client
	kv      storage.KV
	log     zerolog.Logger

	mu             sync.Mutex
	onUnauthorized []func()
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for cfg.APIURL that reads the bearer token from kv
// and enforces cfg.RequestTimeout on every call.
func New(cfg *config.Config, kv storage.KV, log zerolog.Logger, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		http:    &http.Client{Timeout: timeout},
		kv:      kv,
		log:     log.With().Str("component", "api").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized registers fn to run after a 401 has cleared the persisted
// session. Hooks run in registration order, once per 401 response.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(ctx context.Context, path, fallback string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, "", fallback, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in interface{}, fallback string, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return response.Wrap(fmt.Errorf("encode request: %w", err), fallback)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, fallback, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType, fallback string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return response.Wrap(fmt.Errorf("build request: %w", err), fallback)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := response.SetRequestID(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", reqID).
			Msg("Request failed")
		return &response.Error{Kind: response.KindServer, Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &response.Error{Kind: response.KindServer, Status: resp.StatusCode, Message: fallback, Err: err}
	}
	env := response.Decode(raw)

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Str("request_id", reqID).
		Msg("Request completed")

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
		return &response.Error{Kind: response.KindUnauthorized, Status: resp.StatusCode, Message: env.MessageOr(fallback)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &response.Error{Kind: response.KindForStatus(resp.StatusCode), Status: resp.StatusCode, Message: env.MessageOr(fallback)}
	}
	if !env.Success {
		return &response.Error{Kind: response.KindServer, Status: resp.StatusCode, Message: env.MessageOr(fallback)}
	}
	if out != nil {
		if err := env.Into(out); err != nil {
			return &response.Error{Kind: response.KindServer, Status: resp.StatusCode, Message: fallback, Err: err}
		}
	}
	return nil
}

func (c *Client) token(ctx context.Context) string {
	token, ok, err := c.kv.Get(ctx, config.StorageKey.Token)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to read stored token")
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// handleUnauthorized clears the persisted session and runs the hooks. It
// uses a fresh context so a cancelled request still tears the session down.
func (c *Client) handleUnauthorized() {
	ctx := context.Background()
	for _, key := range []string{config.StorageKey.Token, config.StorageKey.User} {
		if err := c.kv.Remove(ctx, key); err != nil {
			c.log.Error().Err(err).Str("key", key).Msg("Failed to clear stored session")
		}
	}

	c.mu.Lock()
	hooks := append([]func(){}, c.onUnauthorized...)
	c.mu.Unlock()

	c.log.Warn().Msg("Received 401, session cleared")
	for _, fn := range hooks {
		fn()
	}
}
