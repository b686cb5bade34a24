// Package client is the Go API client for a Chirp server. It attaches the
// bearer access token to every request and renews it transparently: on a
// 401 the refresh credential cookie is rotated once (deduplicated across
// goroutines) and the request retried exactly once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrAuthExpired is returned when the session cannot be renewed: the
// refresh rotation failed, or the retried request was rejected again.
// The caller must log in again.
var ErrAuthExpired = errors.New("client: session expired")

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to one Chirp server. Safe for concurrent use.
type Client struct {
	base *url.URL
	hc   *http.Client

	mu     sync.Mutex
	access string

	refresh singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is
// installed if the given client has none, since the refresh credential
// lives in a cookie.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// New constructs a Client for the server at rawBase.
func New(rawBase string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(rawBase, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("client: base url needs scheme and host")
	}

	c := &Client{
		base: base,
		hc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.hc.Jar = jar
	}
	return c, nil
}

// AccessToken returns the currently cached access token (empty before login).
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

// SetAccessToken replaces the cached access token. Login and Register set it
// automatically; this exists for restoring a persisted session token.
func (c *Client) SetAccessToken(tok string) {
	c.mu.Lock()
	c.access = tok
	c.mu.Unlock()
}

// ---- session lifecycle ----

type sessionPayload struct {
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

type authPayload struct {
	User    json.RawMessage `json:"user"`
	Session sessionPayload  `json:"session"`
}

// Register creates an account and starts a session.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	var out authPayload
	err := c.roundTrip(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &out, "")
	if err != nil {
		return err
	}
	c.SetAccessToken(out.Session.AccessToken)
	return nil
}

// Login authenticates with email and password and starts a session. The
// refresh credential lands in the cookie jar.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out authPayload
	err := c.roundTrip(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out, "")
	if err != nil {
		return err
	}
	c.SetAccessToken(out.Session.AccessToken)
	return nil
}

// Logout revokes the refresh credential and forgets the access token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.roundTrip(ctx, http.MethodPost, "/auth/logout", nil, nil, c.AccessToken())
	c.SetAccessToken("")
	return err
}

// renewAccessToken rotates the refresh credential and caches the new access
// token. Concurrent callers share one rotation via singleflight, and a
// caller whose token was already replaced by another renewal reuses the
// cached one. A refresh failure maps to ErrAuthExpired; the stale token is
// dropped from the cache either way, since the server already rejected it.
func (c *Client) renewAccessToken(ctx context.Context, stale string) (string, error) {
	if cur := c.AccessToken(); cur != "" && cur != stale {
		return cur, nil
	}
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		var out struct {
			Session sessionPayload `json:"session"`
		}
		if err := c.roundTrip(ctx, http.MethodPost, "/auth/refresh-token", nil, &out, ""); err != nil {
			c.SetAccessToken("")
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
				return nil, ErrAuthExpired
			}
			return nil, err
		}
		c.SetAccessToken(out.Session.AccessToken)
		return out.Session.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ---- request plumbing ----

// Do performs an authenticated JSON request. On a 401 it renews the access
// token once and retries exactly once; a second rejection (or a failed
// renewal) returns ErrAuthExpired.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	used := c.AccessToken()
	err := c.roundTrip(ctx, method, path, in, out, used)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}

	tok, renewErr := c.renewAccessToken(ctx, used)
	if renewErr != nil {
		return renewErr
	}

	err = c.roundTrip(ctx, method, path, in, out, tok)
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		c.SetAccessToken("")
		return ErrAuthExpired
	}
	return err
}

// roundTrip performs one JSON request/response cycle with no retries.
func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any, bearer string) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope); decodeErr == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
