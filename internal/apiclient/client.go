// Package apiclient is the authenticated request pipeline in front of the
// task API. Every call goes through Do, which attaches the bearer token,
// unwraps the {success, status_code, message, data} envelope and runs at
// most one silent token refresh per request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/todotui/internal/model"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000/api"
	DefaultTimeout = 10 * time.Second

	RefreshPath = "/refresh/"

	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

// TokenSource is the session the adapter authenticates with. The adapter
// never stores tokens itself: it reads them per request and hands rotated
// pairs and session teardown back to the owner.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	Rotate(ctx context.Context, pair model.TokenPair) error
	Expire(ctx context.Context, reason error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	requestID  func() string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.DiscardHandler),
		requestID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UseTokens binds the session. It is called once during wiring, before the
// first authenticated request.
func (c *Client) UseTokens(tokens TokenSource) {
	c.tokens = tokens
}

func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one API call. Public requests (login, registration)
// carry no bearer token and never enter the refresh cycle: a 401 there is a
// credential error, not an expired session.
type Request struct {
	Method string
	Path   string
	Body   any
	Public bool
}

// attempt is the per-request pipeline state. It is passed by value so the
// replay after a refresh never shares state with the original call.
type attempt struct {
	retried     bool
	accessToken string
}

// Do performs req and decodes the envelope's data into out (which may be
// nil). On a 401 it refreshes once and replays; if the refresh is impossible
// or fails, or the replay is rejected again, the session is expired and the
// returned error matches ErrAuthInvalid.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	return c.do(ctx, req, attempt{}, out)
}

func (c *Client) do(ctx context.Context, req Request, at attempt, out any) error {
	token := at.accessToken
	if !at.retried && !req.Public && c.tokens != nil {
		token = c.tokens.AccessToken()
	}

	status, body, err := c.send(ctx, req, token, at.retried)
	if err != nil {
		return err
	}
	if apiErr := responseError(req.Path, status, body); apiErr != nil {
		if req.Public {
			if apiErr.Code == ErrCodeAuthExpired {
				apiErr.Code = ErrCodeRejected
			}
			return apiErr
		}
		if apiErr.Code != ErrCodeAuthExpired {
			return apiErr
		}
		if at.retried {
			c.expire(ctx, apiErr)
			return apiErr.invalidated(nil)
		}
		pair, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			c.expire(ctx, refreshErr)
			return apiErr.invalidated(refreshErr)
		}
		return c.do(ctx, req, attempt{retried: true, accessToken: pair.Access}, out)
	}
	return decodeData(req.Path, body, out)
}

func (c *Client) refresh(ctx context.Context) (model.TokenPair, error) {
	if c.tokens == nil {
		return model.TokenPair{}, errors.New("apiclient: no session bound")
	}
	current := c.tokens.RefreshToken()
	if strings.TrimSpace(current) == "" {
		return model.TokenPair{}, errors.New("apiclient: no refresh token")
	}

	req := Request{Method: http.MethodPost, Path: RefreshPath, Body: map[string]string{"refresh": current}, Public: true}
	status, body, err := c.send(ctx, req, "", false)
	if err != nil {
		return model.TokenPair{}, err
	}
	if apiErr := responseError(req.Path, status, body); apiErr != nil {
		return model.TokenPair{}, apiErr
	}

	var pair model.TokenPair
	if _, ok := parseEnvelope(body); ok {
		if err := decodeData(req.Path, body, &pair); err != nil {
			return model.TokenPair{}, err
		}
	} else if err := json.Unmarshal(body, &pair); err != nil {
		// Some deployments answer the refresh endpoint without the envelope.
		return model.TokenPair{}, &Error{Code: ErrCodeDecode, Path: req.Path, Status: status, Err: err}
	}
	if pair.Access == "" {
		return model.TokenPair{}, &Error{Code: ErrCodeDecode, Path: req.Path, Status: status, Err: errors.New("refresh response without access token")}
	}
	if pair.Refresh == "" {
		pair.Refresh = current
	}
	if err := c.tokens.Rotate(ctx, pair); err != nil {
		return model.TokenPair{}, fmt.Errorf("rotate tokens: %w", err)
	}
	c.logger.Info("access token refreshed")
	return pair, nil
}

func (c *Client) expire(ctx context.Context, reason error) {
	c.logger.Warn("session expired", "reason", reason)
	if c.tokens != nil {
		c.tokens.Expire(ctx, reason)
	}
}

func (c *Client) send(ctx context.Context, req Request, token string, retried bool) (int, []byte, error) {
	var payload io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s body: %w", req.Path, err)
		}
		payload = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", req.Path, err)
	}
	id := c.requestID()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, id)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("api request failed", "method", req.Method, "path", req.Path, "request_id", id, "retried", retried, "err", err)
		return 0, nil, &Error{Code: ErrCodeNetwork, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, &Error{Code: ErrCodeNetwork, Path: req.Path, Status: resp.StatusCode, Err: err}
	}
	c.logger.Debug("api request",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"request_id", id,
		"retried", retried,
		"elapsed", time.Since(started),
	)
	return resp.StatusCode, body, nil
}
