package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// TokenSource supplies the bearer token attached to outgoing requests.
// An empty string means the request is sent unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// RequestHook mutates an outgoing request before it is sent. Hooks run in
// registration order; a hook error aborts the request.
type RequestHook func(r *http.Request) error

// UnauthorizedFunc is invoked when an authenticated request comes back with
// 401. It must return a fresh access token to retry the original request
// with, or an error to surface to the caller.
type UnauthorizedFunc func(ctx context.Context) (string, error)

// Client issues JSON requests against the portal backend. It owns bearer
// attachment and the single retry-after-refresh pass; everything above it
// works with Response values and TransportError failures.
type Client struct {
	baseURL        string
	httpc          *http.Client
	hooks          []RequestHook
	tokens         TokenSource
	onUnauthorized UnauthorizedFunc
	onAuthFailure  func()
	log            *slog.Logger
}

// New creates a client for the given configuration.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.RequestTimeout},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetTokenSource registers the bearer token supplier. Registered after
// construction because the session manager that owns tokens is itself
// constructed around the client.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// SetUnauthorizedFunc registers the refresh-and-retry handler for 401
// responses on authenticated requests.
func (c *Client) SetUnauthorizedFunc(fn UnauthorizedFunc) {
	c.onUnauthorized = fn
}

// SetAuthFailureHook registers the handler invoked when a request still comes
// back 401 after the refreshed-token replay. The hook must be idempotent;
// concurrent requests can all hit the dead-token path at once.
func (c *Client) SetAuthFailureHook(fn func()) {
	c.onAuthFailure = fn
}

// Response is a settled backend response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Join(ErrDecodeFailed, err)
	}
	return nil
}

// TransportError reports a failed exchange: either the server answered with a
// non-2xx status, or the request never produced a response at all (Status 0).
type TransportError struct {
	Status  int    // HTTP status; 0 when no response was received
	Body    []byte // response body, if any
	Timeout bool   // the request timed out waiting for the server
	Err     error  // underlying transport error; nil when the server responded
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("apiclient: request failed: %v", e.Err)
	}
	return fmt.Sprintf("apiclient: unexpected status %d", e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Get issues an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post issues a JSON POST request.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailed, err)
	}
	return c.Do(ctx, http.MethodPost, path, payload, append(opts, WithContentType("application/json"))...)
}

// Patch issues a JSON PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailed, err)
	}
	return c.Do(ctx, http.MethodPatch, path, payload, append(opts, WithContentType("application/json"))...)
}

// Do sends a request with a replayable payload. A 401 on an authenticated
// request triggers the registered UnauthorizedFunc once and replays the
// request with the returned token; the replay is never retried again.
func (c *Client) Do(ctx context.Context, method, path string, payload []byte, opts ...RequestOption) (*Response, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	bearer := ""
	if c.tokens != nil && !ro.noAuth {
		bearer = c.tokens.AccessToken()
	}

	resp, err := c.roundTrip(ctx, method, path, payload, bearer, &ro)

	var terr *TransportError
	if err != nil && errors.As(err, &terr) &&
		terr.Status == http.StatusUnauthorized &&
		bearer != "" && !ro.noRetry && c.onUnauthorized != nil {

		newToken, rerr := c.onUnauthorized(ctx)
		if rerr != nil {
			return nil, rerr
		}

		c.log.DebugContext(ctx, "retrying request with refreshed token", "method", method, "path", path)
		resp, err = c.roundTrip(ctx, method, path, payload, newToken, &ro)

		// The refreshed token was rejected too: the session is dead. Never
		// refresh again for this request.
		if err != nil && errors.As(err, &terr) && terr.Status == http.StatusUnauthorized && c.onAuthFailure != nil {
			c.onAuthFailure()
		}
	}

	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, bearer string, ro *requestOptions) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if ro.contentType != "" {
		req.Header.Set("Content-Type", ro.contentType)
	}
	for k, v := range ro.headers {
		req.Header.Set(k, v)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	for _, hook := range c.hooks {
		if err := hook(req); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.DebugContext(ctx, "transport failure", "method", method, "path", path, "error", err)
		return nil, &TransportError{Err: err, Timeout: isTimeout(err)}
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Status: resp.StatusCode, Body: data}
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

// maxResponseBytes caps response bodies; the backend returns small JSON
// documents, anything bigger is a misdirected request.
const maxResponseBytes = 4 << 20

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
