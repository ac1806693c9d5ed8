package apiclient

import (
	"log/slog"
	"net/http"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom underlying http.Client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithRequestHook appends a pre-request hook.
func WithRequestHook(hook RequestHook) Option {
	return func(c *Client) {
		if hook != nil {
			c.hooks = append(c.hooks, hook)
		}
	}
}

// WithTokenSource sets the bearer token supplier at construction time.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

type requestOptions struct {
	noAuth      bool
	noRetry     bool
	contentType string
	headers     map[string]string
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// WithoutAuth sends the request without a bearer token. Used for login,
// registration and token-refresh calls.
func WithoutAuth() RequestOption {
	return func(ro *requestOptions) {
		ro.noAuth = true
	}
}

// WithoutRetry disables the 401 refresh-and-retry pass for this request.
func WithoutRetry() RequestOption {
	return func(ro *requestOptions) {
		ro.noRetry = true
	}
}

// WithContentType sets the request Content-Type header.
func WithContentType(ct string) RequestOption {
	return func(ro *requestOptions) {
		ro.contentType = ct
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) RequestOption {
	return func(ro *requestOptions) {
		if ro.headers == nil {
			ro.headers = make(map[string]string)
		}
		ro.headers[key] = value
	}
}
