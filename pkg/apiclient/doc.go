// Package apiclient is the HTTP transport consumed by the session and
// registration services.
//
// It is deliberately thin: base-URL joining, JSON encode/decode, multipart
// payload building, bearer attachment through a pluggable TokenSource, and a
// single retry-after-refresh pass driven by an UnauthorizedFunc callback.
// Failure semantics live in TransportError; translating those into the
// user-facing error taxonomy is the apierror package's job.
//
// # Retry policy
//
// A request that carried a bearer token and came back 401 is replayed exactly
// once with the token returned by the registered UnauthorizedFunc. The replay
// itself is never retried, so a backend that persistently rejects refreshed
// tokens produces exactly one refresh exchange and one failed replay per
// original request. Requests sent with WithoutAuth or WithoutRetry never
// enter this path.
//
// # Usage
//
//	client := apiclient.New(apiclient.Config{BaseURL: "https://api.example.com/api"})
//	resp, err := client.Post(ctx, "/token/", credentials, apiclient.WithoutAuth())
package apiclient
