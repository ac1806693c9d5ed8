package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/studyportal/authkit/pkg/apiclient"
)

// Classify translates a transport failure from an authenticated call into a
// classified Error. A 401 is read as an expired access token.
func Classify(err error) *Error {
	return classify(err, false)
}

// ClassifyLogin translates a transport failure from the credential exchange.
// A 401 here means the credentials were rejected, not that a token expired.
func ClassifyLogin(err error) *Error {
	return classify(err, true)
}

// Classification order, most specific signal first: no response at all, then
// timeout, then status ranges, then body-shape sniffing.
func classify(err error, login bool) *Error {
	if err == nil {
		return nil
	}

	// Already classified errors pass through unchanged so refresh failures
	// keep their KindTokenRefreshFailed identity across layers.
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var terr *apiclient.TransportError
	if !errors.As(err, &terr) {
		return Wrap(KindUnknown, err.Error(), err)
	}

	if terr.Status == 0 {
		if terr.Timeout {
			return Wrap(KindServerDown, "server is not responding", terr)
		}
		return Wrap(KindNoNetwork, "network is unreachable", terr)
	}

	e := &Error{Status: terr.Status, cause: terr}

	switch {
	case terr.Status >= 500:
		e.Kind = KindServerError
		e.Message = "server error"

	case terr.Status == http.StatusUnauthorized:
		if login {
			e.Kind, e.Message = sniffDetail(terr.Body, KindInvalidCredentials)
		} else {
			e.Kind = KindTokenExpired
			e.Message = "access token expired"
		}

	case terr.Status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.Message = "too many requests"

	case terr.Status == http.StatusBadRequest:
		if fields := fieldErrors(terr.Body); len(fields) > 0 {
			e.Kind = KindValidationFailed
			e.Message = "validation failed"
			e.Fields = fields
		} else {
			e.Kind, e.Message = sniffDetail(terr.Body, KindUnknown)
		}

	default:
		e.Kind = KindUnknown
		e.Message = http.StatusText(terr.Status)
	}

	return e
}

// sniffDetail inspects free-text error bodies the backend sends under
// detail/non_field_errors/message and maps the known phrasings.
func sniffDetail(body []byte, fallback Kind) (Kind, string) {
	msg := MessageFromBody(body)
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "not found"), strings.Contains(lower, "no active account"):
		return KindEmailNotFound, msg
	case strings.Contains(lower, "password"), strings.Contains(lower, "credentials"):
		return KindInvalidCredentials, msg
	}

	if msg == "" {
		msg = string(fallback)
	}
	return fallback, msg
}

// MessageFromBody extracts the human-readable message from the backend's
// error envelope. Checks detail, message, then the first non_field_errors
// entry. Returns "" for bodies that are not JSON objects.
func MessageFromBody(body []byte) string {
	var envelope struct {
		Detail         string   `json:"detail"`
		Message        string   `json:"message"`
		NonFieldErrors []string `json:"non_field_errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	switch {
	case envelope.Detail != "":
		return envelope.Detail
	case envelope.Message != "":
		return envelope.Message
	case len(envelope.NonFieldErrors) > 0:
		return envelope.NonFieldErrors[0]
	}
	return ""
}

// fieldErrors parses DRF-style validation bodies: an object whose values are
// arrays of strings keyed by field name, e.g. {"email": ["already in use"]}.
// Envelope keys that are not field errors are skipped.
func fieldErrors(body []byte) map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	fields := make(map[string][]string)
	for key, value := range raw {
		switch key {
		case "detail", "message", "status", "code", "non_field_errors":
			continue
		}
		var msgs []string
		if err := json.Unmarshal(value, &msgs); err != nil || len(msgs) == 0 {
			continue
		}
		fields[key] = msgs
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}
