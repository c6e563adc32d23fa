// Package syncerr defines the error kinds a sync run distinguishes between.
package syncerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the registry has no dataset for the key.
	ErrNotFound = errors.New("not found")
	// ErrUpstream means a service answered with a non-success status or an unreadable body.
	ErrUpstream = errors.New("upstream error")
	// ErrTransport means the request never got an answer (network failure or timeout).
	ErrTransport = errors.New("transport error")
	// ErrMalformedInput means a source record lacks a field the mapper requires.
	ErrMalformedInput = errors.New("malformed input")
	// ErrDataIntegrity means the catalog holds more than one resource for a key.
	ErrDataIntegrity = errors.New("data integrity")
)

// Kind names used in logs and the outcome ledger.
const (
	KindNotFound       = "not_found"
	KindUpstream       = "upstream"
	KindTransport      = "transport"
	KindMalformedInput = "malformed_input"
	KindDataIntegrity  = "data_integrity"
	KindUnknown        = "unknown"
)

const maxBodyExcerpt = 512

// StatusError is returned when a service responds with a non-success status.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

// NewStatusError builds a StatusError classified as ErrUpstream.
func NewStatusError(service string, code int, body []byte) *StatusError {
	excerpt := string(body)
	if len(excerpt) > maxBodyExcerpt {
		excerpt = excerpt[:maxBodyExcerpt] + "..."
	}
	return &StatusError{Service: service, StatusCode: code, Body: excerpt, Err: ErrUpstream}
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Transport wraps a network-level failure so it matches ErrTransport.
func Transport(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

// Kind classifies err into one of the Kind* names.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrDataIntegrity):
		return KindDataIntegrity
	default:
		return KindUnknown
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
