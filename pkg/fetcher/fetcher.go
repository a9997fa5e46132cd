// Package fetcher retrieves remote photo payloads for archive exports. Every call is independent:
// there is no retry and no backoff, a failure only concerns the one address that was requested.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Fetcher retrieves the bytes stored at address.
type Fetcher interface {
	Fetch(ctx context.Context, address string) ([]byte, error)
}

// StatusError reports a non-success status from the remote store.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// ErrTooLarge is returned when a payload exceeds the configured size cap.
var ErrTooLarge = errors.New("payload exceeds size limit")

// ErrUnsupportedAddress is returned for addresses no transport can serve.
var ErrUnsupportedAddress = errors.New("unsupported photo address")

// Router dispatches addresses to a transport by URL scheme.
type Router struct {
	web    Fetcher
	object Fetcher
}

// NewRouter builds a router. object may be nil when no object store is configured.
func NewRouter(web, object Fetcher) *Router {
	return &Router{web: web, object: object}
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, address string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedAddress, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		if r.web == nil {
			return nil, fmt.Errorf("%w: no http transport", ErrUnsupportedAddress)
		}
		return r.web.Fetch(ctx, address)
	case "s3":
		if r.object == nil {
			return nil, fmt.Errorf("%w: object storage is not configured", ErrUnsupportedAddress)
		}
		return r.object.Fetch(ctx, address)
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedAddress, parsed.Scheme)
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
