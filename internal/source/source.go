package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/assetboard/assetboard/internal/config"
)

// ErrNotConfigured is returned by Fetch when no URL or path was resolved.
var ErrNotConfigured = errors.New("source: not configured")

// Payload is the result of one successful fetch.
type Payload struct {
	// Body is the raw CSV text.
	Body string

	// Origin identifies where Body came from: the URL host or file path.
	Origin string

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time

	// Cert describes the server certificate for HTTPS origins, else nil.
	Cert *CertStatus
}

// Fetcher retrieves the inventory CSV.
type Fetcher interface {
	Fetch(ctx context.Context) (*Payload, error)
}

// New returns the Fetcher for cfg. A source with no resolvable URL or path
// still yields a Fetcher; its Fetch returns ErrNotConfigured.
func New(cfg config.SourceConfig) (Fetcher, error) {
	switch cfg.Kind {
	case config.KindHTTP, "":
		return newHTTPSource(cfg), nil
	case config.KindFile:
		return &fileSource{path: cfg.Path, now: time.Now}, nil
	default:
		return nil, fmt.Errorf("source: unsupported kind %q", cfg.Kind)
	}
}
