package credentials

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when no credential can be produced: the caches
// are stale and the fetcher failed with nothing to fall back on.
var ErrUnavailable = errors.New("provider credentials unavailable")

// Credential is the opaque header bundle a provider session requires.
type Credential struct {
	Headers   map[string]string `json:"headers"`
	FetchedAt time.Time         `json:"fetched_at"`
}

func (c *Credential) clone() Credential {
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		headers[k] = v
	}
	return Credential{Headers: headers, FetchedAt: c.FetchedAt}
}

// Fetcher acquires a fresh header bundle from the provider.
type Fetcher interface {
	Fetch(ctx context.Context) (map[string]string, error)
}

// Store is the durable cache layer beneath the in-process cache. Load returns
// (nil, nil) when no record exists.
type Store interface {
	Load(ctx context.Context, provider string) (*Credential, error)
	Save(ctx context.Context, provider string, cred *Credential) error
}
