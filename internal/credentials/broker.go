package credentials

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Broker owns the session credentials for one provider. Lookup order is
// in-process cache, durable store, then a single-flight fetch. A durable hit
// backfills the in-process cache without touching the network.
type Broker struct {
	provider string
	fetcher  Fetcher
	store    Store
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	current *Credential

	group singleflight.Group
}

type BrokerConfig struct {
	Provider string
	Fetcher  Fetcher
	Store    Store
	TTL      time.Duration
	Now      func() time.Time
	Logger   *zap.Logger
}

func NewBroker(cfg BrokerConfig) *Broker {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		provider: cfg.Provider,
		fetcher:  cfg.Fetcher,
		store:    cfg.Store,
		ttl:      cfg.TTL,
		now:      now,
		logger:   logger,
	}
}

// Get returns a valid credential, fetching at most once across concurrent
// callers. With forceRefresh both cache layers are bypassed. When the fetch
// fails but a previously acquired credential exists, that stale credential is
// returned instead of an error.
func (b *Broker) Get(ctx context.Context, forceRefresh bool) (Credential, error) {
	if !forceRefresh {
		if cred, ok := b.fromCaches(ctx); ok {
			return cred, nil
		}
	}

	v, err, _ := b.group.Do(b.provider, func() (interface{}, error) {
		// A sibling caller may have completed the fetch while this one was
		// queued on the group; re-check the caches before hitting the network.
		if !forceRefresh {
			if cred, ok := b.fromCaches(ctx); ok {
				return cred, nil
			}
		}
		return b.fetch(ctx)
	})
	if err != nil {
		b.mu.Lock()
		stale := b.current
		b.mu.Unlock()
		if stale != nil {
			b.logger.Warn("credential fetch failed, returning stale credential",
				zap.String("provider", b.provider), zap.Error(err))
			return stale.clone(), nil
		}
		return Credential{}, ErrUnavailable
	}
	return v.(Credential), nil
}

// TriggerRefresh starts a background refresh without waiting for it. Callers
// keep using the last-known credential until the refresh lands.
func (b *Broker) TriggerRefresh() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := b.Get(ctx, true); err != nil {
			b.logger.Warn("background credential refresh failed",
				zap.String("provider", b.provider), zap.Error(err))
		}
	}()
}

// LoadInitial warms the in-process cache from the durable store at startup.
// It never triggers a fetch; an expired or missing record is left for the
// first Get to handle.
func (b *Broker) LoadInitial(ctx context.Context) {
	if b.store == nil {
		return
	}
	cred, err := b.store.Load(ctx, b.provider)
	if err != nil || cred == nil {
		return
	}
	if b.now().Sub(cred.FetchedAt) > b.ttl {
		b.logger.Info("durable credential record expired, skipping initial load",
			zap.String("provider", b.provider))
		return
	}
	b.mu.Lock()
	b.current = cred
	b.mu.Unlock()
	b.logger.Info("loaded initial credentials from durable cache",
		zap.String("provider", b.provider))
}

func (b *Broker) fromCaches(ctx context.Context) (Credential, bool) {
	b.mu.Lock()
	if b.current != nil && b.now().Sub(b.current.FetchedAt) <= b.ttl {
		cred := b.current.clone()
		b.mu.Unlock()
		return cred, true
	}
	b.mu.Unlock()

	if b.store == nil {
		return Credential{}, false
	}
	cred, err := b.store.Load(ctx, b.provider)
	if err != nil {
		b.logger.Warn("durable credential load failed",
			zap.String("provider", b.provider), zap.Error(err))
		return Credential{}, false
	}
	if cred == nil || b.now().Sub(cred.FetchedAt) > b.ttl {
		return Credential{}, false
	}

	b.mu.Lock()
	b.current = cred
	b.mu.Unlock()
	return cred.clone(), true
}

func (b *Broker) fetch(ctx context.Context) (Credential, error) {
	headers, err := b.fetcher.Fetch(ctx)
	if err != nil {
		return Credential{}, err
	}
	cred := Credential{Headers: headers, FetchedAt: b.now()}

	b.mu.Lock()
	b.current = &cred
	b.mu.Unlock()

	if b.store != nil {
		if err := b.store.Save(ctx, b.provider, &cred); err != nil {
			b.logger.Warn("persisting credentials to durable cache failed",
				zap.String("provider", b.provider), zap.Error(err))
		}
	}
	return cred.clone(), nil
}
