package search

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/aeroscout/fareengine/internal/credentials"
	"github.com/aeroscout/fareengine/internal/provider"
)

// ProviderClient runs one paginated search session with explicit credentials.
type ProviderClient interface {
	RunSession(ctx context.Context, vars provider.Variables, kind provider.TripKind, maxPages int, headers map[string]string) ([]provider.RawItinerary, error)
}

// CredentialSource supplies provider session headers.
type CredentialSource interface {
	Get(ctx context.Context, forceRefresh bool) (credentials.Credential, error)
}

// RetryPolicy controls recovery from credential failures. A session that
// fails with a CredentialError is retried in full with freshly fetched
// credentials, at most CredentialRetries times. A failure past that surfaces
// as an empty result for the sub-search, never as an aborted search.
type RetryPolicy struct {
	CredentialRetries int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{CredentialRetries: 1}
}

// sessionRunner is the strategy-facing session executor: it attaches
// credentials to each provider session and applies the retry policy.
type sessionRunner struct {
	client   ProviderClient
	creds    CredentialSource
	retry    RetryPolicy
	logger   *zap.Logger
	apiCalls atomic.Int64
}

func newSessionRunner(client ProviderClient, creds CredentialSource, retry RetryPolicy, logger *zap.Logger) *sessionRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionRunner{client: client, creds: creds, retry: retry, logger: logger}
}

func (r *sessionRunner) RunSession(ctx context.Context, vars provider.Variables, kind provider.TripKind, maxPages int) ([]provider.RawItinerary, error) {
	cred, err := r.creds.Get(ctx, false)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		r.apiCalls.Add(1)
		raws, err := r.client.RunSession(ctx, vars, kind, maxPages, cred.Headers)
		if err == nil || !provider.IsCredentialError(err) {
			return raws, err
		}

		if attempt >= r.retry.CredentialRetries {
			r.logger.Error("credential error persisted after retry, treating sub-search as empty",
				zap.Error(err))
			return nil, nil
		}

		r.logger.Warn("credential error, refreshing and retrying full session",
			zap.Int("attempt", attempt+1), zap.Error(err))
		cred, err = r.creds.Get(ctx, true)
		if err != nil {
			return nil, err
		}
	}
}

// APICalls reports how many provider sessions were issued through this runner.
func (r *sessionRunner) APICalls() int64 {
	return r.apiCalls.Load()
}
