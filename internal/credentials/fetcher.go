package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StaticFetcher serves a configured header bundle, validating it against the
// provider's GraphQL endpoint with a trivial probe query before handing it
// out. The session token itself is provisioned out of band; this fetcher only
// confirms it still works.
type StaticFetcher struct {
	headers    map[string]string
	probeURL   string
	httpClient *http.Client
	logger     *zap.Logger
}

type StaticFetcherConfig struct {
	// Headers is the full provider header bundle, including the session token.
	Headers map[string]string
	// ProbeURL is the GraphQL endpoint used to validate the bundle. Empty
	// disables validation.
	ProbeURL string
	Timeout  time.Duration
	Logger   *zap.Logger
}

func NewStaticFetcher(cfg StaticFetcherConfig) *StaticFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &StaticFetcher{
		headers:    cfg.Headers,
		probeURL:   cfg.ProbeURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

func (f *StaticFetcher) Fetch(ctx context.Context) (map[string]string, error) {
	if len(f.headers) == 0 {
		return nil, fmt.Errorf("no provider headers configured")
	}

	headers := make(map[string]string, len(f.headers))
	for k, v := range f.headers {
		headers[k] = v
	}

	if f.probeURL == "" {
		return headers, nil
	}
	if err := f.probe(ctx, headers); err != nil {
		return nil, fmt.Errorf("provider header validation failed: %w", err)
	}
	f.logger.Debug("provider headers validated")
	return headers, nil
}

func (f *StaticFetcher) probe(ctx context.Context, headers map[string]string) error {
	payload, err := json.Marshal(map[string]any{
		"query":     "query { __typename }",
		"variables": map[string]any{},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.probeURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}
