package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const DefaultEndpoint = "https://api.skypicker.com/umbrella/v2/graphql"

// TripKind selects which query document and response key a session uses.
type TripKind string

const (
	TripOneWay TripKind = "oneway"
	TripReturn TripKind = "return"
)

func (k TripKind) queryDocument() string {
	if k == TripReturn {
		return returnQuery
	}
	return oneWayQuery
}

func (k TripKind) featureName() string {
	if k == TripReturn {
		return "SearchReturnItinerariesQuery"
	}
	return "SearchOneWayItinerariesQuery"
}

func (k TripKind) resultKey() string {
	if k == TripReturn {
		return "returnItineraries"
	}
	return "onewayItineraries"
}

// Pacer throttles outgoing provider requests.
type Pacer interface {
	Wait(ctx context.Context) error
}

type Config struct {
	Endpoint       string
	RequestTimeout time.Duration
	PageDelay      time.Duration
}

// Client runs paginated search sessions against the provider's GraphQL API.
// It carries no credentials of its own; each session receives the header
// bundle to send, so the caller decides when to refresh.
type Client struct {
	httpClient *http.Client
	endpoint   string
	pageDelay  time.Duration
	pacer      Pacer
	logger     *zap.Logger
}

func NewClient(cfg Config, pacer Pacer, logger *zap.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	pageDelay := cfg.PageDelay
	if pageDelay < 0 {
		pageDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		pageDelay:  pageDelay,
		pacer:      pacer,
		logger:     logger,
	}
}

// RunSession fetches up to maxPages result pages, following the server's
// continuation token until it reports no more pending results. A
// CredentialError aborts the session immediately; other page failures end it
// with whatever was collected so far.
func (c *Client) RunSession(ctx context.Context, vars Variables, kind TripKind, maxPages int, headers map[string]string) ([]RawItinerary, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	var all []RawItinerary
	var serverToken *string
	for page := 1; page <= maxPages; page++ {
		if c.pacer != nil {
			if err := c.pacer.Wait(ctx); err != nil {
				return all, err
			}
		}

		itins, nextToken, hasMore, err := c.fetchPage(ctx, vars, kind, serverToken, headers, page)
		if err != nil {
			return all, err
		}
		all = append(all, itins...)

		if !hasMore {
			break
		}
		serverToken = nextToken

		if page < maxPages && c.pageDelay > 0 {
			select {
			case <-time.After(c.pageDelay):
			case <-ctx.Done():
				return all, ctx.Err()
			}
		}
	}

	c.logger.Debug("provider session finished",
		zap.String("trip_kind", string(kind)),
		zap.Int("itineraries", len(all)))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, vars Variables, kind TripKind, serverToken *string, headers map[string]string, page int) ([]RawItinerary, *string, bool, error) {
	vars.Options.ServerToken = serverToken

	payload, err := json.Marshal(struct {
		Query     string    `json:"query"`
		Variables Variables `json:"variables"`
	}{Query: kind.queryDocument(), Variables: vars})
	if err != nil {
		return nil, nil, false, fmt.Errorf("encode search payload: %w", err)
	}

	url := c.endpoint + "?featureName=" + kind.featureName()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, false, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			// A hung session often means the token went bad server-side.
			return nil, nil, false, &CredentialError{Reason: "request timed out", Err: err}
		}
		c.logger.Warn("provider request failed",
			zap.Int("page", page), zap.Error(err))
		return nil, nil, false, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("reading provider response failed",
			zap.Int("page", page), zap.Error(err))
		return nil, nil, false, nil
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, nil, false, &CredentialError{
				Reason: fmt.Sprintf("provider returned HTTP %d", resp.StatusCode),
			}
		}
		c.logger.Warn("provider returned non-200 status",
			zap.Int("page", page), zap.Int("status", resp.StatusCode))
		return nil, nil, false, nil
	}

	if errs := gjson.GetBytes(body, "errors"); errs.Exists() && len(errs.Array()) > 0 {
		message := errs.Raw
		if looksLikeCredentialIssue(message) {
			return nil, nil, false, &CredentialError{Reason: "graphql error: " + message}
		}
		c.logger.Warn("provider graphql error",
			zap.Int("page", page), zap.String("errors", message))
		return nil, nil, false, nil
	}

	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.logger.Warn("decoding provider response failed",
			zap.Int("page", page), zap.Error(err))
		return nil, nil, false, nil
	}

	raw, ok := envelope.Data[kind.resultKey()]
	if !ok || string(raw) == "null" {
		c.logger.Warn("provider response missing result container",
			zap.Int("page", page), zap.String("key", kind.resultKey()))
		return nil, nil, false, nil
	}

	var container rawResultContainer
	if err := json.Unmarshal(raw, &container); err != nil {
		c.logger.Warn("decoding result container failed",
			zap.Int("page", page), zap.Error(err))
		return nil, nil, false, nil
	}

	if container.Typename == "AppError" {
		// "invalid parameters" shows up when the session behind the token is
		// gone, not when the query itself is malformed.
		if looksLikeCredentialIssue(container.Error, "invalid parameters") {
			return nil, nil, false, &CredentialError{Reason: "app error: " + container.Error}
		}
		c.logger.Warn("provider app error",
			zap.Int("page", page), zap.String("message", container.Error))
		return nil, nil, false, nil
	}

	var nextToken *string
	if container.Server.ServerToken != "" {
		t := container.Server.ServerToken
		nextToken = &t
	}
	hasMore := container.Metadata.HasMorePending
	if hasMore && nextToken == nil && serverToken != nil {
		c.logger.Warn("more results pending but no continuation token received",
			zap.Int("page", page))
	}
	return container.Itineraries, nextToken, hasMore, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
