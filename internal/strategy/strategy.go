package strategy

import (
	"context"

	"go.uber.org/zap"

	"github.com/aeroscout/fareengine/internal/models"
	"github.com/aeroscout/fareengine/internal/provider"
)

// SessionRunner executes one provider search session. The engine's runner
// handles credential refresh and retry beneath this interface, so strategies
// only see final results.
type SessionRunner interface {
	RunSession(ctx context.Context, vars provider.Variables, kind provider.TripKind, maxPages int) ([]provider.RawItinerary, error)
}

// Context carries the collaborators a strategy needs for one search.
// ReferencePrice is the cheapest known direct fare for the searched route in
// the requested currency, or 0 when no direct fare was found.
type Context struct {
	SearchID       string
	Request        *models.SearchRequest
	Runner         SessionRunner
	ReferencePrice float64
	Logger         *zap.Logger
}

func (c *Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// SearchStrategy is one way of finding fares for a request. The variant set
// is closed: direct, hidden-city, and hub-probe.
type SearchStrategy interface {
	Name() string
	CanExecute(req *models.SearchRequest) bool
	Execute(ctx context.Context, sc *Context) (*models.SearchResult, error)
}

// ThresholdMode decides when a probed fare is cheap enough, relative to the
// direct reference price, to surface as a deal.
type ThresholdMode string

const (
	// ThresholdStrictlyCheaper accepts any fare below the reference price.
	ThresholdStrictlyCheaper ThresholdMode = "strictly_cheaper"

	// ThresholdMinSavings10Pct requires at least 10% savings.
	ThresholdMinSavings10Pct ThresholdMode = "min_savings_10pct"
)

// Qualifies reports whether price beats the reference under this mode.
// Without a reference price nothing qualifies: a deal claim needs a baseline.
func (m ThresholdMode) Qualifies(price, reference float64) bool {
	if reference <= 0 {
		return false
	}
	if m == ThresholdMinSavings10Pct {
		return price < reference*0.9
	}
	return price < reference
}

func tripKind(req *models.SearchRequest) provider.TripKind {
	if req.IsOneWay() {
		return provider.TripOneWay
	}
	return provider.TripReturn
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
