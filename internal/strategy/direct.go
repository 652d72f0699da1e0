package strategy

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aeroscout/fareengine/internal/dedup"
	"github.com/aeroscout/fareengine/internal/models"
	"github.com/aeroscout/fareengine/internal/parser"
	"github.com/aeroscout/fareengine/internal/provider"
)

type DirectConfig struct {
	// DedicatedSearch issues a separate nonstop-only query instead of
	// filtering direct shapes out of a broader search.
	DedicatedSearch bool
}

// DirectFlightStrategy finds conventional nonstop fares on the requested
// route. Its cheapest result becomes the reference price the probe strategies
// compare against.
type DirectFlightStrategy struct {
	cfg DirectConfig
}

func NewDirectFlightStrategy(cfg DirectConfig) *DirectFlightStrategy {
	return &DirectFlightStrategy{cfg: cfg}
}

func (s *DirectFlightStrategy) Name() string {
	return "direct_flight"
}

func (s *DirectFlightStrategy) CanExecute(*models.SearchRequest) bool {
	return true
}

func (s *DirectFlightStrategy) Execute(ctx context.Context, sc *Context) (*models.SearchResult, error) {
	req := sc.Request
	started := time.Now()
	logger := sc.logger().With(zap.String("strategy", s.Name()))

	opts := []provider.VariableOption{provider.WithSelfTransfer(true)}
	if s.cfg.DedicatedSearch {
		opts = []provider.VariableOption{provider.WithMaxStops(0), provider.WithSelfTransfer(false)}
	}
	vars := provider.BuildVariables(req, opts...)

	raws, err := sc.Runner.RunSession(ctx, vars, tripKind(req), req.MaxPages)
	if err != nil {
		return nil, err
	}

	// Number of segments a nonstop trip has: one leg out, one back.
	expectedSegments := 1
	if !req.IsOneWay() {
		expectedSegments = 2
	}

	var itineraries []*models.FlightItinerary
	var disclaimers []string
	for i := range raws {
		raw := &raws[i]
		if raw.SegmentCount() != expectedSegments {
			continue
		}
		it, err := parser.Parse(raw, req.IsOneWay(), req.Currency)
		if err != nil {
			logger.Debug("dropping unparsable itinerary",
				zap.String("itinerary_id", raw.ID), zap.Error(err))
			continue
		}
		if len(it.Segments()) != expectedSegments {
			continue
		}
		it.QualityScore = dedup.ScoreQuality(it)
		it.RiskFactors = dedup.RiskFactors(it)
		if it.SelfTransfer {
			disclaimers = appendUnique(disclaimers, "Some direct options involve self-transfer, check details before booking.")
		}
		itineraries = append(itineraries, it)
	}

	dedup.Sort(itineraries, "price")
	if req.MaxResults > 0 && len(itineraries) > req.MaxResults {
		itineraries = itineraries[:req.MaxResults]
	}

	logger.Info("direct search finished",
		zap.Int("raw", len(raws)), zap.Int("kept", len(itineraries)))

	result := &models.SearchResult{
		Status:          models.StatusSuccess,
		Itineraries:     flatten(itineraries),
		ExecutionTimeMs: time.Since(started).Milliseconds(),
		Disclaimers:     disclaimers,
	}
	return result, nil
}

func flatten(itins []*models.FlightItinerary) []models.FlightItinerary {
	out := make([]models.FlightItinerary, 0, len(itins))
	for _, it := range itins {
		out = append(out, *it)
	}
	return out
}
