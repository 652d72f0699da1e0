package strategy

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aeroscout/fareengine/internal/airports"
	"github.com/aeroscout/fareengine/internal/dedup"
	"github.com/aeroscout/fareengine/internal/models"
	"github.com/aeroscout/fareengine/internal/parser"
	"github.com/aeroscout/fareengine/internal/provider"
)

const maxSacrificeCandidates = 8

type HiddenCityConfig struct {
	// MaxCandidates caps how many sacrifice destinations are probed, at most 8.
	MaxCandidates int
	// Concurrency bounds parallel sub-searches.
	Concurrency int
	Threshold   ThresholdMode
}

func (c *HiddenCityConfig) normalize() {
	if c.MaxCandidates <= 0 || c.MaxCandidates > maxSacrificeCandidates {
		c.MaxCandidates = maxSacrificeCandidates
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.Threshold == "" {
		c.Threshold = ThresholdStrictlyCheaper
	}
}

// HiddenCityStrategy probes throwaway itineraries: tickets to a sacrifice
// destination X that connect through the real destination, where the traveler
// exits at the connection and discards the final leg. Only fares beating the
// direct reference price are surfaced.
type HiddenCityStrategy struct {
	cfg HiddenCityConfig
}

func NewHiddenCityStrategy(cfg HiddenCityConfig) *HiddenCityStrategy {
	cfg.normalize()
	return &HiddenCityStrategy{cfg: cfg}
}

func (s *HiddenCityStrategy) Name() string {
	return "hidden_city"
}

func (s *HiddenCityStrategy) CanExecute(req *models.SearchRequest) bool {
	return req.IncludeHiddenCity
}

func (s *HiddenCityStrategy) Execute(ctx context.Context, sc *Context) (*models.SearchResult, error) {
	req := sc.Request
	started := time.Now()
	logger := sc.logger().With(zap.String("strategy", s.Name()))

	candidates := airports.SacrificeDestinations(req.Origin, req.Destination, s.cfg.MaxCandidates)
	if len(candidates) == 0 {
		return &models.SearchResult{
			Status:          models.StatusSkipped,
			ExecutionTimeMs: time.Since(started).Milliseconds(),
			Disclaimers:     []string{"Hidden-city probe skipped: no sacrifice destinations for this route."},
		}, nil
	}

	destination := airports.Normalize(req.Destination)

	var mu sync.Mutex
	var deals []*models.FlightItinerary
	failures := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, candidate := range candidates {
		candidate := candidate
		g.Go(func() error {
			// Probe searches are outbound-only: the throwaway construction
			// applies to the leg the traveler actually flies.
			vars := provider.BuildVariables(req,
				provider.WithDestination(candidate),
				provider.WithOneWay())
			raws, err := sc.Runner.RunSession(gctx, vars, provider.TripOneWay, req.MaxPages)
			if err != nil {
				logger.Warn("sacrifice probe failed",
					zap.String("sacrifice", candidate), zap.Error(err))
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}

			var found []*models.FlightItinerary
			for i := range raws {
				raw := &raws[i]
				it, err := parser.Parse(raw, true, req.Currency)
				if err != nil {
					continue
				}
				if !qualifiesAsHiddenCity(it, destination, airports.Normalize(candidate)) {
					continue
				}
				if !s.cfg.Threshold.Qualifies(it.Price.Amount, sc.ReferencePrice) {
					continue
				}
				it.HiddenCity = true
				it.ThrowawayDeal = true
				it.QualityScore = dedup.ScoreQuality(it)
				it.RiskFactors = dedup.RiskFactors(it)
				found = append(found, it)
			}

			if len(found) > 0 {
				mu.Lock()
				deals = append(deals, found...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	deals = dedup.Merge(deals)
	dedup.Sort(deals, "price")
	if req.MaxResults > 0 && len(deals) > req.MaxResults {
		deals = deals[:req.MaxResults]
	}

	var disclaimers []string
	if len(deals) > 0 {
		disclaimers = append(disclaimers,
			"Throwaway ticket deals included: the ticketed destination is beyond yours and the final leg must not be flown. This may violate airline rules and does not work with checked bags.")
	}

	status := models.StatusSuccess
	if failures == len(candidates) {
		status = models.StatusFailed
	} else if failures > 0 {
		status = models.StatusPartial
	}

	logger.Info("hidden-city probe finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("failures", failures),
		zap.Int("deals", len(deals)))

	return &models.SearchResult{
		Status:          status,
		Itineraries:     flatten(deals),
		ExecutionTimeMs: time.Since(started).Milliseconds(),
		Disclaimers:     disclaimers,
	}, nil
}

// qualifiesAsHiddenCity accepts any itinerary the provider already marked as
// hidden-city. Otherwise the route shape decides: the ticket must end at the
// sacrifice endpoint with a non-final segment arriving at the traveler's real
// destination.
func qualifiesAsHiddenCity(it *models.FlightItinerary, destination, sacrifice string) bool {
	if it.HiddenCity {
		return true
	}
	segs := it.OutboundSegments
	if len(segs) == 0 || airports.Normalize(it.FinalArrival()) != sacrifice {
		return false
	}
	for i, seg := range segs {
		if airports.Normalize(seg.Arrival.Airport) == destination && i < len(segs)-1 {
			return true
		}
	}
	return false
}
