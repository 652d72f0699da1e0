package strategy

import (
	"context"
	"fmt"
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

type HubProbeConfig struct {
	// MaxHubs caps how many transit hubs are probed. The request's MaxHubs
	// takes precedence when lower.
	MaxHubs int
	// SacrificePerHub caps the throwaway endpoints tried behind each hub.
	SacrificePerHub int
	// Concurrency bounds parallel hub probes.
	Concurrency int
	// Threshold gates hidden-city-via-hub deals against the reference price.
	Threshold ThresholdMode
	// SuggestionThreshold gates substitute-destination offers. Defaults to
	// requiring 10% savings, since the traveler still has to arrange onward
	// travel from the hub.
	SuggestionThreshold ThresholdMode
}

func (c *HubProbeConfig) normalize() {
	if c.MaxHubs <= 0 || c.MaxHubs > 8 {
		c.MaxHubs = 5
	}
	if c.SacrificePerHub <= 0 {
		c.SacrificePerHub = 3
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.Threshold == "" {
		c.Threshold = ThresholdStrictlyCheaper
	}
	if c.SuggestionThreshold == "" {
		c.SuggestionThreshold = ThresholdMinSavings10Pct
	}
}

// HubProbeStrategy searches for deals built around major transit hubs near
// the destination. Two probes run per hub: a substitute-destination offer
// (fly to the hub instead, arrange the last leg yourself) and a hidden-city
// construction (ticket through the hub to a sacrifice endpoint, exit at the
// hub). Both need the direct reference price to beat.
type HubProbeStrategy struct {
	cfg HubProbeConfig
}

func NewHubProbeStrategy(cfg HubProbeConfig) *HubProbeStrategy {
	cfg.normalize()
	return &HubProbeStrategy{cfg: cfg}
}

func (s *HubProbeStrategy) Name() string {
	return "hub_probe"
}

func (s *HubProbeStrategy) CanExecute(req *models.SearchRequest) bool {
	return req.EnableHubProbe
}

func (s *HubProbeStrategy) Execute(ctx context.Context, sc *Context) (*models.SearchResult, error) {
	req := sc.Request
	started := time.Now()
	logger := sc.logger().With(zap.String("strategy", s.Name()))

	maxHubs := s.cfg.MaxHubs
	if req.MaxHubs > 0 && req.MaxHubs < maxHubs {
		maxHubs = req.MaxHubs
	}
	hubs := airports.HubCandidates(req.Origin, req.Destination, maxHubs)
	if len(hubs) == 0 {
		return &models.SearchResult{
			Status:          models.StatusSkipped,
			ExecutionTimeMs: time.Since(started).Milliseconds(),
			Disclaimers:     []string{"Hub probe skipped: no transit hubs for this route."},
		}, nil
	}

	if sc.ReferencePrice <= 0 {
		// Nothing to compare against, so no offer can honestly be called a
		// deal. Probing anyway would burn provider quota for nothing.
		logger.Info("hub probe skipped, no direct reference price")
		return &models.SearchResult{
			Status:          models.StatusSkipped,
			ExecutionTimeMs: time.Since(started).Milliseconds(),
			Disclaimers:     []string{"Hub probe skipped: no direct fare found to compare against."},
		}, nil
	}

	var mu sync.Mutex
	var deals []*models.FlightItinerary
	var disclaimers []string
	failures := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, hub := range hubs {
		hub := hub
		g.Go(func() error {
			found, notes, err := s.probeHub(gctx, sc, hub)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("hub probe failed",
					zap.String("hub", hub.IATA), zap.Error(err))
				failures++
				return nil
			}
			deals = append(deals, found...)
			for _, note := range notes {
				disclaimers = appendUnique(disclaimers, note)
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

	status := models.StatusSuccess
	if failures == len(hubs) {
		status = models.StatusFailed
	} else if failures > 0 {
		status = models.StatusPartial
	}

	logger.Info("hub probe finished",
		zap.Int("hubs", len(hubs)),
		zap.Int("failures", failures),
		zap.Int("deals", len(deals)))

	return &models.SearchResult{
		Status:          status,
		Itineraries:     flatten(deals),
		ExecutionTimeMs: time.Since(started).Milliseconds(),
		Disclaimers:     disclaimers,
	}, nil
}

func (s *HubProbeStrategy) probeHub(ctx context.Context, sc *Context, hub airports.Hub) ([]*models.FlightItinerary, []string, error) {
	req := sc.Request
	origin := airports.Normalize(req.Origin)
	destination := airports.Normalize(req.Destination)

	var deals []*models.FlightItinerary
	var notes []string

	// Substitute offer: origin to the hub itself, up to three stops.
	vars := provider.BuildVariables(req,
		provider.WithDestination(hub.IATA),
		provider.WithMaxStops(3),
		provider.WithOneWay())
	raws, err := sc.Runner.RunSession(ctx, vars, provider.TripOneWay, req.MaxPages)
	if err != nil {
		return nil, nil, err
	}
	for i := range raws {
		it, err := parser.Parse(&raws[i], true, req.Currency)
		if err != nil {
			continue
		}
		if !s.cfg.SuggestionThreshold.Qualifies(it.Price.Amount, sc.ReferencePrice) {
			continue
		}
		it.ProbeSuggestion = true
		it.ProbeHub = hub.IATA
		it.ProbeDisclaimer = fmt.Sprintf(
			"Substitute offer: flying %s to %s is cheaper than a direct fare to %s. Onward travel from %s is your own arrangement.",
			origin, hub.IATA, destination, hub.IATA)
		it.QualityScore = dedup.ScoreQuality(it)
		it.RiskFactors = dedup.RiskFactors(it)
		deals = append(deals, it)
		notes = appendUnique(notes, "Substitute-destination offers included; onward travel from the hub is not covered.")
	}

	// Hidden-city construction: origin to a sacrifice endpoint routed through
	// the hub, exiting at the hub.
	sacrifices := airports.SacrificeDestinations(req.Origin, req.Destination, s.cfg.SacrificePerHub+2)
	kept := sacrifices[:0]
	for _, x := range sacrifices {
		if x != hub.IATA {
			kept = append(kept, x)
		}
	}
	if len(kept) > s.cfg.SacrificePerHub {
		kept = kept[:s.cfg.SacrificePerHub]
	}

	for _, sacrifice := range kept {
		vars := provider.BuildVariables(req,
			provider.WithDestination(sacrifice),
			provider.WithStopover(hub.IATA),
			provider.WithOneWay())
		raws, err := sc.Runner.RunSession(ctx, vars, provider.TripOneWay, req.MaxPages)
		if err != nil {
			return nil, nil, err
		}
		for i := range raws {
			it, err := parser.Parse(&raws[i], true, req.Currency)
			if err != nil {
				continue
			}
			if !routesThroughHub(it, hub.IATA) {
				continue
			}
			if !s.cfg.Threshold.Qualifies(it.Price.Amount, sc.ReferencePrice) {
				continue
			}
			it.ProbeSuggestion = true
			it.ProbeHub = hub.IATA
			it.HiddenCity = true
			it.ProbeDisclaimer = fmt.Sprintf(
				"Hidden-city fare: book %s via %s to %s but leave the airport at %s. This may violate carrier terms, later segments get cancelled, and checked bags continue to %s.",
				origin, hub.IATA, sacrifice, hub.IATA, sacrifice)
			it.QualityScore = dedup.ScoreQuality(it)
			it.RiskFactors = dedup.RiskFactors(it)
			deals = append(deals, it)
			notes = appendUnique(notes, "Hidden-city fares included; review the legal and baggage risks before booking.")
		}
	}

	return deals, notes, nil
}

// routesThroughHub requires a non-final segment arriving at the hub, the
// point where the traveler would exit.
func routesThroughHub(it *models.FlightItinerary, hub string) bool {
	segs := it.OutboundSegments
	for i, seg := range segs {
		if airports.Normalize(seg.Arrival.Airport) == hub && i < len(segs)-1 {
			return true
		}
	}
	return false
}
