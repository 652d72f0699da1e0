package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aeroscout/fareengine/internal/airports"
	"github.com/aeroscout/fareengine/internal/dedup"
	"github.com/aeroscout/fareengine/internal/models"
	"github.com/aeroscout/fareengine/internal/ratelimit"
	"github.com/aeroscout/fareengine/internal/session"
	"github.com/aeroscout/fareengine/internal/strategy"
)

// AuthorizedUser is whoever is charged for the search. Admins bypass quota.
type AuthorizedUser interface {
	UserID() string
	IsAdmin() bool
}

type Config struct {
	// PhaseTimeout is the wall-clock budget for each search phase.
	PhaseTimeout time.Duration
	Retry        RetryPolicy
	Direct       strategy.DirectConfig
	HiddenCity   strategy.HiddenCityConfig
	HubProbe     strategy.HubProbeConfig
}

func (c *Config) normalize() {
	if c.PhaseTimeout <= 0 {
		c.PhaseTimeout = 90 * time.Second
	}
	if c.Retry.CredentialRetries <= 0 {
		c.Retry = DefaultRetryPolicy()
	}
}

// Engine coordinates the two-phase search protocol: phase one runs the direct
// search and the hidden-city probe, phase two the hub probe. Session records
// track progress so a polling client can follow along.
type Engine struct {
	client   ProviderClient
	creds    CredentialSource
	sessions session.Store
	quota    *ratelimit.DailyQuota
	cfg      Config
	logger   *zap.Logger

	direct *strategy.DirectFlightStrategy
	hidden *strategy.HiddenCityStrategy
	hub    *strategy.HubProbeStrategy
}

func NewEngine(client ProviderClient, creds CredentialSource, sessions session.Store, quota *ratelimit.DailyQuota, cfg Config, logger *zap.Logger) *Engine {
	cfg.normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:   client,
		creds:    creds,
		sessions: sessions,
		quota:    quota,
		cfg:      cfg,
		logger:   logger,
		direct:   strategy.NewDirectFlightStrategy(cfg.Direct),
		hidden:   strategy.NewHiddenCityStrategy(cfg.HiddenCity),
		hub:      strategy.NewHubProbeStrategy(cfg.HubProbe),
	}
}

// Search runs phase one for a new request and, when the request enables hub
// probing, continues straight into phase two. The returned session reflects
// the final state; it is also persisted under its search id.
func (e *Engine) Search(ctx context.Context, user AuthorizedUser, req *models.SearchRequest) (*models.SearchSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := e.consumeQuota(user); err != nil {
		return nil, err
	}

	searchID := uuid.New().String()
	logger := e.logger.With(zap.String("search_id", searchID))
	logger.Info("starting flight search",
		zap.String("origin", req.Origin),
		zap.String("destination", req.Destination),
		zap.Bool("hidden_city", req.IncludeHiddenCity),
		zap.Bool("hub_probe", req.EnableHubProbe))

	sess := &models.SearchSession{
		SearchID:  searchID,
		Phase:     models.PhaseOne,
		Status:    models.SessionRunning,
		Request:   *req,
		Phases:    make(map[models.SearchPhase]models.PhaseSummary),
		CreatedAt: time.Now(),
	}
	if err := e.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}

	e.runPhaseOne(ctx, sess, logger)

	if sess.Status != models.SessionFailed && req.EnableHubProbe {
		e.runPhaseTwo(ctx, sess, logger)
	}

	if err := e.sessions.Set(ctx, sess); err != nil {
		logger.Warn("persisting final session state failed", zap.Error(err))
	}
	return sess, nil
}

// Probe runs phase two for an existing phase-one session, for clients that
// defer the expensive hub probe to a second call.
func (e *Engine) Probe(ctx context.Context, user AuthorizedUser, searchID string) (*models.SearchSession, error) {
	sess, err := e.sessions.Get(ctx, searchID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, session.ErrNotFound
	}
	if err := e.consumeQuota(user); err != nil {
		return nil, err
	}

	// An explicit probe call means the client wants phase two even when the
	// original request did not ask for it inline.
	sess.Request.EnableHubProbe = true

	logger := e.logger.With(zap.String("search_id", searchID))
	e.runPhaseTwo(ctx, sess, logger)

	if err := e.sessions.Set(ctx, sess); err != nil {
		logger.Warn("persisting probe session state failed", zap.Error(err))
	}
	return sess, nil
}

// Session returns the persisted record for a search, or session.ErrNotFound.
func (e *Engine) Session(ctx context.Context, searchID string) (*models.SearchSession, error) {
	sess, err := e.sessions.Get(ctx, searchID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func (e *Engine) consumeQuota(user AuthorizedUser) error {
	if e.quota == nil || user == nil || user.IsAdmin() {
		return nil
	}
	return e.quota.Consume(user.UserID())
}

func (e *Engine) runPhaseOne(ctx context.Context, sess *models.SearchSession, logger *zap.Logger) {
	phaseCtx, cancel := context.WithTimeout(ctx, e.cfg.PhaseTimeout)
	defer cancel()
	started := time.Now()

	req := &sess.Request
	runner := newSessionRunner(e.client, e.creds, e.cfg.Retry, logger)
	sc := &strategy.Context{
		SearchID: sess.SearchID,
		Request:  req,
		Runner:   runner,
		Logger:   logger,
	}

	directRes, err := e.direct.Execute(phaseCtx, sc)
	if err != nil {
		logger.Error("direct search failed", zap.Error(err))
		e.finishPhase(sess, models.PhaseOne, &models.SearchResult{
			Status:       models.StatusFailed,
			ErrorMessage: err.Error(),
		}, started)
		sess.Status = models.SessionFailed
		sess.Error = "flight search failed: " + err.Error()
		return
	}

	results := []*models.SearchResult{directRes}
	sc.ReferencePrice = referencePrice(directRes.Itineraries, req)

	if e.hidden.CanExecute(req) {
		hiddenRes, err := e.hidden.Execute(phaseCtx, sc)
		if err != nil {
			logger.Warn("hidden-city probe failed, keeping direct results", zap.Error(err))
			hiddenRes = &models.SearchResult{
				Status:       models.StatusFailed,
				ErrorMessage: err.Error(),
				Disclaimers:  []string{"Hidden-city probe failed; results show direct fares only."},
			}
		}
		results = append(results, hiddenRes)
	}

	combined := combine(results, req)
	summaryStatus := overallStatus(results)

	sess.Itineraries = combined.itineraries
	sess.Disclaimers = mergeDisclaimers(sess.Disclaimers, combined.disclaimers)
	sess.Status = models.SessionCompleted
	if summaryStatus == models.StatusFailed {
		sess.Status = models.SessionFailed
		sess.Error = "all phase-one searches failed"
	}
	e.finishPhase(sess, models.PhaseOne, &models.SearchResult{
		Status:      summaryStatus,
		Itineraries: combined.itineraries,
	}, started)

	logger.Info("phase one finished",
		zap.Int("itineraries", len(sess.Itineraries)),
		zap.Int64("api_calls", runner.APICalls()),
		zap.Float64("reference_price", sc.ReferencePrice))
}

func (e *Engine) runPhaseTwo(ctx context.Context, sess *models.SearchSession, logger *zap.Logger) {
	phaseCtx, cancel := context.WithTimeout(ctx, e.cfg.PhaseTimeout)
	defer cancel()
	started := time.Now()

	req := &sess.Request
	sess.Phase = models.PhaseTwo

	if !e.hub.CanExecute(req) {
		e.finishPhase(sess, models.PhaseTwo, &models.SearchResult{Status: models.StatusSkipped}, started)
		return
	}

	runner := newSessionRunner(e.client, e.creds, e.cfg.Retry, logger)
	sc := &strategy.Context{
		SearchID:       sess.SearchID,
		Request:        req,
		Runner:         runner,
		ReferencePrice: referencePrice(sess.Itineraries, req),
		Logger:         logger,
	}

	hubRes, err := e.hub.Execute(phaseCtx, sc)
	if err != nil {
		logger.Warn("hub probe failed, keeping earlier results", zap.Error(err))
		hubRes = &models.SearchResult{
			Status:       models.StatusFailed,
			ErrorMessage: err.Error(),
			Disclaimers:  []string{"Hub probe failed; results are from phase one only."},
		}
	}

	merged := mergeItineraries(sess.Itineraries, hubRes.Itineraries, req)
	sess.Itineraries = merged
	sess.Disclaimers = mergeDisclaimers(sess.Disclaimers, hubRes.Disclaimers)
	e.finishPhase(sess, models.PhaseTwo, hubRes, started)

	logger.Info("phase two finished",
		zap.Int("itineraries", len(sess.Itineraries)),
		zap.Int64("api_calls", runner.APICalls()))
}

func (e *Engine) finishPhase(sess *models.SearchSession, phase models.SearchPhase, result *models.SearchResult, started time.Time) {
	sess.Phases[phase] = models.PhaseSummary{
		Phase:           phase,
		Status:          result.Status,
		ExecutionTimeMs: time.Since(started).Milliseconds(),
		ResultCount:     len(result.Itineraries),
		CacheHit:        result.CacheHit,
		StartedAt:       started,
		CompletedAt:     time.Now(),
	}
}

// referencePrice is the cheapest direct fare to the requested destination:
// plain nonstop shape, no deal markings. Zero when none exists.
func referencePrice(itins []models.FlightItinerary, req *models.SearchRequest) float64 {
	expected := 1
	if !req.IsOneWay() {
		expected = 2
	}
	dest := airports.Normalize(req.Destination)

	min := 0.0
	for i := range itins {
		it := &itins[i]
		if it.HiddenCity || it.ThrowawayDeal || it.ProbeSuggestion {
			continue
		}
		if len(it.Segments()) != expected {
			continue
		}
		if airports.Normalize(it.FinalArrival()) != dest {
			continue
		}
		if min == 0 || it.Price.Amount < min {
			min = it.Price.Amount
		}
	}
	return min
}

type combinedResults struct {
	itineraries []models.FlightItinerary
	disclaimers []string
}

func combine(results []*models.SearchResult, req *models.SearchRequest) combinedResults {
	var lists [][]*models.FlightItinerary
	var disclaimers []string
	for _, res := range results {
		list := make([]*models.FlightItinerary, 0, len(res.Itineraries))
		for i := range res.Itineraries {
			list = append(list, &res.Itineraries[i])
		}
		lists = append(lists, list)
		disclaimers = mergeDisclaimers(disclaimers, res.Disclaimers)
	}

	merged := dedup.Merge(lists...)
	dedup.Sort(merged, req.SortBy)

	out := make([]models.FlightItinerary, 0, len(merged))
	for _, it := range merged {
		out = append(out, *it)
	}
	return combinedResults{itineraries: out, disclaimers: disclaimers}
}

func mergeItineraries(existing, extra []models.FlightItinerary, req *models.SearchRequest) []models.FlightItinerary {
	a := make([]*models.FlightItinerary, 0, len(existing))
	for i := range existing {
		a = append(a, &existing[i])
	}
	b := make([]*models.FlightItinerary, 0, len(extra))
	for i := range extra {
		b = append(b, &extra[i])
	}

	merged := dedup.Merge(a, b)
	dedup.Sort(merged, req.SortBy)

	out := make([]models.FlightItinerary, 0, len(merged))
	for _, it := range merged {
		out = append(out, *it)
	}
	return out
}

func mergeDisclaimers(existing, extra []string) []string {
	for _, d := range extra {
		found := false
		for _, e := range existing {
			if e == d {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, d)
		}
	}
	return existing
}

func overallStatus(results []*models.SearchResult) models.SearchResultStatus {
	failed := 0
	partial := false
	for _, res := range results {
		switch res.Status {
		case models.StatusFailed:
			failed++
		case models.StatusPartial:
			partial = true
		}
	}
	if failed == len(results) {
		return models.StatusFailed
	}
	if failed > 0 || partial {
		return models.StatusPartial
	}
	return models.StatusSuccess
}
