package curation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-sg-itinerary-curator/app/observability/metrics"
	"github.com/FACorreiaa/go-sg-itinerary-curator/config"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/keywords"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/websearch"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var (
	ErrNoCandidates       = errors.New("no candidate activities found")
	ErrInvalidPreferences = errors.New("invalid preferences")
)

const (
	anonymousNotice   = "Sign in to save this itinerary to your history."
	saveFailedNotice  = "Your itinerary was generated but could not be saved. Please try again later."
	sourceCatalog     = "catalog"
	sourceWeb         = "web"
	defaultSourceWait = 10 * time.Second
)

// CatalogRetriever searches the curated activity catalog.
type CatalogRetriever interface {
	Retrieve(ctx context.Context, semanticQuery string, venue types.VenueQuery) ([]types.CandidateActivity, error)
}

// WebSearcher finds recent activities on the web.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]types.CandidateActivity, error)
}

// ItinerarySaver persists a generated itinerary and returns its id.
type ItinerarySaver interface {
	Save(ctx context.Context, requesterID uuid.UUID, prefs types.Preferences, itinerary types.Itinerary) (uuid.UUID, error)
}

type Service interface {
	Generate(ctx context.Context, requesterID uuid.UUID, prefs types.Preferences) (*types.GenerateResult, error)
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	catalog       CatalogRetriever
	web           WebSearcher
	selector      *Selector
	enhancer      *Enhancer
	backfill      *Backfiller
	saver         ItinerarySaver
	city          string
	sourceTimeout time.Duration
	logger        *slog.Logger
}

func NewService(
	catalog CatalogRetriever,
	web WebSearcher,
	selector *Selector,
	enhancer *Enhancer,
	backfill *Backfiller,
	saver ItinerarySaver,
	cfg config.CurationConfig,
	sourceTimeout time.Duration,
	logger *slog.Logger,
) *ServiceImpl {
	if sourceTimeout <= 0 {
		sourceTimeout = defaultSourceWait
	}
	city := cfg.City
	if city == "" {
		city = "Singapore"
	}
	return &ServiceImpl{
		catalog:       catalog,
		web:           web,
		selector:      selector,
		enhancer:      enhancer,
		backfill:      backfill,
		saver:         saver,
		city:          city,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

type sourceResult struct {
	source     string
	candidates []types.CandidateActivity
	err        error
}

// Generate runs the curation pipeline for prefs. The itinerary is stored only
// when requesterID identifies a signed-in user.
func (s *ServiceImpl) Generate(ctx context.Context, requesterID uuid.UUID, prefs types.Preferences) (result *types.GenerateResult, err error) {
	ctx, span := otel.Tracer("CurationService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("preferences.query", prefs.Query),
		attribute.Int("preferences.budget_tier", prefs.BudgetTier),
		attribute.Bool("requester.known", requesterID != uuid.Nil),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := "success"
		switch {
		case errors.Is(err, ErrNoCandidates):
			outcome = "no_candidates"
		case errors.Is(err, ErrInvalidPreferences):
			outcome = "invalid"
		case err != nil:
			outcome = "failed"
		}
		attrs := metric.WithAttributes(attribute.String("outcome", outcome))
		metrics.Get().GenerationRequestsTotal.Add(ctx, 1, attrs)
		metrics.Get().GenerationDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	prefs.Normalize()
	if err := prefs.Validate(); err != nil {
		span.SetStatus(codes.Error, "Invalid preferences")
		return nil, fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
	}

	semanticQuery := keywords.Build(prefs)
	venue := keywords.ClassifyVenue(prefs.Query)
	span.SetAttributes(
		attribute.String("keywords", semanticQuery),
		attribute.Bool("venue.specific", venue.Specific),
	)
	s.logger.DebugContext(ctx, "Built search keywords",
		slog.String("keywords", semanticQuery), slog.Bool("venue_specific", venue.Specific),
		slog.String("venue_type", venue.VenueType))

	catalog, web := s.gather(ctx, semanticQuery, websearch.BuildQuery(prefs, s.city), venue)
	candidates := MergeCandidates(catalog, web)
	span.SetAttributes(
		attribute.Int("candidates.catalog", len(catalog)),
		attribute.Int("candidates.web", len(web)),
	)
	if len(candidates) == 0 {
		span.SetStatus(codes.Error, "No candidates")
		return nil, ErrNoCandidates
	}

	selected, err := s.selector.Select(ctx, candidates, prefs, venue)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Selection failed")
		return nil, err
	}
	s.backfill.Apply(selected)

	itinerary := s.enhancer.Enhance(ctx, prefs.Query, selected)
	result = &types.GenerateResult{Itinerary: itinerary}

	if requesterID == uuid.Nil {
		result.Notice = anonymousNotice
		span.SetStatus(codes.Ok, "Itinerary generated, not saved")
		return result, nil
	}

	id, saveErr := s.saver.Save(ctx, requesterID, prefs, itinerary)
	if saveErr != nil {
		s.logger.ErrorContext(ctx, "Failed to save itinerary", slog.Any("error", saveErr))
		span.RecordError(saveErr)
		result.Notice = saveFailedNotice
		span.SetStatus(codes.Ok, "Itinerary generated, save failed")
		return result, nil
	}

	result.ItineraryID = &id
	result.Saved = true
	s.logger.InfoContext(ctx, "Itinerary generated",
		slog.String("itinerary_id", id.String()), slog.Int("activities", len(itinerary.Activities)))
	span.SetAttributes(attribute.String("itinerary.id", id.String()))
	span.SetStatus(codes.Ok, "Itinerary generated")
	return result, nil
}

// gather queries both sources concurrently. A failed or slow source
// contributes no candidates.
func (s *ServiceImpl) gather(ctx context.Context, semanticQuery, webQuery string, venue types.VenueQuery) (catalog, web []types.CandidateActivity) {
	resultCh := make(chan sourceResult, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
		defer cancel()
		res, err := s.catalog.Retrieve(cctx, semanticQuery, venue)
		resultCh <- sourceResult{source: sourceCatalog, candidates: res, err: err}
	}()
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
		defer cancel()
		res, err := s.web.Search(cctx, webQuery)
		resultCh <- sourceResult{source: sourceWeb, candidates: res, err: err}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for r := range resultCh {
		attrs := metric.WithAttributes(attribute.String("source", r.source))
		if r.err != nil {
			if errors.Is(r.err, websearch.ErrDisabled) {
				s.logger.DebugContext(ctx, "Web search not configured, skipping")
			} else {
				s.logger.WarnContext(ctx, "Candidate source failed, continuing without it",
					slog.String("source", r.source), slog.Any("error", r.err))
				metrics.Get().SourceFailuresTotal.Add(ctx, 1, attrs)
			}
		}
		metrics.Get().CandidatesRetrieved.Record(ctx, int64(len(r.candidates)), attrs)
		switch r.source {
		case sourceCatalog:
			catalog = r.candidates
		case sourceWeb:
			web = r.candidates
		}
	}
	return catalog, web
}
