package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-sg-itinerary-curator/app/db"
	"github.com/FACorreiaa/go-sg-itinerary-curator/config"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/auth"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/curation"
	generativeAI "github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/generative_ai"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/itinerary"
	llmInteraction "github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/llm_interaction"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/retrieval"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/websearch"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	Redis            *redis.Client
	Retrieval        *retrieval.Client
	AuthMiddleware   *auth.Middleware
	CurationHandler  curation.Handler
	ItineraryHandler itinerary.Handler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Pool: pool}

	proposer, err := generativeAI.NewProposer(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}
	if cfg.Curation.RecordLLMInteractions {
		llmRepo := llmInteraction.NewPostgresLlmInteractionRepo(pool, logger)
		proposer = llmInteraction.NewRecordingProposer(proposer, llmRepo, logger)
	}

	c.Retrieval, err = retrieval.New(cfg.Retrieval, logger)
	if err != nil {
		return nil, err
	}
	retriever := retrieval.NewRetriever(c.Retrieval, logger)

	var searchCache websearch.Cache
	if cfg.Repositories.Redis.Addr != "" {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Repositories.Redis.Addr,
			Password: cfg.Repositories.Redis.Password,
			DB:       cfg.Repositories.Redis.DB,
		})
		searchCache = websearch.NewRedisCache(c.Redis)
	} else {
		logger.Info("Redis not configured, web search results will not be cached")
	}
	webSearch := websearch.New(cfg.WebSearch, searchCache, logger)

	itineraryRepo := itinerary.NewPostgresRepository(pool, logger)
	itineraryService := itinerary.NewService(itineraryRepo, logger)
	c.ItineraryHandler = itinerary.NewHandlerImpl(itineraryService, logger)

	selector := curation.NewSelector(proposer, cfg.Curation.SelectionTemperature, cfg.Curation.SelectionMaxAttempts, cfg.LLM.Timeout, logger)
	enhancer := curation.NewEnhancer(proposer, cfg.Curation.EnhanceTemperature, cfg.Curation.SummaryTemperature, cfg.LLM.Timeout, logger)
	backfill := curation.NewBackfiller(types.Coordinates{
		Lat: cfg.Curation.AnchorLatitude,
		Lng: cfg.Curation.AnchorLongitude,
	}, cfg.Curation.BackfillRadiusKm, nil)

	curationService := curation.NewService(retriever, webSearch, selector, enhancer, backfill, itineraryService, cfg.Curation, cfg.SourceWait(), logger)
	c.CurationHandler = curation.NewHandlerImpl(curationService, logger)

	c.AuthMiddleware = auth.NewMiddleware(logger, cfg.JWT)
	return c, nil
}

// Health reports whether the database and the retrieval service answer.
func (c *Container) Health(ctx context.Context) map[string]error {
	return map[string]error{
		"database":  c.Pool.Ping(ctx),
		"retrieval": c.Retrieval.Health(ctx),
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Error closing redis client", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
