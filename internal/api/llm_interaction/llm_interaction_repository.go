package llmInteraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-sg-itinerary-curator/app/observability/metrics"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var _ LLmInteractionRepository = (*PostgresLlmInteractionRepo)(nil)

type LLmInteractionRepository interface {
	SaveInteraction(ctx context.Context, interaction types.LlmInteraction) error
}

type PostgresLlmInteractionRepo struct {
	logger *slog.Logger
	pgpool api.DBTX
}

func NewPostgresLlmInteractionRepo(pgpool api.DBTX, logger *slog.Logger) *PostgresLlmInteractionRepo {
	return &PostgresLlmInteractionRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresLlmInteractionRepo) SaveInteraction(ctx context.Context, interaction types.LlmInteraction) error {
	ctx, span := otel.Tracer("LlmInteractionRepo").Start(ctx, "SaveInteraction", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("llm.task", interaction.Task),
	))
	defer span.End()

	query := `
        INSERT INTO llm_interactions (
            user_id, task, prompt, response_text, model_used, temperature, latency_ms, failed
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	var userID *uuid.UUID
	if interaction.UserID != uuid.Nil {
		userID = &interaction.UserID
	}

	start := time.Now()
	_, err := r.pgpool.Exec(ctx, query,
		userID, interaction.Task, interaction.Prompt, interaction.ResponseText,
		interaction.ModelUsed, interaction.Temperature, interaction.LatencyMs, interaction.Failed,
	)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("query", "save_llm_interaction")))
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("query", "save_llm_interaction")))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return fmt.Errorf("failed to save llm interaction: %w", err)
	}
	span.SetStatus(codes.Ok, "Interaction saved")
	return nil
}
