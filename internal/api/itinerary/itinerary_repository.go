package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

var _ Repository = (*PostgresRepository)(nil)

type Repository interface {
	Create(ctx context.Context, rec types.ItineraryRecord) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.ItineraryRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.ItinerarySummaryItem, int, error)
	ListPublic(ctx context.Context, limit, offset int) ([]types.ItinerarySummaryItem, int, error)
	UpdateVisibility(ctx context.Context, id uuid.UUID, isPublic bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool api.DBTX
}

func NewPostgresRepository(pgpool api.DBTX, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{logger: logger, pgpool: pgpool}
}

func (r *PostgresRepository) observe(ctx context.Context, query string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("query", query))
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (r *PostgresRepository) Create(ctx context.Context, rec types.ItineraryRecord) (uuid.UUID, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "itineraries"),
		semconv.EnduserIDKey.String(rec.RequesterID.String()),
	))
	defer span.End()

	data, err := json.Marshal(rec.Itinerary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Marshal failed")
		return uuid.Nil, fmt.Errorf("failed to encode itinerary: %w", err)
	}

	p := rec.Preferences
	categories := p.Categories
	if categories == nil {
		categories = []string{}
	}
	var personality *string
	if p.PersonalityCode != "" {
		personality = &p.PersonalityCode
	}
	var startDate, endDate *time.Time
	if p.DateRange != nil {
		startDate, endDate = &p.DateRange.Start.Time, &p.DateRange.End.Time
	}

	query := `
        INSERT INTO itineraries (
            user_id, query, activity_categories, budget_tier, party_size,
            personality_code, nightlife_flag, start_date, end_date, itinerary_data, is_public
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	var id uuid.UUID
	start := time.Now()
	err = r.pgpool.QueryRow(ctx, query,
		rec.RequesterID, p.Query, categories, p.BudgetTier, string(p.PartySize),
		personality, p.Nightlife, startDate, endDate, data, rec.IsPublic,
	).Scan(&id)
	r.observe(ctx, "create_itinerary", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return uuid.Nil, fmt.Errorf("failed to insert itinerary: %w", err)
	}

	span.SetAttributes(attribute.String("itinerary.id", id.String()))
	span.SetStatus(codes.Ok, "Itinerary saved")
	return id, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*types.ItineraryRecord, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("itinerary.id", id.String()),
	))
	defer span.End()

	query := `
        SELECT id, user_id, query, activity_categories, budget_tier, party_size,
               personality_code, nightlife_flag, start_date, end_date, itinerary_data, is_public, created_at
        FROM itineraries
        WHERE id = $1
    `
	var (
		rec              types.ItineraryRecord
		partySize        string
		personality      *string
		startDate, endDt *time.Time
		data             []byte
	)
	start := time.Now()
	err := r.pgpool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.RequesterID, &rec.Preferences.Query, &rec.Preferences.Categories, &rec.Preferences.BudgetTier,
		&partySize, &personality, &rec.Preferences.Nightlife, &startDate, &endDt, &data, &rec.IsPublic, &rec.CreatedAt,
	)
	r.observe(ctx, "get_itinerary", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetStatus(codes.Error, "Not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Select failed")
		return nil, fmt.Errorf("failed to fetch itinerary %s: %w", id, err)
	}

	rec.Preferences.PartySize = types.PartySize(partySize)
	if personality != nil {
		rec.Preferences.PersonalityCode = *personality
	}
	if startDate != nil && endDt != nil {
		rec.Preferences.DateRange = &types.DateRange{
			Start: types.Date{Time: *startDate},
			End:   types.Date{Time: *endDt},
		}
	}
	if err := json.Unmarshal(data, &rec.Itinerary); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Corrupt itinerary data")
		return nil, fmt.Errorf("failed to decode itinerary %s: %w", id, err)
	}

	span.SetStatus(codes.Ok, "Itinerary fetched")
	return &rec, nil
}

const summaryColumns = `id, user_id, query, activity_categories, budget_tier,
               COALESCE(itinerary_data->>'title', ''), is_public, created_at`

func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.ItinerarySummaryItem, int, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "ListByUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		semconv.EnduserIDKey.String(userID.String()),
	))
	defer span.End()

	return r.list(ctx, span, "list_user_itineraries",
		`SELECT COUNT(*) FROM itineraries WHERE user_id = $1`,
		`SELECT `+summaryColumns+`
        FROM itineraries
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`,
		[]any{userID}, limit, offset)
}

func (r *PostgresRepository) ListPublic(ctx context.Context, limit, offset int) ([]types.ItinerarySummaryItem, int, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "ListPublic", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
	))
	defer span.End()

	return r.list(ctx, span, "list_public_itineraries",
		`SELECT COUNT(*) FROM itineraries WHERE is_public`,
		`SELECT `+summaryColumns+`
        FROM itineraries
        WHERE is_public
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`,
		nil, limit, offset)
}

func (r *PostgresRepository) list(ctx context.Context, span trace.Span, name, countQuery, listQuery string, filter []any, limit, offset int) ([]types.ItinerarySummaryItem, int, error) {
	start := time.Now()

	var total int64
	err := r.pgpool.QueryRow(ctx, countQuery, filter...).Scan(&total)
	if err != nil {
		r.observe(ctx, name, start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Count failed")
		return nil, 0, fmt.Errorf("failed to count itineraries: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, listQuery, append(filter, limit, offset)...)
	if err != nil {
		r.observe(ctx, name, start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query failed")
		return nil, 0, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer rows.Close()

	items := []types.ItinerarySummaryItem{}
	for rows.Next() {
		var it types.ItinerarySummaryItem
		if err := rows.Scan(&it.ID, &it.RequesterID, &it.Query, &it.Categories, &it.BudgetTier,
			&it.Title, &it.IsPublic, &it.CreatedAt); err != nil {
			r.observe(ctx, name, start, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, 0, fmt.Errorf("failed to scan itinerary row: %w", err)
		}
		items = append(items, it)
	}
	err = rows.Err()
	r.observe(ctx, name, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, 0, fmt.Errorf("failed iterating itinerary rows: %w", err)
	}

	span.SetAttributes(attribute.Int("itineraries.count", len(items)), attribute.Int64("itineraries.total", total))
	span.SetStatus(codes.Ok, "Itineraries listed")
	return items, int(total), nil
}

func (r *PostgresRepository) UpdateVisibility(ctx context.Context, id uuid.UUID, isPublic bool) error {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "UpdateVisibility", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("itinerary.id", id.String()),
		attribute.Bool("itinerary.is_public", isPublic),
	))
	defer span.End()

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `UPDATE itineraries SET is_public = $1 WHERE id = $2`, isPublic, id)
	r.observe(ctx, "update_itinerary_visibility", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		return fmt.Errorf("failed to update itinerary visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Not found")
		return ErrNotFound
	}
	span.SetStatus(codes.Ok, "Visibility updated")
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("itinerary.id", id.String()),
	))
	defer span.End()

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM itineraries WHERE id = $1`, id)
	r.observe(ctx, "delete_itinerary", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Not found")
		return ErrNotFound
	}
	span.SetStatus(codes.Ok, "Itinerary deleted")
	return nil
}
