package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var (
	ErrNotFound        = errors.New("itinerary not found")
	ErrForbidden       = errors.New("itinerary belongs to another user")
	ErrUnauthenticated = errors.New("a signed-in user is required to save itineraries")
)

type Service interface {
	Save(ctx context.Context, requesterID uuid.UUID, prefs types.Preferences, itinerary types.Itinerary) (uuid.UUID, error)
	Get(ctx context.Context, id, viewerID uuid.UUID) (*types.ItineraryRecord, error)
	History(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.PaginatedItinerariesResponse, error)
	Explore(ctx context.Context, page, pageSize int) (*types.PaginatedItinerariesResponse, error)
	SetVisibility(ctx context.Context, id, userID uuid.UUID, isPublic bool) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, logger: logger}
}

// Save stores a freshly generated itinerary. Itineraries start private.
func (s *ServiceImpl) Save(ctx context.Context, requesterID uuid.UUID, prefs types.Preferences, itinerary types.Itinerary) (uuid.UUID, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Save", trace.WithAttributes(
		attribute.String("user.id", requesterID.String()),
		attribute.Int("activities.count", len(itinerary.Activities)),
	))
	defer span.End()

	if requesterID == uuid.Nil {
		span.SetStatus(codes.Error, "Unauthenticated")
		return uuid.Nil, ErrUnauthenticated
	}

	id, err := s.repo.Create(ctx, types.ItineraryRecord{
		RequesterID: requesterID,
		Preferences: prefs,
		Itinerary:   itinerary,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Create failed")
		return uuid.Nil, err
	}
	s.logger.InfoContext(ctx, "Itinerary saved", slog.String("itinerary_id", id.String()))
	span.SetStatus(codes.Ok, "Itinerary saved")
	return id, nil
}

// Get returns an itinerary to its owner, or to anyone when it is public.
// viewerID is uuid.Nil for anonymous callers.
func (s *ServiceImpl) Get(ctx context.Context, id, viewerID uuid.UUID) (*types.ItineraryRecord, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Get", trace.WithAttributes(
		attribute.String("itinerary.id", id.String()),
	))
	defer span.End()

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Fetch failed")
		return nil, err
	}
	if !rec.IsPublic && (viewerID == uuid.Nil || rec.RequesterID != viewerID) {
		span.SetStatus(codes.Error, "Forbidden")
		return nil, ErrForbidden
	}
	span.SetStatus(codes.Ok, "Itinerary fetched")
	return rec, nil
}

func (s *ServiceImpl) History(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.PaginatedItinerariesResponse, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "History", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	items, total, err := s.repo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, fmt.Errorf("failed to list itinerary history: %w", err)
	}
	span.SetStatus(codes.Ok, "History listed")
	return &types.PaginatedItinerariesResponse{Itineraries: items, TotalRecords: total, Page: page, PageSize: pageSize}, nil
}

func (s *ServiceImpl) Explore(ctx context.Context, page, pageSize int) (*types.PaginatedItinerariesResponse, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Explore", trace.WithAttributes(
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	items, total, err := s.repo.ListPublic(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, fmt.Errorf("failed to list public itineraries: %w", err)
	}
	span.SetStatus(codes.Ok, "Explore listed")
	return &types.PaginatedItinerariesResponse{Itineraries: items, TotalRecords: total, Page: page, PageSize: pageSize}, nil
}

func (s *ServiceImpl) SetVisibility(ctx context.Context, id, userID uuid.UUID, isPublic bool) error {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "SetVisibility", trace.WithAttributes(
		attribute.String("itinerary.id", id.String()),
		attribute.Bool("is_public", isPublic),
	))
	defer span.End()

	if err := s.ensureOwner(ctx, id, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Not owner")
		return err
	}
	if err := s.repo.UpdateVisibility(ctx, id, isPublic); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		return err
	}
	span.SetStatus(codes.Ok, "Visibility updated")
	return nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("itinerary.id", id.String()),
	))
	defer span.End()

	if err := s.ensureOwner(ctx, id, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Not owner")
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		return err
	}
	s.logger.InfoContext(ctx, "Itinerary deleted", slog.String("itinerary_id", id.String()))
	span.SetStatus(codes.Ok, "Itinerary deleted")
	return nil
}

func (s *ServiceImpl) ensureOwner(ctx context.Context, id, userID uuid.UUID) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.RequesterID != userID {
		return ErrForbidden
	}
	return nil
}
