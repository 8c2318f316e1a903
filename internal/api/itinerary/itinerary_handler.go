package itinerary

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/auth"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetItinerary(w http.ResponseWriter, r *http.Request)
	ListHistory(w http.ResponseWriter, r *http.Request)
	Explore(w http.ResponseWriter, r *http.Request)
	UpdateVisibility(w http.ResponseWriter, r *http.Request)
	DeleteItinerary(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

// NewHandlerImpl creates an itinerary HandlerImpl.
func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

func itineraryID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "itineraryID"))
}

// writeServiceError maps service errors onto responses without leaking
// internal error text.
func (h *HandlerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Itinerary not found")
	case errors.Is(err, ErrForbidden):
		api.ErrorResponse(w, r, http.StatusForbidden, "You don't have access to this itinerary")
	default:
		l.ErrorContext(r.Context(), "Itinerary request failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Something went wrong, please try again")
	}
}

// GetItinerary godoc
// @Summary      Get Itinerary
// @Description  Returns a saved itinerary. Private itineraries are visible to their owner only.
// @Tags         Itineraries
// @Produce      json
// @Param        itineraryID path string true "Itinerary ID"
// @Success      200 {object} types.ItineraryRecord "Itinerary"
// @Failure      400 {object} map[string]any "Invalid itinerary ID"
// @Failure      403 {object} map[string]any "Forbidden"
// @Failure      404 {object} map[string]any "Not Found"
// @Router       /itineraries/{itineraryID} [get]
func (h *HandlerImpl) GetItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/itineraries/{itineraryID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetItinerary"))

	id, err := itineraryID(r)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid itinerary ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itinerary ID")
		return
	}

	viewerID, _ := auth.GetUserIDFromContext(ctx)
	rec, err := h.service.Get(ctx, id, viewerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Get failed")
		h.writeServiceError(w, r, l, err)
		return
	}

	span.SetStatus(codes.Ok, "Itinerary returned")
	api.WriteJSONResponse(w, r, http.StatusOK, rec)
}

// ListHistory godoc
// @Summary      List Itinerary History
// @Description  Lists the caller's saved itineraries, newest first.
// @Tags         Itineraries
// @Produce      json
// @Param        page      query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} types.PaginatedItinerariesResponse "Itineraries"
// @Failure      401 {object} map[string]any "Unauthorized"
// @Security     BearerAuth
// @Router       /itineraries [get]
func (h *HandlerImpl) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ListHistory", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/itineraries"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListHistory"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthenticated")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID.String()))

	page, pageSize := api.ParsePagination(r)
	resp, err := h.service.History(ctx, userID, page, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "History failed")
		h.writeServiceError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "History returned")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Explore godoc
// @Summary      Explore Public Itineraries
// @Tags         Itineraries
// @Produce      json
// @Param        page      query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} types.PaginatedItinerariesResponse "Itineraries"
// @Router       /explore [get]
func (h *HandlerImpl) Explore(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Explore", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/explore"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "Explore"))

	page, pageSize := api.ParsePagination(r)
	resp, err := h.service.Explore(ctx, page, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Explore failed")
		h.writeServiceError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Explore returned")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// UpdateVisibility godoc
// @Summary      Update Itinerary Visibility
// @Description  Publishes an itinerary to Explore or makes it private again.
// @Tags         Itineraries
// @Accept       json
// @Produce      json
// @Param        itineraryID path string true "Itinerary ID"
// @Param        visibility  body types.UpdateVisibilityRequest true "Visibility"
// @Success      200 {object} map[string]any "Updated visibility"
// @Failure      400 {object} map[string]any "Bad Request"
// @Failure      401 {object} map[string]any "Unauthorized"
// @Failure      403 {object} map[string]any "Forbidden"
// @Failure      404 {object} map[string]any "Not Found"
// @Security     BearerAuth
// @Router       /itineraries/{itineraryID}/visibility [patch]
func (h *HandlerImpl) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "UpdateVisibility", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/itineraries/{itineraryID}/visibility"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateVisibility"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := itineraryID(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itinerary ID")
		return
	}

	var req types.UpdateVisibilityRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsPublic == nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "is_public is required")
		return
	}

	if err := h.service.SetVisibility(ctx, id, userID, *req.IsPublic); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		h.writeServiceError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Visibility updated")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{"id": id, "is_public": *req.IsPublic})
}

// DeleteItinerary godoc
// @Summary      Delete Itinerary
// @Tags         Itineraries
// @Param        itineraryID path string true "Itinerary ID"
// @Success      204 "No Content"
// @Failure      401 {object} map[string]any "Unauthorized"
// @Failure      403 {object} map[string]any "Forbidden"
// @Failure      404 {object} map[string]any "Not Found"
// @Security     BearerAuth
// @Router       /itineraries/{itineraryID} [delete]
func (h *HandlerImpl) DeleteItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "DeleteItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/itineraries/{itineraryID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteItinerary"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := itineraryID(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itinerary ID")
		return
	}

	if err := h.service.Delete(ctx, id, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		h.writeServiceError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "Itinerary deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
