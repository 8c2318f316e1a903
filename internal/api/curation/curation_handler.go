package curation

import (
	"errors"
	"log/slog"
	"net/http"

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
	GenerateItinerary(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

// NewHandlerImpl creates a curation HandlerImpl.
func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// GenerateItinerary godoc
// @Summary      Generate Itinerary
// @Description  Curates a Singapore itinerary from mood and preferences. Signed-in callers get it saved to their history.
// @Tags         Itineraries
// @Accept       json
// @Produce      json
// @Param        preferences body types.Preferences true "Mood and preferences"
// @Success      201 {object} types.GenerateResult "Saved itinerary"
// @Success      200 {object} types.GenerateResult "Unsaved itinerary"
// @Failure      400 {object} map[string]any "Invalid preferences"
// @Failure      422 {object} map[string]any "No matching activities"
// @Failure      502 {object} map[string]any "Generation failed"
// @Router       /itineraries/generate [post]
func (h *HandlerImpl) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CurationHandler").Start(r.Context(), "GenerateItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/itineraries/generate"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GenerateItinerary"))

	requesterID := uuid.Nil
	if userID, ok := auth.GetUserIDFromContext(ctx); ok {
		requesterID = userID
		span.SetAttributes(semconv.EnduserIDKey.String(userID.String()))
		l = l.With(slog.String("userID", userID.String()))
	}

	var prefs types.Preferences
	if err := api.DecodeJSONBody(w, r, &prefs); err != nil {
		l.WarnContext(ctx, "Failed to decode preferences", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Generate(ctx, requesterID, prefs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		switch {
		case errors.Is(err, ErrInvalidPreferences):
			l.WarnContext(ctx, "Rejected preferences", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadRequest, validationMessage(err))
		case errors.Is(err, ErrNoCandidates):
			l.WarnContext(ctx, "No candidates for request")
			api.ErrorResponse(w, r, http.StatusUnprocessableEntity,
				"We couldn't find any activities for that request. Try different keywords or interests.")
		default:
			l.ErrorContext(ctx, "Itinerary generation failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadGateway,
				"We couldn't put together an itinerary right now. Please try again.")
		}
		return
	}

	status := http.StatusOK
	if result.Saved {
		status = http.StatusCreated
	}
	span.SetAttributes(semconv.HTTPResponseStatusCodeKey.Int(status))
	span.SetStatus(codes.Ok, "Itinerary generated")
	api.WriteJSONResponse(w, r, status, result)
}

var validationErrors = []error{
	types.ErrEmptyPreferences,
	types.ErrInvalidBudget,
	types.ErrInvalidPartySize,
	types.ErrInvalidPersonality,
	types.ErrInvalidDateRange,
}

// validationMessage returns the user-facing message of the validation error
// wrapped in err.
func validationMessage(err error) string {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return v.Error()
		}
	}
	return ErrInvalidPreferences.Error()
}
