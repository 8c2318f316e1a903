package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/curation"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/itinerary"
)

const healthTimeout = 3 * time.Second

// Config contains dependencies needed for the router setup
type Config struct {
	CurationHandler  curation.Handler
	ItineraryHandler itinerary.Handler

	// AuthenticateMiddleware rejects anonymous requests.
	AuthenticateMiddleware func(http.Handler) http.Handler
	// OptionalAuthMiddleware resolves the user when a token is present.
	OptionalAuthMiddleware func(http.Handler) http.Handler

	// HealthCheck reports the state of each downstream dependency.
	HealthCheck    func(ctx context.Context) map[string]error
	AllowedOrigins []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (request id, logging, recovery) is applied by the
// caller before mounting it.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/health", healthHandler(cfg.HealthCheck))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/explore", cfg.ItineraryHandler.Explore)

		// Anonymous users may generate and view public itineraries.
		r.Group(func(r chi.Router) {
			r.Use(cfg.OptionalAuthMiddleware)
			r.Post("/itineraries/generate", cfg.CurationHandler.GenerateItinerary)
			r.Get("/itineraries/{itineraryID}", cfg.ItineraryHandler.GetItinerary)
		})

		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Get("/itineraries", cfg.ItineraryHandler.ListHistory)
			r.Patch("/itineraries/{itineraryID}/visibility", cfg.ItineraryHandler.UpdateVisibility)
			r.Delete("/itineraries/{itineraryID}", cfg.ItineraryHandler.DeleteItinerary)
		})
	})

	return r
}

func healthHandler(check func(ctx context.Context) map[string]error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{}
		if check != nil {
			for name, err := range check(ctx) {
				if err != nil {
					checks[name] = "unavailable"
					status = http.StatusServiceUnavailable
					continue
				}
				checks[name] = "ok"
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		api.WriteJSONResponse(w, r, status, map[string]any{"status": overall, "checks": checks})
	}
}
