package types

import (
	"time"

	"github.com/google/uuid"
)

// ItinerarySummary fields other than the narrative ones are derived from
// activity data only and left empty when they cannot be derived.
type ItinerarySummary struct {
	Intro       string `json:"intro"`
	Description string `json:"description"`
	Budget      string `json:"budget"`
	Duration    string `json:"duration"`
	Area        string `json:"area"`
	Perks       string `json:"perks"`
}

type Itinerary struct {
	Title      string             `json:"title"`
	Summary    ItinerarySummary   `json:"summary"`
	Activities []SelectedActivity `json:"activities"`
}

// ItineraryRecord is a persisted itinerary together with the request that
// produced it.
type ItineraryRecord struct {
	ID          uuid.UUID   `json:"id"`
	RequesterID uuid.UUID   `json:"requester_id"`
	Preferences Preferences `json:"preferences"`
	Itinerary   Itinerary   `json:"itinerary"`
	IsPublic    bool        `json:"is_public"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ItinerarySummaryItem is the list view used by history and explore feeds.
type ItinerarySummaryItem struct {
	ID          uuid.UUID `json:"id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Query       string    `json:"query"`
	Title       string    `json:"title"`
	Categories  []string  `json:"activity_categories"`
	BudgetTier  int       `json:"budget_tier"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaginatedItinerariesResponse struct {
	Itineraries  []ItinerarySummaryItem `json:"itineraries"`
	TotalRecords int                    `json:"total_records"`
	Page         int                    `json:"page"`
	PageSize     int                    `json:"page_size"`
}

type UpdateVisibilityRequest struct {
	IsPublic *bool `json:"is_public"`
}

// GenerateResult is returned by the generation endpoint. Saved is false when
// the itinerary was produced for an anonymous caller and not persisted.
type GenerateResult struct {
	ItineraryID *uuid.UUID `json:"itinerary_id,omitempty"`
	Saved       bool       `json:"saved"`
	Notice      string     `json:"notice,omitempty"`
	Itinerary   Itinerary  `json:"itinerary"`
}
