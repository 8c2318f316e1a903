package curation

import (
	"encoding/json"
	"fmt"
	"strings"

	generativeAI "github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/generative_ai"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

const (
	TaskSelection   = "select_activities"
	TaskEnhancement = "enhance_activities"
	TaskSummary     = "itinerary_summary"
)

const selectionSystem = `You are a Singapore local who curates day itineraries. You only ever choose from the candidate activities you are given and you always answer with JSON.`

const selectionRules = `RULES:
1. First decide whether the request asks for one kind of venue (e.g. "brunch spots", "rooftop bar", "where to eat") or a full day plan.
   - Venue-specific requests: select 1-2 activities matching that venue type.
   - Full day plans: select 4-6 activities that fill the day.
2. Never select two activities of the same meal type (at most one breakfast, one brunch, one lunch, one dinner, one supper), unless the request is venue-specific.
3. Order activities logically through the day: breakfast before brunch before lunch before dinner; outdoor and adventure activities in daylight; bars and nightlife in the evening.
4. Give each activity a time window such as "9:00 AM - 11:00 AM".
5. Refer to each activity by its candidate_ref and copy its title exactly. Do not invent activities or change any candidate field.
6. Respect the budget and party size when choosing.`

// promptCandidate is the view of a candidate shown to the model.
type promptCandidate struct {
	Ref              int      `json:"candidate_ref"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Location         string   `json:"location_text"`
	VenueName        string   `json:"venue_name,omitempty"`
	Price            *float64 `json:"price"`
	Tags             []string `json:"tags"`
	DurationHours    *float64 `json:"duration_hours,omitempty"`
	OfferKind        string   `json:"offer_kind,omitempty"`
	OfferValidityEnd *string  `json:"offer_validity_end,omitempty"`
	Source           string   `json:"source_kind"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

func selectionPrompt(candidates []types.CandidateActivity, prefs types.Preferences, venue types.VenueQuery, feedback []string) (string, error) {
	view := make([]promptCandidate, len(candidates))
	for i, c := range candidates {
		view[i] = promptCandidate{
			Ref: i, Title: c.Title, Description: c.Description, Location: c.Location, VenueName: c.VenueName,
			Price: c.Price, Tags: c.Tags, DurationHours: c.DurationHours, OfferKind: c.OfferKind,
			OfferValidityEnd: c.OfferValidityEnd, Source: string(c.SourceKind),
			Latitude: c.Latitude, Longitude: c.Longitude,
		}
	}
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "USER REQUEST: %q\n", prefs.Query)
	fmt.Fprintf(&b, "Budget: %s\n", types.BudgetLabel(prefs.BudgetTier))
	if prefs.PartySize != "" {
		fmt.Fprintf(&b, "Party size: %s\n", prefs.PartySize)
	}
	if len(prefs.Categories) > 0 {
		fmt.Fprintf(&b, "Interests: %s\n", strings.Join(prefs.Categories, ", "))
	}
	if prefs.PersonalityCode != "" {
		fmt.Fprintf(&b, "Personality: %s\n", prefs.PersonalityCode)
	}
	fmt.Fprintf(&b, "Wants nightlife: %t\n", prefs.Nightlife)
	if prefs.DateRange != nil {
		fmt.Fprintf(&b, "Dates: %s to %s\n",
			prefs.DateRange.Start.Format("2006-01-02"), prefs.DateRange.End.Format("2006-01-02"))
	}
	if venue.Specific {
		fmt.Fprintf(&b, "The request looks venue-specific (%s).\n", venue.VenueType)
	}
	b.WriteString("\n" + selectionRules + "\n\n")
	b.WriteString("CANDIDATE ACTIVITIES:\n")
	b.Write(data)
	b.WriteString("\n")

	if len(feedback) > 0 {
		b.WriteString("\nYour previous answer broke these rules, fix them:\n")
		for _, f := range feedback {
			b.WriteString("- " + f + "\n")
		}
	}
	return b.String(), nil
}

var selectionSchema = generativeAI.Object(map[string]*generativeAI.Schema{
	"venue_specific": generativeAI.Boolean("True when the request targets a single venue type"),
	"activities": generativeAI.ArrayOf(generativeAI.Object(map[string]*generativeAI.Schema{
		"candidate_ref": generativeAI.Integer("candidate_ref of the chosen candidate"),
		"title":         generativeAI.String("Exact title of the chosen candidate"),
		"time":          generativeAI.String(`Time window, e.g. "9:00 AM - 11:00 AM"`),
	}, "candidate_ref", "title", "time")).Between(1, 6),
}, "venue_specific", "activities")

const enhancementSystem = `You polish activity listings for a Singapore itinerary app and always answer with JSON.`

const enhancementRules = `For every activity:
1. Prepend exactly one fitting emoji to the title, followed by a space. Keep the rest of the title unchanged.
2. If price is null or 0, estimate a per-person price in SGD:
   - cafe or local food: 5-15
   - museum or attraction: 10-40
   - premium or adventure: 50 or more
   - free outdoor activity (parks, trails, beaches): 0
   Otherwise return the given price unchanged. Use null only when no estimate is possible.
Return one entry per activity with its index.`

type enhancementInput struct {
	Index       int      `json:"index"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location_text"`
	Price       *float64 `json:"price"`
}

func enhancementPrompt(acts []types.SelectedActivity) (string, error) {
	view := make([]enhancementInput, len(acts))
	for i, a := range acts {
		view[i] = enhancementInput{
			Index: i, Title: a.Title, Description: a.Description, Tags: a.Tags, Location: a.Location, Price: a.Price,
		}
	}
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode activities: %w", err)
	}
	return enhancementRules + "\n\nACTIVITIES:\n" + string(data), nil
}

var enhancementSchema = generativeAI.Object(map[string]*generativeAI.Schema{
	"activities": generativeAI.ArrayOf(generativeAI.Object(map[string]*generativeAI.Schema{
		"index": generativeAI.Integer("Index of the activity"),
		"title": generativeAI.String("Title with one emoji prepended"),
		"price": generativeAI.Number("Price per person in SGD, 0 when free, null when it cannot be estimated").OrNull(),
	}, "index", "title", "price")),
}, "activities")

const summarySystem = `You write short, upbeat copy for Singapore day itineraries and always answer with JSON.`

type summaryInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Time        string `json:"time"`
}

func summaryPrompt(query string, acts []types.SelectedActivity) (string, error) {
	view := make([]summaryInput, len(acts))
	for i, a := range acts {
		view[i] = summaryInput{Title: a.Title, Description: a.Description, Location: a.Location, Time: a.TimeWindow}
	}
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode activities: %w", err)
	}
	var b strings.Builder
	if query != "" {
		fmt.Fprintf(&b, "The user asked for: %q\n\n", query)
	}
	b.WriteString("Write a catchy itinerary title (max 8 words), a one-sentence intro and a 2-3 sentence description ")
	b.WriteString("for this plan. Only mention what appears in the activities below.\n\nACTIVITIES:\n")
	b.Write(data)
	return b.String(), nil
}

var summarySchema = generativeAI.Object(map[string]*generativeAI.Schema{
	"title":       generativeAI.String("Itinerary title"),
	"intro":       generativeAI.String("One-sentence intro"),
	"description": generativeAI.String("2-3 sentence description"),
}, "title", "intro", "description")
