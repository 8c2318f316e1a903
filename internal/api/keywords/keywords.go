// Package keywords turns request preferences into retrieval queries.
package keywords

import (
	"strings"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var budgetKeywords = map[int][]string{
	0: {"cheap", "budget", "free", "affordable", "broke"},
	1: {"budget-friendly", "affordable", "reasonable"},
	2: {"moderate", "mid-range"},
	3: {"comfortable", "nice", "quality"},
	4: {"premium", "luxury", "upscale", "high-end"},
}

var partyKeywords = map[types.PartySize][]string{
	types.PartySolo:       {"solo", "alone", "individual"},
	types.PartyDate:       {"romantic", "couple", "date", "intimate"},
	types.PartyDoubleDate: {"double-date", "couples", "group"},
	types.PartySmallGroup: {"small group", "friends"},
	types.PartyGroup:      {"group", "party"},
	types.PartyLargeGroup: {"large group", "party", "gathering"},
}

var personalityKeywords = map[string][]string{
	"ENFP": {"creative", "spontaneous", "social", "adventurous", "enthusiastic"},
	"INFP": {"authentic", "artistic", "meaningful", "quiet", "creative"},
	"ENTP": {"innovative", "debate", "adventure", "intellectual"},
	"INTP": {"analytical", "logical", "independent", "thoughtful"},
	"ENFJ": {"social", "organized", "warm", "inspiring"},
	"INFJ": {"meaningful", "deep", "insightful", "private"},
	"ENTJ": {"leadership", "strategic", "efficient", "bold"},
	"INTJ": {"strategic", "independent", "intellectual", "planning"},
	"ESFP": {"entertaining", "social", "fun", "lively", "spontaneous"},
	"ISFP": {"artistic", "gentle", "flexible", "aesthetic"},
	"ESTP": {"action", "bold", "energetic", "hands-on"},
	"ISTP": {"practical", "independent", "observant", "hands-on"},
	"ESFJ": {"social", "caring", "organized", "traditional"},
	"ISFJ": {"caring", "detailed", "supportive", "traditional"},
	"ESTJ": {"organized", "practical", "direct", "responsible"},
	"ISTJ": {"organized", "reliable", "practical", "detail-oriented"},
}

// NightlifeKeywords are appended when the nightlife flag is set.
var NightlifeKeywords = []string{"nightlife", "drinks", "bar", "club", "cocktail", "evening", "party"}

// Build returns the semantic search string for prefs. The free-text query
// comes first so it carries the most weight, followed by categories and the
// mapped keyword lists. Unknown enum values contribute nothing.
func Build(prefs types.Preferences) string {
	parts := make([]string, 0, 16)

	if q := strings.TrimSpace(prefs.Query); q != "" {
		parts = append(parts, q)
	}
	for _, c := range prefs.Categories {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, strings.ToLower(c))
		}
	}
	parts = append(parts, budgetKeywords[prefs.BudgetTier]...)
	parts = append(parts, partyKeywords[prefs.PartySize]...)
	parts = append(parts, personalityKeywords[strings.ToUpper(prefs.PersonalityCode)]...)
	if prefs.Nightlife {
		parts = append(parts, NightlifeKeywords...)
	}

	return strings.Join(parts, " ")
}
