package keywords

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var (
	venuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(brunch|breakfast|lunch|dinner|supper)\b(\s+(spots?|places?|cafes?|restaurants?|ideas|options))?`),
		regexp.MustCompile(`\bwhere\s+to\s+(eat|drink|have\s+\w+)\b`),
		regexp.MustCompile(`\b(rooftop\s+bars?|hawker\s+cent(re|er)s?|coffee\s+shops?|cafes?|restaurants?|bars?|bakery|bakeries)\b`),
	}
	fullDayPattern = regexp.MustCompile(`\b(plan|itinerary|day|weekend|things\s+to\s+do|schedule|full[- ]day|date\s+night)\b`)
)

// ClassifyVenue reports whether query asks for one kind of venue rather
// than a full-day plan. Any full-day marker wins over a venue match, so
// "plan my day with brunch and a museum" is not venue-specific.
func ClassifyVenue(query string) types.VenueQuery {
	q := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(query)), "é", "e")
	if q == "" || fullDayPattern.MatchString(q) {
		return types.VenueQuery{}
	}
	for _, p := range venuePatterns {
		if m := p.FindString(q); m != "" {
			return types.VenueQuery{Specific: true, VenueType: strings.Join(strings.Fields(m), " ")}
		}
	}
	return types.VenueQuery{}
}
