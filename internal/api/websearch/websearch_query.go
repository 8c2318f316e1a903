package websearch

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var partyPhrases = map[types.PartySize]string{
	types.PartySolo:       "for one person",
	types.PartyDate:       "for a couple",
	types.PartyDoubleDate: "for two couples",
	types.PartySmallGroup: "for a small group of friends",
	types.PartyGroup:      "for a group of 6-7",
	types.PartyLargeGroup: "for a large group",
}

// BuildQuery composes the natural-language web query for prefs in city.
func BuildQuery(prefs types.Preferences, city string) string {
	var b strings.Builder

	subject := strings.TrimSpace(prefs.Query)
	if subject == "" {
		subject = "things to do"
	}
	fmt.Fprintf(&b, "%s in %s", subject, city)

	if phrase, ok := partyPhrases[prefs.PartySize]; ok {
		b.WriteString(" " + phrase)
	}
	if len(prefs.Categories) > 0 {
		cats := make([]string, len(prefs.Categories))
		for i, c := range prefs.Categories {
			cats[i] = strings.ToLower(c)
		}
		b.WriteString(", " + strings.Join(cats, " and "))
	}
	if label := types.BudgetLabel(prefs.BudgetTier); label != "" {
		b.WriteString(", budget " + label)
	}
	if prefs.Nightlife {
		b.WriteString(", including bars and nightlife")
	}
	b.WriteString(". Current deals, promotions and new openings.")
	return b.String()
}
