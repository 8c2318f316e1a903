package curation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

// Meal types in the order they happen in a day.
var mealOrder = []string{"breakfast", "brunch", "lunch", "dinner", "supper"}

var mealPattern = regexp.MustCompile(`\b(breakfast|brunch|lunch|dinner|supper)\b`)

// MealType returns the normalized meal an activity is built around, or ""
// when it is not a meal. Tags take precedence over the title.
func MealType(a types.CandidateActivity) string {
	for _, tag := range a.Tags {
		if m := mealPattern.FindString(strings.ToLower(tag)); m != "" {
			return m
		}
	}
	return mealPattern.FindString(strings.ToLower(a.Title))
}

// ValidateSelection lists the rule violations of picks drawn from
// candidates. An empty result means the selection is acceptable.
func ValidateSelection(candidates []types.CandidateActivity, picks []types.SelectedActivity, venueSpecific bool) []string {
	var violations []string

	minN, maxN := countBounds(len(candidates), venueSpecific)
	if len(picks) < minN || len(picks) > maxN {
		violations = append(violations,
			fmt.Sprintf("selected %d activities, expected between %d and %d", len(picks), minN, maxN))
	}

	for _, p := range picks {
		if !tracesBack(candidates, p.CandidateActivity) {
			violations = append(violations, fmt.Sprintf("%q is not one of the candidates", p.Title))
		}
	}

	if !venueSpecific {
		seen := map[string]string{}
		for _, p := range picks {
			meal := MealType(p.CandidateActivity)
			if meal == "" {
				continue
			}
			if first, dup := seen[meal]; dup {
				violations = append(violations,
					fmt.Sprintf("%q and %q are both %s; keep at most one %s", first, p.Title, meal, meal))
				continue
			}
			seen[meal] = p.Title
		}
	}
	return violations
}

// countBounds returns how many activities a selection must contain. The
// lower bound shrinks when fewer candidates are available.
func countBounds(candidates int, venueSpecific bool) (int, int) {
	minN, maxN := 4, 6
	if venueSpecific {
		minN, maxN = 1, 2
	}
	if candidates < minN {
		minN = max(candidates, 1)
	}
	return minN, maxN
}

func tracesBack(candidates []types.CandidateActivity, a types.CandidateActivity) bool {
	for _, c := range candidates {
		if sameCandidate(c, a) {
			return true
		}
	}
	return false
}

func sameCandidate(a, b types.CandidateActivity) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		a.SourceKind == b.SourceKind &&
		a.VenueName == b.VenueName &&
		ptrEqual(a.SourceLink, b.SourceLink) &&
		ptrEqual(a.Price, b.Price)
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
