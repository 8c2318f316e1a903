package curation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var (
	timeRangeSep = regexp.MustCompile(`\s*(?:-|–|—|\bto\b)\s*`)
	perkPatterns = regexp.MustCompile(`(?i)\b(\d{1,3}%\s*off|1[- ]for[- ]1|buy\s+\d+\s+get\s+\d+(?:\s+free)?|free\s+(?:flow|entry|admission|drinks?|dessert|gift|parking|shuttle|tasting)|complimentary\s+[a-z]+|happy\s+hour)\b`)
	clockLayouts = []string{"3:04 PM", "3:04PM", "3 PM", "3PM", "15:04"}
)

// Metadata derives the budget, duration, area and perks labels from the
// activities' own fields. A field that cannot be derived is left empty.
func Metadata(acts []types.SelectedActivity) types.ItinerarySummary {
	return types.ItinerarySummary{
		Budget:   budgetLabel(acts),
		Duration: durationLabel(acts),
		Area:     areaLabel(acts),
		Perks:    perksLabel(acts),
	}
}

func budgetLabel(acts []types.SelectedActivity) string {
	var total float64
	known := false
	for _, a := range acts {
		if a.Price != nil && *a.Price >= 0 {
			total += *a.Price
			known = true
		}
	}
	if !known {
		return ""
	}
	return fmt.Sprintf("$%.2f SGD", total)
}

func durationLabel(acts []types.SelectedActivity) string {
	var (
		first, last       time.Time
		startText, endTxt string
		found             bool
	)
	for _, a := range acts {
		start, end, sText, eText, ok := parseTimeWindow(a.TimeWindow)
		if !ok {
			continue
		}
		if !found || start.Before(first) {
			first, startText = start, sText
		}
		if !found || end.After(last) {
			last, endTxt = end, eText
		}
		found = true
	}
	if !found || !last.After(first) {
		return ""
	}
	return fmt.Sprintf("%s – %s (%s)", startText, endTxt, formatSpan(last.Sub(first)))
}

// parseTimeWindow parses windows such as "9:00 AM - 11:00 AM" or
// "19:00-21:30". An end before the start is taken to be after midnight.
func parseTimeWindow(w string) (start, end time.Time, startText, endText string, ok bool) {
	parts := timeRangeSep.Split(strings.TrimSpace(w), 2)
	if len(parts) != 2 {
		return
	}
	startText, endText = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	var okStart, okEnd bool
	start, okStart = parseClock(startText)
	end, okEnd = parseClock(endText)
	if !okStart || !okEnd {
		return
	}
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end, startText, endText, true
}

func parseClock(s string) (time.Time, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatSpan(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

func areaLabel(acts []types.SelectedActivity) string {
	return strings.Join(uniqueFold(acts, func(a types.SelectedActivity) []string {
		return []string{strings.TrimSpace(a.Location)}
	}), " + ")
}

func perksLabel(acts []types.SelectedActivity) string {
	return strings.Join(uniqueFold(acts, func(a types.SelectedActivity) []string {
		return perkPatterns.FindAllString(a.Description, -1)
	}), ", ")
}

// uniqueFold collects non-empty values in order, ignoring case for duplicates.
func uniqueFold(acts []types.SelectedActivity, values func(types.SelectedActivity) []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, a := range acts {
		for _, v := range values(a) {
			key := strings.ToLower(v)
			if _, ok := seen[key]; ok || v == "" {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
