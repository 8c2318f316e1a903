package curation

import "github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"

// MergeCandidates concatenates catalog results followed by web results.
// Duplicates across sources are kept; selection enforces variety.
func MergeCandidates(catalog, web []types.CandidateActivity) []types.CandidateActivity {
	out := make([]types.CandidateActivity, 0, len(catalog)+len(web))
	out = append(out, catalog...)
	return append(out, web...)
}
