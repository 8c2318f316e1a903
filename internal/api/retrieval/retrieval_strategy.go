package retrieval

import (
	"context"
	"errors"
	"log/slog"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

const (
	venueTopK   = 5
	broadTopK   = 10
	defaultTopK = 15
	broadSuffix = " things to do"
)

// Retriever applies the single or dual query strategy on top of a Searcher.
type Retriever struct {
	searcher Searcher
	logger   *slog.Logger
}

func NewRetriever(searcher Searcher, logger *slog.Logger) *Retriever {
	return &Retriever{searcher: searcher, logger: logger.With(slog.String("component", "retrieval"))}
}

// Retrieve queries the catalog. Venue-specific asks issue a narrow query for
// the venue type followed by a broader one, specific results first. A failed
// query contributes no results; an error is returned only when every query
// failed, and always together with whatever was retrieved.
func (r *Retriever) Retrieve(ctx context.Context, semanticQuery string, venue types.VenueQuery) ([]types.CandidateActivity, error) {
	if !venue.Specific {
		return r.search(ctx, semanticQuery, defaultTopK)
	}

	specific, specificErr := r.search(ctx, venue.VenueType, venueTopK)
	broad, broadErr := r.search(ctx, semanticQuery+broadSuffix, broadTopK)

	out := make([]types.CandidateActivity, 0, len(specific)+len(broad))
	out = append(out, specific...)
	out = append(out, broad...)
	if specificErr != nil && broadErr != nil {
		return out, errors.Join(specificErr, broadErr)
	}
	return out, nil
}

func (r *Retriever) search(ctx context.Context, query string, topK int) ([]types.CandidateActivity, error) {
	results, err := r.searcher.Search(ctx, query, topK)
	if err != nil {
		r.logger.WarnContext(ctx, "Catalog search failed, continuing without results",
			slog.String("query", query), slog.Int("top_k", topK), slog.Any("error", err))
		return nil, err
	}
	r.logger.DebugContext(ctx, "Catalog search completed", slog.String("query", query), slog.Int("count", len(results)))
	return results, nil
}
