package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-sg-itinerary-curator/config"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var (
	ErrUnavailable = errors.New("retrieval: service unavailable")
	ErrBadRequest  = errors.New("retrieval: request rejected")
)

const defaultLocation = "Singapore"

// Searcher is the catalog search contract used by the curation pipeline.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]types.CandidateActivity, error)
	Health(ctx context.Context) error
}

var _ Searcher = (*Client)(nil)

// Client talks to the activity vector-search bridge.
type Client struct {
	base    string
	hc      *http.Client
	rl      *rate.Limiter
	cache   *cache.Cache
	timeout time.Duration
	logger  *slog.Logger
}

func New(cfg config.RetrievalConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("retrieval base url is required")
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 10
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		hc:      &http.Client{},
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		cache:   cache.New(ttl, 2*ttl),
		timeout: timeout,
		logger:  logger.With(slog.String("component", "retrieval")),
	}, nil
}

type searchRequest struct {
	Query    string `json:"query"`
	NResults int    `json:"n_results"`
}

type searchResponse struct {
	Activities []activityDTO `json:"activities"`
	Query      string        `json:"query"`
	Count      int           `json:"count"`
}

// activityDTO mirrors the bridge's field names, which predate the
// CandidateActivity naming.
type activityDTO struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	VenueName     string   `json:"venue_name"`
	Price         *float64 `json:"price"`
	Tags          []string `json:"tags"`
	DurationHours *float64 `json:"duration_hours"`
	OfferType     string   `json:"offer_type"`
	ValidityEnd   *string  `json:"validity_end"`
	SourceChannel string   `json:"source_channel"`
	SourceType    string   `json:"source_type"`
	SourceLink    *string  `json:"source_link"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func (d activityDTO) toCandidate() types.CandidateActivity {
	location := strings.TrimSpace(d.Location)
	if location == "" {
		location = defaultLocation
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	c := types.CandidateActivity{
		Title:            d.Title,
		Description:      d.Description,
		Location:         location,
		VenueName:        d.VenueName,
		Price:            d.Price,
		Tags:             tags,
		DurationHours:    d.DurationHours,
		OfferKind:        d.OfferType,
		OfferValidityEnd: d.ValidityEnd,
		SourceChannel:    d.SourceChannel,
		SourceKind:       types.SourceCatalog,
		SourceLink:       d.SourceLink,
	}
	if d.Latitude != nil && d.Longitude != nil {
		c.Latitude, c.Longitude = d.Latitude, d.Longitude
	}
	return c
}

// Search returns up to topK catalog activities ranked by similarity.
// Successful responses are cached per (query, topK).
func (c *Client) Search(ctx context.Context, query string, topK int) ([]types.CandidateActivity, error) {
	ctx, span := otel.Tracer("RetrievalClient").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("retrieval.query", query),
		attribute.Int("retrieval.top_k", topK),
	))
	defer span.End()

	cacheKey := fmt.Sprintf("%d|%s", topK, strings.ToLower(strings.TrimSpace(query)))
	if cached, found := c.cache.Get(cacheKey); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "Served from cache")
		return cached.([]types.CandidateActivity), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp searchResponse
	if err := c.post(ctx, "/search", searchRequest{Query: query, NResults: topK}, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		return nil, err
	}

	out := make([]types.CandidateActivity, 0, len(resp.Activities))
	for _, a := range resp.Activities {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		out = append(out, a.toCandidate())
	}
	c.cache.Set(cacheKey, out, cache.DefaultExpiration)

	span.SetAttributes(attribute.Int("retrieval.count", len(out)))
	span.SetStatus(codes.Ok, "Search completed")
	return out, nil
}

// Health probes the bridge's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode retrieval response: %w", err)
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrBadRequest, resp.StatusCode, strings.TrimSpace(string(b)))
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}
