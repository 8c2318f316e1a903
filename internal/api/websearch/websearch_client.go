package websearch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-sg-itinerary-curator/config"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var (
	ErrUnauthorized = errors.New("websearch: unauthorized")
	ErrRateLimited  = errors.New("websearch: rate limited")
	ErrUnavailable  = errors.New("websearch: service unavailable")
	ErrDisabled     = errors.New("websearch: not configured")
)

const (
	isoDate         = "2006-01-02"
	defaultLocation = "Singapore"
	cachePrefix     = "websearch:"
)

// Client queries the web-search API for recent activity write-ups and asks
// it to extract a structured summary per result.
type Client struct {
	base       string
	apiKey     string
	hc         *http.Client
	rl         *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
	timeout    time.Duration
	maxResults int
	windowDays int
	locale     string
	country    string
	now        func() time.Time
	logger     *slog.Logger
}

// New builds a client. A nil cache disables result caching.
func New(cfg config.WebSearchConfig, cache Cache, logger *slog.Logger) *Client {
	if cache == nil {
		cache = noopCache{}
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	c := &Client{
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		hc:         &http.Client{},
		rl:         rate.NewLimiter(rate.Limit(rps), rps),
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		timeout:    cfg.Timeout,
		maxResults: cfg.MaxResults,
		windowDays: cfg.WindowDays,
		locale:     cfg.Locale,
		country:    cfg.Country,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "websearch")),
	}
	if c.timeout <= 0 {
		c.timeout = 8 * time.Second
	}
	if c.maxResults <= 0 {
		c.maxResults = 10
	}
	if c.windowDays <= 0 {
		c.windowDays = 30
	}
	if c.locale == "" {
		c.locale = "en-SG"
	}
	if c.country == "" {
		c.country = "SG"
	}
	return c
}

type searchRequest struct {
	Query        string         `json:"query"`
	Locale       string         `json:"locale"`
	Country      string         `json:"country"`
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date"`
	MaxResults   int            `json:"max_results"`
	OutputSchema map[string]any `json:"output_schema"`
}

type structuredSummary struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type searchResult struct {
	URL           string             `json:"url"`
	PublishedDate string             `json:"published_date"`
	Structured    *structuredSummary `json:"structured"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// outputSchema constrains the per-result structured summary.
var outputSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{
			"type":        "string",
			"description": "Activity title formatted as \"[Type] at [Venue]\"",
		},
		"description": map[string]any{
			"type":        "string",
			"description": "2-3 sentence description of the activity, venue and any deal",
		},
		"tags": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"minItems":    3,
			"maxItems":    5,
			"description": "3-5 short lowercase tags",
		},
	},
	"required": []string{"title", "description", "tags"},
}

// Search returns web candidates for a natural-language query. Results
// published outside the trailing window are excluded by the API.
func (c *Client) Search(ctx context.Context, query string) ([]types.CandidateActivity, error) {
	ctx, span := otel.Tracer("WebSearchClient").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("websearch.query", query),
	))
	defer span.End()

	if c.base == "" {
		span.SetStatus(codes.Error, "Not configured")
		return nil, ErrDisabled
	}

	end := c.now().UTC()
	start := end.AddDate(0, 0, -c.windowDays)
	req := searchRequest{
		Query:        query,
		Locale:       c.locale,
		Country:      c.country,
		StartDate:    start.Format(isoDate),
		EndDate:      end.Format(isoDate),
		MaxResults:   c.maxResults,
		OutputSchema: outputSchema,
	}

	key := cacheKey(req)
	var cached []types.CandidateActivity
	if hit, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.logger.WarnContext(ctx, "Web search cache read failed", slog.Any("error", err))
	} else if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "Served from cache")
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp searchResponse
	if err := c.post(ctx, req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		return nil, err
	}

	out := make([]types.CandidateActivity, 0, len(resp.Results))
	for _, r := range resp.Results {
		if cand, ok := toCandidate(r); ok {
			out = append(out, cand)
		}
	}

	if c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, key, out, c.cacheTTL); err != nil {
			c.logger.WarnContext(ctx, "Web search cache write failed", slog.Any("error", err))
		}
	}

	span.SetAttributes(attribute.Int("websearch.count", len(out)))
	span.SetStatus(codes.Ok, "Search completed")
	return out, nil
}

func toCandidate(r searchResult) (types.CandidateActivity, bool) {
	if r.Structured == nil || strings.TrimSpace(r.Structured.Title) == "" {
		return types.CandidateActivity{}, false
	}
	tags := r.Structured.Tags
	if tags == nil {
		tags = []string{}
	}
	c := types.CandidateActivity{
		Title:         strings.TrimSpace(r.Structured.Title),
		Description:   strings.TrimSpace(r.Structured.Description),
		Location:      defaultLocation,
		VenueName:     venueFromTitle(r.Structured.Title),
		Tags:          tags,
		OfferKind:     "web",
		SourceChannel: "web_search",
		SourceKind:    types.SourceWeb,
	}
	if u := strings.TrimSpace(r.URL); u != "" {
		c.SourceLink = &u
	}
	return c, true
}

// venueFromTitle extracts Venue from a "[Type] at [Venue]" title.
func venueFromTitle(title string) string {
	if i := strings.LastIndex(title, " at "); i >= 0 {
		return strings.TrimSpace(title[i+len(" at "):])
	}
	return ""
}

func cacheKey(req searchRequest) string {
	h := sha256.Sum256([]byte(strings.Join([]string{
		strings.ToLower(strings.TrimSpace(req.Query)), req.Locale, req.Country, req.StartDate, req.EndDate,
		fmt.Sprint(req.MaxResults),
	}, "|")))
	return cachePrefix + hex.EncodeToString(h[:16])
}

func (c *Client) post(ctx context.Context, body searchRequest, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/search", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode web search response: %w", err)
		}
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}
