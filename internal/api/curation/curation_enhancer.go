package curation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	generativeAI "github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/generative_ai"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

// Copy used when the summary cannot be generated.
const (
	fallbackTitle       = "Your Singapore Day Out"
	fallbackIntro       = "A handpicked mix of things to do around Singapore."
	fallbackDescription = "We picked these activities to match your mood and budget. Check each listing for opening hours before you head out."
)

type enhancedActivity struct {
	Index int      `json:"index"`
	Title string   `json:"title"`
	Price *float64 `json:"price"`
}

type enhancementOutput struct {
	Activities []enhancedActivity `json:"activities"`
}

type summaryOutput struct {
	Title       string `json:"title"`
	Intro       string `json:"intro"`
	Description string `json:"description"`
}

// Enhancer turns a selection into a presentable itinerary. None of its steps
// can fail the request: each falls back to a safe default.
type Enhancer struct {
	proposer           generativeAI.Proposer
	enhanceTemperature float32
	summaryTemperature float32
	timeout            time.Duration
	logger             *slog.Logger
}

func NewEnhancer(proposer generativeAI.Proposer, enhanceTemperature, summaryTemperature float32, timeout time.Duration, logger *slog.Logger) *Enhancer {
	return &Enhancer{
		proposer:           proposer,
		enhanceTemperature: enhanceTemperature,
		summaryTemperature: summaryTemperature,
		timeout:            timeout,
		logger:             logger.With(slog.String("component", "enhancer")),
	}
}

// Enhance runs activity polishing, summary writing and metadata derivation
// concurrently. selected is only read.
func (e *Enhancer) Enhance(ctx context.Context, query string, selected []types.SelectedActivity) types.Itinerary {
	ctx, span := otel.Tracer("CurationEnhancer").Start(ctx, "Enhance", trace.WithAttributes(
		attribute.Int("activities.count", len(selected)),
	))
	defer span.End()

	var (
		activities []types.SelectedActivity
		summary    summaryOutput
		meta       types.ItinerarySummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		activities = e.enhanceActivities(gctx, selected)
		return nil
	})
	g.Go(func() error {
		summary = e.summarize(gctx, query, selected)
		return nil
	})
	g.Go(func() error {
		meta = Metadata(selected)
		return nil
	})
	_ = g.Wait()

	for i := range activities {
		activities[i].PriceLabel = PriceLabel(activities[i].Price)
	}

	span.SetStatus(codes.Ok, "Itinerary enhanced")
	return types.Itinerary{
		Title: summary.Title,
		Summary: types.ItinerarySummary{
			Intro:       summary.Intro,
			Description: summary.Description,
			Budget:      meta.Budget,
			Duration:    meta.Duration,
			Area:        meta.Area,
			Perks:       meta.Perks,
		},
		Activities: activities,
	}
}

// PriceLabel formats a price as "$12.00" or "Free". Unknown prices yield "".
func PriceLabel(price *float64) string {
	switch {
	case price == nil:
		return ""
	case *price == 0:
		return "Free"
	default:
		return fmt.Sprintf("$%.2f", *price)
	}
}

func cloneAll(acts []types.SelectedActivity) []types.SelectedActivity {
	out := make([]types.SelectedActivity, len(acts))
	for i, a := range acts {
		out[i] = a.Clone()
	}
	return out
}

func (e *Enhancer) enhanceActivities(ctx context.Context, selected []types.SelectedActivity) []types.SelectedActivity {
	out := cloneAll(selected)
	if len(out) == 0 {
		return out
	}

	prompt, err := enhancementPrompt(selected)
	if err != nil {
		e.logger.WarnContext(ctx, "Skipping activity enhancement", slog.Any("error", err))
		return out
	}

	var result enhancementOutput
	if err := e.ask(ctx, TaskEnhancement, enhancementSystem, prompt, enhancementSchema, e.enhanceTemperature, &result); err != nil {
		e.logger.WarnContext(ctx, "Activity enhancement failed, keeping original activities", slog.Any("error", err))
		return out
	}

	for _, r := range result.Activities {
		if r.Index < 0 || r.Index >= len(out) {
			continue
		}
		a := &out[r.Index]
		if title := strings.TrimSpace(r.Title); title != "" && title != a.Title && strings.Contains(title, a.Title) {
			a.Title = title
		}
		if (a.Price == nil || *a.Price == 0) && r.Price != nil && !math.IsNaN(*r.Price) && !math.IsInf(*r.Price, 0) {
			p := round(math.Max(*r.Price, 0), 2)
			a.Price = &p
		}
	}
	return out
}

func (e *Enhancer) summarize(ctx context.Context, query string, selected []types.SelectedActivity) summaryOutput {
	fallback := summaryOutput{Title: fallbackTitle, Intro: fallbackIntro, Description: fallbackDescription}

	prompt, err := summaryPrompt(query, selected)
	if err != nil {
		e.logger.WarnContext(ctx, "Using fallback summary", slog.Any("error", err))
		return fallback
	}

	var out summaryOutput
	if err := e.ask(ctx, TaskSummary, summarySystem, prompt, summarySchema, e.summaryTemperature, &out); err != nil {
		e.logger.WarnContext(ctx, "Summary generation failed, using fallback copy", slog.Any("error", err))
		return fallback
	}
	if strings.TrimSpace(out.Title) == "" {
		out.Title = fallback.Title
	}
	if strings.TrimSpace(out.Intro) == "" {
		out.Intro = fallback.Intro
	}
	if strings.TrimSpace(out.Description) == "" {
		out.Description = fallback.Description
	}
	return out
}

func (e *Enhancer) ask(ctx context.Context, task, system, prompt string, schema *generativeAI.Schema, temperature float32, dst any) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	resp, err := e.proposer.Propose(ctx, generativeAI.Request{
		Task:        task,
		System:      system,
		Prompt:      prompt,
		Schema:      schema,
		Temperature: temperature,
	})
	if err != nil {
		return err
	}
	return generativeAI.DecodeJSON(resp.Text, dst)
}
