package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-sg-itinerary-curator/app/observability/metrics"
)

var _ Proposer = (*GeminiProposer)(nil)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProposer calls the Gemini API through google.golang.org/genai.
type GeminiProposer struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiProposer builds a client for the Gemini API backend. baseURL is
// optional and only overridden in tests.
func NewGeminiProposer(ctx context.Context, apiKey, model, baseURL string, logger *slog.Logger) (*GeminiProposer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiProposer{client: client, model: model, logger: logger}, nil
}

func (g *GeminiProposer) Model() string { return g.model }

func (g *GeminiProposer) Propose(ctx context.Context, req Request) (*Response, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GeminiProposer.Propose", trace.WithAttributes(
		attribute.String("llm.task", req.Task),
		attribute.String("llm.model", g.model),
		attribute.Int("prompt.length", len(req.Prompt)),
	))
	defer span.End()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](req.Temperature),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = req.Schema.ToGenai()
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	latency := time.Since(start)
	metrics.Get().LLMCallDurationSeconds.Record(ctx, latency.Seconds(),
		metric.WithAttributes(attribute.String("provider", "gemini"), attribute.String("task", req.Task)))
	if err != nil {
		metrics.Get().LLMCallErrorsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("provider", "gemini"), attribute.String("task", req.Task)))
		g.logger.ErrorContext(ctx, "Gemini request failed", slog.String("task", req.Task), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Gemini request failed")
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		span.SetStatus(codes.Error, "Empty response")
		return nil, ErrEmptyResponse
	}

	span.SetAttributes(attribute.Int("response.length", len(text)))
	span.SetStatus(codes.Ok, "Content generated")
	return &Response{Text: text, Model: g.model, Latency: latency}, nil
}
