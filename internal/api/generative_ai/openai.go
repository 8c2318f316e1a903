package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-sg-itinerary-curator/app/observability/metrics"
)

var _ Proposer = (*OpenAIProposer)(nil)

// OpenAIProposer calls the chat completions API with a json_schema
// response format.
type OpenAIProposer struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIProposer(apiKey, model, baseURL string, logger *slog.Logger) (*OpenAIProposer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is not set")
	}
	if model == "" {
		model = openai.GPT4o
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProposer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}, nil
}

func (o *OpenAIProposer) Model() string { return o.model }

func (o *OpenAIProposer) Propose(ctx context.Context, req Request) (*Response, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "OpenAIProposer.Propose", trace.WithAttributes(
		attribute.String("llm.task", req.Task),
		attribute.String("llm.model", o.model),
		attribute.Int("prompt.length", len(req.Prompt)),
	))
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.Schema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName(req.Task),
				Schema: req.Schema,
				Strict: false,
			},
		}
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	latency := time.Since(start)
	metrics.Get().LLMCallDurationSeconds.Record(ctx, latency.Seconds(),
		metric.WithAttributes(attribute.String("provider", "openai"), attribute.String("task", req.Task)))
	if err != nil {
		metrics.Get().LLMCallErrorsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("provider", "openai"), attribute.String("task", req.Task)))
		o.logger.ErrorContext(ctx, "OpenAI request failed", slog.String("task", req.Task), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "OpenAI request failed")
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		span.SetStatus(codes.Error, "Empty response")
		return nil, ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	span.SetAttributes(
		attribute.Int("response.length", len(text)),
		attribute.Int("usage.total_tokens", resp.Usage.TotalTokens),
	)
	span.SetStatus(codes.Ok, "Content generated")
	return &Response{Text: text, Model: resp.Model, Latency: latency}, nil
}

// schemaName satisfies the API's ^[a-zA-Z0-9_-]+$ constraint.
func schemaName(task string) string {
	if task == "" {
		return "response"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, task)
}
