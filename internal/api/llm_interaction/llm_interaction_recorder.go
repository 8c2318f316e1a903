package llmInteraction

import (
	"context"
	"log/slog"
	"time"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/auth"
	generativeAI "github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/generative_ai"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var _ generativeAI.Proposer = (*RecordingProposer)(nil)

const saveTimeout = 2 * time.Second

// RecordingProposer audits every model call to the llm_interactions table.
// Audit failures are logged and never surface to the caller.
type RecordingProposer struct {
	next   generativeAI.Proposer
	repo   LLmInteractionRepository
	logger *slog.Logger
}

func NewRecordingProposer(next generativeAI.Proposer, repo LLmInteractionRepository, logger *slog.Logger) *RecordingProposer {
	return &RecordingProposer{next: next, repo: repo, logger: logger}
}

func (p *RecordingProposer) Model() string { return p.next.Model() }

func (p *RecordingProposer) Propose(ctx context.Context, req generativeAI.Request) (*generativeAI.Response, error) {
	start := time.Now()
	resp, err := p.next.Propose(ctx, req)

	interaction := types.LlmInteraction{
		Task:        req.Task,
		Prompt:      req.Prompt,
		ModelUsed:   p.next.Model(),
		Temperature: req.Temperature,
		LatencyMs:   int(time.Since(start).Milliseconds()),
		Failed:      err != nil,
	}
	if userID, ok := auth.GetUserIDFromContext(ctx); ok {
		interaction.UserID = userID
	}
	if resp != nil {
		interaction.ResponseText = resp.Text
		if resp.Model != "" {
			interaction.ModelUsed = resp.Model
		}
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if saveErr := p.repo.SaveInteraction(saveCtx, interaction); saveErr != nil {
		p.logger.WarnContext(ctx, "Failed to record llm interaction",
			slog.String("task", req.Task), slog.Any("error", saveErr))
	}
	return resp, err
}
