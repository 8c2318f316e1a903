package types

import (
	"github.com/google/uuid"
)

// LlmInteraction is one audited call to the language model.
type LlmInteraction struct {
	UserID       uuid.UUID `json:"user_id"`
	Task         string    `json:"task"`
	Prompt       string    `json:"prompt"`
	ResponseText string    `json:"response_text"`
	ModelUsed    string    `json:"model_used"`
	Temperature  float32   `json:"temperature"`
	LatencyMs    int       `json:"latency_ms"`
	Failed       bool      `json:"failed"`
}
