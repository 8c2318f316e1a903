package generativeAI

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyResponse is returned when the model answered with no text.
var ErrEmptyResponse = errors.New("language model returned an empty response")

// Request is a provider-neutral structured-output call.
type Request struct {
	// Task names the pipeline step, used for tracing and auditing.
	Task        string
	System      string
	Prompt      string
	Schema      *Schema
	Temperature float32
}

type Response struct {
	Text    string
	Model   string
	Latency time.Duration
}

// Proposer sends a prompt to a language model and returns its raw text.
// Implementations must be safe for concurrent use.
type Proposer interface {
	Propose(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// CleanJSONResponse strips markdown fences and any prose around the
// outermost JSON object.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	response = strings.TrimSpace(response)

	firstBrace := strings.Index(response, "{")
	lastBrace := strings.LastIndex(response, "}")
	if firstBrace >= 0 && lastBrace > firstBrace {
		response = response[firstBrace : lastBrace+1]
	}
	return response
}

// DecodeJSON cleans the model output and unmarshals it into dst.
func DecodeJSON(text string, dst any) error {
	cleaned := CleanJSONResponse(text)
	if cleaned == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(cleaned), dst); err != nil {
		return fmt.Errorf("failed to parse model output as JSON: %w", err)
	}
	return nil
}
