package curation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-sg-itinerary-curator/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/generative_ai"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

// ErrSelectionFailed means no valid selection could be produced.
var ErrSelectionFailed = errors.New("activity selection failed")

type proposedActivity struct {
	Ref   *int   `json:"candidate_ref"`
	Title string `json:"title"`
	Time  string `json:"time"`
}

type selectionOutput struct {
	VenueSpecific *bool              `json:"venue_specific"`
	Activities    []proposedActivity `json:"activities"`
}

// Selector asks the model to pick and schedule candidates, then checks the
// proposal against the selection rules before accepting it.
type Selector struct {
	proposer    generativeAI.Proposer
	temperature float32
	maxAttempts int
	timeout     time.Duration
	logger      *slog.Logger
}

func NewSelector(proposer generativeAI.Proposer, temperature float32, maxAttempts int, timeout time.Duration, logger *slog.Logger) *Selector {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Selector{
		proposer:    proposer,
		temperature: temperature,
		maxAttempts: maxAttempts,
		timeout:     timeout,
		logger:      logger.With(slog.String("component", "selector")),
	}
}

// Select returns between one and six activities drawn from candidates, in
// day order. Rule violations are sent back to the model; once attempts run
// out the last proposal is repaired locally.
func (s *Selector) Select(ctx context.Context, candidates []types.CandidateActivity, prefs types.Preferences, venue types.VenueQuery) ([]types.SelectedActivity, error) {
	ctx, span := otel.Tracer("CurationSelector").Start(ctx, "Select", trace.WithAttributes(
		attribute.Int("candidates.count", len(candidates)),
		attribute.Bool("venue.specific", venue.Specific),
	))
	defer span.End()

	if len(candidates) == 0 {
		span.SetStatus(codes.Error, "No candidates")
		return nil, fmt.Errorf("%w: no candidates to choose from", ErrSelectionFailed)
	}

	var (
		feedback []string
		picks    []types.SelectedActivity
	)
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		out, err := s.propose(ctx, candidates, prefs, venue, feedback)
		if err != nil {
			var parseErr *parseError
			if errors.As(err, &parseErr) && attempt < s.maxAttempts {
				s.logger.WarnContext(ctx, "Unparseable selection, asking again", slog.Int("attempt", attempt), slog.Any("error", err))
				feedback = []string{"the answer was not valid JSON matching the schema"}
				metrics.Get().SelectionRetriesTotal.Add(ctx, 1)
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "Selection failed")
			return nil, fmt.Errorf("%w: %w", ErrSelectionFailed, err)
		}

		var unresolved []string
		picks, unresolved = resolve(candidates, out.Activities)
		feedback = append(unresolved, ValidateSelection(candidates, picks, venue.Specific)...)
		if len(feedback) == 0 {
			break
		}
		s.logger.WarnContext(ctx, "Selection broke rules",
			slog.Int("attempt", attempt), slog.Any("violations", feedback))
		span.AddEvent("selection.violations", trace.WithAttributes(attribute.StringSlice("violations", feedback)))
		if attempt < s.maxAttempts {
			metrics.Get().SelectionRetriesTotal.Add(ctx, 1)
		}
	}

	if len(picks) == 0 {
		span.SetStatus(codes.Error, "Empty selection")
		return nil, fmt.Errorf("%w: model selected no usable activities", ErrSelectionFailed)
	}
	if len(feedback) > 0 {
		picks = repair(picks, candidates, venue.Specific)
		s.logger.InfoContext(ctx, "Selection repaired locally", slog.Int("count", len(picks)))
	}

	orderByStart(picks)
	if minN, _ := countBounds(len(candidates), venue.Specific); len(picks) < minN {
		span.SetStatus(codes.Error, "Selection below minimum")
		return nil, fmt.Errorf("%w: only %d usable activities, need at least %d", ErrSelectionFailed, len(picks), minN)
	}
	for i := range picks {
		picks[i].SequenceID = i + 1
	}

	span.SetAttributes(attribute.Int("selected.count", len(picks)))
	span.SetStatus(codes.Ok, "Activities selected")
	return picks, nil
}

type parseError struct{ err error }

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

func (s *Selector) propose(ctx context.Context, candidates []types.CandidateActivity, prefs types.Preferences, venue types.VenueQuery, feedback []string) (*selectionOutput, error) {
	prompt, err := selectionPrompt(candidates, prefs, venue, feedback)
	if err != nil {
		return nil, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.proposer.Propose(ctx, generativeAI.Request{
		Task:        TaskSelection,
		System:      selectionSystem,
		Prompt:      prompt,
		Schema:      selectionSchema,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("selection call failed: %w", err)
	}

	var out selectionOutput
	if err := generativeAI.DecodeJSON(resp.Text, &out); err != nil {
		return nil, &parseError{err: err}
	}
	if out.Activities == nil {
		return nil, &parseError{err: errors.New("missing activities")}
	}
	return &out, nil
}

// resolve maps proposals onto candidates by candidate_ref, falling back to an
// exact title match. Candidate fields are copied from the local list so the
// model cannot alter them.
func resolve(candidates []types.CandidateActivity, proposals []proposedActivity) ([]types.SelectedActivity, []string) {
	var (
		picks      []types.SelectedActivity
		unresolved []string
		used       = map[int]bool{}
	)
	for _, p := range proposals {
		idx := lookup(candidates, p)
		switch {
		case idx < 0:
			unresolved = append(unresolved, fmt.Sprintf("%q is not one of the candidates", p.Title))
		case used[idx]:
			unresolved = append(unresolved, fmt.Sprintf("%q was selected more than once", candidates[idx].Title))
		default:
			used[idx] = true
			sel := types.SelectedActivity{
				CandidateActivity: candidates[idx],
				TimeWindow:        strings.TrimSpace(p.Time),
			}
			picks = append(picks, sel.Clone())
		}
	}
	return picks, unresolved
}

func lookup(candidates []types.CandidateActivity, p proposedActivity) int {
	title := strings.TrimSpace(p.Title)
	if p.Ref != nil && *p.Ref >= 0 && *p.Ref < len(candidates) {
		if title == "" || strings.EqualFold(candidates[*p.Ref].Title, title) {
			return *p.Ref
		}
	}
	for i, c := range candidates {
		if strings.EqualFold(c.Title, title) {
			return i
		}
	}
	return -1
}

// repair drops repeated meal types and trims the selection to its maximum.
// A selection left below its minimum is topped up, in candidate order, with
// unused candidates that do not repeat a meal. Added activities carry no time
// window and follow the model's picks.
func repair(picks []types.SelectedActivity, candidates []types.CandidateActivity, venueSpecific bool) []types.SelectedActivity {
	out := picks[:0:0]
	seenMeal := map[string]bool{}
	for _, p := range picks {
		if meal := MealType(p.CandidateActivity); meal != "" && !venueSpecific {
			if seenMeal[meal] {
				continue
			}
			seenMeal[meal] = true
		}
		out = append(out, p)
	}
	minN, maxN := countBounds(len(candidates), venueSpecific)
	if len(out) > maxN {
		out = out[:maxN]
	}
	if len(out) >= minN {
		return out
	}

	orderByStart(out)
	for _, c := range candidates {
		if len(out) >= minN {
			break
		}
		if selected(out, c) {
			continue
		}
		if meal := MealType(c); meal != "" && !venueSpecific {
			if seenMeal[meal] {
				continue
			}
			seenMeal[meal] = true
		}
		out = append(out, types.SelectedActivity{CandidateActivity: c}.Clone())
	}
	return out
}

func selected(picks []types.SelectedActivity, c types.CandidateActivity) bool {
	for _, p := range picks {
		if sameCandidate(p.CandidateActivity, c) {
			return true
		}
	}
	return false
}

// orderByStart sorts by time window start when every window parses.
func orderByStart(picks []types.SelectedActivity) {
	starts := make([]time.Time, len(picks))
	for i, p := range picks {
		start, _, _, _, ok := parseTimeWindow(p.TimeWindow)
		if !ok {
			return
		}
		starts[i] = start
	}
	idx := make([]int, len(picks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return starts[idx[a]].Before(starts[idx[b]]) })
	sorted := make([]types.SelectedActivity, len(picks))
	for i, j := range idx {
		sorted[i] = picks[j]
	}
	copy(picks, sorted)
}
