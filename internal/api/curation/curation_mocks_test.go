package curation

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	generativeAI "github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/generative_ai"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

type MockProposer struct {
	mock.Mock
}

func (m *MockProposer) Propose(ctx context.Context, req generativeAI.Request) (*generativeAI.Response, error) {
	args := m.Called(ctx, req)
	var resp *generativeAI.Response
	if r := args.Get(0); r != nil {
		resp = r.(*generativeAI.Response)
	}
	return resp, args.Error(1)
}

func (m *MockProposer) Model() string { return "test-model" }

func taskIs(task string) any {
	return mock.MatchedBy(func(req generativeAI.Request) bool { return req.Task == task })
}

func textResponse(text string) *generativeAI.Response {
	return &generativeAI.Response{Text: text, Model: "test-model"}
}

// funcProposer answers each task with a function, for pipeline tests where
// the answer depends on the prompt.
type funcProposer struct {
	mu    sync.Mutex
	calls map[string]int
	tasks map[string]func(req generativeAI.Request) (*generativeAI.Response, error)
}

func (f *funcProposer) Propose(_ context.Context, req generativeAI.Request) (*generativeAI.Response, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[req.Task]++
	f.mu.Unlock()
	return f.tasks[req.Task](req)
}

func (f *funcProposer) Model() string { return "func-model" }

func (f *funcProposer) count(task string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[task]
}

// echoEnhancement prepends an emoji to every title and prices outdoor
// activities as free and everything else at 12.5.
func echoEnhancement(req generativeAI.Request) (*generativeAI.Response, error) {
	_, data, _ := strings.Cut(req.Prompt, "ACTIVITIES:\n")
	var in []enhancementInput
	if err := json.NewDecoder(strings.NewReader(data)).Decode(&in); err != nil {
		return nil, err
	}
	out := enhancementOutput{}
	for _, a := range in {
		price := 12.5
		if a.Price != nil && *a.Price > 0 {
			price = *a.Price
		}
		for _, t := range a.Tags {
			if t == "outdoor" {
				price = 0
			}
		}
		out.Activities = append(out.Activities, enhancedActivity{Index: a.Index, Title: "✨ " + a.Title, Price: &price})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return textResponse(string(b)), nil
}

func fixedSummary(generativeAI.Request) (*generativeAI.Response, error) {
	return textResponse(`{"title":"Lazy Sunday in the City","intro":"Eat, stroll, repeat.","description":"A relaxed loop around town."}`), nil
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Retrieve(ctx context.Context, semanticQuery string, venue types.VenueQuery) ([]types.CandidateActivity, error) {
	args := m.Called(ctx, semanticQuery, venue)
	var out []types.CandidateActivity
	if v := args.Get(0); v != nil {
		out = v.([]types.CandidateActivity)
	}
	return out, args.Error(1)
}

type MockWeb struct {
	mock.Mock
}

func (m *MockWeb) Search(ctx context.Context, query string) ([]types.CandidateActivity, error) {
	args := m.Called(ctx, query)
	var out []types.CandidateActivity
	if v := args.Get(0); v != nil {
		out = v.([]types.CandidateActivity)
	}
	return out, args.Error(1)
}

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) Save(ctx context.Context, requesterID uuid.UUID, prefs types.Preferences, itinerary types.Itinerary) (uuid.UUID, error) {
	args := m.Called(ctx, requesterID, prefs, itinerary)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockService struct {
	mock.Mock
}

func (m *MockService) Generate(ctx context.Context, requesterID uuid.UUID, prefs types.Preferences) (*types.GenerateResult, error) {
	args := m.Called(ctx, requesterID, prefs)
	var out *types.GenerateResult
	if v := args.Get(0); v != nil {
		out = v.(*types.GenerateResult)
	}
	return out, args.Error(1)
}

func ptr[T any](v T) *T { return &v }

func candidate(title, description, location string, tags []string, price *float64, lat, lng *float64) types.CandidateActivity {
	return types.CandidateActivity{
		Title:         title,
		Description:   description,
		Location:      location,
		Tags:          tags,
		Price:         price,
		SourceChannel: "catalog",
		SourceKind:    types.SourceCatalog,
		Latitude:      lat,
		Longitude:     lng,
	}
}

func weekendCandidates() []types.CandidateActivity {
	return []types.CandidateActivity{
		candidate("Brunch at Tiong Bahru Bakery", "Flaky croissants and kouign-amann in a heritage estate.", "Tiong Bahru",
			[]string{"brunch", "cafe"}, ptr(18.0), ptr(1.2845), ptr(103.8326)),
		candidate("TreeTop Walk at MacRitchie Reservoir", "A free suspension bridge walk above the rainforest canopy.", "MacRitchie",
			[]string{"outdoor", "nature"}, nil, nil, nil),
		candidate("Lunch at Maxwell Food Centre", "Hainanese chicken rice at the famous Tian Tian stall.", "Chinatown",
			[]string{"lunch", "hawker"}, ptr(6.0), ptr(1.2803), ptr(103.8448)),
		candidate("Lunch at Lau Pa Sat", "Satay street under a Victorian cast-iron market.", "Raffles Place",
			[]string{"lunch", "hawker"}, ptr(12.0), nil, nil),
		candidate("National Gallery Singapore", "Southeast Asian art in the former Supreme Court.", "City Hall",
			[]string{"museum", "culture"}, ptr(20.0), ptr(1.2902), ptr(103.8515)),
		candidate("Dinner at Jumbo Seafood", "Chilli crab by the river, 10% off weekday dinners.", "Clarke Quay",
			[]string{"dinner", "seafood"}, ptr(55.0), nil, nil),
	}
}

func webCandidates() []types.CandidateActivity {
	link := "https://example.sg/gardens"
	return []types.CandidateActivity{{
		Title:       "Garden Rhapsody at Gardens by the Bay",
		Description: "Free light and sound show at the Supertree Grove, 1-for-1 drinks nearby.",
		Location:    "Marina Bay",
		VenueName:   "Gardens by the Bay",
		Tags:        []string{"outdoor", "show", "free"},
		SourceKind:  types.SourceWeb,
		SourceLink:  &link,
	}}
}

func brunchCandidates() []types.CandidateActivity {
	return []types.CandidateActivity{
		candidate("Brunch at Wild Honey", "All-day breakfast plates from around the world.", "Orchard",
			[]string{"brunch", "cafe"}, ptr(32.0), nil, nil),
		candidate("Brunch at Tiong Bahru Bakery", "Flaky croissants and kouign-amann in a heritage estate.", "Tiong Bahru",
			[]string{"brunch", "cafe"}, ptr(18.0), ptr(1.2845), ptr(103.8326)),
		candidate("Common Man Coffee Roasters", "Specialty coffee and big brunch plates.", "Robertson Quay",
			[]string{"cafe", "coffee", "brunch"}, ptr(28.0), nil, nil),
		candidate("Singapore Botanic Gardens", "UNESCO heritage garden with free entry.", "Tanglin",
			[]string{"outdoor", "nature"}, ptr(0.0), nil, nil),
	}
}
