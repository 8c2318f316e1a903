package curation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-sg-itinerary-curator/config"
	generativeAI "github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/generative_ai"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/websearch"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

type serviceDeps struct {
	catalog  *MockCatalog
	web      *MockWeb
	saver    *MockSaver
	proposer generativeAI.Proposer
}

func newTestService(d serviceDeps) *ServiceImpl {
	return NewService(
		d.catalog,
		d.web,
		newTestSelector(d.proposer, 2),
		newTestEnhancer(d.proposer),
		NewBackfiller(anchor, 2, nil),
		d.saver,
		config.CurationConfig{City: "Singapore"},
		time.Second,
		testLogger,
	)
}

func weekendProposer(selection string) *funcProposer {
	return &funcProposer{tasks: map[string]func(generativeAI.Request) (*generativeAI.Response, error){
		TaskSelection: func(generativeAI.Request) (*generativeAI.Response, error) {
			return textResponse(selection), nil
		},
		TaskEnhancement: echoEnhancement,
		TaskSummary:     fixedSummary,
	}}
}

// Refs index into weekendCandidates followed by webCandidates. The model
// repeats lunch on every attempt.
const weekendSelection = `{"venue_specific":false,"activities":[
	{"candidate_ref":0,"title":"Brunch at Tiong Bahru Bakery","time":"9:00 AM - 10:30 AM"},
	{"candidate_ref":1,"title":"TreeTop Walk at MacRitchie Reservoir","time":"11:00 AM - 12:30 PM"},
	{"candidate_ref":2,"title":"Lunch at Maxwell Food Centre","time":"1:00 PM - 2:00 PM"},
	{"candidate_ref":3,"title":"Lunch at Lau Pa Sat","time":"2:30 PM - 3:30 PM"},
	{"candidate_ref":5,"title":"Dinner at Jumbo Seafood","time":"6:30 PM - 8:00 PM"},
	{"candidate_ref":6,"title":"Garden Rhapsody at Gardens by the Bay","time":"8:15 PM - 9:00 PM"}
]}`

func TestGenerateWeekendScenario(t *testing.T) {
	requester := uuid.New()
	savedID := uuid.New()

	d := serviceDeps{
		catalog:  new(MockCatalog),
		web:      new(MockWeb),
		saver:    new(MockSaver),
		proposer: weekendProposer(weekendSelection),
	}
	d.catalog.On("Retrieve", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.HasPrefix(q, "plan my weekend outdoor food")
	}), types.VenueQuery{}).Return(weekendCandidates(), nil).Once()
	d.web.On("Search", mock.Anything, mock.AnythingOfType("string")).Return(webCandidates(), nil).Once()
	d.saver.On("Save", mock.Anything, requester, mock.AnythingOfType("types.Preferences"), mock.AnythingOfType("types.Itinerary")).
		Return(savedID, nil).Once()

	prefs := types.Preferences{
		Query:      "plan my weekend",
		Categories: []string{"Outdoor", "Food"},
		BudgetTier: 0,
		PartySize:  types.PartySizeFromCount(4),
	}
	result, err := newTestService(d).Generate(context.Background(), requester, prefs)
	require.NoError(t, err)

	assert.True(t, result.Saved)
	require.NotNil(t, result.ItineraryID)
	assert.Equal(t, savedID, *result.ItineraryID)
	assert.Empty(t, result.Notice)

	acts := result.Itinerary.Activities
	assert.GreaterOrEqual(t, len(acts), 4)
	assert.LessOrEqual(t, len(acts), 6)

	free := 0
	meals := map[string]int{}
	for _, a := range acts {
		if a.PriceLabel == "Free" {
			free++
		}
		if m := MealType(a.CandidateActivity); m != "" {
			meals[m]++
		}
		require.NotNil(t, a.Coordinates, "%s has no coordinates", a.Title)
		if a.HasCoordinates() {
			assert.Equal(t, types.Coordinates{Lat: *a.Latitude, Lng: *a.Longitude}, *a.Coordinates)
		} else {
			assert.LessOrEqual(t, DistanceKm(*a.Coordinates, anchor), 2.0001)
		}
	}
	assert.GreaterOrEqual(t, free, 1)
	for meal, n := range meals {
		assert.Equal(t, 1, n, "duplicate %s", meal)
	}
	assert.Equal(t, "Lazy Sunday in the City", result.Itinerary.Title)
	assert.NotEmpty(t, result.Itinerary.Summary.Budget)

	d.catalog.AssertExpectations(t)
	d.web.AssertExpectations(t)
	d.saver.AssertExpectations(t)
}

func TestGenerateBrunchScenario(t *testing.T) {
	d := serviceDeps{
		catalog: new(MockCatalog),
		web:     new(MockWeb),
		saver:   new(MockSaver),
		proposer: weekendProposer(`{"venue_specific":true,"activities":[
			{"candidate_ref":0,"title":"Brunch at Wild Honey","time":"10:00 AM - 11:30 AM"},
			{"candidate_ref":2,"title":"Common Man Coffee Roasters","time":"9:00 AM - 10:00 AM"},
			{"candidate_ref":3,"title":"Singapore Botanic Gardens","time":"12:00 PM - 1:00 PM"}
		]}`),
	}
	d.catalog.On("Retrieve", mock.Anything, mock.Anything, types.VenueQuery{Specific: true, VenueType: "brunch spots"}).
		Return(brunchCandidates(), nil).Once()
	d.web.On("Search", mock.Anything, mock.Anything).Return(nil, websearch.ErrDisabled).Once()

	prefs := types.Preferences{Query: "brunch spots", BudgetTier: 2, PartySize: types.PartySizeFromCount(2)}
	result, err := newTestService(d).Generate(context.Background(), uuid.Nil, prefs)
	require.NoError(t, err)

	assert.False(t, result.Saved)
	assert.Nil(t, result.ItineraryID)
	assert.Equal(t, anonymousNotice, result.Notice)

	acts := result.Itinerary.Activities
	assert.GreaterOrEqual(t, len(acts), 1)
	assert.LessOrEqual(t, len(acts), 2)
	for _, a := range acts {
		assert.True(t, MealType(a.CandidateActivity) == "brunch" || containsTag(a.Tags, "cafe"))
		require.NotNil(t, a.Coordinates)
	}
	d.saver.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateNoCandidates(t *testing.T) {
	p := new(MockProposer)
	d := serviceDeps{catalog: new(MockCatalog), web: new(MockWeb), saver: new(MockSaver), proposer: p}
	d.catalog.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()
	d.web.On("Search", mock.Anything, mock.Anything).Return([]types.CandidateActivity{}, nil).Once()

	result, err := newTestService(d).Generate(context.Background(), uuid.New(), weekendPrefs)
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.Nil(t, result)
	p.AssertNotCalled(t, "Propose", mock.Anything, mock.Anything)
	d.saver.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateOneSourceDown(t *testing.T) {
	d := serviceDeps{
		catalog: new(MockCatalog),
		web:     new(MockWeb),
		saver:   new(MockSaver),
		proposer: weekendProposer(`{"activities":[
			{"candidate_ref":0,"title":"Garden Rhapsody at Gardens by the Bay","time":"7:45 PM - 8:30 PM"}
		]}`),
	}
	d.catalog.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	d.web.On("Search", mock.Anything, mock.Anything).Return(webCandidates(), nil).Once()

	result, err := newTestService(d).Generate(context.Background(), uuid.Nil, types.Preferences{Query: "light show"})
	require.NoError(t, err)
	require.Len(t, result.Itinerary.Activities, 1)

	a := result.Itinerary.Activities[0]
	assert.Nil(t, a.Latitude)
	require.NotNil(t, a.Coordinates)
	assert.LessOrEqual(t, DistanceKm(*a.Coordinates, anchor), 2.0001)
}

func TestGenerateSourcesRunConcurrently(t *testing.T) {
	d := serviceDeps{
		catalog:  new(MockCatalog),
		web:      new(MockWeb),
		saver:    new(MockSaver),
		proposer: weekendProposer(weekendSelection),
	}
	d.catalog.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).
		After(300*time.Millisecond).Return(weekendCandidates(), nil).Once()
	d.web.On("Search", mock.Anything, mock.Anything).
		After(300*time.Millisecond).Return(webCandidates(), nil).Once()

	start := time.Now()
	_, err := newTestService(d).Generate(context.Background(), uuid.Nil, weekendPrefs)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 550*time.Millisecond)
}

func TestGenerateSelectionFailure(t *testing.T) {
	p := new(MockProposer)
	p.On("Propose", mock.Anything, taskIs(TaskSelection)).Return(nil, errors.New("upstream 500"))

	d := serviceDeps{catalog: new(MockCatalog), web: new(MockWeb), saver: new(MockSaver), proposer: p}
	d.catalog.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).Return(weekendCandidates(), nil).Once()
	d.web.On("Search", mock.Anything, mock.Anything).Return(nil, nil).Once()

	_, err := newTestService(d).Generate(context.Background(), uuid.New(), weekendPrefs)
	assert.ErrorIs(t, err, ErrSelectionFailed)
	d.saver.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateSaveFailure(t *testing.T) {
	d := serviceDeps{
		catalog:  new(MockCatalog),
		web:      new(MockWeb),
		saver:    new(MockSaver),
		proposer: weekendProposer(weekendSelection),
	}
	d.catalog.On("Retrieve", mock.Anything, mock.Anything, mock.Anything).Return(weekendCandidates(), nil).Once()
	d.web.On("Search", mock.Anything, mock.Anything).Return(webCandidates(), nil).Once()
	d.saver.On("Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(uuid.Nil, errors.New("db down")).Once()

	result, err := newTestService(d).Generate(context.Background(), uuid.New(), weekendPrefs)
	require.NoError(t, err)
	assert.False(t, result.Saved)
	assert.Equal(t, saveFailedNotice, result.Notice)
	assert.NotEmpty(t, result.Itinerary.Activities)
}

func TestGenerateInvalidPreferences(t *testing.T) {
	d := serviceDeps{catalog: new(MockCatalog), web: new(MockWeb), saver: new(MockSaver), proposer: new(MockProposer)}

	_, err := newTestService(d).Generate(context.Background(), uuid.Nil, types.Preferences{BudgetTier: 9, Query: "x"})
	assert.ErrorIs(t, err, ErrInvalidPreferences)
	assert.ErrorIs(t, err, types.ErrInvalidBudget)
	d.catalog.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything, mock.Anything)
}
