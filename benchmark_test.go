package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/curation"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api/keywords"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

func benchLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func BenchmarkGenerateAnonymous(b *testing.B) {
	stack := newTestStack(b, benchLogger())
	defer stack.Close()

	body, err := json.Marshal(saturdayPreferences())
	require.NoError(b, err)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		stack.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/itineraries/generate", bytes.NewReader(body)))
		if rr.Code != http.StatusOK {
			b.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
		}
	}
}

func BenchmarkGenerateConcurrent(b *testing.B) {
	stack := newTestStack(b, benchLogger())
	defer stack.Close()

	body, err := json.Marshal(saturdayPreferences())
	require.NoError(b, err)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			rr := httptest.NewRecorder()
			stack.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/itineraries/generate", bytes.NewReader(body)))
			if rr.Code != http.StatusOK {
				b.Errorf("unexpected status %d", rr.Code)
			}
		}
	})
}

func BenchmarkKeywordBuild(b *testing.B) {
	prefs := saturdayPreferences()
	prefs.PersonalityCode = "ENFP"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = keywords.Build(prefs)
		_ = keywords.ClassifyVenue(prefs.Query)
	}
}

func BenchmarkItineraryMetadata(b *testing.B) {
	price := func(v float64) *float64 { return &v }
	acts := []types.SelectedActivity{
		{CandidateActivity: types.CandidateActivity{Title: "Brunch at Tiong Bahru Bakery", Location: "Tiong Bahru", Price: price(18)}, TimeWindow: "9:00 AM - 10:30 AM"},
		{CandidateActivity: types.CandidateActivity{Title: "Lunch at Maxwell Food Centre", Location: "Chinatown", Price: price(8)}, TimeWindow: "12:30 PM - 1:30 PM"},
		{CandidateActivity: types.CandidateActivity{Title: "Dinner at Jumbo Seafood", Location: "Clarke Quay", Price: price(60), Description: "1-for-1 chilli crab, 10% off"}, TimeWindow: "7:30 PM - 9:00 PM"},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = curation.Metadata(acts)
	}
}
