package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

var recordColumns = []string{
	"id", "user_id", "query", "activity_categories", "budget_tier", "party_size", "personality_code",
	"nightlife_flag", "start_date", "end_date", "itinerary_data", "is_public", "created_at",
}

func sampleItinerary() types.Itinerary {
	price, lat, lng := 0.0, 1.3521, 103.8198
	link := "https://example.sg/treetop"
	return types.Itinerary{
		Title: "🌿 Green Heart of Singapore",
		Summary: types.ItinerarySummary{
			Intro:       "A slow day among the trees.",
			Description: "Canopy walks & kaya toast.",
			Budget:      "$8.50 SGD",
			Duration:    "8:00 AM – 1:00 PM (5h)",
			Area:        "MacRitchie + Tiong Bahru",
			Perks:       "1-for-1",
		},
		Activities: []types.SelectedActivity{{
			CandidateActivity: types.CandidateActivity{
				Title:       "🌳 TreeTop Walk at MacRitchie Reservoir",
				Description: "A free suspension bridge <250m> above the canopy.",
				Location:    "MacRitchie",
				Price:       &price,
				Tags:        []string{"outdoor", "nature"},
				SourceKind:  types.SourceWeb,
				SourceLink:  &link,
			},
			SequenceID:  1,
			TimeWindow:  "8:00 AM - 10:30 AM",
			Coordinates: &types.Coordinates{Lat: lat, Lng: lng},
			PriceLabel:  "Free",
		}},
	}
}

func samplePreferences() types.Preferences {
	start := time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)
	return types.Preferences{
		Query:           "plan my weekend",
		Categories:      []string{"Outdoor"},
		BudgetTier:      1,
		PartySize:       types.PartyDate,
		PersonalityCode: "INFP",
		DateRange:       &types.DateRange{Start: types.Date{Time: start}, End: types.Date{Time: start.AddDate(0, 0, 1)}},
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()
	repo := NewPostgresRepository(pool, testLogger)

	id, userID := uuid.New(), uuid.New()
	prefs, itin := samplePreferences(), sampleItinerary()
	data, err := json.Marshal(itin)
	require.NoError(t, err)
	personality := "INFP"

	pool.ExpectQuery("INSERT INTO itineraries").
		WithArgs(userID, "plan my weekend", []string{"Outdoor"}, 1, "date", &personality, false,
			&prefs.DateRange.Start.Time, &prefs.DateRange.End.Time, data, false).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

	gotID, err := repo.Create(context.Background(), types.ItineraryRecord{RequesterID: userID, Preferences: prefs, Itinerary: itin})
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	created := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	pool.ExpectQuery("SELECT (.+) FROM itineraries WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(recordColumns).AddRow(
			id, userID, "plan my weekend", []string{"Outdoor"}, 1, "date", &personality, false,
			&prefs.DateRange.Start.Time, &prefs.DateRange.End.Time, data, false, created,
		))

	rec, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, userID, rec.RequesterID)
	assert.Equal(t, prefs, rec.Preferences)
	assert.Equal(t, created, rec.CreatedAt)

	wantActivities, _ := json.Marshal(itin.Activities)
	gotActivities, _ := json.Marshal(rec.Itinerary.Activities)
	assert.Equal(t, string(wantActivities), string(gotActivities))

	wantSummary, _ := json.Marshal(itin.Summary)
	gotSummary, _ := json.Marshal(rec.Itinerary.Summary)
	assert.Equal(t, string(wantSummary), string(gotSummary))

	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRepositoryCreateMinimal(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()
	repo := NewPostgresRepository(pool, testLogger)

	userID := uuid.New()
	pool.ExpectQuery("INSERT INTO itineraries").
		WithArgs(userID, "", []string{}, 0, "", (*string)(nil), true,
			(*time.Time)(nil), (*time.Time)(nil), pgxmock.AnyArg(), false).
		WillReturnError(errors.New("check constraint violated"))

	_, err = repo.Create(context.Background(), types.ItineraryRecord{
		RequesterID: userID,
		Preferences: types.Preferences{Nightlife: true},
	})
	assert.ErrorContains(t, err, "check constraint violated")
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	id := uuid.New()
	pool.ExpectQuery("SELECT (.+) FROM itineraries").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgresRepository(pool, testLogger).GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRepositoryGetByIDNullColumns(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	id, userID := uuid.New(), uuid.New()
	pool.ExpectQuery("SELECT (.+) FROM itineraries").WithArgs(id).
		WillReturnRows(pgxmock.NewRows(recordColumns).AddRow(
			id, userID, "", []string{"Culture"}, 3, "", nil, true, nil, nil,
			[]byte(`{"title":"x","summary":{},"activities":[]}`), true, time.Now(),
		))

	rec, err := NewPostgresRepository(pool, testLogger).GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, rec.Preferences.PersonalityCode)
	assert.Nil(t, rec.Preferences.DateRange)
	assert.True(t, rec.Preferences.Nightlife)
	assert.True(t, rec.IsPublic)
	assert.Equal(t, "x", rec.Itinerary.Title)
}

func TestRepositoryList(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()
	repo := NewPostgresRepository(pool, testLogger)

	userID := uuid.New()
	now := time.Now()
	summaryCols := []string{"id", "user_id", "query", "activity_categories", "budget_tier", "title", "is_public", "created_at"}

	t.Run("history", func(t *testing.T) {
		pool.ExpectQuery(`SELECT COUNT\(\*\) FROM itineraries WHERE user_id = \$1`).WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
		pool.ExpectQuery("SELECT (.+) FROM itineraries WHERE user_id = \\$1 ORDER BY created_at DESC").
			WithArgs(userID, 2, 2).
			WillReturnRows(pgxmock.NewRows(summaryCols).
				AddRow(uuid.New(), userID, "brunch spots", []string{}, 2, "Brunch Hop", false, now))

		items, total, err := repo.ListByUser(context.Background(), userID, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, items, 1)
		assert.Equal(t, "Brunch Hop", items[0].Title)
	})

	t.Run("public feed empty", func(t *testing.T) {
		pool.ExpectQuery(`SELECT COUNT\(\*\) FROM itineraries WHERE is_public`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
		pool.ExpectQuery("SELECT (.+) FROM itineraries WHERE is_public ORDER BY").
			WithArgs(20, 0).
			WillReturnRows(pgxmock.NewRows(summaryCols))

		items, total, err := repo.ListPublic(context.Background(), 20, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("count failure", func(t *testing.T) {
		pool.ExpectQuery(`SELECT COUNT\(\*\)`).WithArgs(userID).WillReturnError(errors.New("timeout"))
		_, _, err := repo.ListByUser(context.Background(), userID, 20, 0)
		assert.ErrorContains(t, err, "failed to count itineraries")
	})

	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRepositoryUpdateAndDelete(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()
	repo := NewPostgresRepository(pool, testLogger)
	id := uuid.New()

	pool.ExpectExec("UPDATE itineraries SET is_public").WithArgs(true, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateVisibility(context.Background(), id, true))

	pool.ExpectExec("UPDATE itineraries SET is_public").WithArgs(false, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdateVisibility(context.Background(), id, false), ErrNotFound)

	pool.ExpectExec("DELETE FROM itineraries").WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	pool.ExpectExec("DELETE FROM itineraries").WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)

	assert.NoError(t, pool.ExpectationsWereMet())
}
