package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

func TestBuild(t *testing.T) {
	t.Run("full preferences in order", func(t *testing.T) {
		got := Build(types.Preferences{
			Query:           "chill sunday",
			Categories:      []string{"Outdoor", "Food"},
			BudgetTier:      2,
			PartySize:       types.PartyDate,
			PersonalityCode: "istj",
			Nightlife:       true,
		})
		assert.Equal(t,
			"chill sunday outdoor food moderate mid-range romantic couple date intimate "+
				"organized reliable practical detail-oriented nightlife drinks bar club cocktail evening party",
			got)
	})

	t.Run("empty preferences still produce budget keywords", func(t *testing.T) {
		assert.Equal(t, "cheap budget free affordable broke", Build(types.Preferences{}))
	})

	t.Run("unknown enums are ignored", func(t *testing.T) {
		got := Build(types.Preferences{Query: "museums", BudgetTier: 9, PartySize: "crowd", PersonalityCode: "XXXX"})
		assert.Equal(t, "museums", got)
	})

	t.Run("query comes first", func(t *testing.T) {
		got := Build(types.Preferences{Query: "brunch spots", Categories: []string{"Food"}, BudgetTier: 4})
		assert.True(t, strings.HasPrefix(got, "brunch spots food premium"))
	})
}

func TestBuildNightlifeAlwaysPresent(t *testing.T) {
	queries := []string{"", "museum day", "rooftop bar", "plan my weekend"}
	for budget := 0; budget <= 4; budget++ {
		for _, q := range queries {
			got := Build(types.Preferences{Query: q, BudgetTier: budget, Nightlife: true, PartySize: types.PartyLargeGroup})
			for _, kw := range NightlifeKeywords {
				assert.Contains(t, got, kw)
			}
		}
	}
	assert.NotContains(t, Build(types.Preferences{Query: "museum"}), "nightlife")
}

func TestClassifyVenue(t *testing.T) {
	tests := []struct {
		query     string
		specific  bool
		venueType string
	}{
		{"brunch spots", true, "brunch spots"},
		{"Best BRUNCH  places in Tiong Bahru", true, "brunch places"},
		{"where to eat near Bugis", true, ""},
		{"quiet café to read", true, "cafe"},
		{"rooftop bar with a view", true, "rooftop bar"},
		{"hawker centre for supper", true, "supper"},
		{"plan my weekend", false, ""},
		{"plan my day with brunch and a museum", false, ""},
		{"things to do in Sentosa", false, ""},
		{"artsy afternoon", false, ""},
		{"barbecue by the beach", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ClassifyVenue(tt.query)
			assert.Equal(t, tt.specific, got.Specific)
			if tt.venueType != "" {
				assert.Equal(t, tt.venueType, got.VenueType)
			}
		})
	}
}
