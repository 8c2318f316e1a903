package curation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

var anchor = types.Coordinates{Lat: 1.290270, Lng: 103.851959}

// sequence returns a rand source cycling through values.
func sequence(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestBackfillerApply(t *testing.T) {
	t.Run("missing coordinates land within radius", func(t *testing.T) {
		b := NewBackfiller(anchor, 2, nil)
		acts := make([]types.SelectedActivity, 200)
		b.Apply(acts)

		for _, a := range acts {
			require.NotNil(t, a.Coordinates)
			assert.LessOrEqual(t, DistanceKm(*a.Coordinates, anchor), 2.0001)
		}
	})

	t.Run("source coordinates kept exactly", func(t *testing.T) {
		acts := selectedOf(weekendCandidates()[0])
		NewBackfiller(anchor, 2, nil).Apply(acts)

		require.NotNil(t, acts[0].Coordinates)
		assert.Equal(t, types.Coordinates{Lat: 1.2845, Lng: 103.8326}, *acts[0].Coordinates)
	})

	t.Run("anchor coordinates count as unset", func(t *testing.T) {
		acts := selectedOf(types.CandidateActivity{Latitude: ptr(anchor.Lat), Longitude: ptr(anchor.Lng)})
		NewBackfiller(anchor, 2, sequence(0.25, 1)).Apply(acts)

		require.NotNil(t, acts[0].Coordinates)
		assert.NotEqual(t, anchor, *acts[0].Coordinates)
	})

	t.Run("only one coordinate is treated as missing", func(t *testing.T) {
		acts := selectedOf(types.CandidateActivity{Latitude: ptr(1.3)})
		NewBackfiller(anchor, 2, sequence(0, 0)).Apply(acts)
		assert.Equal(t, anchor, *acts[0].Coordinates)
	})

	t.Run("deterministic with injected source", func(t *testing.T) {
		acts := make([]types.SelectedActivity, 1)
		// angle 0, full radius: due north by 2 km
		NewBackfiller(anchor, 2, sequence(0, 1)).Apply(acts)

		c := *acts[0].Coordinates
		assert.Equal(t, round(anchor.Lat+2/kmPerDegree, 6), c.Lat)
		assert.Equal(t, anchor.Lng, c.Lng)
		assert.InDelta(t, 2.0, DistanceKm(c, anchor), 0.001)
	})

	t.Run("rounded to six decimals", func(t *testing.T) {
		acts := make([]types.SelectedActivity, 1)
		NewBackfiller(anchor, 2, sequence(0.3, 0.7)).Apply(acts)
		c := *acts[0].Coordinates
		assert.Equal(t, round(c.Lat, 6), c.Lat)
		assert.Equal(t, round(c.Lng, 6), c.Lng)
	})
}
