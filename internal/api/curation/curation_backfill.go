package curation

import (
	"math"
	"math/rand/v2"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

const kmPerDegree = 111.0

// Backfiller fills missing coordinates with a random point near the city
// anchor. This is placeholder geocoding: a backfilled point does not reflect
// where the venue actually is.
type Backfiller struct {
	anchor   types.Coordinates
	radiusKm float64
	rnd      func() float64
}

// NewBackfiller returns a Backfiller. A nil rnd uses math/rand/v2.
func NewBackfiller(anchor types.Coordinates, radiusKm float64, rnd func() float64) *Backfiller {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &Backfiller{anchor: anchor, radiusKm: radiusKm, rnd: rnd}
}

// Apply sets Coordinates on every activity. Source coordinates are kept
// unless they are missing or equal to the anchor, which means "unset".
func (b *Backfiller) Apply(acts []types.SelectedActivity) {
	for i := range acts {
		a := &acts[i]
		if a.HasCoordinates() && !(*a.Latitude == b.anchor.Lat && *a.Longitude == b.anchor.Lng) {
			a.Coordinates = &types.Coordinates{Lat: *a.Latitude, Lng: *a.Longitude}
			continue
		}
		p := b.randomPoint()
		a.Coordinates = &p
	}
}

// randomPoint samples uniformly over the disc around the anchor.
func (b *Backfiller) randomPoint() types.Coordinates {
	angle := b.rnd() * 2 * math.Pi
	dist := math.Sqrt(b.rnd()) * b.radiusKm

	dLat := dist * math.Cos(angle) / kmPerDegree
	dLng := dist * math.Sin(angle) / (kmPerDegree * math.Cos(b.anchor.Lat*math.Pi/180))

	return types.Coordinates{
		Lat: round(b.anchor.Lat+dLat, 6),
		Lng: round(b.anchor.Lng+dLng, 6),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// DistanceKm is the equirectangular distance used for the backfill radius.
func DistanceKm(a, b types.Coordinates) float64 {
	dLat := (a.Lat - b.Lat) * kmPerDegree
	dLng := (a.Lng - b.Lng) * kmPerDegree * math.Cos(b.Lat*math.Pi/180)
	return math.Hypot(dLat, dLng)
}
