package types

// SourceKind identifies which retrieval source produced a candidate.
type SourceKind string

const (
	SourceCatalog SourceKind = "catalog"
	SourceWeb     SourceKind = "web"
)

// CandidateActivity is an unselected activity returned by a retrieval source.
type CandidateActivity struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Location         string     `json:"location_text"`
	VenueName        string     `json:"venue_name"`
	Price            *float64   `json:"price"`
	Tags             []string   `json:"tags"`
	DurationHours    *float64   `json:"duration_hours"`
	OfferKind        string     `json:"offer_kind"`
	OfferValidityEnd *string    `json:"offer_validity_end"`
	SourceChannel    string     `json:"source_channel"`
	SourceKind       SourceKind `json:"source_kind"`
	SourceLink       *string    `json:"source_link"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
}

// HasCoordinates reports whether the source supplied both lat and lng.
func (c CandidateActivity) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SelectedActivity is a candidate placed on the day's timeline.
type SelectedActivity struct {
	CandidateActivity
	SequenceID  int          `json:"id"`
	TimeWindow  string       `json:"time"`
	Coordinates *Coordinates `json:"coordinates"`
	PriceLabel  string       `json:"price_label,omitempty"`
}

// Clone returns a deep copy so callers can modify slices and pointers freely.
func (s SelectedActivity) Clone() SelectedActivity {
	out := s
	out.Tags = append([]string(nil), s.Tags...)
	out.Price = cloneFloat(s.Price)
	out.DurationHours = cloneFloat(s.DurationHours)
	out.Latitude = cloneFloat(s.Latitude)
	out.Longitude = cloneFloat(s.Longitude)
	if s.OfferValidityEnd != nil {
		v := *s.OfferValidityEnd
		out.OfferValidityEnd = &v
	}
	if s.SourceLink != nil {
		v := *s.SourceLink
		out.SourceLink = &v
	}
	if s.Coordinates != nil {
		c := *s.Coordinates
		out.Coordinates = &c
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// VenueQuery is the outcome of classifying the free-text query. VenueType is
// the matched venue phrase, e.g. "brunch spots" or "rooftop bar".
type VenueQuery struct {
	Specific  bool
	VenueType string
}
