package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// PartySize is the group-size bucket of a request. It accepts either a JSON
// number (head count) or one of the named buckets.
type PartySize string

const (
	PartySolo       PartySize = "solo"
	PartyDate       PartySize = "date"
	PartyDoubleDate PartySize = "double-date"
	PartySmallGroup PartySize = "3-5"
	PartyGroup      PartySize = "6-7"
	PartyLargeGroup PartySize = "8+"
)

var partyBuckets = map[PartySize]struct{}{
	PartySolo: {}, PartyDate: {}, PartyDoubleDate: {}, PartySmallGroup: {}, PartyGroup: {}, PartyLargeGroup: {},
}

// PartySizeFromCount maps a head count onto its bucket.
func PartySizeFromCount(n int) PartySize {
	switch {
	case n <= 1:
		return PartySolo
	case n == 2:
		return PartyDate
	case n <= 5:
		return PartySmallGroup
	case n <= 7:
		return PartyGroup
	default:
		return PartyLargeGroup
	}
}

// Valid reports whether p is empty or a known bucket.
func (p PartySize) Valid() bool {
	if p == "" {
		return true
	}
	_, ok := partyBuckets[p]
	return ok
}

func (p *PartySize) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrMalformedPartySize
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if n, err := strconv.Atoi(s); err == nil {
			*p = PartySizeFromCount(n)
			return nil
		}
		*p = PartySize(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrMalformedPartySize
	}
	*p = PartySizeFromCount(n)
	return nil
}

// PersonalityCodes lists the 16 accepted MBTI codes.
var PersonalityCodes = []string{
	"ENFP", "INFP", "ENTP", "INTP", "ENFJ", "INFJ", "ENTJ", "INTJ",
	"ESFP", "ISFP", "ESTP", "ISTP", "ESFJ", "ISFJ", "ESTJ", "ISTJ",
}

// Date is a calendar date serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrMalformedDate
	}
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		// tolerate full ISO8601 timestamps coming from date pickers
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return ErrMalformedDate
	}
	d.Time = t
	return nil
}

type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Preferences is the request to generate an itinerary. It is not modified
// once validated.
type Preferences struct {
	Query           string     `json:"free_text_query"`
	Categories      []string   `json:"activity_categories,omitempty"`
	BudgetTier      int        `json:"budget_tier"`
	PartySize       PartySize  `json:"party_size,omitempty"`
	PersonalityCode string     `json:"personality_code,omitempty"`
	Nightlife       bool       `json:"nightlife_flag"`
	DateRange       *DateRange `json:"date_range,omitempty"`
}

var (
	ErrInvalidBudget      = errors.New("budget_tier must be between 0 and 4")
	ErrInvalidPartySize   = errors.New("party_size is not a recognised group size")
	ErrInvalidPersonality = errors.New("personality_code is not a recognised MBTI type")
	ErrInvalidDateRange   = errors.New("date_range start must not be after end")
	ErrEmptyPreferences   = errors.New("a query or at least one activity category is required")
)

// Decoding errors. Their text is returned to clients as is.
var (
	ErrMalformedDate      = errors.New("date_range dates must be YYYY-MM-DD")
	ErrMalformedPartySize = errors.New("party_size must be a number or a named bucket")
)

// Normalize trims and upper-cases free-form fields in place.
func (p *Preferences) Normalize() {
	p.Query = strings.TrimSpace(p.Query)
	p.PersonalityCode = strings.ToUpper(strings.TrimSpace(p.PersonalityCode))
	cats := p.Categories[:0]
	for _, c := range p.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	p.Categories = cats
}

// Validate checks the ranges and enumerations of the request.
func (p Preferences) Validate() error {
	if p.Query == "" && len(p.Categories) == 0 {
		return ErrEmptyPreferences
	}
	if p.BudgetTier < 0 || p.BudgetTier > 4 {
		return ErrInvalidBudget
	}
	if !p.PartySize.Valid() {
		return ErrInvalidPartySize
	}
	if p.PersonalityCode != "" {
		found := false
		for _, c := range PersonalityCodes {
			if c == p.PersonalityCode {
				found = true
				break
			}
		}
		if !found {
			return ErrInvalidPersonality
		}
	}
	if p.DateRange != nil && p.DateRange.Start.After(p.DateRange.End.Time) {
		return ErrInvalidDateRange
	}
	return nil
}

var budgetLabels = []string{
	"Broke (<$30/person)",
	"Budget ($30-50)",
	"Moderate ($50-75)",
	"Comfortable ($75-100)",
	"Baller ($100+)",
}

// BudgetLabel returns the human label for a budget tier, or "" when out of range.
func BudgetLabel(tier int) string {
	if tier < 0 || tier >= len(budgetLabels) {
		return ""
	}
	return budgetLabels[tier]
}
