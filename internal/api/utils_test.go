package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

func TestErrorResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorResponse(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusBadGateway, "Failed to generate itinerary")

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to generate itinerary", body["error"])
	assert.Contains(t, body, "request_id")
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Query     string           `json:"free_text_query"`
		PartySize types.PartySize  `json:"party_size"`
		DateRange *types.DateRange `json:"date_range"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"free_text_query":"brunch"}`},
		{name: "empty", body: ``, wantErr: "body must not be empty"},
		{name: "unknown key", body: `{"mood":"happy"}`, wantErr: `unknown key "mood"`},
		{name: "wrong type", body: `{"free_text_query":3}`, wantErr: "incorrect JSON type"},
		{name: "trailing", body: `{"free_text_query":"a"}{}`, wantErr: "single JSON value"},
		{name: "malformed", body: `{"free_text_query":`, wantErr: "badly-formed"},
		{name: "bad date", body: `{"date_range":{"start":"2025-13-40","end":"2025-12-01"}}`, wantErr: "date_range dates must be YYYY-MM-DD"},
		{name: "date not a string", body: `{"date_range":{"start":20251201}}`, wantErr: "date_range dates must be YYYY-MM-DD"},
		{name: "bad party size", body: `{"party_size":true}`, wantErr: "party_size must be a number or a named bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst payload
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := DecodeJSONBody(httptest.NewRecorder(), r, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "brunch", dst.Query)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			assert.NotContains(t, err.Error(), "parsing time")
			assert.NotContains(t, err.Error(), "json:")
		})
	}
}

func TestParsePagination(t *testing.T) {
	page, size := ParsePagination(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = ParsePagination(httptest.NewRequest(http.MethodGet, "/?page=3&page_size=500", nil))
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxPageSize, size)

	page, size = ParsePagination(httptest.NewRequest(http.MethodGet, "/?page=-1&page_size=abc", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestVerifyAudience(t *testing.T) {
	assert.True(t, VerifyAudience(nil, ""))
	assert.False(t, VerifyAudience(nil, "authenticated"))
	assert.True(t, VerifyAudience(jwt.ClaimStrings{"anon", "authenticated"}, "authenticated"))
}
