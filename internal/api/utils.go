package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	maxBodyBytes = 1 << 20
)

// errorEnvelope is the body of every non-2xx response.
type errorEnvelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// ErrorResponse writes the JSON error envelope, tagged with the request id.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSONResponse(w, r, status, errorEnvelope{
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// WriteJSONResponse encodes data as the response body. 204 responses carry
// no body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	l := slog.Default().With(slog.String("request_id", middleware.GetReqID(r.Context())))
	payload, err := json.Marshal(data)
	if err != nil {
		l.ErrorContext(r.Context(), "Failed to encode response", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(payload); err != nil {
		l.WarnContext(r.Context(), "Failed to write response body", slog.Any("error", err))
	}
}

// DecodeJSONBody decodes exactly one JSON object from the request into dst,
// rejecting unknown fields and bodies over 1 MiB. The returned error text is
// safe to show to clients.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return describeDecodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func describeDecodeError(err error) error {
	var (
		syntaxErr    *json.SyntaxError
		typeErr      *json.UnmarshalTypeError
		tooLargeErr  *http.MaxBytesError
		badTargetErr *json.InvalidUnmarshalError
	)
	switch {
	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", typeErr.Offset)
		}
		return fmt.Errorf("body contains incorrect JSON type for field %q", typeErr.Field)
	case errors.As(err, &tooLargeErr):
		return fmt.Errorf("body must not be larger than %d bytes", tooLargeErr.Limit)
	case errors.As(err, &badTargetErr):
		panic(fmt.Errorf("DecodeJSONBody called with a non-pointer destination: %w", err))
	}

	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return fmt.Errorf("body contains unknown key %s", field)
	}
	for _, known := range decodeErrors {
		if errors.Is(err, known) {
			return known
		}
	}
	return errors.New("body contains invalid JSON values")
}

var decodeErrors = []error{types.ErrMalformedDate, types.ErrMalformedPartySize}

// ParsePagination reads page and page_size query parameters, falling back
// to page 1 and DefaultPageSize and capping the size at MaxPageSize.
func ParsePagination(r *http.Request) (page, pageSize int) {
	page, pageSize = 1, DefaultPageSize
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && ps > 0 {
		pageSize = min(ps, MaxPageSize)
	}
	return page, pageSize
}

// VerifyAudience accepts any audience when none is configured.
func VerifyAudience(claimsAudience jwt.ClaimStrings, expectedAudience string) bool {
	return expectedAudience == "" || slices.Contains(claimsAudience, expectedAudience)
}
