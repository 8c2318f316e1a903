package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	GenerationRequestsTotal   metric.Int64Counter
	GenerationDurationSeconds metric.Float64Histogram
	CandidatesRetrieved       metric.Int64Histogram
	SourceFailuresTotal       metric.Int64Counter
	SelectionRetriesTotal     metric.Int64Counter
	LLMCallDurationSeconds    metric.Float64Histogram
	LLMCallErrorsTotal        metric.Int64Counter
	DbQueryDurationSeconds    metric.Float64Histogram
	DbQueryErrorsTotal        metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments once, using the
// globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("SGItineraryCurator")
		m := &AppMetrics{}

		m.GenerationRequestsTotal = must(meter.Int64Counter(
			"itinerary_generation_requests_total",
			metric.WithDescription("Total number of itinerary generation requests by outcome"),
			metric.WithUnit("{request}"),
		))
		m.GenerationDurationSeconds = must(meter.Float64Histogram(
			"itinerary_generation_duration_seconds",
			metric.WithDescription("End-to-end duration of the curation pipeline"),
			metric.WithUnit("s"),
		))
		m.CandidatesRetrieved = must(meter.Int64Histogram(
			"curation_candidates_retrieved",
			metric.WithDescription("Number of candidates returned per retrieval source"),
			metric.WithUnit("{candidate}"),
		))
		m.SourceFailuresTotal = must(meter.Int64Counter(
			"curation_source_failures_total",
			metric.WithDescription("Retrieval source calls that failed or timed out"),
			metric.WithUnit("{error}"),
		))
		m.SelectionRetriesTotal = must(meter.Int64Counter(
			"curation_selection_retries_total",
			metric.WithDescription("Selection proposals rejected by local validation"),
			metric.WithUnit("{retry}"),
		))
		m.LLMCallDurationSeconds = must(meter.Float64Histogram(
			"llm_call_duration_seconds",
			metric.WithDescription("Duration of language model calls in seconds"),
			metric.WithUnit("s"),
		))
		m.LLMCallErrorsTotal = must(meter.Int64Counter(
			"llm_call_errors_total",
			metric.WithDescription("Total number of failed language model calls"),
			metric.WithUnit("{error}"),
		))
		m.DbQueryDurationSeconds = must(meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		))
		m.DbQueryErrorsTotal = must(meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		))

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

func must[T any](instrument T, err error) T {
	if err != nil {
		log.Fatalf("Metrics: failed to create instrument: %v", err)
	}
	return instrument
}

// Get returns the global instruments, initializing them on first use.
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}
