// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the recipe
// backend.
//
// # Description
//
// This package implements Prometheus metrics for monitoring recipe
// generation. Metrics include:
//   - Request counters (by endpoint, status, error type)
//   - Generated fragment counters (by model)
//   - Latency histograms (time to first fragment, total duration)
//   - Active stream gauges
//   - Retry and retrieval outcome counters
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "kook"

// Subsystem for recipe generation metrics
const recipeSubsystem = "recipe"

// RecipeMetrics holds all Prometheus metrics for recipe generation.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring generation
// performance and resource usage. Initialize once at startup via
// InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type RecipeMetrics struct {
	// RequestsTotal counts generation requests by endpoint and status.
	// Labels: endpoint (chat_stream, chat, trending), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// FragmentsTotal counts streamed text fragments by model.
	// Labels: model
	FragmentsTotal *prometheus.CounterVec

	// TimeToFirstFragmentSeconds measures latency to first fragment.
	// Labels: endpoint
	TimeToFirstFragmentSeconds *prometheus.HistogramVec

	// StreamDurationSeconds measures total stream duration.
	// Labels: endpoint, status (success, error)
	StreamDurationSeconds *prometheus.HistogramVec

	// ActiveStreams tracks currently active streaming connections.
	// Labels: endpoint
	ActiveStreams *prometheus.GaugeVec

	// ErrorsTotal counts errors by type and endpoint.
	// Labels: endpoint, error_code (validation, llm_error, timeout, etc.)
	ErrorsTotal *prometheus.CounterVec

	// RetriesTotal counts credential-expiry retry attempts.
	// Labels: endpoint
	RetriesTotal *prometheus.CounterVec

	// RetrievalsTotal counts knowledge base retrievals by outcome.
	// Labels: outcome (success, empty, degraded)
	RetrievalsTotal *prometheus.CounterVec

	// ClientDisconnectsTotal counts client disconnections during streaming.
	// Labels: endpoint
	ClientDisconnectsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of RecipeMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *RecipeMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after Prometheus registry is available.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
//
// # Assumptions
//
//   - Prometheus default registry is available.
func InitMetrics() *RecipeMetrics {
	DefaultMetrics = &RecipeMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: recipeSubsystem,
				Name:      "requests_total",
				Help:      "Total number of recipe requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		FragmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: recipeSubsystem,
				Name:      "fragments_total",
				Help:      "Total streamed text fragments by model",
			},
			[]string{"model"},
		),

		TimeToFirstFragmentSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: recipeSubsystem,
				Name:      "time_to_first_fragment_seconds",
				Help:      "Time from request to first streamed fragment in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"endpoint"},
		),

		StreamDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: recipeSubsystem,
				Name:      "stream_duration_seconds",
				Help:      "Total stream duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"endpoint", "status"},
		),

		ActiveStreams: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: recipeSubsystem,
				Name:      "active_streams",
				Help:      "Number of currently active streaming connections",
			},
			[]string{"endpoint"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: recipeSubsystem,
				Name:      "errors_total",
				Help:      "Total errors by type and endpoint",
			},
			[]string{"endpoint", "error_code"},
		),

		RetriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: recipeSubsystem,
				Name:      "retries_total",
				Help:      "Total credential-expiry retry attempts",
			},
			[]string{"endpoint"},
		),

		RetrievalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: recipeSubsystem,
				Name:      "retrievals_total",
				Help:      "Total knowledge base retrievals by outcome",
			},
			[]string{"outcome"},
		),

		ClientDisconnectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: recipeSubsystem,
				Name:      "client_disconnects_total",
				Help:      "Total client disconnections during streaming",
			},
			[]string{"endpoint"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeLLMError indicates model provider failure.
	ErrorCodeLLMError ErrorCode = "llm_error"

	// ErrorCodeCredentialExpiry indicates retries were exhausted on expired
	// credentials.
	ErrorCodeCredentialExpiry ErrorCode = "credential_expiry"

	// ErrorCodeTimeout indicates operation timeout.
	ErrorCodeTimeout ErrorCode = "timeout"

	// ErrorCodeOverloaded indicates admission control rejected the request.
	ErrorCodeOverloaded ErrorCode = "overloaded"

	// ErrorCodeStore indicates a trending store failure.
	ErrorCodeStore ErrorCode = "store"

	// ErrorCodeInternal indicates internal server error.
	ErrorCodeInternal ErrorCode = "internal"

	// ErrorCodeClientDisconnect indicates client disconnected.
	ErrorCodeClientDisconnect ErrorCode = "client_disconnect"
)

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents an endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointChatStream is the streaming chat endpoint.
	EndpointChatStream Endpoint = "chat_stream"

	// EndpointChat is the buffered chat endpoint.
	EndpointChat Endpoint = "chat"

	// EndpointTrending covers the trending recipe and ingredient endpoints.
	EndpointTrending Endpoint = "trending"
)

// =============================================================================
// Retrieval Outcomes
// =============================================================================

// RetrievalOutcome labels how a knowledge base retrieval ended.
type RetrievalOutcome string

const (
	// RetrievalSuccess means documents were fetched and used.
	RetrievalSuccess RetrievalOutcome = "success"

	// RetrievalEmpty means the search returned no documents.
	RetrievalEmpty RetrievalOutcome = "empty"

	// RetrievalDegraded means the retrieval failed and generation proceeded
	// with the sentinel context.
	RetrievalDegraded RetrievalOutcome = "degraded"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed request.
func (m *RecipeMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records an error occurrence.
func (m *RecipeMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordFragments records streamed fragment counts for a model.
func (m *RecipeMetrics) RecordFragments(model string, count int) {
	m.FragmentsTotal.WithLabelValues(model).Add(float64(count))
}

// StreamStarted increments the active streams gauge.
func (m *RecipeMetrics) StreamStarted(endpoint Endpoint) {
	m.ActiveStreams.WithLabelValues(string(endpoint)).Inc()
}

// StreamEnded decrements the active streams gauge.
func (m *RecipeMetrics) StreamEnded(endpoint Endpoint) {
	m.ActiveStreams.WithLabelValues(string(endpoint)).Dec()
}

// RecordTimeToFirstFragment records the first-fragment latency.
func (m *RecipeMetrics) RecordTimeToFirstFragment(endpoint Endpoint, seconds float64) {
	m.TimeToFirstFragmentSeconds.WithLabelValues(string(endpoint)).Observe(seconds)
}

// RecordStreamDuration records the total stream duration.
func (m *RecipeMetrics) RecordStreamDuration(endpoint Endpoint, seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.StreamDurationSeconds.WithLabelValues(string(endpoint), status).Observe(seconds)
}

// RecordRetry records one credential-expiry retry attempt.
func (m *RecipeMetrics) RecordRetry(endpoint Endpoint) {
	m.RetriesTotal.WithLabelValues(string(endpoint)).Inc()
}

// RecordRetrieval records a knowledge base retrieval outcome.
func (m *RecipeMetrics) RecordRetrieval(outcome RetrievalOutcome) {
	m.RetrievalsTotal.WithLabelValues(string(outcome)).Inc()
}

// RecordClientDisconnect increments the client disconnect counter.
func (m *RecipeMetrics) RecordClientDisconnect(endpoint Endpoint) {
	m.ClientDisconnectsTotal.WithLabelValues(string(endpoint)).Inc()
}
