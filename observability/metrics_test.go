// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// ============================================================================
// Test Helper: Create isolated metrics for testing
// ============================================================================

// newTestMetrics creates a RecipeMetrics instance with a private registry so
// tests do not collide with the global Prometheus registry.
func newTestMetrics(t *testing.T) *RecipeMetrics {
	t.Helper()

	reg := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: recipeSubsystem,
			Name:      "requests_total",
			Help:      "Total number of recipe requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	fragmentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: recipeSubsystem,
			Name:      "fragments_total",
			Help:      "Total streamed text fragments by model",
		},
		[]string{"model"},
	)

	timeToFirstFragmentSeconds := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: recipeSubsystem,
			Name:      "time_to_first_fragment_seconds",
			Help:      "Time from request to first streamed fragment in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"endpoint"},
	)

	streamDurationSeconds := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: recipeSubsystem,
			Name:      "stream_duration_seconds",
			Help:      "Total stream duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"endpoint", "status"},
	)

	activeStreams := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: recipeSubsystem,
			Name:      "active_streams",
			Help:      "Number of currently active streaming connections",
		},
		[]string{"endpoint"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: recipeSubsystem,
			Name:      "errors_total",
			Help:      "Total errors by type and endpoint",
		},
		[]string{"endpoint", "error_code"},
	)

	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: recipeSubsystem,
			Name:      "retries_total",
			Help:      "Total credential-expiry retry attempts",
		},
		[]string{"endpoint"},
	)

	retrievalsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: recipeSubsystem,
			Name:      "retrievals_total",
			Help:      "Total knowledge base retrievals by outcome",
		},
		[]string{"outcome"},
	)

	clientDisconnectsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: recipeSubsystem,
			Name:      "client_disconnects_total",
			Help:      "Total client disconnections during streaming",
		},
		[]string{"endpoint"},
	)

	reg.MustRegister(
		requestsTotal,
		fragmentsTotal,
		timeToFirstFragmentSeconds,
		streamDurationSeconds,
		activeStreams,
		errorsTotal,
		retriesTotal,
		retrievalsTotal,
		clientDisconnectsTotal,
	)

	return &RecipeMetrics{
		RequestsTotal:              requestsTotal,
		FragmentsTotal:             fragmentsTotal,
		TimeToFirstFragmentSeconds: timeToFirstFragmentSeconds,
		StreamDurationSeconds:      streamDurationSeconds,
		ActiveStreams:              activeStreams,
		ErrorsTotal:                errorsTotal,
		RetriesTotal:               retriesTotal,
		RetrievalsTotal:            retrievalsTotal,
		ClientDisconnectsTotal:     clientDisconnectsTotal,
	}
}

// ============================================================================
// InitMetrics Tests
// ============================================================================

// InitMetrics registers with the default registry via promauto; calling it
// twice in one test binary panics, so the test only runs once.
var initMetricsTestOnce bool

func TestInitMetrics(t *testing.T) {
	if initMetricsTestOnce {
		t.Skip("InitMetrics can only be called once per test run (promauto restriction)")
	}
	initMetricsTestOnce = true

	result := InitMetrics()

	if result == nil {
		t.Fatal("InitMetrics() returned nil")
	}
	if DefaultMetrics == nil {
		t.Fatal("DefaultMetrics should be set after InitMetrics()")
	}
	if DefaultMetrics != result {
		t.Error("DefaultMetrics should equal the returned value")
	}

	if result.RequestsTotal == nil {
		t.Error("RequestsTotal should not be nil")
	}
	if result.FragmentsTotal == nil {
		t.Error("FragmentsTotal should not be nil")
	}
	if result.TimeToFirstFragmentSeconds == nil {
		t.Error("TimeToFirstFragmentSeconds should not be nil")
	}
	if result.StreamDurationSeconds == nil {
		t.Error("StreamDurationSeconds should not be nil")
	}
	if result.ActiveStreams == nil {
		t.Error("ActiveStreams should not be nil")
	}
	if result.ErrorsTotal == nil {
		t.Error("ErrorsTotal should not be nil")
	}
	if result.RetriesTotal == nil {
		t.Error("RetriesTotal should not be nil")
	}
	if result.RetrievalsTotal == nil {
		t.Error("RetrievalsTotal should not be nil")
	}
	if result.ClientDisconnectsTotal == nil {
		t.Error("ClientDisconnectsTotal should not be nil")
	}

	// Verify metrics can be used
	result.RecordRequest(EndpointChatStream, true)
	result.RecordError(EndpointChat, ErrorCodeTimeout)
	result.RecordFragments("claude-3-sonnet", 12)
	result.StreamStarted(EndpointChatStream)
	result.StreamEnded(EndpointChatStream)
}

// ============================================================================
// Helper Method Tests
// ============================================================================

func TestRecipeMetrics_RecordRequest(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRequest(EndpointChatStream, true)
	m.RecordRequest(EndpointChatStream, true)
	m.RecordRequest(EndpointChatStream, false)
	m.RecordRequest(EndpointTrending, true)

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("chat_stream", "success")); got != 2 {
		t.Errorf("chat_stream success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("chat_stream", "error")); got != 1 {
		t.Errorf("chat_stream error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("trending", "success")); got != 1 {
		t.Errorf("trending success = %v, want 1", got)
	}
}

func TestRecipeMetrics_RecordError(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordError(EndpointChatStream, ErrorCodeCredentialExpiry)
	m.RecordError(EndpointChatStream, ErrorCodeCredentialExpiry)
	m.RecordError(EndpointChat, ErrorCodeLLMError)

	if got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("chat_stream", "credential_expiry")); got != 2 {
		t.Errorf("credential_expiry count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("chat", "llm_error")); got != 1 {
		t.Errorf("llm_error count = %v, want 1", got)
	}
}

func TestRecipeMetrics_RecordFragments(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordFragments("claude-3-sonnet", 10)
	m.RecordFragments("claude-3-sonnet", 5)
	m.RecordFragments("claude-3-sonnet", 0)

	if got := testutil.ToFloat64(m.FragmentsTotal.WithLabelValues("claude-3-sonnet")); got != 15 {
		t.Errorf("fragments = %v, want 15", got)
	}
}

func TestRecipeMetrics_StreamLifecycle(t *testing.T) {
	m := newTestMetrics(t)

	m.StreamStarted(EndpointChatStream)
	m.StreamStarted(EndpointChatStream)
	if got := testutil.ToFloat64(m.ActiveStreams.WithLabelValues("chat_stream")); got != 2 {
		t.Errorf("active streams = %v, want 2", got)
	}

	m.StreamEnded(EndpointChatStream)
	m.StreamEnded(EndpointChatStream)
	if got := testutil.ToFloat64(m.ActiveStreams.WithLabelValues("chat_stream")); got != 0 {
		t.Errorf("active streams after end = %v, want 0", got)
	}
}

func TestRecipeMetrics_RecordRetry(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRetry(EndpointChatStream)
	m.RecordRetry(EndpointChatStream)

	if got := testutil.ToFloat64(m.RetriesTotal.WithLabelValues("chat_stream")); got != 2 {
		t.Errorf("retries = %v, want 2", got)
	}
}

func TestRecipeMetrics_RecordRetrieval(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRetrieval(RetrievalSuccess)
	m.RecordRetrieval(RetrievalEmpty)
	m.RecordRetrieval(RetrievalDegraded)
	m.RecordRetrieval(RetrievalDegraded)

	if got := testutil.ToFloat64(m.RetrievalsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("success retrievals = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RetrievalsTotal.WithLabelValues("empty")); got != 1 {
		t.Errorf("empty retrievals = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RetrievalsTotal.WithLabelValues("degraded")); got != 2 {
		t.Errorf("degraded retrievals = %v, want 2", got)
	}
}

func TestRecipeMetrics_RecordClientDisconnect(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordClientDisconnect(EndpointChatStream)

	if got := testutil.ToFloat64(m.ClientDisconnectsTotal.WithLabelValues("chat_stream")); got != 1 {
		t.Errorf("disconnects = %v, want 1", got)
	}
}

func TestRecipeMetrics_ConcurrentSafety(t *testing.T) {
	m := newTestMetrics(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordRequest(EndpointChatStream, true)
				m.RecordFragments("claude-3-sonnet", 1)
				m.StreamStarted(EndpointChatStream)
				m.StreamEnded(EndpointChatStream)
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("chat_stream", "success")); got != 1000 {
		t.Errorf("requests = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(m.ActiveStreams.WithLabelValues("chat_stream")); got != 0 {
		t.Errorf("active streams = %v, want 0", got)
	}
}
