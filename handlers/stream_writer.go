// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"net/http"
	"sync"
)

// =============================================================================
// Interface Definition
// =============================================================================

// StreamWriter defines the contract for writing chunked plain-text output
// to HTTP responses.
//
// # Description
//
// The streaming chat endpoint emits raw recipe text as it is generated,
// using HTTP chunked transfer encoding. There is no event framing: clients
// concatenate chunks as-is. Errors after streaming has begun are delivered
// in-band as an <error>...</error> marker, because the 200 status is
// already on the wire.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use by multiple goroutines.
//
// # Assumptions
//
//   - Caller has set response headers via SetStreamHeaders before writing.
type StreamWriter interface {
	// WriteChunk writes one text fragment and flushes immediately.
	WriteChunk(content string) error

	// WriteError writes an in-band error marker.
	//
	// The message must already be sanitized for client display; internal
	// details stay in the logs.
	WriteError(errMsg string) error
}

// =============================================================================
// Struct Definition
// =============================================================================

// chunkWriter implements StreamWriter over an http.ResponseWriter.
//
// # Fields
//
//   - writer: Underlying http.ResponseWriter
//   - flusher: http.Flusher interface for immediate send
//   - mu: Mutex for thread-safe writes
//
// # Limitations
//
//   - Cannot be reused across requests.
type chunkWriter struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

// =============================================================================
// Constructor
// =============================================================================

// NewStreamWriter creates a StreamWriter for the given ResponseWriter.
//
// # Outputs
//
//   - StreamWriter: Ready to write chunks.
//   - error: Non-nil if the ResponseWriter doesn't support flushing.
func NewStreamWriter(w http.ResponseWriter) (StreamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("ResponseWriter does not support http.Flusher")
	}
	return &chunkWriter{writer: w, flusher: flusher}, nil
}

// =============================================================================
// Methods
// =============================================================================

// WriteChunk writes one text fragment and flushes immediately.
func (w *chunkWriter) WriteChunk(content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.Write([]byte(content)); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// WriteError writes the in-band error marker and flushes.
func (w *chunkWriter) WriteError(errMsg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintf(w.writer, "<error>%s</error>", errMsg); err != nil {
		return fmt.Errorf("write error marker: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// SetStreamHeaders configures response headers for chunked text streaming.
//
// # Description
//
// Sets:
//   - Content-Type: text/plain; charset=utf-8
//   - Cache-Control: no-cache
//   - X-Accel-Buffering: no (disables nginx buffering)
//
// Must be called before writing any response body. Transfer-Encoding is
// left to net/http, which switches to chunked automatically when no
// Content-Length is set.
func SetStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
}

// =============================================================================
// Compile-time Interface Check
// =============================================================================

var _ StreamWriter = (*chunkWriter)(nil)
