// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides the streaming completion client for the recipe
// backend. The production implementation talks to AWS Bedrock; tests and
// other callers depend only on the interfaces in this file.
package llm

import (
	"context"

	"github.com/K-OOK/kook-backend/datatypes"
)

// StreamEventType discriminates incremental stream events.
type StreamEventType string

const (
	// StreamEventToken carries one incremental text fragment.
	StreamEventToken StreamEventType = "token"
)

// StreamEvent is one unit of incremental assistant output.
//
// Events are produced in generation order and never buffered beyond one
// event at a time; streaming is the point.
type StreamEvent struct {
	Type    StreamEventType
	Content string
}

// StreamCallback receives stream events as they are generated.
//
// The callback should forward each fragment to the transport. Returning a
// non-nil error aborts the stream (e.g., on client disconnect); the error is
// propagated back out of ChatStream unchanged.
//
// Called in generation order from a single goroutine per stream.
type StreamCallback func(event StreamEvent) error

// StreamingClient is the contract for one streaming exchange with the model
// provider.
//
// # Description
//
// A ChatStream call produces a lazy, forward-only, single-pass fragment
// sequence. The sequence is finite and not restartable: a retry requires a
// fresh client and a freshly rebuilt payload (see services.RecipeService).
//
// ChatStream returns nil on a clean end-of-stream. Any failure — before the
// first byte or mid-iteration — is returned as an error; fragments already
// delivered to the callback cannot be rewound, so callers that have begun
// forwarding output must surface the failure inline rather than as a
// transport fault.
//
// # Thread Safety
//
// Implementations need not support concurrent ChatStream calls on one
// instance; the orchestrator builds a fresh client per attempt.
type StreamingClient interface {
	ChatStream(ctx context.Context, payload datatypes.PromptPayload, callback StreamCallback) error
}

// ClientFactory builds a fresh StreamingClient per attempt.
//
// Provider client construction is cheap configuration binding with no side
// effects. Building a new client for every attempt (instead of refreshing a
// long-lived singleton) removes the stale-credential failure mode by
// construction.
type ClientFactory interface {
	NewStreamingClient() StreamingClient
}
