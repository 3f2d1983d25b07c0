// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package services implements the recipe generation pipeline: retrieval
// gating, prompt assembly, streaming generation, and credential-expiry
// retries.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"

	"github.com/K-OOK/kook-backend/datatypes"
	"github.com/K-OOK/kook-backend/llm"
	"github.com/K-OOK/kook-backend/observability"
	"github.com/K-OOK/kook-backend/prompt"
	"github.com/K-OOK/kook-backend/retrieval"
)

var recipeTracer = otel.Tracer("kook-backend/services/recipe")

// Sentinel errors returned by StreamRecipe. Handlers map these to transport
// responses.
var (
	// ErrTooManyRequests means admission control rejected the request; no
	// generation work was started.
	ErrTooManyRequests = errors.New("too many concurrent generation requests")

	// ErrRetriesExhausted means every attempt failed with expired
	// credentials. Wraps the last provider error.
	ErrRetriesExhausted = errors.New("credential refresh retries exhausted")
)

// Defaults applied by NewRecipeService when the config leaves a field zero.
const (
	DefaultMaxAttempts          = 3
	DefaultRetryBackoff         = 1 * time.Second
	DefaultRequestTimeout       = 120 * time.Second
	DefaultMaxConcurrentStreams = 32
)

// RecipeServiceConfig tunes the generation pipeline.
type RecipeServiceConfig struct {
	// MaxAttempts caps generation attempts per request, including the
	// first. Only credential-expiry failures consume extra attempts.
	MaxAttempts int

	// RetryBackoff is the fixed delay between attempts.
	RetryBackoff time.Duration

	// RequestTimeout is the wall-clock bound on one request, covering
	// retrieval, all attempts, and backoff sleeps.
	RequestTimeout time.Duration

	// MaxConcurrentStreams bounds in-flight generations.
	MaxConcurrentStreams int64
}

// RecipeService orchestrates one recipe generation end to end.
//
// # Description
//
// The pipeline per request:
//
//	Step 1: Admission control (bounded concurrent generations).
//	Step 2: First-turn-only knowledge base retrieval, degrading to a
//	        sentinel context string on failure.
//	Step 3: Prompt assembly from request, history, and context.
//	Step 4: Streaming generation through a fresh provider client,
//	        retrying on credential expiry with fixed backoff.
//
// Fragments stream through to the callback as they arrive; nothing is
// buffered for retry. A retry after a partial stream re-sends the recipe
// from the beginning, so the consumer may observe duplicated output. That
// is the accepted trade-off for first-fragment latency.
//
// # Thread Safety
//
// Safe for concurrent use.
type RecipeService struct {
	factory   llm.ClientFactory
	retriever retrieval.Retriever
	cfg       RecipeServiceConfig
	sem       *semaphore.Weighted
	logger    *slog.Logger
	metrics   *observability.RecipeMetrics
}

// NewRecipeService creates the generation pipeline.
//
// retriever may be nil when no knowledge base is configured; retrieval is
// then skipped and first turns proceed without context.
func NewRecipeService(factory llm.ClientFactory, retriever retrieval.Retriever, cfg RecipeServiceConfig) *RecipeService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxConcurrentStreams <= 0 {
		cfg.MaxConcurrentStreams = DefaultMaxConcurrentStreams
	}
	return &RecipeService{
		factory:   factory,
		retriever: retriever,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(cfg.MaxConcurrentStreams),
		logger:    slog.Default().With("component", "recipe_service"),
		metrics:   observability.DefaultMetrics,
	}
}

// StreamRecipe runs the full pipeline for one chat request, forwarding
// fragments to callback in generation order.
//
// # Outputs
//
//   - nil on a clean end-of-stream.
//   - ErrTooManyRequests when admission control rejects the request.
//   - ErrRetriesExhausted (wrapping the last provider error) when every
//     attempt failed on expired credentials.
//   - context.DeadlineExceeded / context.Canceled when the request ran out
//     of wall-clock budget or the caller went away.
//   - Any other provider or callback error, unwrapped, on terminal failure.
//
// # Limitations
//
//   - Fragments already forwarded before a mid-stream failure are not
//     rewound; callers must surface errors inline.
func (s *RecipeService) StreamRecipe(ctx context.Context, req *datatypes.ChatRequest, callback llm.StreamCallback) error {
	ctx, span := recipeTracer.Start(ctx, "services.recipe.stream")
	defer span.End()

	if !s.sem.TryAcquire(1) {
		span.SetStatus(codes.Error, "admission control rejected")
		return ErrTooManyRequests
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	lang := prompt.ParseLanguage(req.Language)
	span.SetAttributes(
		attribute.String("chat.language", string(lang)),
		attribute.Bool("chat.first_turn", req.IsFirstTurn()),
		attribute.Int("chat.history_len", len(req.ChatHistory)),
	)

	// Step 2: retrieval happens once, before the attempt loop, and only on
	// the first turn. Follow-up turns reuse the conversation itself as
	// grounding.
	contextStr := ""
	if req.IsFirstTurn() {
		contextStr = s.retrieveContext(ctx, lang, req.Ingredients)
	}

	// Steps 3+4: rebuild the payload and the client fresh on every attempt.
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		payload := prompt.BuildPayload(req, contextStr)
		client := s.factory.NewStreamingClient()

		err := client.ChatStream(ctx, payload, callback)
		if err == nil {
			span.SetStatus(codes.Ok, "stream completed")
			return nil
		}
		if ctx.Err() != nil {
			span.RecordError(ctx.Err())
			span.SetStatus(codes.Error, "request deadline or cancellation")
			return ctx.Err()
		}
		if !llm.IsCredentialExpiry(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "terminal generation failure")
			return err
		}

		lastErr = err
		s.logger.WarnContext(ctx, "credentials expired mid-request, retrying with fresh client",
			"attempt", attempt,
			"max_attempts", s.cfg.MaxAttempts,
			"error", err)
		if s.metrics != nil {
			s.metrics.RecordRetry(observability.EndpointChatStream)
		}

		if attempt == s.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.RetryBackoff):
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "retries exhausted")
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, s.cfg.MaxAttempts, lastErr)
}

// GenerateRecipe runs the same pipeline buffered: the full recipe text is
// accumulated, then parsed for the preview card. Used by the non-streaming
// chat endpoint.
func (s *RecipeService) GenerateRecipe(ctx context.Context, req *datatypes.ChatRequest) (*datatypes.ChatResponse, error) {
	var sb strings.Builder
	err := s.StreamRecipe(ctx, req, func(event llm.StreamEvent) error {
		if event.Type == llm.StreamEventToken {
			sb.WriteString(event.Content)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	full := sb.String()
	return &datatypes.ChatResponse{
		FullRecipe: full,
		Preview:    ParseRecipePreview(full, prompt.ParseLanguage(req.Language)),
	}, nil
}

// retrieveContext fetches and formats knowledge base context for a first
// turn. Failures degrade to a language-appropriate sentinel string; an
// empty search result degrades to no context at all.
func (s *RecipeService) retrieveContext(ctx context.Context, lang prompt.Language, ingredients []string) string {
	if s.retriever == nil {
		return ""
	}

	query := prompt.RetrievalQuery(lang, ingredients)
	docs, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		s.logger.WarnContext(ctx, "knowledge base retrieval failed, continuing without context",
			"error", err)
		if s.metrics != nil {
			s.metrics.RecordRetrieval(observability.RetrievalDegraded)
		}
		return prompt.RetrievalFailedNotice(lang)
	}

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}
	contextStr := prompt.FormatDocs(contents)

	if s.metrics != nil {
		if contextStr == "" {
			s.metrics.RecordRetrieval(observability.RetrievalEmpty)
		} else {
			s.metrics.RecordRetrieval(observability.RetrievalSuccess)
		}
	}
	return contextStr
}
