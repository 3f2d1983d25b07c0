// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP endpoints of the recipe backend.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/K-OOK/kook-backend/datatypes"
	"github.com/K-OOK/kook-backend/llm"
	"github.com/K-OOK/kook-backend/observability"
	"github.com/K-OOK/kook-backend/prompt"
	"github.com/K-OOK/kook-backend/services"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ChatHandler defines the contract for the chat endpoints.
//
// # Description
//
// ChatHandler serves recipe generation over two transports: a chunked
// plain-text stream (the primary endpoint) and a buffered JSON response
// with a preview card (for clients that cannot consume streams).
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; Gin calls handlers
// concurrently.
type ChatHandler interface {
	// HandleChatStream processes POST /api/chat/stream requests.
	//
	// # Outputs
	//
	// A 200 chunked text/plain response carrying raw recipe text. Failures
	// before the first chunk map to JSON error statuses; failures after
	// the first chunk are delivered in-band as an <error>...</error>
	// marker, because the 200 is already on the wire.
	HandleChatStream(c *gin.Context)

	// HandleChat processes POST /api/chat requests.
	//
	// # Outputs
	//
	// A JSON body with the full recipe text and a best-effort preview
	// (total time plus ingredient lines), preview null when the output had
	// no parsable recipe structure.
	HandleChat(c *gin.Context)
}

// =============================================================================
// Struct Definition
// =============================================================================

// chatHandler implements ChatHandler on top of the recipe service.
type chatHandler struct {
	service *services.RecipeService
	tracer  trace.Tracer
}

var _ ChatHandler = (*chatHandler)(nil)

// NewChatHandler creates the chat endpoints handler.
func NewChatHandler(service *services.RecipeService) ChatHandler {
	return &chatHandler{
		service: service,
		tracer:  otel.Tracer("kook-backend/handlers/chat"),
	}
}

// =============================================================================
// Streaming Endpoint
// =============================================================================

// HandleChatStream processes POST /api/chat/stream requests.
func (h *chatHandler) HandleChatStream(c *gin.Context) {
	startTime := time.Now()
	endpoint := observability.EndpointChatStream

	ctx, span := h.tracer.Start(c.Request.Context(), "HandleChatStream")
	defer span.End()

	if m := observability.DefaultMetrics; m != nil {
		m.StreamStarted(endpoint)
		defer m.StreamEnded(endpoint)
	}

	success := false
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordRequest(endpoint, success)
			m.RecordStreamDuration(endpoint, time.Since(startTime).Seconds(), success)
		}
	}()

	requestID := uuid.New().String()
	span.SetAttributes(attribute.String("request.id", requestID))

	// Step 1: Parse request body
	var req datatypes.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		slog.Error("Failed to parse chat stream request", "error", err, "requestId", requestID)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	span.SetAttributes(
		attribute.String("request.language", req.Language),
		attribute.Int("request.ingredient_count", len(req.Ingredients)),
		attribute.Int("request.history_len", len(req.ChatHistory)),
	)

	// Step 2: Validate request
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		slog.Error("Chat stream request validation failed", "error", err, "requestId", requestID)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: validation failed"})
		return
	}

	// Step 3: Set streaming headers and create writer.
	// Headers are not committed until the first body write, so JSON error
	// responses below are still possible while no chunk has gone out.
	SetStreamHeaders(c.Writer)
	writer, err := NewStreamWriter(c.Writer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stream setup failed")
		slog.Error("Failed to create stream writer", "error", err, "requestId", requestID)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeInternal)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	// Step 4: Stream fragments through to the client as they arrive.
	fragmentCount := 0
	var firstFragmentAt time.Time
	streamErr := h.service.StreamRecipe(ctx, &req, func(event llm.StreamEvent) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if event.Type != llm.StreamEventToken {
			return nil
		}
		if fragmentCount == 0 {
			firstFragmentAt = time.Now()
			if m := observability.DefaultMetrics; m != nil {
				m.RecordTimeToFirstFragment(endpoint, firstFragmentAt.Sub(startTime).Seconds())
			}
		}
		fragmentCount++
		return writer.WriteChunk(event.Content)
	})
	span.SetAttributes(attribute.Int("stream.fragment_count", fragmentCount))

	// Step 5: Map the outcome.
	if streamErr == nil {
		success = true
		span.SetStatus(codes.Ok, "stream completed")
		return
	}

	span.RecordError(streamErr)
	errCode, status := classifyStreamError(ctx, streamErr)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordError(endpoint, errCode)
		if errCode == observability.ErrorCodeClientDisconnect {
			m.RecordClientDisconnect(endpoint)
		}
	}
	slog.Error("Chat stream failed",
		"error", streamErr,
		"errorCode", string(errCode),
		"requestId", requestID,
		"fragmentsSent", fragmentCount,
	)

	if errCode == observability.ErrorCodeClientDisconnect {
		span.SetStatus(codes.Error, "client disconnected")
		return
	}

	// Before the first chunk the response is still uncommitted and a real
	// status code reaches the client. After it, the only channel left is
	// the in-band marker.
	if fragmentCount == 0 {
		span.SetStatus(codes.Error, "stream failed before first fragment")
		c.JSON(status, gin.H{"error": clientErrorMessage(req.Language, errCode)})
		return
	}

	span.SetStatus(codes.Error, "stream failed mid-response")
	if werr := writer.WriteError(clientErrorMessage(req.Language, errCode)); werr != nil {
		slog.Error("Failed to write in-band error marker", "error", werr, "requestId", requestID)
	}
}

// =============================================================================
// Buffered Endpoint
// =============================================================================

// HandleChat processes POST /api/chat requests.
func (h *chatHandler) HandleChat(c *gin.Context) {
	startTime := time.Now()
	endpoint := observability.EndpointChat

	ctx, span := h.tracer.Start(c.Request.Context(), "HandleChat")
	defer span.End()

	success := false
	defer func() {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordRequest(endpoint, success)
			m.RecordStreamDuration(endpoint, time.Since(startTime).Seconds(), success)
		}
	}()

	requestID := uuid.New().String()
	span.SetAttributes(attribute.String("request.id", requestID))

	// Step 1: Parse request body
	var req datatypes.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		slog.Error("Failed to parse chat request", "error", err, "requestId", requestID)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Step 2: Validate request
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		slog.Error("Chat request validation failed", "error", err, "requestId", requestID)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: validation failed"})
		return
	}

	// Step 3: Generate the full recipe buffered, preview included.
	resp, err := h.service.GenerateRecipe(ctx, &req)
	if err != nil {
		span.RecordError(err)
		errCode, status := classifyStreamError(ctx, err)
		span.SetStatus(codes.Error, "generation failed")
		slog.Error("Chat generation failed",
			"error", err,
			"errorCode", string(errCode),
			"requestId", requestID,
		)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(endpoint, errCode)
		}
		c.JSON(status, gin.H{"error": clientErrorMessage(req.Language, errCode)})
		return
	}

	success = true
	span.SetStatus(codes.Ok, "chat completed")
	c.JSON(http.StatusOK, resp)
}

// =============================================================================
// Error Mapping
// =============================================================================

// classifyStreamError maps a pipeline failure to a metrics error code and
// an HTTP status for the uncommitted-response case.
func classifyStreamError(ctx context.Context, err error) (observability.ErrorCode, int) {
	switch {
	case errors.Is(err, services.ErrTooManyRequests):
		return observability.ErrorCodeOverloaded, http.StatusServiceUnavailable
	case errors.Is(err, services.ErrRetriesExhausted):
		return observability.ErrorCodeCredentialExpiry, http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return observability.ErrorCodeTimeout, http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return observability.ErrorCodeClientDisconnect, http.StatusBadGateway
	default:
		return observability.ErrorCodeLLMError, http.StatusBadGateway
	}
}

// clientErrorMessage returns the sanitized, language-appropriate failure
// message. Internal error details never reach the client.
func clientErrorMessage(language string, code observability.ErrorCode) string {
	eng := prompt.ParseLanguage(language) == prompt.English
	switch code {
	case observability.ErrorCodeOverloaded:
		if eng {
			return "The service is busy. Please try again in a moment."
		}
		return "요청이 많아 잠시 후 다시 시도해주세요."
	case observability.ErrorCodeTimeout:
		if eng {
			return "The request timed out. Please try again."
		}
		return "요청 시간이 초과되었습니다. 다시 시도해주세요."
	default:
		if eng {
			return "An error occurred while generating the recipe. Please try again."
		}
		return "레시피 생성 중 오류가 발생했습니다. 다시 시도해주세요."
	}
}
