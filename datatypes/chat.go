// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures shared across the recipe backend.
//
// This file contains request and response types for the chat endpoints
// (streaming and non-streaming recipe generation). For trending-store types,
// see trending.go.
package datatypes

import (
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// RoleUser is the conversation role for user turns.
	RoleUser = "user"

	// RoleAssistant is the conversation role for assistant turns.
	RoleAssistant = "assistant"

	// MaxMessageContentBytes is the maximum size of a single turn's content.
	// Prevents unbounded message input from exhausting memory.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxHistoryTurns is the maximum number of turns accepted per request.
	// The backend is stateless, so callers resupply the full history each
	// call; this bounds how much of it we are willing to forward.
	MaxHistoryTurns = 100

	// MaxIngredients bounds the ingredients list. Early clients sent at most
	// three items; the cap is generous so free-text follow-ups still fit.
	MaxIngredients = 20
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()

	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length (not rune count) against
// MaxMessageContentBytes so multi-byte Hangul content is bounded by memory
// footprint rather than character count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	content := fl.Field().String()
	return len(content) <= MaxMessageContentBytes
}

// =============================================================================
// Conversation Types
// =============================================================================

// Message represents a single conversation turn.
//
// # Description
//
// A Message is one user or assistant utterance. History messages are produced
// by the caller (the backend keeps no conversation state); the final assistant
// turn is reconstructed client-side from the streamed chunks if the caller
// wants to continue the conversation.
//
// # Fields
//
//   - Role: "user" or "assistant".
//   - Content: The turn's text, limited to 32KB.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,maxbytes"`
}

// ChatRequest represents a recipe-generation request body.
//
// # Description
//
// ChatRequest is shared by POST /api/chat and POST /api/chat/stream. The
// backend is intentionally stateless: all prior turns arrive in ChatHistory
// on every call and there is no server-side conversation identity.
//
// On the first turn (empty ChatHistory) Ingredients carries the structured
// ingredient list. On follow-up turns the first element of Ingredients
// carries the user's free-text follow-up question instead; this overload is
// kept for wire compatibility with existing clients.
//
// # Fields
//
//   - Language: "kor" or "eng". Any other value is treated as "kor".
//   - Ingredients: Ingredient names (first turn) or a single free-text
//     follow-up (later turns). May be empty.
//   - ChatHistory: Prior turns in order. Empty or omitted means first turn.
//
// # Examples
//
//	// First turn
//	req := ChatRequest{
//	    Language:    "eng",
//	    Ingredients: []string{"chicken", "rice"},
//	}
//
//	// Follow-up
//	req := ChatRequest{
//	    Language:    "eng",
//	    Ingredients: []string{"Can I substitute tofu?"},
//	    ChatHistory: []Message{
//	        {Role: "user", Content: "chicken, rice"},
//	        {Role: "assistant", Content: "<recipe>...</recipe>"},
//	    },
//	}
type ChatRequest struct {
	Language    string    `json:"language" validate:"omitempty,max=16"`
	Ingredients []string  `json:"ingredients" validate:"omitempty,max=20,dive,max=512"`
	ChatHistory []Message `json:"chat_history" validate:"omitempty,max=100,dive"`
}

// Validate validates the ChatRequest fields.
//
// Call after binding the JSON request body.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// IsFirstTurn reports whether this request starts a new conversation.
//
// A request is a first turn exactly when the supplied history is empty.
// Retrieval gating and prompt assembly both key off this.
func (r *ChatRequest) IsFirstTurn() bool {
	return len(r.ChatHistory) == 0
}

// =============================================================================
// Prompt Payload
// =============================================================================

// PromptPayload is the fully assembled outbound request to the model.
//
// # Description
//
// A PromptPayload is built fresh for every provider attempt from the same
// ChatRequest, so retries are reproducible even though the provider call is
// not idempotent. It is never mutated after construction.
//
// # Fields
//
//   - System: Language-specific system instructions.
//   - Messages: History followed by the final user turn (which may embed
//     retrieved context on the first turn).
type PromptPayload struct {
	System   string
	Messages []Message
}

// =============================================================================
// Chat Response Types
// =============================================================================

// ChatPreviewInfo is the best-effort preview derived from a generated recipe.
//
// Absence of a parseable section yields a nil preview, never an error.
type ChatPreviewInfo struct {
	TotalTime   string   `json:"total_time"`
	Ingredients []string `json:"ingredients"`
}

// ChatResponse is the non-streaming response for POST /api/chat.
//
// FullRecipe holds the assistant's complete output (the templated recipe
// XML, or an inline <error>...</error> marker when generation failed).
type ChatResponse struct {
	FullRecipe string           `json:"full_recipe"`
	Preview    *ChatPreviewInfo `json:"preview"`
}
