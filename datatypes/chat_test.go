// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRequest() ChatRequest {
	return ChatRequest{
		Language:    "eng",
		Ingredients: []string{"chicken", "rice"},
		ChatHistory: []Message{
			{Role: RoleUser, Content: "recipe please"},
			{Role: RoleAssistant, Content: "<recipe>...</recipe>"},
		},
	}
}

func TestChatRequest_Validate(t *testing.T) {
	req := validRequest()
	assert.NoError(t, req.Validate())
}

func TestChatRequest_Validate_MinimalFirstTurn(t *testing.T) {
	req := ChatRequest{}
	assert.NoError(t, req.Validate(), "empty request is a valid no-ingredient first turn")
}

func TestChatRequest_Validate_RejectsUnknownRole(t *testing.T) {
	req := validRequest()
	req.ChatHistory[0].Role = "system"
	assert.Error(t, req.Validate())
}

func TestChatRequest_Validate_RejectsEmptyHistoryContent(t *testing.T) {
	req := validRequest()
	req.ChatHistory[1].Content = ""
	assert.Error(t, req.Validate())
}

func TestChatRequest_Validate_RejectsOversizedContent(t *testing.T) {
	req := validRequest()
	req.ChatHistory[0].Content = strings.Repeat("a", MaxMessageContentBytes+1)
	assert.Error(t, req.Validate())
}

func TestChatRequest_Validate_ContentBoundIsInBytes(t *testing.T) {
	req := validRequest()
	// Hangul is 3 bytes per rune in UTF-8; just under the rune-count limit
	// but over the byte limit must be rejected.
	req.ChatHistory[0].Content = strings.Repeat("김", MaxMessageContentBytes/3+1)
	assert.Error(t, req.Validate())
}

func TestChatRequest_Validate_RejectsTooManyHistoryTurns(t *testing.T) {
	req := validRequest()
	req.ChatHistory = make([]Message, MaxHistoryTurns+1)
	for i := range req.ChatHistory {
		req.ChatHistory[i] = Message{Role: RoleUser, Content: "turn"}
	}
	assert.Error(t, req.Validate())
}

func TestChatRequest_Validate_RejectsTooManyIngredients(t *testing.T) {
	req := validRequest()
	req.Ingredients = make([]string, MaxIngredients+1)
	for i := range req.Ingredients {
		req.Ingredients[i] = "salt"
	}
	assert.Error(t, req.Validate())
}

func TestChatRequest_IsFirstTurn(t *testing.T) {
	assert.True(t, (&ChatRequest{}).IsFirstTurn())
	assert.True(t, (&ChatRequest{Ingredients: []string{"rice"}}).IsFirstTurn())

	req := validRequest()
	assert.False(t, req.IsFirstTurn())
}
