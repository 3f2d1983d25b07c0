// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K-OOK/kook-backend/datatypes"
	"github.com/K-OOK/kook-backend/llm"
	"github.com/K-OOK/kook-backend/retrieval"
	"github.com/K-OOK/kook-backend/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// scriptedClient replays fragments, then finishes with err.
type scriptedClient struct {
	fragments []string
	err       error
}

func (c *scriptedClient) ChatStream(_ context.Context, _ datatypes.PromptPayload, callback llm.StreamCallback) error {
	for _, frag := range c.fragments {
		if err := callback(llm.StreamEvent{Type: llm.StreamEventToken, Content: frag}); err != nil {
			return err
		}
	}
	return c.err
}

type scriptedFactory struct {
	mu      sync.Mutex
	clients []*scriptedClient
	builds  int
}

func (f *scriptedFactory) NewStreamingClient() llm.StreamingClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.builds
	if i >= len(f.clients) {
		i = len(f.clients) - 1
	}
	f.builds++
	return f.clients[i]
}

type staticRetriever struct {
	docs []retrieval.Document
	err  error
}

func (r *staticRetriever) Retrieve(context.Context, string) ([]retrieval.Document, error) {
	return r.docs, r.err
}

func newTestRouter(factory llm.ClientFactory, retriever retrieval.Retriever) *gin.Engine {
	svc := services.NewRecipeService(factory, retriever, services.RecipeServiceConfig{
		MaxAttempts:          3,
		RetryBackoff:         time.Millisecond,
		RequestTimeout:       5 * time.Second,
		MaxConcurrentStreams: 4,
	})
	handler := NewChatHandler(svc)

	router := gin.New()
	router.POST("/api/chat", handler.HandleChat)
	router.POST("/api/chat/stream", handler.HandleChatStream)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleChatStream_FirstTurnHappyPath(t *testing.T) {
	factory := &scriptedFactory{clients: []*scriptedClient{
		{fragments: []string{"Chicken ", "fried ", "rice."}},
	}}
	router := newTestRouter(factory, &staticRetriever{docs: []retrieval.Document{{Content: "a recipe doc"}}})

	w := postJSON(t, router, "/api/chat/stream", datatypes.ChatRequest{
		Language:    "eng",
		Ingredients: []string{"chicken", "rice"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Chicken fried rice.", w.Body.String())
	assert.NotContains(t, w.Body.String(), "<error>")
}

func TestHandleChatStream_FollowUpTurn(t *testing.T) {
	factory := &scriptedFactory{clients: []*scriptedClient{
		{fragments: []string{"Sure, brown rice works."}},
	}}
	// Retriever errors if called; follow-up turns must not touch it.
	router := newTestRouter(factory, &staticRetriever{err: errors.New("must not be called")})

	w := postJSON(t, router, "/api/chat/stream", datatypes.ChatRequest{
		Language:    "eng",
		Ingredients: []string{"Can I use brown rice instead?"},
		ChatHistory: []datatypes.Message{
			{Role: "user", Content: "recipe please"},
			{Role: "assistant", Content: "Chicken fried rice."},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sure, brown rice works.", w.Body.String())
}

func TestHandleChatStream_RetrySucceedsAfterExpiry(t *testing.T) {
	factory := &scriptedFactory{clients: []*scriptedClient{
		{err: &smithy.GenericAPIError{Code: "ExpiredTokenException"}},
		{fragments: []string{"recovered recipe"}},
	}}
	router := newTestRouter(factory, &staticRetriever{})

	w := postJSON(t, router, "/api/chat/stream", datatypes.ChatRequest{
		Language:    "kor",
		Ingredients: []string{"김치"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "recovered recipe", w.Body.String())
	assert.Equal(t, 2, factory.builds)
}

func TestHandleChatStream_MidStreamFailureEmitsInBandMarker(t *testing.T) {
	factory := &scriptedFactory{clients: []*scriptedClient{
		{fragments: []string{"First half of the recipe"}, err: errors.New("connection reset")},
	}}
	router := newTestRouter(factory, &staticRetriever{})

	w := postJSON(t, router, "/api/chat/stream", datatypes.ChatRequest{
		Language:    "eng",
		Ingredients: []string{"pork"},
	})

	// The 200 is already committed; the failure rides in-band.
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "First half of the recipe"))
	assert.Contains(t, body, "<error>")
	assert.Contains(t, body, "</error>")
	assert.NotContains(t, body, "connection reset", "internal details must not leak")
}

func TestHandleChatStream_PreStreamFailureReturnsStatus(t *testing.T) {
	factory := &scriptedFactory{clients: []*scriptedClient{
		{err: &smithy.GenericAPIError{Code: "ExpiredTokenException"}},
	}}
	router := newTestRouter(factory, &staticRetriever{})

	w := postJSON(t, router, "/api/chat/stream", datatypes.ChatRequest{
		Language:    "eng",
		Ingredients: []string{"beef"},
	})

	// All three attempts failed before the first fragment, so a real
	// status code is still possible.
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "<error>")
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestHandleChatStream_InvalidBody(t *testing.T) {
	router := newTestRouter(&scriptedFactory{clients: []*scriptedClient{{}}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChatStream_ValidationFailure(t *testing.T) {
	router := newTestRouter(&scriptedFactory{clients: []*scriptedClient{{}}}, nil)

	w := postJSON(t, router, "/api/chat/stream", datatypes.ChatRequest{
		Language:    "eng",
		Ingredients: []string{"rice"},
		ChatHistory: []datatypes.Message{
			{Role: "system", Content: "not a valid role"},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_ReturnsRecipeWithPreview(t *testing.T) {
	recipe := "<recipe>\n" +
		"<title>Kimchi Fried Rice (1 serving)</title>\n" +
		"<section>\n<title>1. Ingredients 🥣</title>\n<ingredients>\n" +
		"- Kimchi (100g)\n- Rice (1 bowl)\n</ingredients>\n</section>\n" +
		"<section>\n<title>2. Cooking Method 🍳 (Total estimated time: 15 minutes)</title>\n</section>\n" +
		"</recipe>"
	factory := &scriptedFactory{clients: []*scriptedClient{{fragments: []string{recipe}}}}
	router := newTestRouter(factory, &staticRetriever{})

	w := postJSON(t, router, "/api/chat", datatypes.ChatRequest{
		Language:    "eng",
		Ingredients: []string{"kimchi", "rice"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, recipe, resp.FullRecipe)
	require.NotNil(t, resp.Preview)
	assert.Equal(t, "Total estimated time: 15 minutes", resp.Preview.TotalTime)
	assert.Equal(t, []string{"- Kimchi (100g)", "- Rice (1 bowl)"}, resp.Preview.Ingredients)
}

func TestHandleChat_UnparsableOutputHasNullPreview(t *testing.T) {
	factory := &scriptedFactory{clients: []*scriptedClient{
		{fragments: []string{"Sorry, I can only help with K-Food recipes."}},
	}}
	router := newTestRouter(factory, &staticRetriever{})

	w := postJSON(t, router, "/api/chat", datatypes.ChatRequest{
		Language:    "eng",
		Ingredients: []string{"rocks"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Preview)
}

func TestHandleChat_GenerationFailure(t *testing.T) {
	factory := &scriptedFactory{clients: []*scriptedClient{
		{err: errors.New("model unavailable")},
	}}
	router := newTestRouter(factory, &staticRetriever{})

	w := postJSON(t, router, "/api/chat", datatypes.ChatRequest{
		Language:    "kor",
		Ingredients: []string{"김치"},
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "model unavailable")
}
