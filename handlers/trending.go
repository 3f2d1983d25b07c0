// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/K-OOK/kook-backend/datatypes"
	"github.com/K-OOK/kook-backend/observability"
	"github.com/K-OOK/kook-backend/store"
)

// TrendingHandler serves the precomputed trending data.
//
// # Description
//
// All four endpoints are read-only views over the trending store:
//
//   - GET /api/recommend: four random hot recipes for the landing card
//   - GET /api/recipes: the full hot recipe ranking
//   - GET /api/recipes/:ranking: one recipe with full details
//   - GET /api/ingredients/top: the top-selling ingredients
//
// An empty store serves empty lists, and list endpoints degrade to empty
// lists even when the store query fails; only the detail lookup surfaces
// store failures as 500s.
type TrendingHandler struct {
	store  *store.TrendingStore
	tracer trace.Tracer
}

// NewTrendingHandler creates the trending endpoints handler.
func NewTrendingHandler(s *store.TrendingStore) *TrendingHandler {
	return &TrendingHandler{
		store:  s,
		tracer: otel.Tracer("kook-backend/handlers/trending"),
	}
}

// HandleRecommend processes GET /api/recommend requests.
func (h *TrendingHandler) HandleRecommend(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleRecommend")
	defer span.End()

	recipes, err := h.store.RandomHotRecipes(ctx)
	if err != nil {
		h.storeDegraded(span, "Failed to load recommendations", err)
		c.JSON(http.StatusOK, datatypes.RecommendationResponse{Recommendations: []datatypes.HotRecipe{}})
		return
	}

	span.SetAttributes(attribute.Int("recommend.count", len(recipes)))
	span.SetStatus(codes.Ok, "recommendations served")
	h.recordSuccess()
	c.JSON(http.StatusOK, datatypes.RecommendationResponse{Recommendations: recipes})
}

// HandleRecipes processes GET /api/recipes requests.
func (h *TrendingHandler) HandleRecipes(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleRecipes")
	defer span.End()

	recipes, err := h.store.HotRecipes(ctx)
	if err != nil {
		h.storeDegraded(span, "Failed to load hot recipes", err)
		c.JSON(http.StatusOK, []datatypes.HotRecipe{})
		return
	}

	span.SetAttributes(attribute.Int("recipes.count", len(recipes)))
	span.SetStatus(codes.Ok, "recipes served")
	h.recordSuccess()
	c.JSON(http.StatusOK, recipes)
}

// HandleRecipeDetail processes GET /api/recipes/:ranking requests.
func (h *TrendingHandler) HandleRecipeDetail(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleRecipeDetail")
	defer span.End()

	ranking, err := strconv.Atoi(c.Param("ranking"))
	if err != nil {
		span.SetStatus(codes.Error, "invalid ranking parameter")
		if m := observability.DefaultMetrics; m != nil {
			m.RecordError(observability.EndpointTrending, observability.ErrorCodeValidation)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "ranking must be an integer"})
		return
	}
	span.SetAttributes(attribute.Int("recipe.ranking", ranking))

	detail, err := h.store.HotRecipeDetail(ctx, ranking)
	if errors.Is(err, store.ErrRecipeNotFound) {
		span.SetStatus(codes.Error, "recipe not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	if err != nil {
		h.storeFailure(c, span, "Failed to load recipe detail", err)
		return
	}

	span.SetStatus(codes.Ok, "recipe detail served")
	h.recordSuccess()
	c.JSON(http.StatusOK, detail)
}

// HandleTopIngredients processes GET /api/ingredients/top requests.
func (h *TrendingHandler) HandleTopIngredients(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "HandleTopIngredients")
	defer span.End()

	ingredients, err := h.store.TopIngredients(ctx)
	if err != nil {
		h.storeDegraded(span, "Failed to load top ingredients", err)
		c.JSON(http.StatusOK, []datatypes.TopIngredient{})
		return
	}

	span.SetAttributes(attribute.Int("ingredients.count", len(ingredients)))
	span.SetStatus(codes.Ok, "top ingredients served")
	h.recordSuccess()
	c.JSON(http.StatusOK, ingredients)
}

func (h *TrendingHandler) storeFailure(c *gin.Context, span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "store query failed")
	slog.Error(msg, "error", err)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordError(observability.EndpointTrending, observability.ErrorCodeStore)
		m.RecordRequest(observability.EndpointTrending, false)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "trending data unavailable"})
}

// storeDegraded records a store failure for a list endpoint. The caller still
// serves an empty list so the frontend cards render without data.
func (h *TrendingHandler) storeDegraded(span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "store query failed")
	slog.Error(msg, "error", err)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordError(observability.EndpointTrending, observability.ErrorCodeStore)
		m.RecordRequest(observability.EndpointTrending, false)
	}
}

func (h *TrendingHandler) recordSuccess() {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(observability.EndpointTrending, true)
	}
}
