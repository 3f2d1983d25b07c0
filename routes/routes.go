// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/K-OOK/kook-backend/handlers"
	"github.com/K-OOK/kook-backend/services"
	"github.com/K-OOK/kook-backend/store"
)

// SetupRoutes registers every endpoint of the recipe backend.
func SetupRoutes(router *gin.Engine, recipeService *services.RecipeService, trendingStore *store.TrendingStore) {
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chat := handlers.NewChatHandler(recipeService)
	trending := handlers.NewTrendingHandler(trendingStore)

	api := router.Group("/api")
	{
		api.POST("/chat", chat.HandleChat)
		api.POST("/chat/stream", chat.HandleChatStream)

		api.GET("/recommend", trending.HandleRecommend)
		api.GET("/recipes", trending.HandleRecipes)
		api.GET("/recipes/:ranking", trending.HandleRecipeDetail)
		api.GET("/ingredients/top", trending.HandleTopIngredients)
	}
}
