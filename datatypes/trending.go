// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// HotRecipe is one row of the precomputed trending-recipe ranking.
//
// The ranking is produced offline (Reddit mining scripts) and served
// read-only; this backend never writes to the table.
type HotRecipe struct {
	Ranking     int    `json:"ranking"`
	RecipeName  string `json:"recipe_name"`
	ImageURL    string `json:"image_url"`
	CookTime    string `json:"cook_time"`
	Description string `json:"description"`
}

// HotRecipeDetail extends HotRecipe with the full precomputed recipe text
// in both languages.
type HotRecipeDetail struct {
	HotRecipe
	RecipeDetailKo string `json:"recipe_detail_ko"`
	RecipeDetailEn string `json:"recipe_detail_en"`
}

// TopIngredient is one row of the precomputed trending-ingredient ranking,
// aggregated offline from grocery sales data.
type TopIngredient struct {
	Ranking        int    `json:"ranking"`
	IngredientName string `json:"ingredient_name"`
	TotalQuantity  int64  `json:"total_quantity"`
}

// RecommendationResponse is the body for GET /api/recommend.
type RecommendationResponse struct {
	Recommendations []HotRecipe `json:"recommendations"`
}
