// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store provides read access to the trending recipe database.
//
// # Description
//
// The trending data (curated hot recipes and ingredient sales rankings) is
// produced by an offline pipeline and shipped as a SQLite file. This
// package opens it through the libsql driver, applies schema migrations
// with goose, and exposes the read queries the trending endpoints need.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/K-OOK/kook-backend/datatypes"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRecipeNotFound is returned when no recipe exists at the requested
// ranking.
var ErrRecipeNotFound = errors.New("recipe not found")

// RecommendationCount is the number of random recipes served per
// recommendation request.
const RecommendationCount = 4

// TopIngredientCount is the number of ingredient rankings served.
const TopIngredientCount = 10

// TrendingStore wraps the trending SQLite database.
//
// # Thread Safety
//
// Safe for concurrent use; database/sql pools connections internally.
type TrendingStore struct {
	db *sql.DB
}

// Open opens the trending database and brings its schema up to date.
//
// # Inputs
//
//   - dsn: libsql DSN, e.g. "file:./data/trending.db" or
//     "file::memory:?cache=shared" in tests.
//
// # Outputs
//
//   - *TrendingStore: Ready for queries. Tables exist but may be empty; an
//     empty store serves empty lists, not errors.
func Open(dsn string) (*TrendingStore, error) {
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open trending db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping trending db: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &TrendingStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *TrendingStore) Close() error {
	return s.db.Close()
}

// RandomHotRecipes returns up to RecommendationCount recipes in random
// order, for the recommendation card.
func (s *TrendingStore) RandomHotRecipes(ctx context.Context) ([]datatypes.HotRecipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ranking, recipe_name, image_url, cook_time, description
		FROM hot_recipes
		ORDER BY RANDOM()
		LIMIT ?`, RecommendationCount)
	if err != nil {
		return nil, fmt.Errorf("query random hot recipes: %w", err)
	}
	defer rows.Close()
	return scanHotRecipes(rows)
}

// HotRecipes returns every trending recipe ordered by ranking.
func (s *TrendingStore) HotRecipes(ctx context.Context) ([]datatypes.HotRecipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ranking, recipe_name, image_url, cook_time, description
		FROM hot_recipes
		ORDER BY ranking`)
	if err != nil {
		return nil, fmt.Errorf("query hot recipes: %w", err)
	}
	defer rows.Close()
	return scanHotRecipes(rows)
}

// HotRecipeDetail returns one recipe with full details by ranking.
// Returns ErrRecipeNotFound when the ranking does not exist.
func (s *TrendingStore) HotRecipeDetail(ctx context.Context, ranking int) (*datatypes.HotRecipeDetail, error) {
	var d datatypes.HotRecipeDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT ranking, recipe_name, image_url, cook_time, description,
		       recipe_detail_ko, recipe_detail_en
		FROM hot_recipes
		WHERE ranking = ?`, ranking).
		Scan(&d.Ranking, &d.RecipeName, &d.ImageURL, &d.CookTime,
			&d.Description, &d.RecipeDetailKo, &d.RecipeDetailEn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query hot recipe %d: %w", ranking, err)
	}
	return &d, nil
}

// TopIngredients returns the top-selling ingredients, best rank first.
func (s *TrendingStore) TopIngredients(ctx context.Context) ([]datatypes.TopIngredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT IngredientRank, ProductName, TotalQuantity
		FROM grocery_sales
		ORDER BY IngredientRank
		LIMIT ?`, TopIngredientCount)
	if err != nil {
		return nil, fmt.Errorf("query top ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []datatypes.TopIngredient{}
	for rows.Next() {
		var ing datatypes.TopIngredient
		if err := rows.Scan(&ing.Ranking, &ing.IngredientName, &ing.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scan ingredient row: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredient rows: %w", err)
	}
	return ingredients, nil
}

func scanHotRecipes(rows *sql.Rows) ([]datatypes.HotRecipe, error) {
	recipes := []datatypes.HotRecipe{}
	for rows.Next() {
		var r datatypes.HotRecipe
		if err := rows.Scan(&r.Ranking, &r.RecipeName, &r.ImageURL, &r.CookTime, &r.Description); err != nil {
			return nil, fmt.Errorf("scan recipe row: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe rows: %w", err)
	}
	return recipes, nil
}
