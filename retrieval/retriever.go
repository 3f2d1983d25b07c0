// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package retrieval fetches recipe documents from the knowledge base for
// first-turn prompt grounding.
package retrieval

import "context"

// Document is one retrieved passage of recipe text.
type Document struct {
	// Content is the raw passage text. May carry surrounding whitespace;
	// prompt assembly trims it.
	Content string
}

// Retriever performs a semantic search against the recipe knowledge base.
//
// # Description
//
// Retrieve returns the top-k passages for the query, ordered by relevance
// (most relevant first). Callers must preserve that order when assembling
// context. An empty result is a valid outcome, not an error.
//
// Retrieval failures are returned as errors; the caller decides whether to
// degrade or abort. The chat pipeline degrades: a failed retrieval becomes a
// sentinel context string and generation proceeds without grounding.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}
