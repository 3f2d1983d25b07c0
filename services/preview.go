// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"regexp"
	"strings"

	"github.com/K-OOK/kook-backend/datatypes"
	"github.com/K-OOK/kook-backend/prompt"
)

// Recipe template markers the model is instructed to emit. The parser keys
// on these rather than full XML parsing: model output is XML-shaped but not
// well-formed XML (emoji, free text, unescaped characters).
const (
	ingredientsTitleEng = "1. Ingredients 🥣"
	ingredientsTitleKor = "1. 재료 🥣"

	cookingTitleEng = "2. Cooking Method 🍳"
	cookingTitleKor = "2. 조리 방법 🍳"

	totalTimeUnknownEng = "Information not available"
	totalTimeUnknownKor = "정보 없음"
)

var (
	totalTimeEng = regexp.MustCompile(`\((Total estimated time:.*?)\)`)
	totalTimeKor = regexp.MustCompile(`\((총 예상 시간:.*?)\)`)
)

// ParseRecipePreview extracts the preview card from a generated recipe.
//
// # Description
//
// Best-effort: pulls the ingredient lines from the "<ingredients>" block of
// the ingredients section and the total time from the cooking-method
// section title. A recipe missing either piece still yields a preview with
// empty ingredients or the language-appropriate "unknown" time. Output with
// no recognizable recipe structure at all yields nil; preview parsing never
// fails the request.
func ParseRecipePreview(recipe string, lang prompt.Language) *datatypes.ChatPreviewInfo {
	body, ok := recipeBody(recipe)
	if !ok {
		return nil
	}

	ingredientsTitle := ingredientsTitleKor
	cookingTitle := cookingTitleKor
	totalTimeRe := totalTimeKor
	totalTime := totalTimeUnknownKor
	if lang == prompt.English {
		ingredientsTitle = ingredientsTitleEng
		cookingTitle = cookingTitleEng
		totalTimeRe = totalTimeEng
		totalTime = totalTimeUnknownEng
	}

	ingredients := []string{}
	if block, ok := sectionBlock(body, ingredientsTitle, "ingredients"); ok {
		for _, line := range strings.Split(block, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				ingredients = append(ingredients, line)
			}
		}
	}

	if title, ok := sectionTitle(body, cookingTitle); ok {
		if match := totalTimeRe.FindStringSubmatch(title); match != nil {
			totalTime = match[1]
		}
	}

	return &datatypes.ChatPreviewInfo{
		TotalTime:   totalTime,
		Ingredients: ingredients,
	}
}

// recipeBody trims the output to the <recipe> element, dropping any chatter
// the model emitted around the template.
func recipeBody(s string) (string, bool) {
	start := strings.Index(s, "<recipe>")
	if start < 0 {
		return "", false
	}
	s = s[start+len("<recipe>"):]
	if end := strings.Index(s, "</recipe>"); end >= 0 {
		s = s[:end]
	}
	return s, true
}

// sectionTitle returns the full <title> text of the section whose title
// starts with the given prefix.
func sectionTitle(body, prefix string) (string, bool) {
	rest := body
	for {
		idx := strings.Index(rest, "<title>")
		if idx < 0 {
			return "", false
		}
		rest = rest[idx+len("<title>"):]
		end := strings.Index(rest, "</title>")
		if end < 0 {
			return "", false
		}
		title := strings.TrimSpace(rest[:end])
		if strings.HasPrefix(title, prefix) {
			return title, true
		}
		rest = rest[end+len("</title>"):]
	}
}

// sectionBlock returns the inner text of the <tag> element that follows the
// section title matching prefix.
func sectionBlock(body, prefix, tag string) (string, bool) {
	rest := body
	open := "<" + tag + ">"
	closing := "</" + tag + ">"
	for {
		idx := strings.Index(rest, "<title>")
		if idx < 0 {
			return "", false
		}
		rest = rest[idx+len("<title>"):]
		end := strings.Index(rest, "</title>")
		if end < 0 {
			return "", false
		}
		title := strings.TrimSpace(rest[:end])
		rest = rest[end+len("</title>"):]
		if !strings.HasPrefix(title, prefix) {
			continue
		}
		start := strings.Index(rest, open)
		if start < 0 {
			return "", false
		}
		rest = rest[start+len(open):]
		stop := strings.Index(rest, closing)
		if stop < 0 {
			return "", false
		}
		return rest[:stop], true
	}
}
