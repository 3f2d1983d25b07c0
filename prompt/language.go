// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package prompt assembles outbound model payloads: language-specific system
// instructions, ingredient queries, and retrieved-context formatting.
//
// Everything in this package is pure. Construction never fails; unrecognized
// input falls back to defaults instead of erroring.
package prompt

import "strings"

// Language is the closed set of supported response languages.
//
// The wire value is free-form; ParseLanguage coerces anything that is not
// "eng" to Korean.
type Language string

const (
	// Korean is the default response language.
	Korean Language = "kor"

	// English is the alternate response language.
	English Language = "eng"
)

// ParseLanguage maps a wire value onto the Language enum.
//
// Matching is case-insensitive. Every value other than "eng" (including
// empty and unknown codes like "fr") yields Korean.
func ParseLanguage(v string) Language {
	if strings.EqualFold(strings.TrimSpace(v), string(English)) {
		return English
	}
	return Korean
}
