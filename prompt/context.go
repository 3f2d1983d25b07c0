// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package prompt

import "strings"

// ContextSeparator visually separates retrieved documents inside the prompt.
const ContextSeparator = "\n\n---\n\n"

// FormatDocs joins retrieved document texts into a single context blob.
//
// # Description
//
// Each document's text is trimmed of surrounding whitespace; empty results
// are dropped. The survivors are joined with ContextSeparator in input order.
// An empty input (or an input of only blank documents) yields "".
//
// FormatDocs is a pure function and never fails.
//
// # Examples
//
//	FormatDocs([]string{" a ", "", " b "})  // "a\n\n---\n\nb"
func FormatDocs(docs []string) string {
	formatted := make([]string, 0, len(docs))
	for _, d := range docs {
		if t := strings.TrimSpace(d); t != "" {
			formatted = append(formatted, t)
		}
	}
	return strings.Join(formatted, ContextSeparator)
}
