// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package prompt

import (
	"fmt"
	"strings"

	"github.com/K-OOK/kook-backend/datatypes"
)

// RetrievalQuery builds the short query phrase used against the knowledge
// base. It is intentionally terser than the user-facing request text so the
// vector search keys on the ingredients rather than on politeness filler.
func RetrievalQuery(lang Language, ingredients []string) string {
	if len(ingredients) > 0 {
		list := strings.Join(ingredients, ", ")
		if lang == English {
			return fmt.Sprintf("K-Food recipe using these ingredients: [%s]", list)
		}
		return fmt.Sprintf("재료: [%s]를 사용한 K-Food 레시피", list)
	}
	if lang == English {
		return "K-Food recipe"
	}
	return "K-Food 레시피"
}

// userQuery builds the full request phrase placed in the outbound user turn.
func userQuery(lang Language, ingredients []string) string {
	if len(ingredients) > 0 {
		list := strings.Join(ingredients, ", ")
		if lang == English {
			return fmt.Sprintf("Please create a K-Food recipe using these ingredients: [%s]", list)
		}
		return fmt.Sprintf("내가 가진 재료: [%s]로 K-Food 레시피를 만들어주세요.", list)
	}
	if lang == English {
		return "Please create a K-Food recipe."
	}
	return "K-Food 레시피를 만들어주세요."
}

// wrapWithContext embeds the retrieved context verbatim ahead of the user's
// request. Only called with non-empty context.
func wrapWithContext(lang Language, contextStr, query string) string {
	if lang == English {
		return fmt.Sprintf(`Here is some context from the knowledge base. Use this information to create the recipe:
<context>
%s
</context>

User Request: %s
`, contextStr, query)
	}
	return fmt.Sprintf(`Knowledge Base에서 검색된 참고 자료입니다. 이 정보를 활용해서 레시피를 만들어주세요:
<context>
%s
</context>

사용자 요청: %s
`, contextStr, query)
}

// BuildPayload assembles the outbound model payload for one attempt.
//
// # Description
//
// The payload is built deterministically from the request plus the formatted
// retrieval context, so the retry orchestrator can rebuild it from scratch on
// every attempt and get the identical prompt.
//
// Rules, in order:
//
//  1. System instructions are selected by language (Korean fallback).
//  2. First turn: the user turn is the templated ingredient request, wrapped
//     with the retrieved context when one is present.
//  3. Follow-up turn: the user's free-text follow-up rides in the first
//     ingredients slot and is forwarded verbatim as the user turn. Retrieval
//     context is never applied on follow-ups.
//  4. Messages are the caller-supplied history, unmodified, plus the new
//     user turn.
//
// BuildPayload is pure and never fails.
//
// # Inputs
//
//   - req: The chat request. Not mutated.
//   - contextStr: Formatted retrieval context ("" when retrieval was skipped
//     or returned nothing).
//
// # Outputs
//
//   - datatypes.PromptPayload: Ready for the streaming client.
func BuildPayload(req *datatypes.ChatRequest, contextStr string) datatypes.PromptPayload {
	lang := ParseLanguage(req.Language)

	var userText string
	switch {
	case req.IsFirstTurn() && contextStr != "":
		userText = wrapWithContext(lang, contextStr, userQuery(lang, req.Ingredients))
	case req.IsFirstTurn():
		userText = userQuery(lang, req.Ingredients)
	case len(req.Ingredients) > 0:
		// Follow-up: the ingredients field carries the user's free-text
		// question. Kept for wire compatibility with existing clients.
		userText = req.Ingredients[0]
	default:
		userText = userQuery(lang, nil)
	}

	messages := make([]datatypes.Message, 0, len(req.ChatHistory)+1)
	messages = append(messages, req.ChatHistory...)
	messages = append(messages, datatypes.Message{
		Role:    datatypes.RoleUser,
		Content: userText,
	})

	return datatypes.PromptPayload{
		System:   SystemPrompt(lang),
		Messages: messages,
	}
}

// RetrievalFailedNotice is the sentinel substituted for formatted context
// when the knowledge base call fails. It degrades recipe grounding, never
// availability.
func RetrievalFailedNotice(lang Language) string {
	if lang == English {
		return "Knowledge Base retrieval failed."
	}
	return "Knowledge Base 검색에 실패했습니다."
}
