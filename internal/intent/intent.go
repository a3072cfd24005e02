//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package intent classifies user queries into a closed set of intent
// categories using the language-model backend.
package intent

// Type is an intent category. The set is closed.
type Type string

const (
	CodeSearch    Type = "code_search"
	CodeExplain   Type = "code_explain"
	CodeReview    Type = "code_review"
	BugFix        Type = "bug_fix"
	Refactor      Type = "refactor"
	GeneralQA     Type = "general_qa"
	CasualChat    Type = "casual_chat"
	Clarification Type = "clarification"
)

// ClarificationThreshold is the confidence below which clarification is
// forced regardless of what the classifier reports. The boundary is
// inclusive on the "no clarification" side: 0.7 exactly does not force.
const ClarificationThreshold = 0.7

// Result is the outcome of classifying one query. Immutable once
// produced.
type Result struct {
	Intent                Type           `json:"intent"`
	Confidence            float64        `json:"confidence"`
	Entities              map[string]any `json:"entities"`
	PromptTemplate        string         `json:"suggested_prompt_template"`
	RequiresClarification bool           `json:"requires_clarification"`
}

// validTypes is the closed intent set.
var validTypes = map[Type]bool{
	CodeSearch:    true,
	CodeExplain:   true,
	CodeReview:    true,
	BugFix:        true,
	Refactor:      true,
	GeneralQA:     true,
	CasualChat:    true,
	Clarification: true,
}

// allowedTemplates is the fixed template id allow-list. Classifier
// output outside this set is replaced via FallbackTemplate.
var allowedTemplates = map[string]bool{
	"default_v1":      true,
	"code_search_v1":  true,
	"code_explain_v1": true,
	"code_review_v1":  true,
	"bug_fix_v1":      true,
	"refactor_v1":     true,
	"general_qa_v1":   true,
	"casual_chat_v1":  true,
}

// templateByIntent is the deterministic intent -> template id table.
var templateByIntent = map[Type]string{
	CodeSearch:  "code_search_v1",
	CodeExplain: "code_explain_v1",
	CodeReview:  "code_review_v1",
	BugFix:      "bug_fix_v1",
	Refactor:    "refactor_v1",
	GeneralQA:   "general_qa_v1",
	CasualChat:  "casual_chat_v1",
}

// FallbackTemplate returns the template id for an intent category, or
// default_v1 for categories without a dedicated template.
func FallbackTemplate(t Type) string {
	if id, ok := templateByIntent[t]; ok {
		return id
	}
	return "default_v1"
}

// parseType maps a raw label onto the closed intent set, falling back
// to general_qa for unknown labels.
func parseType(raw string) Type {
	if validTypes[Type(raw)] {
		return Type(raw)
	}
	return GeneralQA
}
