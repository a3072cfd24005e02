//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/cortexlab/code-assist-server/internal/llm"
)

// classifyInstruction is the fixed system prompt for classification.
// It enumerates the closed intent set and the required JSON shape.
const classifyInstruction = `Analyze the user question to identify the intent type and key entities.

Available Intent Types:
- code_search: Search for specific code
- code_explain: Explain code functionality
- code_review: Review code quality
- bug_fix: Fix code issues
- refactor: Refactoring suggestions
- general_qa: General technical Q&A
- casual_chat: Simple greetings, small talk, or basic questions that don't need context

Return the result in JSON format matching the following structure:
{
    "intent": "intent_type",
    "confidence": 0.95,
    "entities": {
        "language": "programming_language",
        "component": "component/module",
        "keywords": ["keyword1", "keyword2"]
    },
    "suggested_prompt_template": "template_id",
    "requires_clarification": false
}

If the confidence is low (< 0.7), set requires_clarification to true.`

// Classifier maps queries to intent categories via the LLM backend.
type Classifier struct {
	backend llm.Backend
	logger  *slog.Logger
}

// NewClassifier creates a classifier over the given backend.
func NewClassifier(backend llm.Backend, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{backend: backend, logger: logger}
}

// classifierOutput is the JSON shape the backend is asked to produce.
type classifierOutput struct {
	Intent                string         `json:"intent"`
	Confidence            float64        `json:"confidence"`
	Entities              map[string]any `json:"entities"`
	SuggestedTemplate     string         `json:"suggested_prompt_template"`
	RequiresClarification bool           `json:"requires_clarification"`
}

// Classify classifies a query. It never fails: any backend or parsing
// failure is logged and replaced by a safe default result, so intent
// classification is never a single point of total request failure.
func (c *Classifier) Classify(ctx context.Context, query string) *Result {
	raw, err := c.backend.Generate(ctx, classifyInstruction, query)
	if err != nil {
		c.logger.Warn("intent classification failed, using default",
			"error", err)
		return safeDefault()
	}

	var out classifierOutput
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		c.logger.Warn("failed to parse classifier output, using default",
			"error", err)
		return safeDefault()
	}

	intentType := parseType(out.Intent)

	templateID := out.SuggestedTemplate
	if templateID == "" || templateID == "template_id" || !allowedTemplates[templateID] {
		templateID = FallbackTemplate(intentType)
	}

	entities := out.Entities
	if entities == nil {
		entities = map[string]any{}
	}

	return &Result{
		Intent:         intentType,
		Confidence:     out.Confidence,
		Entities:       entities,
		PromptTemplate: templateID,
		RequiresClarification: out.RequiresClarification ||
			out.Confidence < ClarificationThreshold,
	}
}

// safeDefault is the result used when classification fails entirely.
func safeDefault() *Result {
	return &Result{
		Intent:                GeneralQA,
		Confidence:            0.5,
		Entities:              map[string]any{},
		PromptTemplate:        "general_qa_v1",
		RequiresClarification: false,
	}
}

// extractJSON strips markdown code fences and surrounding prose,
// returning the first top-level JSON object in the text.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			return text[start : end+1]
		}
	}
	return text
}
