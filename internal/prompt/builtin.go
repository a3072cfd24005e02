//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package prompt

// BuiltinStore returns the versioned templates shipped with the server.
// Operators can override them with a template file, but the server is
// fully functional without one.
func BuiltinStore() *MemoryStore {
	return NewMemoryStore(
		&Template{
			ID:          "default_v1",
			Name:        "Default",
			Description: "General-purpose grounded answering",
			SystemPrompt: `You are a professional code assistant.
Answer the question based ONLY on the following context.
If the answer is not in the context, say you don't know.

Context:
{{context}}`,
			Body:      "{{query}}",
			Variables: []string{"query", "context"},
		},
		&Template{
			ID:          "code_search_v1",
			Name:        "Code Search",
			Description: "Locate code relevant to a query",
			SystemPrompt: `You are a code search expert.
Based on the context provided, locate and explain the code relevant to the user's query.
Highlight file paths and line numbers if available.

Context:
{{context}}`,
			Body:      "{{query}}",
			Variables: []string{"query", "context"},
		},
		&Template{
			ID:          "code_explain_v1",
			Name:        "Code Explanation",
			Description: "Explain code functionality step by step",
			SystemPrompt: `You are a code explanation expert.
Explain the functionality of the code provided in the context.
Break down complex logic into simple steps.

Context:
{{context}}`,
			Body:      "{{query}}",
			Variables: []string{"query", "context"},
		},
		&Template{
			ID:          "code_review_v1",
			Name:        "Code Review",
			Description: "Review code quality and correctness",
			SystemPrompt: `You are a code review expert.
Review the code in the context for correctness, clarity, and maintainability.
Point out concrete issues and suggest improvements.

Context:
{{context}}`,
			Body:      "{{query}}",
			Variables: []string{"query", "context"},
		},
		&Template{
			ID:          "bug_fix_v1",
			Name:        "Bug Fix",
			Description: "Diagnose and fix code issues",
			SystemPrompt: `You are a debugging expert.
Use the context to diagnose the reported problem and propose a concrete fix.
Explain the root cause before the fix.

Context:
{{context}}`,
			Body:      "{{query}}",
			Variables: []string{"query", "context"},
		},
		&Template{
			ID:          "refactor_v1",
			Name:        "Refactoring",
			Description: "Suggest refactorings",
			SystemPrompt: `You are a refactoring expert.
Suggest refactorings for the code in the context that preserve behavior.
Prefer small, safe, incremental changes.

Context:
{{context}}`,
			Body:      "{{query}}",
			Variables: []string{"query", "context"},
		},
		&Template{
			ID:          "general_qa_v1",
			Name:        "General Q&A",
			Description: "Technical questions with context as reference",
			SystemPrompt: `You are a helpful technical assistant.
Answer the question using the provided context as a reference.

Context:
{{context}}`,
			Body:      "{{query}}",
			Variables: []string{"query", "context"},
		},
		&Template{
			ID:          "casual_chat_v1",
			Name:        "Casual Chat",
			Description: "Direct answers without retrieved context",
			SystemPrompt: `You are a helpful technical assistant.
Answer the user's question directly and concisely.`,
			Body:      "{{query}}",
			Variables: []string{"query"},
		},
	)
}
