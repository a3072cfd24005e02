//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package prompt

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cortexlab/code-assist-server/internal/retrieval"
)

// defaultSystemPrompt is used when a template carries no system prompt
// of its own.
const defaultSystemPrompt = `You are a professional code assistant, skilled in:
1. Understanding code logic and architecture
2. Providing clear technical explanations
3. Giving executable code suggestions

Please answer the question based on the provided context information. If the context is insufficient to answer the question, please state clearly.`

// historyWindow bounds how many trailing conversation turns are
// rendered into the prompt.
const historyWindow = 5

// Turn is one prior message in the conversation.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Bundle is an assembled system/user prompt pair. It retains the
// assembly inputs so OptimizeForTokenLimit can re-render with reduced
// content without re-running retrieval.
type Bundle struct {
	System string
	User   string

	template *Template
	docs     []retrieval.Document
	history  []Turn
	query    string
	vars     map[string]string
}

// Assembler renders templates into prompt bundles.
type Assembler struct {
	store  Store
	logger *slog.Logger
}

// NewAssembler creates an assembler over the given template store.
func NewAssembler(store Store, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{store: store, logger: logger}
}

// Assemble renders the template identified by templateID with the
// query, retrieved documents, extra variables, and conversation
// history. An unknown template id falls back to a minimal built-in
// template rather than failing the request.
func (a *Assembler) Assemble(
	templateID string,
	query string,
	docs []retrieval.Document,
	extra map[string]string,
	history []Turn,
) (*Bundle, error) {
	tmpl, err := a.store.Get(templateID)
	if err != nil {
		a.logger.Warn("template not found, using fallback",
			"template_id", templateID)
		tmpl = fallbackTemplate()
	}

	b := &Bundle{
		template: tmpl,
		docs:     docs,
		history:  history,
		query:    query,
		vars:     extra,
	}
	if err := b.render(); err != nil {
		return nil, err
	}
	return b, nil
}

// fallbackTemplate is the minimal template used when the requested id
// does not resolve.
func fallbackTemplate() *Template {
	return &Template{
		ID:          "default",
		Name:        "Default",
		Description: "Default template",
		Body:        "{{query}}\n\nContext:\n{{context}}",
		Variables:   []string{"query", "context"},
	}
}

// render fills in System and User from the bundle's current inputs.
func (b *Bundle) render() error {
	vars := map[string]string{
		"query":        b.query,
		"context":      formatContext(b.docs),
		"chat_history": formatHistory(b.history),
	}
	for k, v := range b.vars {
		vars[k] = v
	}

	for _, name := range b.template.Variables {
		if _, ok := vars[name]; !ok {
			return fmt.Errorf("template %s: missing variable %q", b.template.ID, name)
		}
	}

	b.User = substitute(b.template.Body, vars)

	system := b.template.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	system = substitute(system, vars)

	if len(b.template.FewShot) > 0 {
		system += "\n\nExamples:\n" + formatFewShot(b.template.FewShot)
	}
	b.System = system

	return nil
}

// substitute replaces {{name}} placeholders with their values.
// Placeholders without a value are left untouched.
func substitute(text string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// formatContext renders retrieved documents into a numbered block.
func formatContext(docs []retrieval.Document) string {
	if len(docs) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[Document %d]\nSource: %s\nRelevance: %.2f\nContent:\n%s\n---",
			i+1, doc.Source, doc.Score, doc.Content)
	}
	return sb.String()
}

// formatHistory renders the trailing historyWindow turns.
func formatHistory(history []Turn) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	lines := make([]string, 0, len(history))
	for _, turn := range history {
		role := "Assistant"
		if turn.Role == "user" {
			role = "User"
		}
		lines = append(lines, role+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}

func formatFewShot(examples []Example) string {
	parts := make([]string, 0, len(examples))
	for _, ex := range examples {
		parts = append(parts, "Q: "+ex.Input+"\nA: "+ex.Output)
	}
	return strings.Join(parts, "\n\n")
}

// dropLeastRelevant removes the lowest-scored document, preserving the
// original order of the rest.
func dropLeastRelevant(docs []retrieval.Document) []retrieval.Document {
	if len(docs) == 0 {
		return docs
	}

	lowest := 0
	for i, doc := range docs {
		if doc.Score < docs[lowest].Score {
			lowest = i
		}
	}

	out := make([]retrieval.Document, 0, len(docs)-1)
	out = append(out, docs[:lowest]...)
	out = append(out, docs[lowest+1:]...)
	return out
}
