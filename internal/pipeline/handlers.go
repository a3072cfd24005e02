//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cortexlab/code-assist-server/internal/intent"
	"github.com/cortexlab/code-assist-server/internal/llm"
	"github.com/cortexlab/code-assist-server/internal/prompt"
	"github.com/cortexlab/code-assist-server/internal/retrieval"
	"github.com/cortexlab/code-assist-server/internal/trace"
)

// Components holds the collaborators the default stage handlers are
// built from.
type Components struct {
	Classifier *intent.Classifier
	Retriever  *retrieval.Retriever
	Assembler  *prompt.Assembler
	Backend    llm.Backend
	Recorder   trace.Recorder

	// MaxContextDocs caps how many documents survive context building.
	// Zero means the default of 5.
	MaxContextDocs int

	// TokenBudget bounds the assembled prompt size. Zero disables
	// trimming.
	TokenBudget int
}

// DefaultHandlers builds the standard stage handler set.
func DefaultHandlers(c Components) map[Stage]Handler {
	recorder := c.Recorder
	if recorder == nil {
		recorder = trace.NopRecorder{}
	}

	maxDocs := c.MaxContextDocs
	if maxDocs <= 0 {
		maxDocs = 5
	}

	handlers := map[Stage]Handler{
		StageQueryParse: HandlerFunc(func(ctx context.Context, pc *Context) error {
			pc.Query = strings.TrimSpace(pc.Query)
			if pc.Query == "" {
				return fmt.Errorf("empty query")
			}
			return nil
		}),

		StageIntentClassify: HandlerFunc(func(ctx context.Context, pc *Context) error {
			if c.Classifier == nil {
				return nil
			}
			pc.Intent = c.Classifier.Classify(ctx, pc.Query)
			recorder.Record(pc.SessionID, "INTENT_CLASSIFIED", map[string]any{
				"intent":                    string(pc.Intent.Intent),
				"confidence":                pc.Intent.Confidence,
				"entities":                  pc.Intent.Entities,
				"suggested_prompt_template": pc.Intent.PromptTemplate,
				"requires_clarification":    pc.Intent.RequiresClarification,
			})
			return nil
		}),

		StageRetrieve: HandlerFunc(func(ctx context.Context, pc *Context) error {
			if c.Retriever == nil {
				return nil
			}
			// Casual chat never touches the document sources.
			if pc.Intent != nil && pc.Intent.Intent == intent.CasualChat {
				recorder.Record(pc.SessionID, "RETRIEVAL_SKIPPED", map[string]any{
					"reason": "casual_chat intent",
				})
				return nil
			}

			pc.Documents = c.Retriever.Retrieve(ctx, pc.Query)

			sources := make([]string, len(pc.Documents))
			for i, doc := range pc.Documents {
				sources[i] = doc.Source
			}
			recorder.Record(pc.SessionID, "RETRIEVAL_SUCCESS", map[string]any{
				"count":   len(pc.Documents),
				"sources": sources,
			})
			return nil
		}),

		StageRerank: HandlerFunc(func(ctx context.Context, pc *Context) error {
			if len(pc.Documents) < 2 {
				return nil
			}
			sort.SliceStable(pc.Documents, func(i, j int) bool {
				return weightedScore(pc.Documents[i]) > weightedScore(pc.Documents[j])
			})
			return nil
		}),

		StageContextBuild: HandlerFunc(func(ctx context.Context, pc *Context) error {
			if len(pc.Documents) > maxDocs {
				pc.Documents = pc.Documents[:maxDocs]
				pc.Metadata["context_truncated"] = true
			}
			recorder.Record(pc.SessionID, "CONTEXT_BUILT", map[string]any{
				"documents": len(pc.Documents),
			})
			return nil
		}),

		StagePromptAssemble: HandlerFunc(func(ctx context.Context, pc *Context) error {
			if c.Assembler == nil {
				return nil
			}

			templateID := "default_v1"
			if pc.Intent != nil && pc.Intent.PromptTemplate != "" {
				templateID = pc.Intent.PromptTemplate
			}

			bundle, err := c.Assembler.Assemble(templateID, pc.Query, pc.Documents, pc.Vars, pc.History)
			if err != nil {
				return err
			}
			if c.TokenBudget > 0 {
				if err := bundle.OptimizeForTokenLimit(c.TokenBudget, nil); err != nil {
					return err
				}
			}

			pc.Prompt = bundle
			pc.Metadata["template_used"] = templateID
			recorder.Record(pc.SessionID, "PROMPT_SELECTED", map[string]any{
				"template_id": templateID,
			})
			return nil
		}),

		StagePostProcess: HandlerFunc(func(ctx context.Context, pc *Context) error {
			pc.Response = strings.TrimSpace(pc.Response)
			return nil
		}),
	}

	if c.Backend != nil {
		handlers[StageGenerate] = HandlerFunc(func(ctx context.Context, pc *Context) error {
			if pc.Prompt == nil {
				return fmt.Errorf("no prompt assembled")
			}
			recorder.Record(pc.SessionID, "LLM_INPUT", map[string]any{
				"prompt_preview": preview(pc.Prompt.User, 500),
				"question":       pc.Query,
			})
			response, err := c.Backend.Generate(ctx, pc.Prompt.System, pc.Prompt.User)
			if err != nil {
				return err
			}
			pc.Response = response
			recorder.Record(pc.SessionID, "LLM_OUTPUT", map[string]any{"response": response})
			return nil
		})
	}

	return handlers
}

// weightedScore applies the source weight recorded at merge time.
func weightedScore(doc retrieval.Document) float64 {
	weight := 1.0
	if w, ok := doc.Metadata["source_weight"].(float64); ok && w > 0 {
		weight = w
	}
	return doc.Score * weight
}
