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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cortexlab/code-assist-server/internal/llm"
	"github.com/cortexlab/code-assist-server/internal/trace"
)

// ErrGeneration marks failures of the generation stage. Unlike every
// earlier stage, generation failures are fatal to the request.
var ErrGeneration = errors.New("generation failed")

// ClarificationMessage is the response text used when a request is
// short-circuited for clarification.
const ClarificationMessage = "Clarification needed"

// Orchestrator runs the staged pipeline against one request at a time.
// The handler map and hook list are fixed at construction and never
// mutated by in-flight requests.
type Orchestrator struct {
	handlers map[Stage]Handler
	hooks    []Hook
	backend  llm.Backend
	recorder trace.Recorder
	logger   *slog.Logger
}

// OrchestratorConfig contains the configuration for creating an orchestrator.
type OrchestratorConfig struct {
	Handlers map[Stage]Handler
	Hooks    []Hook
	Backend  llm.Backend
	Recorder trace.Recorder
	Logger   *slog.Logger
}

// NewOrchestrator creates a pipeline orchestrator. The handler map is
// copied so later changes by the caller have no effect.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	handlers := make(map[Stage]Handler, len(cfg.Handlers))
	for stage, h := range cfg.Handlers {
		handlers[stage] = h
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = trace.NopRecorder{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		handlers: handlers,
		hooks:    append([]Hook(nil), cfg.Hooks...),
		backend:  cfg.Backend,
		recorder: recorder,
		logger:   logger,
	}
}

// ExecuteComplete runs every stage in order and returns the finished
// context. When the intent stage requires clarification the pipeline
// short-circuits immediately after classification and returns a
// clarification response without retrieval, assembly, or generation.
func (o *Orchestrator) ExecuteComplete(ctx context.Context, req Request) (*Context, error) {
	pc := NewContext(req)

	o.logger.Debug("executing pipeline", "session_id", pc.SessionID, "query", pc.Query)
	o.recorder.Record(pc.SessionID, "START_REQUEST", map[string]any{"query": pc.Query})

	for _, stage := range StageOrder {
		if stage == StageGenerate {
			if err := o.generate(ctx, pc); err != nil {
				return nil, err
			}
			continue
		}

		if err := o.runStage(ctx, stage, pc); err != nil {
			return nil, err
		}

		if stage == StageIntentClassify && pc.Intent != nil && pc.Intent.RequiresClarification {
			pc.Response = ClarificationMessage
			pc.Metadata["clarification"] = true
			o.recorder.Record(pc.SessionID, "CLARIFICATION_REQUIRED", map[string]any{
				"confidence": pc.Intent.Confidence,
			})
			return pc, nil
		}
	}

	return pc, nil
}

// ExecuteStream runs the pipeline and emits progress, tokens, and the
// terminal event on the returned channel. The channel closes after a
// done or error event, or as soon as the consumer's context is
// canceled; no events are buffered past consumer detach.
func (o *Orchestrator) ExecuteStream(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		pc := NewContext(req)
		o.recorder.Record(pc.SessionID, "START_REQUEST_STREAM", map[string]any{"query": pc.Query})

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		fail := func(err error) {
			o.logger.Error("streaming execution failed",
				"session_id", pc.SessionID, "error", err)
			emit(Event{Kind: EventError, Data: map[string]any{"message": err.Error()}})
		}

		if !emit(statusEvent(StageIntentClassify)) {
			return
		}

		for _, stage := range []Stage{StageQueryParse, StageIntentClassify} {
			if err := o.runStage(ctx, stage, pc); err != nil {
				fail(err)
				return
			}
		}

		// Clarification halts the stream the same way it halts the
		// blocking path: no retrieval, no generation, empty citations.
		if pc.Intent != nil && pc.Intent.RequiresClarification {
			pc.Metadata["clarification"] = true
			o.recorder.Record(pc.SessionID, "CLARIFICATION_REQUIRED", map[string]any{
				"confidence": pc.Intent.Confidence,
			})
			if !emit(Event{Kind: EventClarification, Data: map[string]any{
				"message":     ClarificationMessage,
				"suggestions": []string{},
			}}) {
				return
			}
			emit(Event{Kind: EventDone, Data: map[string]any{
				"session_id": pc.SessionID,
				"citations":  []Citation{},
			}})
			return
		}

		if !emit(statusEvent(StageRetrieve)) {
			return
		}

		if err := o.runStage(ctx, StageRetrieve, pc); err != nil {
			fail(err)
			return
		}

		// The retrieval event reports the raw merged result, before
		// reranking or context capping changes the document set.
		sources := make([]string, len(pc.Documents))
		for i, doc := range pc.Documents {
			sources[i] = doc.Source
		}
		if !emit(Event{Kind: EventRetrieval, Data: map[string]any{
			"found":   len(pc.Documents),
			"sources": sources,
		}}) {
			return
		}

		for _, stage := range []Stage{StageRerank, StageContextBuild, StagePromptAssemble} {
			if err := o.runStage(ctx, stage, pc); err != nil {
				fail(err)
				return
			}
		}

		if !emit(statusEvent(StageGenerate)) {
			return
		}

		if err := o.streamGenerate(ctx, pc, emit); err != nil {
			fail(err)
			return
		}

		if err := o.runStage(ctx, StagePostProcess, pc); err != nil {
			fail(err)
			return
		}

		emit(Event{Kind: EventDone, Data: map[string]any{
			"session_id": pc.SessionID,
			"citations":  CitationsFrom(pc.Documents),
		}})
	}()

	return events
}

// runStage invokes one stage under the hook list. A stage without a
// registered handler is a pass-through and does not trigger hooks.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, pc *Context) error {
	handler, ok := o.handlers[stage]
	if !ok {
		return nil
	}

	return o.runWithHooks(ctx, stage, pc, func() error {
		if err := handler.Run(ctx, pc); err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
		return nil
	})
}

// runWithHooks runs fn as the named stage with the hook list fired
// around it in registration order.
func (o *Orchestrator) runWithHooks(ctx context.Context, stage Stage, pc *Context, fn func() error) error {
	for _, hook := range o.hooks {
		if err := hook.Before(ctx, stage, pc); err != nil {
			return fmt.Errorf("hook before stage %s: %w", stage, err)
		}
	}

	if err := fn(); err != nil {
		return err
	}

	for _, hook := range o.hooks {
		if err := hook.After(ctx, stage, pc); err != nil {
			return fmt.Errorf("hook after stage %s: %w", stage, err)
		}
	}

	return nil
}

// generate runs the generation stage for blocking execution, falling
// back to the backend directly when no handler is registered.
func (o *Orchestrator) generate(ctx context.Context, pc *Context) error {
	if _, ok := o.handlers[StageGenerate]; ok {
		if err := o.runStage(ctx, StageGenerate, pc); err != nil {
			return generationError(err)
		}
		return nil
	}

	if o.backend == nil || pc.Prompt == nil {
		return nil
	}

	response, err := o.backend.Generate(ctx, pc.Prompt.System, pc.Prompt.User)
	if err != nil {
		return generationError(err)
	}

	pc.Response = response
	o.recorder.Record(pc.SessionID, "LLM_OUTPUT", map[string]any{"response": response})
	return nil
}

// streamGenerate runs streaming generation as the generate stage.
// Hooks fire around it only when generation actually runs, matching
// the pass-through rule for inactive stages.
func (o *Orchestrator) streamGenerate(ctx context.Context, pc *Context, emit func(Event) bool) error {
	if o.backend == nil || pc.Prompt == nil {
		return nil
	}

	return o.runWithHooks(ctx, StageGenerate, pc, func() error {
		return o.generateStream(ctx, pc, emit)
	})
}

// generateStream produces token events from the backend, accumulating
// the full response into the context.
func (o *Orchestrator) generateStream(ctx context.Context, pc *Context, emit func(Event) bool) error {
	chunks, errs := o.backend.GenerateStream(ctx, pc.Prompt.System, pc.Prompt.User)

	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
		if !emit(Event{Kind: EventToken, Data: map[string]any{"content": chunk}}) {
			return ctx.Err()
		}
	}
	if err := <-errs; err != nil {
		return generationError(err)
	}

	pc.Response = full.String()
	o.recorder.Record(pc.SessionID, "LLM_OUTPUT_STREAM_COMPLETE", map[string]any{
		"response_length": len(pc.Response),
	})
	return nil
}

// generationError relabels upstream auth and malformed-response faults
// into an actionable message instead of a raw transport error.
func generationError(err error) error {
	if llm.IsUpstreamFault(err) {
		return fmt.Errorf("%w: invalid upstream response: %v (check API credentials and model name)",
			ErrGeneration, err)
	}
	return fmt.Errorf("%w: %v", ErrGeneration, err)
}
