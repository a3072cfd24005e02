//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package pipeline provides the staged request execution engine.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/cortexlab/code-assist-server/internal/intent"
	"github.com/cortexlab/code-assist-server/internal/prompt"
	"github.com/cortexlab/code-assist-server/internal/retrieval"
)

// Stage names a step in the fixed execution sequence.
type Stage string

const (
	StageQueryParse     Stage = "query_parse"
	StageIntentClassify Stage = "intent_classify"
	StageRetrieve       Stage = "retrieve"
	StageRerank         Stage = "rerank"
	StageContextBuild   Stage = "context_build"
	StagePromptAssemble Stage = "prompt_assemble"
	StageGenerate       Stage = "generate"
	StagePostProcess    Stage = "post_process"
)

// StageOrder is the fixed execution order. Stages without a registered
// handler are pass-throughs, never errors.
var StageOrder = []Stage{
	StageQueryParse,
	StageIntentClassify,
	StageRetrieve,
	StageRerank,
	StageContextBuild,
	StagePromptAssemble,
	StageGenerate,
	StagePostProcess,
}

// Request describes one execution of the pipeline.
type Request struct {
	Query     string
	SessionID string // Generated when empty
	UserID    string
	Context   map[string]string // Extra template variables from the caller
	History   []prompt.Turn
}

// Context is the per-request mutable record threaded through the
// stages. It is owned by a single execution and never shared across
// requests. Each field is populated by its owning stage; later stages
// read but do not overwrite.
type Context struct {
	Query     string
	SessionID string
	UserID    string
	Vars      map[string]string
	History   []prompt.Turn

	Intent    *intent.Result
	Documents []retrieval.Document
	Prompt    *prompt.Bundle
	Response  string
	Metadata  map[string]any
}

// NewContext creates the context for one request, generating a session
// id when the caller did not supply one.
func NewContext(req Request) *Context {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &Context{
		Query:     req.Query,
		SessionID: sessionID,
		UserID:    req.UserID,
		Vars:      req.Context,
		History:   req.History,
		Metadata:  map[string]any{},
	}
}

// Handler executes one stage against the request context.
type Handler interface {
	Run(ctx context.Context, pc *Context) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, pc *Context) error

// Run implements Handler.
func (f HandlerFunc) Run(ctx context.Context, pc *Context) error {
	return f(ctx, pc)
}

// Hook observes or transforms the context around each stage. Before
// and After both run in registration order.
type Hook interface {
	Before(ctx context.Context, stage Stage, pc *Context) error
	After(ctx context.Context, stage Stage, pc *Context) error
}
