//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package llm defines the language-model backend capability interface
// and the error taxonomy shared by all backend implementations.
package llm

import (
	"context"
	"errors"
)

// Backend generates text from a resolved system/user prompt pair.
//
// GenerateStream returns a channel of incremental text fragments followed
// by exactly one value on the error channel (nil on success). Both channels
// are closed when the stream ends. Implementations must stop producing and
// release the underlying connection when ctx is canceled.
type Backend interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	GenerateStream(
		ctx context.Context,
		systemPrompt, userPrompt string,
	) (<-chan string, <-chan error)

	// ModelName returns the name of the model being used.
	ModelName() string
}

// Embedder is an optional capability of a backend: turning text into a
// vector embedding. Retrieval sources that need query embeddings accept
// any implementation of this interface.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ErrorKind classifies backend failures so callers can react to the
// failure class rather than the raw transport error.
type ErrorKind string

const (
	KindAuth            ErrorKind = "auth"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindRateLimit       ErrorKind = "rate_limit"
	KindTimeout         ErrorKind = "timeout"
	KindNetwork         ErrorKind = "network"
	KindModel           ErrorKind = "model_error"
)

// Error is a typed backend failure.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf extracts the error kind from err, or "" if err carries none.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsUpstreamFault reports whether err indicates a misconfigured or
// misbehaving upstream (bad credentials or a malformed response), the
// cases where the caller should be told to check credentials and model
// name instead of being shown a raw transport error.
func IsUpstreamFault(err error) bool {
	k := KindOf(err)
	return k == KindAuth || k == KindInvalidResponse
}
