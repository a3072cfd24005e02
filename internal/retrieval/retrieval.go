//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package retrieval provides the hybrid retriever: concurrent fan-out to
// heterogeneous document sources with deterministic merge and dedup.
package retrieval

import "context"

// Document is a retrieved document. Scores use each source's own scale
// and are not comparable across sources without normalization.
type Document struct {
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Source is a retriever capable of returning ranked documents for a
// query. Implementations must return an empty slice (not an error) for
// ordinary "no results", and must fail fast rather than hang: the caller
// bounds every Search call with a timeout context.
type Source interface {
	// Name identifies the source in logs and result metadata.
	Name() string

	Search(ctx context.Context, query string) ([]Document, error)
}
