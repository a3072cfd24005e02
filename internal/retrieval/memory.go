//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package retrieval

import "context"

// MemorySource is a deterministic in-memory source. It returns its
// configured documents in insertion order for every query, which makes
// it useful for demos and as a drop-in fake in tests.
type MemorySource struct {
	name string
	docs []Document
}

// NewMemorySource creates a source that always returns docs.
func NewMemorySource(name string, docs []Document) *MemorySource {
	return &MemorySource{name: name, docs: docs}
}

// Name implements Source.
func (s *MemorySource) Name() string {
	return s.name
}

// Search implements Source.
func (s *MemorySource) Search(ctx context.Context, query string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out, nil
}

// Ensure MemorySource implements the interface.
var _ Source = (*MemorySource)(nil)
