//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package retrieval

import (
	"context"

	"github.com/cortexlab/code-assist-server/internal/bm25"
)

// KeywordSource performs BM25 keyword search over an in-memory corpus.
type KeywordSource struct {
	name  string
	index *bm25.Index
	topN  int
}

// NewKeywordSource creates a keyword source over the given corpus
// (document id -> content). topN bounds the number of results per query.
func NewKeywordSource(name string, corpus map[string]string, topN int) *KeywordSource {
	index := bm25.NewIndex()
	for id, content := range corpus {
		index.Add(id, content)
	}

	if topN <= 0 {
		topN = 5
	}

	return &KeywordSource{name: name, index: index, topN: topN}
}

// Name implements Source.
func (s *KeywordSource) Name() string {
	return s.name
}

// Search implements Source. Scores are raw BM25 scores.
func (s *KeywordSource) Search(ctx context.Context, query string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := s.index.Search(query, s.topN)

	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = Document{
			Content:  r.Content,
			Source:   s.name,
			Score:    r.Score,
			Metadata: map[string]any{"id": r.ID, "type": "keyword"},
		}
	}

	return docs, nil
}

// Ensure KeywordSource implements the interface.
var _ Source = (*KeywordSource)(nil)
