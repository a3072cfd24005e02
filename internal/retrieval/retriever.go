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
	"log/slog"
	"sync"
	"time"
)

// DefaultSourceTimeout bounds a single source call when no timeout is
// configured.
const DefaultSourceTimeout = 5 * time.Second

// WeightedSource pairs a source with its configured weight. Weights are
// carried into result metadata but do not reorder merged results:
// ranking is source-registration order, then each source's own order.
type WeightedSource struct {
	Source Source
	Weight float64
}

// Retriever fans a query out to all registered sources concurrently and
// merges the results.
type Retriever struct {
	sources       []WeightedSource
	sourceTimeout time.Duration
	logger        *slog.Logger
}

// RetrieverConfig contains the configuration for creating a Retriever.
type RetrieverConfig struct {
	Sources       []WeightedSource
	SourceTimeout time.Duration
	Logger        *slog.Logger
}

// NewRetriever creates a hybrid retriever over the given sources.
func NewRetriever(cfg RetrieverConfig) *Retriever {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.SourceTimeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}

	return &Retriever{
		sources:       cfg.Sources,
		sourceTimeout: timeout,
		logger:        logger,
	}
}

// Retrieve queries every source concurrently and returns the merged,
// deduplicated document list. A source that fails or exceeds its timeout
// contributes zero documents; it never aborts the other sources. Merge
// order is source-registration order, then source-internal order, with
// exact-content duplicates dropped (first occurrence wins).
func (r *Retriever) Retrieve(ctx context.Context, query string) []Document {
	perSource := make([][]Document, len(r.sources))

	var wg sync.WaitGroup
	for i, ws := range r.sources {
		wg.Add(1)
		go func(i int, ws WeightedSource) {
			defer wg.Done()

			sctx, cancel := context.WithTimeout(ctx, r.sourceTimeout)
			defer cancel()

			docs, err := ws.Source.Search(sctx, query)
			if err != nil {
				r.logger.Warn("source search failed",
					"source", ws.Source.Name(),
					"error", err)
				return
			}

			for j := range docs {
				if docs[j].Source == "" {
					docs[j].Source = ws.Source.Name()
				}
				if docs[j].Metadata == nil {
					docs[j].Metadata = make(map[string]any)
				}
				docs[j].Metadata["source_weight"] = ws.Weight
			}
			perSource[i] = docs
		}(i, ws)
	}
	wg.Wait()

	return dedupe(perSource)
}

// SourceCount returns the number of registered sources.
func (r *Retriever) SourceCount() int {
	return len(r.sources)
}

// dedupe flattens per-source results in registration order, dropping
// documents whose exact content was already seen.
func dedupe(perSource [][]Document) []Document {
	seen := make(map[string]bool)
	var merged []Document

	for _, docs := range perSource {
		for _, doc := range docs {
			if seen[doc.Content] {
				continue
			}
			seen[doc.Content] = true
			merged = append(merged, doc)
		}
	}

	return merged
}
