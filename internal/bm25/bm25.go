//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package bm25 provides an in-memory BM25 keyword search index.
package bm25

import (
	"math"
	"sort"
	"sync"
)

// Default ranking parameters (Lucene defaults).
const (
	DefaultK1 = 1.2  // term frequency saturation
	DefaultB  = 0.75 // document length normalization
)

// Result is a scored search hit.
type Result struct {
	ID      string
	Content string
	Score   float64
}

type document struct {
	id        string
	content   string
	length    int
	termFreqs map[string]int
}

// Index is an in-memory BM25 index. Safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	k1, b    float64
	docs     []*document
	byID     map[string]*document
	docFreqs map[string]int
	totalLen int
}

// NewIndex creates an empty index with default parameters.
func NewIndex() *Index {
	return NewIndexWithParams(DefaultK1, DefaultB)
}

// NewIndexWithParams creates an empty index with custom k1/b parameters.
func NewIndexWithParams(k1, b float64) *Index {
	return &Index{
		k1:       k1,
		b:        b,
		byID:     make(map[string]*document),
		docFreqs: make(map[string]int),
	}
}

// Add indexes a document. Re-adding an existing id replaces it.
func (idx *Index) Add(id, content string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if old, ok := idx.byID[id]; ok {
		idx.removeLocked(old)
	}

	termFreqs := tokenFrequencies(content)
	length := 0
	for _, f := range termFreqs {
		length += f
	}

	doc := &document{id: id, content: content, length: length, termFreqs: termFreqs}
	for term := range termFreqs {
		idx.docFreqs[term]++
	}

	idx.docs = append(idx.docs, doc)
	idx.byID[id] = doc
	idx.totalLen += length
}

func (idx *Index) removeLocked(doc *document) {
	for term := range doc.termFreqs {
		if idx.docFreqs[term] > 1 {
			idx.docFreqs[term]--
		} else {
			delete(idx.docFreqs, term)
		}
	}
	for i, d := range idx.docs {
		if d == doc {
			idx.docs = append(idx.docs[:i], idx.docs[i+1:]...)
			break
		}
	}
	delete(idx.byID, doc.id)
	idx.totalLen -= doc.length
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Search scores every document against the query and returns the top-n
// results ordered by descending score. Documents that match no query
// term are omitted. Ties keep insertion order.
func (idx *Index) Search(query string, n int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.docs) == 0 {
		return nil
	}

	queryTerms := tokenFrequencies(query)
	if len(queryTerms) == 0 {
		return nil
	}

	avgLen := float64(idx.totalLen) / float64(len(idx.docs))

	scored := make([]Result, 0, len(idx.docs))
	for _, doc := range idx.docs {
		score := idx.scoreLocked(queryTerms, doc, avgLen)
		if score > 0 {
			scored = append(scored, Result{ID: doc.id, Content: doc.content, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

func (idx *Index) scoreLocked(queryTerms map[string]int, doc *document, avgLen float64) float64 {
	var score float64
	for term := range queryTerms {
		tf := doc.termFreqs[term]
		df := idx.docFreqs[term]
		if tf == 0 || df == 0 {
			continue
		}

		// Lucene-style IDF: always non-negative.
		n := float64(len(idx.docs))
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))

		lengthNorm := 1 - idx.b + idx.b*(float64(doc.length)/avgLen)
		tfScore := (float64(tf) * (idx.k1 + 1)) / (float64(tf) + idx.k1*lengthNorm)

		score += idf * tfScore
	}
	return score
}
