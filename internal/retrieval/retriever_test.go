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
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// fakeSource implements Source with configurable behavior.
type fakeSource struct {
	name  string
	docs  []Document
	err   error
	delay time.Duration
}

func (f *fakeSource) Name() string {
	return f.name
}

func (f *fakeSource) Search(ctx context.Context, query string) ([]Document, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Document, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func newTestRetriever(timeout time.Duration, sources ...WeightedSource) *Retriever {
	return NewRetriever(RetrieverConfig{
		Sources:       sources,
		SourceTimeout: timeout,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRetrieveMergesInRegistrationOrder(t *testing.T) {
	first := &fakeSource{name: "first", docs: []Document{
		{Content: "alpha", Score: 0.1},
		{Content: "beta", Score: 0.2},
	}}
	// Slower source registered first still ranks first.
	first.delay = 20 * time.Millisecond
	second := &fakeSource{name: "second", docs: []Document{
		{Content: "gamma", Score: 0.9},
	}}

	r := newTestRetriever(time.Second,
		WeightedSource{Source: first, Weight: 1.0},
		WeightedSource{Source: second, Weight: 2.0},
	)

	docs := r.Retrieve(context.Background(), "query")

	want := []string{"alpha", "beta", "gamma"}
	if len(docs) != len(want) {
		t.Fatalf("expected %d documents, got %d", len(want), len(docs))
	}
	for i := range want {
		if docs[i].Content != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], docs[i].Content)
		}
	}

	// Weights annotate metadata but never reorder the merge.
	if w := docs[2].Metadata["source_weight"]; w != 2.0 {
		t.Errorf("expected source_weight 2.0, got %v", w)
	}
	if docs[0].Source != "first" {
		t.Errorf("source name not annotated: %+v", docs[0])
	}
}

func TestRetrieveDeduplicatesByContent(t *testing.T) {
	a := &fakeSource{name: "a", docs: []Document{
		{Content: "shared", Score: 0.9},
		{Content: "only-a", Score: 0.5},
	}}
	b := &fakeSource{name: "b", docs: []Document{
		{Content: "shared", Score: 0.3},
		{Content: "only-b", Score: 0.4},
	}}

	r := newTestRetriever(time.Second,
		WeightedSource{Source: a, Weight: 1.0},
		WeightedSource{Source: b, Weight: 1.0},
	)

	docs := r.Retrieve(context.Background(), "query")
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents after dedupe, got %d", len(docs))
	}

	// First occurrence wins.
	if docs[0].Content != "shared" || docs[0].Source != "a" {
		t.Errorf("expected first occurrence of shared content to win, got %+v", docs[0])
	}

	seen := make(map[string]bool)
	for _, d := range docs {
		if seen[d.Content] {
			t.Errorf("duplicate content %q in output", d.Content)
		}
		seen[d.Content] = true
	}
}

func TestRetrieveIsIdempotent(t *testing.T) {
	a := &fakeSource{name: "a", docs: []Document{
		{Content: "one", Score: 0.9},
		{Content: "two", Score: 0.8},
	}}
	b := &fakeSource{name: "b", docs: []Document{
		{Content: "three", Score: 0.7},
	}}

	r := newTestRetriever(time.Second,
		WeightedSource{Source: a, Weight: 1.0},
		WeightedSource{Source: b, Weight: 1.0},
	)

	firstRun := r.Retrieve(context.Background(), "query")
	secondRun := r.Retrieve(context.Background(), "query")

	if len(firstRun) != len(secondRun) {
		t.Fatalf("runs differ in length: %d vs %d", len(firstRun), len(secondRun))
	}
	for i := range firstRun {
		if firstRun[i].Content != secondRun[i].Content {
			t.Errorf("position %d differs: %s vs %s",
				i, firstRun[i].Content, secondRun[i].Content)
		}
	}
}

func TestRetrievePartialFailure(t *testing.T) {
	good := &fakeSource{name: "good", docs: []Document{{Content: "kept", Score: 0.9}}}
	bad := &fakeSource{name: "bad", err: errors.New("backend down")}

	r := newTestRetriever(time.Second,
		WeightedSource{Source: bad, Weight: 1.0},
		WeightedSource{Source: good, Weight: 1.0},
	)

	docs := r.Retrieve(context.Background(), "query")
	if len(docs) != 1 || docs[0].Content != "kept" {
		t.Errorf("expected only surviving source's documents, got %+v", docs)
	}
}

func TestRetrieveAllSourcesFail(t *testing.T) {
	r := newTestRetriever(time.Second,
		WeightedSource{Source: &fakeSource{name: "a", err: errors.New("down")}, Weight: 1.0},
		WeightedSource{Source: &fakeSource{name: "b", err: errors.New("down")}, Weight: 1.0},
	)

	docs := r.Retrieve(context.Background(), "query")
	if len(docs) != 0 {
		t.Errorf("expected empty result, got %+v", docs)
	}
}

func TestRetrieveTimeoutTreatedAsFailure(t *testing.T) {
	slow := &fakeSource{
		name:  "slow",
		docs:  []Document{{Content: "late", Score: 0.9}},
		delay: 200 * time.Millisecond,
	}
	fast := &fakeSource{name: "fast", docs: []Document{{Content: "fast", Score: 0.5}}}

	r := newTestRetriever(20*time.Millisecond,
		WeightedSource{Source: slow, Weight: 1.0},
		WeightedSource{Source: fast, Weight: 1.0},
	)

	docs := r.Retrieve(context.Background(), "query")
	if len(docs) != 1 || docs[0].Content != "fast" {
		t.Errorf("timed-out source must contribute nothing, got %+v", docs)
	}
}

func TestKeywordSource(t *testing.T) {
	corpus := map[string]string{
		"doc1": "error handling in the request pipeline",
		"doc2": "database connection pooling and retries",
		"doc3": "request pipeline stages and hooks",
	}

	s := NewKeywordSource("keyword", corpus, 2)

	docs, err := s.Search(context.Background(), "request pipeline")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(docs) == 0 || len(docs) > 2 {
		t.Fatalf("expected 1-2 results, got %d", len(docs))
	}
	for _, d := range docs {
		if d.Source != "keyword" {
			t.Errorf("unexpected source: %s", d.Source)
		}
		if d.Score <= 0 {
			t.Errorf("expected positive score, got %v", d.Score)
		}
		if d.Metadata["type"] != "keyword" {
			t.Errorf("missing type metadata: %+v", d.Metadata)
		}
	}
}

func TestMemorySource(t *testing.T) {
	docs := []Document{{Content: "fixed", Source: "memory", Score: 1.0}}
	s := NewMemorySource("memory", docs)

	got, err := s.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0].Content != "fixed" {
		t.Errorf("unexpected result: %+v", got)
	}

	// Canceled context fails fast.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Search(ctx, "anything"); err == nil {
		t.Error("expected error for canceled context")
	}
}
