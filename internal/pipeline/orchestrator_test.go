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
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cortexlab/code-assist-server/internal/intent"
	"github.com/cortexlab/code-assist-server/internal/llm"
	"github.com/cortexlab/code-assist-server/internal/prompt"
	"github.com/cortexlab/code-assist-server/internal/retrieval"
)

// MockBackend implements llm.Backend for testing.
type MockBackend struct {
	GenerateFunc       func(ctx context.Context, system, user string) (string, error)
	GenerateStreamFunc func(ctx context.Context, system, user string) (<-chan string, <-chan error)
	GenerateCalls      atomic.Int32
}

func (m *MockBackend) Generate(ctx context.Context, system, user string) (string, error) {
	m.GenerateCalls.Add(1)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, user)
	}
	return "This is a mock response.", nil
}

func (m *MockBackend) GenerateStream(
	ctx context.Context,
	system, user string,
) (<-chan string, <-chan error) {
	if m.GenerateStreamFunc != nil {
		return m.GenerateStreamFunc(ctx, system, user)
	}

	chunks := make(chan string, 2)
	errs := make(chan error, 1)
	chunks <- "This is "
	chunks <- "a streaming response."
	close(chunks)
	close(errs)
	return chunks, errs
}

func (m *MockBackend) ModelName() string {
	return "mock-model"
}

// MockSource implements retrieval.Source with call counting.
type MockSource struct {
	NameVal string
	Docs    []retrieval.Document
	Err     error
	Calls   atomic.Int32
}

func (m *MockSource) Name() string {
	return m.NameVal
}

func (m *MockSource) Search(ctx context.Context, query string) ([]retrieval.Document, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]retrieval.Document, len(m.Docs))
	copy(out, m.Docs)
	return out, nil
}

func classifierJSON(intentName string, confidence float64, template string, clarify bool) string {
	return fmt.Sprintf(
		`{"intent": %q, "confidence": %v, "entities": {}, "suggested_prompt_template": %q, "requires_clarification": %v}`,
		intentName, confidence, template, clarify)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testHarness wires an orchestrator from mocks.
type testHarness struct {
	orchestrator *Orchestrator
	classifier   *MockBackend
	generator    *MockBackend
	source       *MockSource
}

func newTestHarness(classifierOut string, docs []retrieval.Document) *testHarness {
	logger := testLogger()

	classifierBackend := &MockBackend{
		GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
			return classifierOut, nil
		},
	}
	generatorBackend := &MockBackend{}
	source := &MockSource{NameVal: "test-source", Docs: docs}

	retriever := retrieval.NewRetriever(retrieval.RetrieverConfig{
		Sources: []retrieval.WeightedSource{{Source: source, Weight: 1.0}},
		Logger:  logger,
	})

	components := Components{
		Classifier: intent.NewClassifier(classifierBackend, logger),
		Retriever:  retriever,
		Assembler:  prompt.NewAssembler(prompt.BuiltinStore(), logger),
		Backend:    generatorBackend,
	}

	orchestrator := NewOrchestrator(OrchestratorConfig{
		Handlers: DefaultHandlers(components),
		Backend:  generatorBackend,
		Logger:   logger,
	})

	return &testHarness{
		orchestrator: orchestrator,
		classifier:   classifierBackend,
		generator:    generatorBackend,
		source:       source,
	}
}

func explainDocs() []retrieval.Document {
	return []retrieval.Document{
		{Content: "func add(a, b int) int { return a + b }", Source: "repo/math.go", Score: 0.9},
		{Content: "add returns the sum of two integers", Source: "docs/math.md", Score: 0.7},
	}
}

func TestExecuteComplete(t *testing.T) {
	h := newTestHarness(classifierJSON("code_explain", 0.95, "code_explain_v1", false), explainDocs())

	pc, err := h.orchestrator.ExecuteComplete(context.Background(), Request{
		Query: "What does this function do?",
	})
	if err != nil {
		t.Fatalf("ExecuteComplete failed: %v", err)
	}

	if pc.Response == "" {
		t.Error("expected non-empty response")
	}
	if pc.Intent == nil || pc.Intent.Intent != intent.CodeExplain {
		t.Errorf("expected code_explain intent, got %+v", pc.Intent)
	}
	if pc.Intent.RequiresClarification {
		t.Error("unexpected clarification")
	}
	if got := pc.Metadata["template_used"]; got != "code_explain_v1" {
		t.Errorf("expected template code_explain_v1, got %v", got)
	}

	citations := CitationsFrom(pc.Documents)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}
	if citations[0].Source != "repo/math.go" || citations[0].Relevance != 0.9 {
		t.Errorf("unexpected first citation: %+v", citations[0])
	}
	if h.source.Calls.Load() != 1 {
		t.Errorf("expected 1 source call, got %d", h.source.Calls.Load())
	}
}

func TestExecuteCompleteSessionID(t *testing.T) {
	h := newTestHarness(classifierJSON("general_qa", 0.9, "general_qa_v1", false), nil)

	pc, err := h.orchestrator.ExecuteComplete(context.Background(), Request{
		Query:     "how does logging work?",
		SessionID: "session-42",
	})
	if err != nil {
		t.Fatalf("ExecuteComplete failed: %v", err)
	}
	if pc.SessionID != "session-42" {
		t.Errorf("caller session id not preserved: %s", pc.SessionID)
	}

	pc2, err := h.orchestrator.ExecuteComplete(context.Background(), Request{
		Query: "how does logging work?",
	})
	if err != nil {
		t.Fatalf("ExecuteComplete failed: %v", err)
	}
	if pc2.SessionID == "" {
		t.Error("expected generated session id")
	}
}

func TestExecuteCompleteClarificationShortCircuit(t *testing.T) {
	h := newTestHarness(classifierJSON("code_search", 0.3, "code_search_v1", true), explainDocs())

	pc, err := h.orchestrator.ExecuteComplete(context.Background(), Request{Query: "fix it"})
	if err != nil {
		t.Fatalf("ExecuteComplete failed: %v", err)
	}

	if pc.Response != ClarificationMessage {
		t.Errorf("expected clarification response, got %q", pc.Response)
	}
	if len(pc.Documents) != 0 {
		t.Error("retrieval must not run after clarification short-circuit")
	}
	if h.source.Calls.Load() != 0 {
		t.Error("document source must not be invoked")
	}
	if h.generator.GenerateCalls.Load() != 0 {
		t.Error("generation must not run after clarification short-circuit")
	}
}

func TestExecuteCompleteConfidenceBoundary(t *testing.T) {
	// 0.69 forces clarification regardless of the reported flag; 0.70
	// exactly does not.
	h := newTestHarness(classifierJSON("general_qa", 0.69, "general_qa_v1", false), nil)
	pc, err := h.orchestrator.ExecuteComplete(context.Background(), Request{Query: "hmm"})
	if err != nil {
		t.Fatalf("ExecuteComplete failed: %v", err)
	}
	if pc.Response != ClarificationMessage {
		t.Error("confidence 0.69 must force clarification")
	}

	h = newTestHarness(classifierJSON("general_qa", 0.70, "general_qa_v1", false), nil)
	pc, err = h.orchestrator.ExecuteComplete(context.Background(), Request{Query: "hmm"})
	if err != nil {
		t.Fatalf("ExecuteComplete failed: %v", err)
	}
	if pc.Response == ClarificationMessage {
		t.Error("confidence 0.70 must not force clarification")
	}
}

func TestExecuteCompleteCasualChatSkipsRetrieval(t *testing.T) {
	h := newTestHarness(classifierJSON("casual_chat", 0.98, "casual_chat_v1", false), explainDocs())

	pc, err := h.orchestrator.ExecuteComplete(context.Background(), Request{Query: "hi"})
	if err != nil {
		t.Fatalf("ExecuteComplete failed: %v", err)
	}

	if h.source.Calls.Load() != 0 {
		t.Errorf("casual chat must not invoke sources, got %d calls", h.source.Calls.Load())
	}
	if len(CitationsFrom(pc.Documents)) != 0 {
		t.Error("expected empty citations for casual chat")
	}
	if pc.Response == "" {
		t.Error("expected a response")
	}
}

func TestExecuteCompleteSourceFailureDegrades(t *testing.T) {
	logger := testLogger()
	classifierBackend := &MockBackend{
		GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
			return classifierJSON("general_qa", 0.9, "general_qa_v1", false), nil
		},
	}
	generatorBackend := &MockBackend{}

	good := &MockSource{NameVal: "good", Docs: explainDocs()[:1]}
	bad := &MockSource{NameVal: "bad", Err: errors.New("connection refused")}

	retriever := retrieval.NewRetriever(retrieval.RetrieverConfig{
		Sources: []retrieval.WeightedSource{
			{Source: good, Weight: 1.0},
			{Source: bad, Weight: 1.0},
		},
		Logger: logger,
	})

	orchestrator := NewOrchestrator(OrchestratorConfig{
		Handlers: DefaultHandlers(Components{
			Classifier: intent.NewClassifier(classifierBackend, logger),
			Retriever:  retriever,
			Assembler:  prompt.NewAssembler(prompt.BuiltinStore(), logger),
			Backend:    generatorBackend,
		}),
		Backend: generatorBackend,
		Logger:  logger,
	})

	pc, err := orchestrator.ExecuteComplete(context.Background(), Request{Query: "what is add?"})
	if err != nil {
		t.Fatalf("request must survive a failing source: %v", err)
	}
	if len(pc.Documents) != 1 {
		t.Errorf("expected surviving source's document, got %d", len(pc.Documents))
	}
	if pc.Response == "" {
		t.Error("expected a response")
	}
}

func TestExecuteCompleteGenerationError(t *testing.T) {
	h := newTestHarness(classifierJSON("general_qa", 0.9, "general_qa_v1", false), nil)
	h.generator.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
		return "", &llm.Error{Kind: llm.KindAuth, Message: "unauthorized", StatusCode: 401}
	}

	_, err := h.orchestrator.ExecuteComplete(context.Background(), Request{Query: "anything"})
	if err == nil {
		t.Fatal("expected generation error")
	}
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}
	if !strings.Contains(err.Error(), "check API credentials") {
		t.Errorf("auth failures must carry remediation guidance, got %q", err)
	}
}

func TestMissingStagesAreNoops(t *testing.T) {
	orchestrator := NewOrchestrator(OrchestratorConfig{Logger: testLogger()})

	pc, err := orchestrator.ExecuteComplete(context.Background(), Request{Query: "anything"})
	if err != nil {
		t.Fatalf("empty handler map must not fail: %v", err)
	}
	if pc == nil {
		t.Fatal("expected a context")
	}
}

// recordingHook records the order of hook invocations.
type recordingHook struct {
	id    string
	calls *[]string
}

func (h *recordingHook) Before(ctx context.Context, stage Stage, pc *Context) error {
	*h.calls = append(*h.calls, h.id+":before:"+string(stage))
	return nil
}

func (h *recordingHook) After(ctx context.Context, stage Stage, pc *Context) error {
	*h.calls = append(*h.calls, h.id+":after:"+string(stage))
	return nil
}

func TestHooksRunInRegistrationOrder(t *testing.T) {
	var calls []string

	handlers := map[Stage]Handler{
		StageQueryParse: HandlerFunc(func(ctx context.Context, pc *Context) error {
			calls = append(calls, "stage:query_parse")
			return nil
		}),
	}

	orchestrator := NewOrchestrator(OrchestratorConfig{
		Handlers: handlers,
		Hooks: []Hook{
			&recordingHook{id: "a", calls: &calls},
			&recordingHook{id: "b", calls: &calls},
		},
		Logger: testLogger(),
	})

	if _, err := orchestrator.ExecuteComplete(context.Background(), Request{Query: "q"}); err != nil {
		t.Fatalf("ExecuteComplete failed: %v", err)
	}

	want := []string{
		"a:before:query_parse",
		"b:before:query_parse",
		"stage:query_parse",
		"a:after:query_parse",
		"b:after:query_parse",
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
}

func TestHooksSkippedForMissingStage(t *testing.T) {
	var calls []string

	orchestrator := NewOrchestrator(OrchestratorConfig{
		Hooks:  []Hook{&recordingHook{id: "a", calls: &calls}},
		Logger: testLogger(),
	})

	if _, err := orchestrator.ExecuteComplete(context.Background(), Request{Query: "q"}); err != nil {
		t.Fatalf("ExecuteComplete failed: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("hooks must not run around unregistered stages, got %v", calls)
	}
}

// failingHook fails before a chosen stage.
type failingHook struct {
	stage Stage
}

func (h *failingHook) Before(ctx context.Context, stage Stage, pc *Context) error {
	if stage == h.stage {
		return errors.New("hook rejected stage")
	}
	return nil
}

func (h *failingHook) After(ctx context.Context, stage Stage, pc *Context) error {
	return nil
}

func TestHookFailureAborts(t *testing.T) {
	h := newTestHarness(classifierJSON("general_qa", 0.9, "general_qa_v1", false), nil)

	orchestrator := NewOrchestrator(OrchestratorConfig{
		Handlers: map[Stage]Handler{
			StageQueryParse: HandlerFunc(func(ctx context.Context, pc *Context) error { return nil }),
		},
		Hooks:   []Hook{&failingHook{stage: StageQueryParse}},
		Backend: h.generator,
		Logger:  testLogger(),
	})

	_, err := orchestrator.ExecuteComplete(context.Background(), Request{Query: "q"})
	if err == nil {
		t.Fatal("expected hook failure to abort execution")
	}
	if !strings.Contains(err.Error(), "hook before stage query_parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func collectEvents(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestExecuteStreamEventOrder(t *testing.T) {
	h := newTestHarness(classifierJSON("code_explain", 0.95, "code_explain_v1", false), explainDocs())

	events := collectEvents(t, h.orchestrator.ExecuteStream(context.Background(), Request{
		Query: "What does this function do?",
	}))

	if len(events) == 0 {
		t.Fatal("expected events")
	}
	if events[0].Kind != EventStatus {
		t.Errorf("first event must be status, got %s", events[0].Kind)
	}
	if got := events[0].Data["stage"]; got != "intent_classify" {
		t.Errorf("first status must announce intent_classify, got %v", got)
	}
	if last := events[len(events)-1]; last.Kind != EventDone {
		t.Errorf("last event must be done, got %s", last.Kind)
	}

	generating := false
	sawRetrieval := false
	var statuses []string
	var tokens []string
	for _, ev := range events {
		switch ev.Kind {
		case EventStatus:
			stage, _ := ev.Data["stage"].(string)
			statuses = append(statuses, stage)
			if stage == "generating" {
				generating = true
			}
		case EventRetrieval:
			sawRetrieval = true
			if found, ok := ev.Data["found"].(int); !ok || found != 2 {
				t.Errorf("expected retrieval found=2, got %v", ev.Data["found"])
			}
		case EventToken:
			if !generating {
				t.Error("token event before generating status")
			}
			tokens = append(tokens, ev.Data["content"].(string))
		case EventClarification:
			t.Error("unexpected clarification event")
		}
	}

	if !sawRetrieval {
		t.Error("expected a retrieval event")
	}

	// Status events carry the wire labels, not internal stage names.
	wantStatuses := []string{"intent_classify", "retrieving", "generating"}
	if len(statuses) != len(wantStatuses) {
		t.Fatalf("expected statuses %v, got %v", wantStatuses, statuses)
	}
	for i := range wantStatuses {
		if statuses[i] != wantStatuses[i] {
			t.Errorf("status %d: expected %q, got %q", i, wantStatuses[i], statuses[i])
		}
	}
	if strings.Join(tokens, "") != "This is a streaming response." {
		t.Errorf("unexpected token stream: %q", strings.Join(tokens, ""))
	}

	done := events[len(events)-1]
	citations, ok := done.Data["citations"].([]Citation)
	if !ok || len(citations) != 2 {
		t.Errorf("expected 2 citations in done event, got %v", done.Data["citations"])
	}
}

func TestExecuteStreamRetrievalReportsRawCount(t *testing.T) {
	docs := make([]retrieval.Document, 7)
	for i := range docs {
		docs[i] = retrieval.Document{
			Content: fmt.Sprintf("document %d body", i),
			Source:  fmt.Sprintf("docs/%d.md", i),
			Score:   1.0 - float64(i)*0.1,
		}
	}
	h := newTestHarness(classifierJSON("code_explain", 0.95, "code_explain_v1", false), docs)

	events := collectEvents(t, h.orchestrator.ExecuteStream(context.Background(), Request{
		Query: "explain all of it",
	}))

	var retrievalEv *Event
	for i, ev := range events {
		if ev.Kind == EventRetrieval {
			retrievalEv = &events[i]
			break
		}
	}
	if retrievalEv == nil {
		t.Fatal("expected a retrieval event")
	}

	// The event reports what retrieval found, before the context cap
	// trims the document set.
	if found, ok := retrievalEv.Data["found"].(int); !ok || found != 7 {
		t.Errorf("expected found=7, got %v", retrievalEv.Data["found"])
	}
	if sources := retrievalEv.Data["sources"].([]string); len(sources) != 7 {
		t.Errorf("expected 7 sources, got %d", len(sources))
	}

	done := events[len(events)-1]
	if done.Kind != EventDone {
		t.Fatalf("last event must be done, got %s", done.Kind)
	}
	if citations := done.Data["citations"].([]Citation); len(citations) != 5 {
		t.Errorf("expected citations capped at 5, got %d", len(citations))
	}
}

func TestExecuteStreamHooksFireAroundGeneration(t *testing.T) {
	var calls []string
	logger := testLogger()

	classifierBackend := &MockBackend{
		GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
			return classifierJSON("general_qa", 0.9, "general_qa_v1", false), nil
		},
	}
	generatorBackend := &MockBackend{}
	retriever := retrieval.NewRetriever(retrieval.RetrieverConfig{
		Sources: []retrieval.WeightedSource{
			{Source: &MockSource{NameVal: "s", Docs: explainDocs()}, Weight: 1.0},
		},
		Logger: logger,
	})

	orchestrator := NewOrchestrator(OrchestratorConfig{
		Handlers: DefaultHandlers(Components{
			Classifier: intent.NewClassifier(classifierBackend, logger),
			Retriever:  retriever,
			Assembler:  prompt.NewAssembler(prompt.BuiltinStore(), logger),
			Backend:    generatorBackend,
		}),
		Hooks:   []Hook{&recordingHook{id: "a", calls: &calls}},
		Backend: generatorBackend,
		Logger:  logger,
	})

	collectEvents(t, orchestrator.ExecuteStream(context.Background(), Request{Query: "q"}))

	var sawBefore, sawAfter bool
	for _, call := range calls {
		switch call {
		case "a:before:generate":
			sawBefore = true
		case "a:after:generate":
			if !sawBefore {
				t.Error("after:generate before before:generate")
			}
			sawAfter = true
		}
	}
	if !sawBefore || !sawAfter {
		t.Errorf("expected hooks around the generate stage in stream mode, got %v", calls)
	}
}

func TestExecuteStreamClarificationHalts(t *testing.T) {
	h := newTestHarness(classifierJSON("bug_fix", 0.4, "bug_fix_v1", true), explainDocs())

	events := collectEvents(t, h.orchestrator.ExecuteStream(context.Background(), Request{
		Query: "broken",
	}))

	kinds := make([]EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}

	want := []EventKind{EventStatus, EventClarification, EventDone}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, kinds)
		}
	}

	if h.source.Calls.Load() != 0 {
		t.Error("clarification must halt the stream before retrieval")
	}

	done := events[len(events)-1]
	if citations := done.Data["citations"].([]Citation); len(citations) != 0 {
		t.Errorf("expected empty citations, got %v", citations)
	}
}

func TestExecuteStreamGenerationError(t *testing.T) {
	h := newTestHarness(classifierJSON("general_qa", 0.9, "general_qa_v1", false), nil)
	h.generator.GenerateStreamFunc = func(
		ctx context.Context,
		system, user string,
	) (<-chan string, <-chan error) {
		chunks := make(chan string, 1)
		errs := make(chan error, 1)
		chunks <- "partial"
		close(chunks)
		errs <- &llm.Error{Kind: llm.KindInvalidResponse, Message: "bad payload"}
		close(errs)
		return chunks, errs
	}

	events := collectEvents(t, h.orchestrator.ExecuteStream(context.Background(), Request{
		Query: "anything",
	}))

	last := events[len(events)-1]
	if last.Kind != EventError {
		t.Fatalf("expected terminal error event, got %s", last.Kind)
	}
	msg, _ := last.Data["message"].(string)
	if !strings.Contains(msg, "check API credentials") {
		t.Errorf("expected remediation guidance in error, got %q", msg)
	}

	for _, ev := range events {
		if ev.Kind == EventDone {
			t.Error("done event must not follow an error")
		}
	}
}

func TestExecuteStreamConsumerDetach(t *testing.T) {
	h := newTestHarness(classifierJSON("general_qa", 0.9, "general_qa_v1", false), explainDocs())

	ctx, cancel := context.WithCancel(context.Background())
	events := h.orchestrator.ExecuteStream(ctx, Request{Query: "anything"})

	// Read one event, then walk away.
	<-events
	cancel()

	// The producer must close the channel rather than block forever.
	for range events {
	}
}

func TestRerankOrdersByWeightedScore(t *testing.T) {
	handlers := DefaultHandlers(Components{})
	pc := NewContext(Request{Query: "q"})
	pc.Documents = []retrieval.Document{
		{Content: "low", Score: 0.2, Metadata: map[string]any{"source_weight": 1.0}},
		{Content: "boosted", Score: 0.5, Metadata: map[string]any{"source_weight": 2.0}},
		{Content: "high", Score: 0.9, Metadata: map[string]any{"source_weight": 1.0}},
	}

	if err := handlers[StageRerank].Run(context.Background(), pc); err != nil {
		t.Fatalf("rerank failed: %v", err)
	}

	got := []string{pc.Documents[0].Content, pc.Documents[1].Content, pc.Documents[2].Content}
	want := []string{"boosted", "high", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestContextBuildCapsDocuments(t *testing.T) {
	handlers := DefaultHandlers(Components{MaxContextDocs: 2})
	pc := NewContext(Request{Query: "q"})
	for i := 0; i < 4; i++ {
		pc.Documents = append(pc.Documents, retrieval.Document{
			Content: fmt.Sprintf("doc %d", i),
			Score:   1.0 - float64(i)*0.1,
		})
	}

	if err := handlers[StageContextBuild].Run(context.Background(), pc); err != nil {
		t.Fatalf("context build failed: %v", err)
	}
	if len(pc.Documents) != 2 {
		t.Errorf("expected 2 documents after cap, got %d", len(pc.Documents))
	}
	if pc.Metadata["context_truncated"] != true {
		t.Error("expected context_truncated metadata")
	}
}

func TestQueryParseRejectsEmptyQuery(t *testing.T) {
	handlers := DefaultHandlers(Components{})
	pc := NewContext(Request{Query: "   "})

	if err := handlers[StageQueryParse].Run(context.Background(), pc); err == nil {
		t.Error("expected error for blank query")
	}
}
