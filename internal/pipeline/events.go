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
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/cortexlab/code-assist-server/internal/retrieval"
)

// EventKind discriminates stream events.
type EventKind string

const (
	EventStatus        EventKind = "status"
	EventRetrieval     EventKind = "retrieval"
	EventClarification EventKind = "clarification"
	EventToken         EventKind = "token"
	EventError         EventKind = "error"
	EventDone          EventKind = "done"
)

// Event is one element of a streaming execution. The sequence is
// forward-only and finite: nothing follows a done or error event.
type Event struct {
	Kind EventKind
	Data map[string]any
}

// statusLabels maps announced stages to their wire names. Stages not
// listed are never announced.
var statusLabels = map[Stage]string{
	StageIntentClassify: "intent_classify",
	StageRetrieve:       "retrieving",
	StageGenerate:       "generating",
}

// statusEvent builds the status event announcing a stage.
func statusEvent(stage Stage) Event {
	label, ok := statusLabels[stage]
	if !ok {
		label = string(stage)
	}
	return Event{Kind: EventStatus, Data: map[string]any{"stage": label}}
}

// SSE renders the event in server-sent-event wire framing.
func (e Event) SSE() string {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Kind, payload)
}

// citationPreviewLen bounds how much document content a citation
// carries.
const citationPreviewLen = 100

// Citation points a response back at a retrieved document.
type Citation struct {
	Source    string  `json:"source"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
}

// CitationsFrom builds the citation list for a final document set.
// Document order is preserved.
func CitationsFrom(docs []retrieval.Document) []Citation {
	citations := make([]Citation, len(docs))
	for i, doc := range docs {
		citations[i] = Citation{
			Source:    doc.Source,
			Content:   preview(doc.Content, citationPreviewLen),
			Relevance: doc.Score,
		}
	}
	return citations
}

// preview truncates s to at most n bytes, backing up to a rune
// boundary so the cut never produces invalid UTF-8.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
