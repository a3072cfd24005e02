//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cortexlab/code-assist-server/internal/intent"
	"github.com/cortexlab/code-assist-server/internal/pipeline"
	"github.com/cortexlab/code-assist-server/internal/prompt"
)

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ChatMessage is one prior conversation message in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for the chat endpoints.
type ChatRequest struct {
	Query     string            `json:"query"`
	SessionID string            `json:"session_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
	Messages  []ChatMessage     `json:"messages,omitempty"`
	Stream    bool              `json:"stream,omitempty"`
}

// ChatResponse is the non-streaming chat response.
type ChatResponse struct {
	SessionID string              `json:"session_id"`
	Response  string              `json:"response"`
	Intent    *intent.Result      `json:"intent,omitempty"`
	Citations []pipeline.Citation `json:"citations"`
	Metadata  map[string]any      `json:"metadata"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleHealth handles the GET /v1/health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// handleChat handles the POST /v1/chat endpoint. A request with
// stream=true is redirected onto the streaming path.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	if req.Stream {
		s.streamChat(w, r, req)
		return
	}

	pc, err := s.executor.ExecuteComplete(r.Context(), toPipelineRequest(req))
	if err != nil {
		s.logger.Error("pipeline execution failed", "error", err)
		if errors.Is(err, pipeline.ErrGeneration) {
			s.respondError(w, http.StatusBadGateway, "GENERATION_ERROR", err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "EXECUTION_ERROR", err.Error())
		return
	}

	citations := pipeline.CitationsFrom(pc.Documents)
	if citations == nil {
		citations = []pipeline.Citation{}
	}

	s.respondJSON(w, http.StatusOK, ChatResponse{
		SessionID: pc.SessionID,
		Response:  pc.Response,
		Intent:    pc.Intent,
		Citations: citations,
		Metadata:  pc.Metadata,
	})
}

// handleChatStream handles the POST /v1/chat/stream endpoint.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	s.streamChat(w, r, req)
}

// streamChat runs the pipeline in streaming mode, forwarding each
// event in server-sent-event framing.
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, req ChatRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "STREAMING_ERROR",
			"streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := s.executor.ExecuteStream(r.Context(), toPipelineRequest(req))

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, err := w.Write([]byte(ev.SSE())); err != nil {
				s.logger.Error("failed to write SSE event", "error", err)
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			s.logger.Debug("client disconnected during streaming")
			return
		}
	}
}

// decodeChatRequest parses and validates the chat request body.
func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid request body: "+err.Error())
		return ChatRequest{}, false
	}

	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "query is required")
		return ChatRequest{}, false
	}

	return req, true
}

// toPipelineRequest converts the wire request into a pipeline request.
func toPipelineRequest(req ChatRequest) pipeline.Request {
	history := make([]prompt.Turn, len(req.Messages))
	for i, m := range req.Messages {
		history[i] = prompt.Turn{Role: m.Role, Content: m.Content}
	}

	return pipeline.Request{
		Query:     req.Query,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Context:   req.Context,
		History:   history,
	}
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// respondError sends an error response.
func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
