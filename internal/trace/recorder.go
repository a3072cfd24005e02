//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package trace provides the thought-process recorder: a write-only sink
// for structured per-session trace entries. Recorder failures are logged
// and never propagated to the request path.
package trace

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Recorder receives structured trace entries keyed by session id.
type Recorder interface {
	Record(sessionID, step string, details map[string]any)
}

// NopRecorder discards all entries.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(string, string, map[string]any) {}

// entry is the on-disk format, one JSON object per line.
type entry struct {
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Step      string         `json:"step"`
	Details   map[string]any `json:"details,omitempty"`
}

// FileRecorder appends JSON-line entries to a rotating log file.
type FileRecorder struct {
	mu     sync.Mutex
	w      io.WriteCloser
	logger *slog.Logger
}

// NewFileRecorder creates a recorder writing to path with rotation.
func NewFileRecorder(path string, logger *slog.Logger) *FileRecorder {
	return newFileRecorder(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}, logger)
}

func newFileRecorder(w io.WriteCloser, logger *slog.Logger) *FileRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileRecorder{w: w, logger: logger}
}

// Record implements Recorder.
func (r *FileRecorder) Record(sessionID, step string, details map[string]any) {
	data, err := json.Marshal(entry{
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Step:      step,
		Details:   details,
	})
	if err != nil {
		r.logger.Warn("failed to marshal trace entry", "step", step, "error", err)
		return
	}
	data = append(data, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(data); err != nil {
		r.logger.Warn("failed to write trace entry", "step", step, "error", err)
	}
}

// Close flushes and closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Close()
}
