//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package ollama implements the llm.Backend interface against a local
// Ollama instance.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cortexlab/code-assist-server/internal/llm"
)

const (
	defaultBaseURL        = "http://localhost:11434"
	defaultChatModel      = "llama3.2"
	defaultEmbeddingModel = "nomic-embed-text"
	defaultTimeout        = 120 // Local models can be slow to load
)

// Backend is an Ollama-backed llm.Backend.
type Backend struct {
	httpClient     *http.Client
	baseURL        string
	model          string
	embeddingModel string
	temperature    float64
}

// Option configures the backend.
type Option func(*Backend)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(b *Backend) {
		b.baseURL = url
	}
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(b *Backend) {
		b.model = model
	}
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) Option {
	return func(b *Backend) {
		b.embeddingModel = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) Option {
	return func(b *Backend) {
		b.temperature = temp
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(seconds int) Option {
	return func(b *Backend) {
		b.httpClient.Timeout = time.Duration(seconds) * time.Second
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(b *Backend) {
		b.httpClient = client
	}
}

// New creates a new Ollama backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		httpClient: &http.Client{
			Timeout: defaultTimeout * time.Second,
		},
		baseURL:        defaultBaseURL,
		model:          defaultChatModel,
		embeddingModel: defaultEmbeddingModel,
		temperature:    0.7,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// chatMessage represents a message in Ollama's chat format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request format for the /api/chat endpoint.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

// chatOptions contains generation options.
type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

// chatResponse is the response format from the /api/chat endpoint.
type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Generate produces a complete response for the prompt pair.
func (b *Backend) Generate(
	ctx context.Context,
	systemPrompt, userPrompt string,
) (string, error) {
	resp, err := b.request(ctx, "/api/chat", chatRequest{
		Model:    b.model,
		Messages: buildMessages(systemPrompt, userPrompt),
		Stream:   false,
		Options:  &chatOptions{Temperature: b.temperature},
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", parseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.Error{Kind: llm.KindNetwork, Message: err.Error()}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &llm.Error{
			Kind:    llm.KindInvalidResponse,
			Message: fmt.Sprintf("failed to parse response: %v", err),
		}
	}

	return chatResp.Message.Content, nil
}

// GenerateStream produces a streaming response for the prompt pair.
// Ollama streams newline-delimited JSON objects.
func (b *Backend) GenerateStream(
	ctx context.Context,
	systemPrompt, userPrompt string,
) (<-chan string, <-chan error) {
	tokenChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(tokenChan)
		defer close(errChan)

		resp, err := b.request(ctx, "/api/chat", chatRequest{
			Model:    b.model,
			Messages: buildMessages(systemPrompt, userPrompt),
			Stream:   true,
			Options:  &chatOptions{Temperature: b.temperature},
		})
		if err != nil {
			errChan <- err
			return
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			errChan <- parseError(resp)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}

			var chunk chatResponse
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				continue
			}

			select {
			case tokenChan <- chunk.Message.Content:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			errChan <- &llm.Error{
				Kind:    llm.KindNetwork,
				Message: fmt.Sprintf("stream read error: %v", err),
			}
		}
	}()

	return tokenChan, errChan
}

// embeddingRequest is the request format for the /api/embeddings endpoint.
type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embeddingResponse is the response format from the /api/embeddings endpoint.
type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedQuery generates an embedding vector for the given text.
func (b *Backend) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := b.request(ctx, "/api/embeddings", embeddingRequest{
		Model:  b.embeddingModel,
		Prompt: text,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindNetwork, Message: err.Error()}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, &llm.Error{
			Kind:    llm.KindInvalidResponse,
			Message: fmt.Sprintf("failed to parse embedding response: %v", err),
		}
	}

	embedding := make([]float32, len(embResp.Embedding))
	for i, v := range embResp.Embedding {
		embedding[i] = float32(v)
	}

	return embedding, nil
}

// ModelName returns the model name.
func (b *Backend) ModelName() string {
	return b.model
}

// request makes an HTTP request to the Ollama API.
func (b *Backend) request(
	ctx context.Context,
	path string,
	body any,
) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindNetwork, Message: err.Error()}
	}

	return resp, nil
}

// buildMessages converts the prompt pair into Ollama chat messages.
func buildMessages(systemPrompt, userPrompt string) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})
	return messages
}

// parseError extracts error information from an API response.
func parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &llm.Error{
			Kind:       llm.KindInvalidResponse,
			Message:    fmt.Sprintf("API error (status %d): failed to read body", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	kind := llm.KindModel
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = llm.KindAuth
	case http.StatusNotFound:
		kind = llm.KindModel
	case http.StatusTooManyRequests:
		kind = llm.KindRateLimit
	}

	return &llm.Error{
		Kind:       kind,
		Message:    fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body)),
		StatusCode: resp.StatusCode,
	}
}

// Ensure Backend implements the interfaces.
var (
	_ llm.Backend  = (*Backend)(nil)
	_ llm.Embedder = (*Backend)(nil)
)
