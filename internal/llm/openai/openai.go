//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package openai implements the llm.Backend interface against any
// OpenAI-compatible chat completions API.
package openai

import (
	"context"
	"errors"
	"io"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/cortexlab/code-assist-server/internal/llm"
)

const defaultEmbeddingModel = "text-embedding-3-small"

// Backend is an OpenAI-compatible llm.Backend.
type Backend struct {
	client         *goopenai.Client
	model          string
	embeddingModel string
	temperature    float32
}

// Config contains settings for the OpenAI backend.
type Config struct {
	APIKey         string
	BaseURL        string // Optional; for OpenAI-compatible endpoints
	Model          string
	EmbeddingModel string
	Temperature    float32
}

// New creates a new OpenAI backend.
func New(cfg Config) *Backend {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	return &Backend{
		client:         goopenai.NewClientWithConfig(clientCfg),
		model:          cfg.Model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
	}
}

// Generate produces a complete response for the prompt pair.
func (b *Backend) Generate(
	ctx context.Context,
	systemPrompt, userPrompt string,
) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    buildMessages(systemPrompt, userPrompt),
		Temperature: b.temperature,
	})
	if err != nil {
		return "", translateError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &llm.Error{
			Kind:    llm.KindInvalidResponse,
			Message: "completion returned no choices",
		}
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateStream produces a streaming response for the prompt pair.
func (b *Backend) GenerateStream(
	ctx context.Context,
	systemPrompt, userPrompt string,
) (<-chan string, <-chan error) {
	tokenChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(tokenChan)
		defer close(errChan)

		stream, err := b.client.CreateChatCompletionStream(ctx, goopenai.ChatCompletionRequest{
			Model:       b.model,
			Messages:    buildMessages(systemPrompt, userPrompt),
			Temperature: b.temperature,
			Stream:      true,
		})
		if err != nil {
			errChan <- translateError(err)
			return
		}
		defer func() { _ = stream.Close() }()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errChan <- translateError(err)
				return
			}

			if len(resp.Choices) == 0 {
				continue
			}

			select {
			case tokenChan <- resp.Choices[0].Delta.Content:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return tokenChan, errChan
}

// EmbedQuery generates an embedding vector for the given text.
func (b *Backend) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := b.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(b.embeddingModel),
	})
	if err != nil {
		return nil, translateError(err)
	}

	if len(resp.Data) == 0 {
		return nil, &llm.Error{
			Kind:    llm.KindInvalidResponse,
			Message: "embedding response contained no data",
		}
	}

	return resp.Data[0].Embedding, nil
}

// ModelName returns the model name.
func (b *Backend) ModelName() string {
	return b.model
}

// buildMessages converts the prompt pair into chat messages.
func buildMessages(systemPrompt, userPrompt string) []goopenai.ChatCompletionMessage {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: userPrompt,
	})
	return messages
}

// translateError maps go-openai errors onto the shared error taxonomy.
func translateError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		kind := llm.KindModel
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = llm.KindAuth
		case http.StatusTooManyRequests:
			kind = llm.KindRateLimit
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			kind = llm.KindTimeout
		}
		return &llm.Error{
			Kind:       kind,
			Message:    apiErr.Message,
			StatusCode: apiErr.HTTPStatusCode,
		}
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &llm.Error{
			Kind:       llm.KindInvalidResponse,
			Message:    reqErr.Error(),
			StatusCode: reqErr.HTTPStatusCode,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &llm.Error{Kind: llm.KindTimeout, Message: err.Error()}
	}

	return &llm.Error{Kind: llm.KindNetwork, Message: err.Error()}
}

// Ensure Backend implements the interfaces.
var (
	_ llm.Backend  = (*Backend)(nil)
	_ llm.Embedder = (*Backend)(nil)
)
