//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cortexlab/code-assist-server/internal/config"
	"github.com/cortexlab/code-assist-server/internal/intent"
	"github.com/cortexlab/code-assist-server/internal/llm"
	"github.com/cortexlab/code-assist-server/internal/llm/ollama"
	"github.com/cortexlab/code-assist-server/internal/llm/openai"
	"github.com/cortexlab/code-assist-server/internal/pipeline"
	"github.com/cortexlab/code-assist-server/internal/prompt"
	"github.com/cortexlab/code-assist-server/internal/retrieval"
	"github.com/cortexlab/code-assist-server/internal/server"
	"github.com/cortexlab/code-assist-server/internal/trace"
)

// Version information - set via ldflags during build
var (
	version   = "0.1.0"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help message")
		configPath  = flag.String("config", "", "Path to configuration file")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Cortex Code Assist Server - retrieval-augmented code assistance

Usage:
    code-assist-server [options]

Options:
    -config string
        Path to configuration file. If not specified, searches:
        1. /etc/code-assist/code-assist-server.yaml
        2. code-assist-server.yaml (in binary directory)

    -version
        Show version information and exit

    -help
        Show this help message and exit
`)
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Cortex Code Assist Server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Build Time: %s\n", buildTime)
		fmt.Printf("  Git Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the log configuration.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	backend, err := newBackend(cfg)
	if err != nil {
		return fmt.Errorf("failed to create backend: %w", err)
	}

	recorder, closeRecorder, err := newRecorder(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create trace recorder: %w", err)
	}
	defer closeRecorder()

	store, err := newTemplateStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	sources, closeSources, err := newSources(ctx, cfg, backend)
	if err != nil {
		return fmt.Errorf("failed to create document sources: %w", err)
	}
	defer closeSources()

	retriever := retrieval.NewRetriever(retrieval.RetrieverConfig{
		Sources:       sources,
		SourceTimeout: time.Duration(cfg.Retrieval.SourceTimeoutSeconds) * time.Second,
		Logger:        logger,
	})

	logger.Info("pipeline components ready",
		"backend", backend.ModelName(),
		"sources", retriever.SourceCount(),
		"trace", cfg.Trace.Enabled)

	components := pipeline.Components{
		Classifier:     intent.NewClassifier(backend, logger),
		Retriever:      retriever,
		Assembler:      prompt.NewAssembler(store, logger),
		Backend:        backend,
		Recorder:       recorder,
		MaxContextDocs: cfg.Pipeline.MaxContextDocs,
		TokenBudget:    cfg.Pipeline.TokenBudget,
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		Handlers: pipeline.DefaultHandlers(components),
		Backend:  backend,
		Recorder: recorder,
		Logger:   logger,
	})

	srv := server.New(cfg, orchestrator, logger)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}

// backendWithEmbedder is what both providers implement.
type backendWithEmbedder interface {
	llm.Backend
	llm.Embedder
}

// newBackend builds the language-model backend from configuration.
func newBackend(cfg *config.Config) (backendWithEmbedder, error) {
	switch cfg.Backend.Provider {
	case "openai":
		key, err := cfg.LoadOpenAIKey()
		if err != nil {
			return nil, err
		}
		return openai.New(openai.Config{
			APIKey:         key,
			BaseURL:        cfg.Backend.BaseURL,
			Model:          cfg.Backend.Model,
			EmbeddingModel: cfg.Backend.EmbeddingModel,
			Temperature:    cfg.Backend.Temperature,
		}), nil

	case "ollama":
		var opts []ollama.Option
		if cfg.Backend.BaseURL != "" {
			opts = append(opts, ollama.WithBaseURL(cfg.Backend.BaseURL))
		}
		if cfg.Backend.Model != "" {
			opts = append(opts, ollama.WithModel(cfg.Backend.Model))
		}
		if cfg.Backend.EmbeddingModel != "" {
			opts = append(opts, ollama.WithEmbeddingModel(cfg.Backend.EmbeddingModel))
		}
		if cfg.Backend.Temperature > 0 {
			opts = append(opts, ollama.WithTemperature(float64(cfg.Backend.Temperature)))
		}
		return ollama.New(opts...), nil

	default:
		return nil, fmt.Errorf("unknown backend provider: %s", cfg.Backend.Provider)
	}
}

// newRecorder builds the trace recorder, returning a close function.
func newRecorder(cfg *config.Config, logger *slog.Logger) (trace.Recorder, func(), error) {
	if !cfg.Trace.Enabled {
		return trace.NopRecorder{}, func() {}, nil
	}

	recorder := trace.NewFileRecorder(cfg.Trace.File, logger)
	return recorder, func() {
		if err := recorder.Close(); err != nil {
			logger.Error("failed to close trace recorder", "error", err)
		}
	}, nil
}

// newTemplateStore loads prompt templates from the configured file, or
// falls back to the built-in set.
func newTemplateStore(cfg *config.Config) (prompt.Store, error) {
	if cfg.Templates.File == "" {
		return prompt.BuiltinStore(), nil
	}
	return prompt.LoadFile(cfg.Templates.File)
}

// newSources builds the configured document sources, returning a close
// function for sources holding connections.
func newSources(
	ctx context.Context,
	cfg *config.Config,
	embedder llm.Embedder,
) ([]retrieval.WeightedSource, func(), error) {
	var sources []retrieval.WeightedSource
	var closers []func()

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, sc := range cfg.Retrieval.Sources {
		switch sc.Type {
		case "memory":
			docs := make([]retrieval.Document, len(sc.Documents))
			for i, d := range sc.Documents {
				docs[i] = retrieval.Document{
					Content: d.Content,
					Source:  d.Source,
					Score:   d.Score,
				}
			}
			sources = append(sources, retrieval.WeightedSource{
				Source: retrieval.NewMemorySource(sc.Name, docs),
				Weight: sc.Weight,
			})

		case "keyword":
			sources = append(sources, retrieval.WeightedSource{
				Source: retrieval.NewKeywordSource(sc.Name, sc.Corpus, sc.TopN),
				Weight: sc.Weight,
			})

		case "postgres":
			pgSource, err := retrieval.NewPostgresSource(ctx, sc.Name, retrieval.PostgresConfig{
				Host:          sc.Database.Host,
				Port:          sc.Database.Port,
				Database:      sc.Database.Database,
				Username:      sc.Database.Username,
				Password:      sc.Database.Password,
				SSLMode:       sc.Database.SSLMode,
				Table:         sc.Table,
				ContentColumn: sc.ContentColumn,
				VectorColumn:  sc.VectorColumn,
				SourceColumn:  sc.SourceColumn,
				TopN:          sc.TopN,
			}, embedder)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("source %s: %w", sc.Name, err)
			}
			closers = append(closers, pgSource.Close)
			sources = append(sources, retrieval.WeightedSource{
				Source: pgSource,
				Weight: sc.Weight,
			})

		default:
			closeAll()
			return nil, nil, fmt.Errorf("source %s: unknown type %q", sc.Name, sc.Type)
		}
	}

	return sources, closeAll, nil
}
