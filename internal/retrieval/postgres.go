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
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cortexlab/code-assist-server/internal/llm"
)

// PostgresConfig contains connection and schema settings for a
// pgvector-backed document source.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	Table         string
	ContentColumn string
	VectorColumn  string
	SourceColumn  string // Optional column holding document provenance
	TopN          int
}

// PostgresSource retrieves documents by vector similarity from a
// pgvector-enabled PostgreSQL table. Query embedding is delegated to an
// llm.Embedder so any embedding backend can plug in.
type PostgresSource struct {
	name     string
	pool     *pgxpool.Pool
	cfg      PostgresConfig
	embedder llm.Embedder
}

// NewPostgresSource connects to the database and verifies the connection.
func NewPostgresSource(
	ctx context.Context,
	name string,
	cfg PostgresConfig,
	embedder llm.Embedder,
) (*PostgresSource, error) {
	if embedder == nil {
		return nil, fmt.Errorf("postgres source %q requires an embedder", name)
	}

	poolCfg, err := pgxpool.ParseConfig(buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}

	return &PostgresSource{name: name, pool: pool, cfg: cfg, embedder: embedder}, nil
}

// Name implements Source.
func (s *PostgresSource) Name() string {
	return s.name
}

// Search implements Source. Results are scored by cosine similarity in
// [0,1], descending.
func (s *PostgresSource) Search(ctx context.Context, query string) ([]Document, error) {
	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	sourceCol := s.cfg.SourceColumn
	if sourceCol == "" {
		sourceCol = "''"
	}

	// Column and table names come from operator-controlled configuration,
	// not from the request.
	sql := fmt.Sprintf(
		`SELECT %s, %s, 1 - (%s <=> $1::vector) AS score FROM %s ORDER BY %s <=> $1::vector LIMIT %d`,
		s.cfg.ContentColumn, sourceCol, s.cfg.VectorColumn,
		s.cfg.Table, s.cfg.VectorColumn, s.cfg.TopN,
	)

	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(embedding))
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var content, source string
		var score float64
		if err := rows.Scan(&content, &source, &score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if source == "" {
			source = s.name
		}
		docs = append(docs, Document{
			Content:  content,
			Source:   source,
			Score:    score,
			Metadata: map[string]any{"type": "vector", "table": s.cfg.Table},
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// buildConnectionString constructs a PostgreSQL connection string.
func buildConnectionString(cfg PostgresConfig) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("host=%s", cfg.Host))
	if cfg.Port > 0 {
		parts = append(parts, fmt.Sprintf("port=%d", cfg.Port))
	}
	parts = append(parts, fmt.Sprintf("dbname=%s", cfg.Database))

	// Username: config > PGUSER > USER
	username := cfg.Username
	if username == "" {
		username = os.Getenv("PGUSER")
	}
	if username == "" {
		username = os.Getenv("USER")
	}
	if username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", username))
	}

	if cfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", cfg.Password))
	}
	if cfg.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", cfg.SSLMode))
	}

	return strings.Join(parts, " ")
}

// Ensure PostgresSource implements the interface.
var _ Source = (*PostgresSource)(nil)
