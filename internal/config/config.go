//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package config handles configuration loading and validation for the
// Cortex Code Assist Server.
package config

// Config is the root configuration structure for the server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Backend   BackendConfig   `yaml:"backend"`
	APIKeys   APIKeysConfig   `yaml:"api_keys"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Templates TemplatesConfig `yaml:"templates"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Trace     TraceConfig     `yaml:"trace"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	ListenAddress string     `yaml:"listen_address"`
	Port          int        `yaml:"port"`
	TLS           TLSConfig  `yaml:"tls"`
	CORS          CORSConfig `yaml:"cors"`
}

// TLSConfig contains TLS/HTTPS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) settings.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"` // Origins to allow, or ["*"] for all
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// BackendConfig contains settings for the language-model backend.
type BackendConfig struct {
	Provider       string  `yaml:"provider"` // openai or ollama
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float32 `yaml:"temperature"`
}

// APIKeysConfig contains paths to files containing API keys. If not
// specified, keys are loaded from environment variables or default
// file locations.
type APIKeysConfig struct {
	OpenAI string `yaml:"openai"` // Path to file containing OpenAI API key
}

// RetrievalConfig contains document source settings.
type RetrievalConfig struct {
	SourceTimeoutSeconds int            `yaml:"source_timeout_seconds"`
	Sources              []SourceConfig `yaml:"sources"`
}

// SourceConfig defines one document source.
type SourceConfig struct {
	Name   string  `yaml:"name"`
	Type   string  `yaml:"type"` // memory, keyword, or postgres
	Weight float64 `yaml:"weight"`
	TopN   int     `yaml:"top_n"`

	// memory sources
	Documents []InlineDocument `yaml:"documents"`

	// keyword sources
	Corpus map[string]string `yaml:"corpus"`

	// postgres sources
	Database      DatabaseConfig `yaml:"database"`
	Table         string         `yaml:"table"`
	ContentColumn string         `yaml:"content_column"`
	VectorColumn  string         `yaml:"vector_column"`
	SourceColumn  string         `yaml:"source_column"`
}

// InlineDocument is a document embedded directly in the configuration.
type InlineDocument struct {
	Content string  `yaml:"content"`
	Source  string  `yaml:"source"`
	Score   float64 `yaml:"score"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// TemplatesConfig contains prompt template settings. When File is
// empty the built-in templates are used.
type TemplatesConfig struct {
	File string `yaml:"file"`
}

// PipelineConfig contains pipeline execution settings.
type PipelineConfig struct {
	TokenBudget    int `yaml:"token_budget"`
	MaxContextDocs int `yaml:"max_context_docs"`
}

// TraceConfig contains request trace recording settings.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress: "0.0.0.0",
			Port:          8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Backend: BackendConfig{
			Provider: "ollama",
		},
		Retrieval: RetrievalConfig{
			SourceTimeoutSeconds: 5,
		},
		Pipeline: PipelineConfig{
			TokenBudget:    4000,
			MaxContextDocs: 5,
		},
	}
}
