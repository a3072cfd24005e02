//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package config

import (
	"fmt"
	"os"
)

// validProviders is the set of supported backend providers.
var validProviders = map[string]bool{
	"openai": true,
	"ollama": true,
}

// validSourceTypes is the set of supported document source types.
var validSourceTypes = map[string]bool{
	"memory":   true,
	"keyword":  true,
	"postgres": true,
}

// validLogLevels is the set of supported log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLog(); err != nil {
		return err
	}
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateTemplates(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("TLS enabled but cert_file not specified")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but key_file not specified")
		}
		if _, err := os.Stat(c.Server.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert_file not found: %s", c.Server.TLS.CertFile)
		}
		if _, err := os.Stat(c.Server.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key_file not found: %s", c.Server.TLS.KeyFile)
		}
	}

	return nil
}

func (c *Config) validateLog() error {
	if c.Log.Level != "" && !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log format must be text or json, got %s", c.Log.Format)
	}
	return nil
}

func (c *Config) validateBackend() error {
	if !validProviders[c.Backend.Provider] {
		return fmt.Errorf("invalid backend provider: %s (must be openai or ollama)",
			c.Backend.Provider)
	}
	return nil
}

func (c *Config) validateSources() error {
	seen := make(map[string]bool)

	for i, s := range c.Retrieval.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name: %s", s.Name)
		}
		seen[s.Name] = true

		if !validSourceTypes[s.Type] {
			return fmt.Errorf("source %s: invalid type %q", s.Name, s.Type)
		}
		if s.Weight < 0 {
			return fmt.Errorf("source %s: weight must not be negative", s.Name)
		}

		switch s.Type {
		case "keyword":
			if len(s.Corpus) == 0 {
				return fmt.Errorf("source %s: keyword sources require a corpus", s.Name)
			}
		case "postgres":
			if s.Database.Host == "" {
				return fmt.Errorf("source %s: database host is required", s.Name)
			}
			if s.Database.Database == "" {
				return fmt.Errorf("source %s: database name is required", s.Name)
			}
			if s.Table == "" {
				return fmt.Errorf("source %s: table is required", s.Name)
			}
		}
	}

	return nil
}

func (c *Config) validateTemplates() error {
	if c.Templates.File != "" {
		if _, err := os.Stat(c.Templates.File); err != nil {
			return fmt.Errorf("template file not found: %s", c.Templates.File)
		}
	}
	return nil
}
