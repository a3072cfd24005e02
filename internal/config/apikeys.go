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
	"path/filepath"
	"strings"
)

const (
	// EnvOpenAIAPIKey is the environment variable holding the OpenAI key.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	// DefaultOpenAIKeyFile is the fallback key file, relative to the
	// home directory.
	DefaultOpenAIKeyFile = ".openai-api-key"
)

// LoadOpenAIKey loads the OpenAI API key with the following priority:
//  1. Configured file path (if specified in config)
//  2. OPENAI_API_KEY environment variable
//  3. ~/.openai-api-key
func (c *Config) LoadOpenAIKey() (string, error) {
	if c.APIKeys.OpenAI != "" {
		return readKeyFile(expandKeyPath(c.APIKeys.OpenAI))
	}

	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		return key, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	path := filepath.Join(homeDir, DefaultOpenAIKeyFile)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf(
			"OpenAI API key not found: set %s environment variable or create %s",
			EnvOpenAIAPIKey, path)
	}

	return readKeyFile(path)
}

// readKeyFile reads an API key from a file.
func readKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read API key file %s: %w", path, err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("API key file is empty: %s", path)
	}

	return key, nil
}

// expandKeyPath expands ~ to the user's home directory.
func expandKeyPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
