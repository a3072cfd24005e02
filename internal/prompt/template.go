//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

// Package prompt provides prompt templates and the assembler that
// renders them into a system/user prompt bundle.
package prompt

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrTemplateNotFound is returned when a template id cannot be resolved.
var ErrTemplateNotFound = errors.New("template not found")

// Example is a few-shot input/output pair.
type Example struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

// Template is a read-only prompt template. The body uses {{name}}
// placeholder substitution.
type Template struct {
	ID           string    `yaml:"id" json:"id"`
	Name         string    `yaml:"name" json:"name"`
	Description  string    `yaml:"description" json:"description"`
	Body         string    `yaml:"template" json:"template"`
	Variables    []string  `yaml:"variables" json:"variables"`
	SystemPrompt string    `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	FewShot      []Example `yaml:"few_shot_examples,omitempty" json:"few_shot_examples,omitempty"`
}

// Store resolves templates by id. Implementations must be safe for
// unsynchronized concurrent reads.
type Store interface {
	Get(id string) (*Template, error)
}

// MemoryStore is an immutable in-memory template store.
type MemoryStore struct {
	templates map[string]*Template
}

// NewMemoryStore creates a store holding the given templates.
func NewMemoryStore(templates ...*Template) *MemoryStore {
	m := make(map[string]*Template, len(templates))
	for _, t := range templates {
		m[t.ID] = t
	}
	return &MemoryStore{templates: m}
}

// Get implements Store.
func (s *MemoryStore) Get(id string) (*Template, error) {
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return t, nil
}

// LoadFile reads templates from a YAML file containing a `templates`
// list and returns them as a MemoryStore.
func LoadFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var doc struct {
		Templates []*Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template file: %w", err)
	}

	for _, t := range doc.Templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template file %s: template without id", path)
		}
	}

	return NewMemoryStore(doc.Templates...), nil
}
