//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package prompt

// Tokenizer counts tokens in a piece of text.
type Tokenizer interface {
	Count(text string) int
}

// EstimateTokenizer approximates token counts at roughly four
// characters per token. Good enough for budget trimming without
// pulling in a model-specific tokenizer.
type EstimateTokenizer struct{}

// Count implements Tokenizer.
func (EstimateTokenizer) Count(text string) int {
	return (len(text) + 3) / 4
}

// OptimizeForTokenLimit trims the bundle until it fits within
// maxTokens, re-rendering after each reduction. The system prompt is
// kept intact for as long as possible. Trimming order:
//
//  1. Drop the lowest-relevance documents one at a time.
//  2. Truncate conversation history from the oldest turn.
//  3. Truncate the query itself as a last resort.
func (b *Bundle) OptimizeForTokenLimit(maxTokens int, tokenizer Tokenizer) error {
	if tokenizer == nil {
		tokenizer = EstimateTokenizer{}
	}

	fits := func() bool {
		return tokenizer.Count(b.System)+tokenizer.Count(b.User) <= maxTokens
	}

	if fits() {
		return nil
	}

	for len(b.docs) > 0 {
		b.docs = dropLeastRelevant(b.docs)
		if err := b.render(); err != nil {
			return err
		}
		if fits() {
			return nil
		}
	}

	for len(b.history) > 0 {
		b.history = b.history[1:]
		if err := b.render(); err != nil {
			return err
		}
		if fits() {
			return nil
		}
	}

	for len(b.query) > 1 && !fits() {
		b.query = b.query[:len(b.query)/2]
		if err := b.render(); err != nil {
			return err
		}
	}

	return b.render()
}
