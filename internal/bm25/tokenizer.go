//-------------------------------------------------------------------------
//
// Cortex Code Assist Server
//
// Copyright (c) 2026, Cortex Labs
// This software is released under the Apache License, Version 2.0
//
//-------------------------------------------------------------------------

package bm25

import (
	"strings"
	"unicode"
)

// stopWords are common English terms excluded from indexing.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "do": true, "does": true,
	"for": true, "from": true, "has": true, "have": true, "how": true,
	"in": true, "is": true, "it": true, "its": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "this": true,
	"to": true, "was": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "who": true, "why": true, "will": true,
	"with": true,
}

// tokenize lowercases text and splits on non-alphanumeric runes,
// dropping stop words and single-character tokens.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := current.String()
		current.Reset()
		if len(tok) < 2 || stopWords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// tokenFrequencies returns a map of token to occurrence count.
func tokenFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, tok := range tokenize(text) {
		freqs[tok]++
	}
	return freqs
}
