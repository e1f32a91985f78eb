// Package query turns free text and region descriptors into a normalized
// search query and classifies queries against the item type catalog.
package query

import (
	"slices"
	"strings"
	"unicode"

	"github.com/menta2k/fashion-search/pkg/types"
)

// DefaultFallback is searched when nothing else is left in a query
const DefaultFallback = "fashion item"

// MinTokenLength is the shortest token kept by Tokenize
const MinTokenLength = 3

var stopwords = map[string]bool{
	"the":   true,
	"and":   true,
	"for":   true,
	"with":  true,
	"under": true,
}

// IsStopword reports whether w is dropped during tokenization
func IsStopword(w string) bool {
	return stopwords[strings.ToLower(w)]
}

// Tokenize lowercases text, splits it on commas and whitespace and drops
// short tokens and stopwords. Duplicates are kept.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) < MinTokenLength || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Query is a normalized, duplicate-free token sequence. Order is that of first
// occurrence and only matters for display.
type Query struct {
	Tokens   []string `json:"tokens"`
	Fallback bool     `json:"fallback,omitempty"`
}

// String joins the tokens with single spaces
func (q Query) String() string {
	return strings.Join(q.Tokens, " ")
}

// Contains reports whether the query holds token
func (q Query) Contains(token string) bool {
	return slices.Contains(q.Tokens, strings.ToLower(token))
}

// Len returns the number of tokens
func (q Query) Len() int {
	return len(q.Tokens)
}

// IsEmpty reports whether the query has no tokens
func (q Query) IsEmpty() bool {
	return len(q.Tokens) == 0
}

// Build merges the tokens of text with the descriptor terms. When the union is
// empty the tokens of fallback are used instead, so the result is never empty.
func Build(text string, desc *types.Descriptors, fallback string) Query {
	var q Query
	seen := make(map[string]bool)
	add := func(s string) {
		for _, t := range Tokenize(s) {
			if !seen[t] {
				seen[t] = true
				q.Tokens = append(q.Tokens, t)
			}
		}
	}

	add(text)
	if desc != nil {
		for _, term := range desc.Terms() {
			add(term)
		}
	}

	if len(q.Tokens) == 0 {
		add(fallback)
		if len(q.Tokens) == 0 {
			add(DefaultFallback)
		}
		q.Fallback = true
	}
	return q
}
