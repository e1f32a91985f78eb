package query

import (
	"slices"
	"strings"

	"github.com/menta2k/fashion-search/pkg/catalog"
)

// Classifier maps query tokens onto canonical item types
type Classifier struct {
	cat      *catalog.Catalog
	synonyms []catalog.Synonym
}

// NewClassifier creates a classifier over cat, or the default catalog if nil
func NewClassifier(cat *catalog.Catalog) *Classifier {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Classifier{cat: cat, synonyms: cat.Synonyms()}
}

// Catalog returns the catalog the classifier reads from
func (c *Classifier) Catalog() *catalog.Catalog {
	return c.cat
}

// exactAt matches the phrase starting at tokens[i] against the synonym table.
// Two-word synonyms ("aloha shirt") win over the single token.
func (c *Classifier) exactAt(tokens []string, i int) (string, bool) {
	if i+1 < len(tokens) {
		if t, ok := c.cat.Canonical(tokens[i] + " " + tokens[i+1]); ok {
			return t, true
		}
	}
	return c.cat.Canonical(tokens[i])
}

// substringTypes returns the types whose synonyms loosely match token, in
// synonym scan order.
func (c *Classifier) substringTypes(token string) []string {
	var out []string
	for _, s := range c.synonyms {
		if substringMatch(token, s.Term) && !slices.Contains(out, s.Type) {
			out = append(out, s.Type)
		}
	}
	return out
}

// substringMatch tolerates plurals and compounds. A synonym shorter than four
// letters only matches inside a longer token as a plural, so "tee" does not
// hit "streetwear".
func substringMatch(token, synonym string) bool {
	if len(token) < MinTokenLength {
		return false
	}
	if strings.Contains(synonym, token) {
		return true
	}
	if len(synonym) >= 4 && strings.Contains(token, synonym) {
		return true
	}
	return token == synonym+"s" || token == synonym+"es"
}

// ClassifyItemType returns the canonical type of the first token with an
// exact synonym match. If no token matches exactly, the first substring match
// is used. The second result is false when nothing matches.
func (c *Classifier) ClassifyItemType(tokens []string) (string, bool) {
	for i := range tokens {
		if t, ok := c.exactAt(tokens, i); ok {
			return t, true
		}
	}
	for _, tok := range tokens {
		if ts := c.substringTypes(tok); len(ts) > 0 {
			return ts[0], true
		}
	}
	return "", false
}

// RelevantItemTypes returns every type the tokens point at, exact matches of a
// token before its substring matches, without duplicates. When nothing matches
// the catalog's fallback types are returned.
func (c *Classifier) RelevantItemTypes(tokens []string) []string {
	found := c.matchAll(tokens)
	if len(found) == 0 {
		return c.cat.FallbackTypes()
	}
	return found
}

func (c *Classifier) matchAll(tokens []string) []string {
	var found []string
	add := func(t string) {
		if !slices.Contains(found, t) {
			found = append(found, t)
		}
	}
	for i, tok := range tokens {
		if t, ok := c.exactAt(tokens, i); ok {
			add(t)
		}
		for _, t := range c.substringTypes(tok) {
			add(t)
		}
	}
	return found
}

// ClassifyRegion picks the single dominant type among the items detected in
// a selection. Each item is matched on its own; among all matches the type
// whose category has the highest priority wins, ties going to the earliest
// detection. Accessories beat tops, which beat bottoms.
func (c *Classifier) ClassifyRegion(items []string) (string, bool) {
	var (
		best     string
		bestRank int
		found    bool
	)
	for _, item := range items {
		for _, t := range c.matchAll(Tokenize(item)) {
			cat, ok := c.cat.Category(t)
			if !ok {
				continue
			}
			if !found || cat.Priority() < bestRank {
				best, bestRank, found = t, cat.Priority(), true
			}
		}
	}
	return best, found
}

var defaultClassifier = NewClassifier(nil)

// ClassifyItemType classifies tokens against the default catalog
func ClassifyItemType(tokens []string) (string, bool) {
	return defaultClassifier.ClassifyItemType(tokens)
}

// RelevantItemTypes lists the item types of tokens in the default catalog
func RelevantItemTypes(tokens []string) []string {
	return defaultClassifier.RelevantItemTypes(tokens)
}

// ClassifyRegion picks the dominant item type using the default catalog
func ClassifyRegion(items []string) (string, bool) {
	return defaultClassifier.ClassifyRegion(items)
}
