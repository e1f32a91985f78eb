// Package catalog holds the static item type tables: canonical types, their
// synonyms, categories, price bands and image pools, plus the store names and
// descriptor vocabularies used to synthesize results.
package catalog

import (
	"slices"
	"strings"
	"sync"
)

// Category groups item types. Lower values win when a selection matches
// several types.
type Category int

const (
	CategoryAccessory Category = iota
	CategoryFootwear
	CategoryOuterwear
	CategoryTop
	CategoryBottom
)

func (c Category) String() string {
	switch c {
	case CategoryAccessory:
		return "accessory"
	case CategoryFootwear:
		return "footwear"
	case CategoryOuterwear:
		return "outerwear"
	case CategoryTop:
		return "top"
	case CategoryBottom:
		return "bottom"
	}
	return "unknown"
}

// Priority returns the rank of the category; lower is more specific
func (c Category) Priority() int {
	return int(c)
}

// PriceBand is an inclusive whole-dollar range
type PriceBand struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ItemType is one canonical item type
type ItemType struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Category Category  `json:"category"`
	Price    PriceBand `json:"price"`
	Synonyms []string  `json:"synonyms"`
	Images   []string  `json:"images"`
}

// Synonym maps one raw term onto a canonical item type
type Synonym struct {
	Term string
	Type string
}

// Tables holds the raw data a catalog is built from. Empty vocabularies fall
// back to the built-in ones, so a substitute catalog only needs the tables it
// changes.
type Tables struct {
	ItemTypes  []ItemType
	Stores     []string
	Adjectives []string
	Colors     []string
	Styles     []string
	Patterns   []string
	Materials  []string

	// DefaultColors and DefaultStyles fill titles when a query names none
	DefaultColors []string
	DefaultStyles []string
	// FallbackTypes are used when a query matches no item type
	FallbackTypes []string
}

// DefaultTables returns a copy of the built-in tables
func DefaultTables() Tables {
	return Tables{
		ItemTypes:     slices.Clone(itemTypes),
		Stores:        slices.Clone(stores),
		Adjectives:    slices.Clone(adjectives),
		Colors:        slices.Clone(colors),
		Styles:        slices.Clone(styles),
		Patterns:      slices.Clone(patterns),
		Materials:     slices.Clone(materials),
		DefaultColors: slices.Clone(defaultColors),
		DefaultStyles: slices.Clone(defaultStyles),
		FallbackTypes: slices.Clone(fallbackTypes),
	}
}

// Catalog is a read-only view over the item type tables. It is safe for
// concurrent use.
type Catalog struct {
	types    []ItemType
	byName   map[string]int
	byTerm   map[string]string
	synonyms []Synonym
	colors   map[string]bool
	styles   map[string]bool
	tables   Tables
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	return New(DefaultTables())
})

// Default returns the process-wide catalog built from the built-in tables
func Default() *Catalog {
	return defaultCatalog()
}

// New builds a catalog from tables. Terms are lowercased and the first item
// type to claim a synonym keeps it.
func New(tables Tables) *Catalog {
	vocab := func(v, builtin []string) []string {
		if len(v) == 0 {
			v = builtin
		}
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = strings.ToLower(strings.TrimSpace(s))
		}
		return out
	}
	tables.Colors = vocab(tables.Colors, colors)
	tables.Styles = vocab(tables.Styles, styles)
	tables.Patterns = vocab(tables.Patterns, patterns)
	tables.Materials = vocab(tables.Materials, materials)
	tables.DefaultColors = vocab(tables.DefaultColors, defaultColors)
	tables.DefaultStyles = vocab(tables.DefaultStyles, defaultStyles)
	tables.FallbackTypes = vocab(tables.FallbackTypes, fallbackTypes)
	if len(tables.Stores) == 0 {
		tables.Stores = stores
	}
	if len(tables.Adjectives) == 0 {
		tables.Adjectives = adjectives
	}
	tables.Stores = slices.Clone(tables.Stores)
	tables.Adjectives = slices.Clone(tables.Adjectives)

	types := tables.ItemTypes
	tables.ItemTypes = nil
	c := &Catalog{
		types:  make([]ItemType, 0, len(types)),
		byName: make(map[string]int, len(types)),
		byTerm: make(map[string]string),
		colors: make(map[string]bool, len(tables.Colors)),
		styles: make(map[string]bool, len(tables.Styles)),
		tables: tables,
	}

	for _, t := range types {
		t.Name = strings.ToLower(t.Name)
		t.Synonyms = slices.Clone(t.Synonyms)
		t.Images = slices.Clone(t.Images)
		if !slices.Contains(t.Synonyms, t.Name) {
			t.Synonyms = append([]string{t.Name}, t.Synonyms...)
		}

		c.byName[t.Name] = len(c.types)
		c.types = append(c.types, t)

		for _, s := range t.Synonyms {
			s = strings.ToLower(s)
			if _, taken := c.byTerm[s]; taken {
				continue
			}
			c.byTerm[s] = t.Name
			c.synonyms = append(c.synonyms, Synonym{Term: s, Type: t.Name})
		}
	}

	for _, v := range tables.Colors {
		c.colors[v] = true
	}
	for _, v := range tables.Styles {
		c.styles[v] = true
	}
	return c
}

// ItemTypes returns all canonical item types in declaration order
func (c *Catalog) ItemTypes() []ItemType {
	out := make([]ItemType, len(c.types))
	for i, t := range c.types {
		t.Synonyms = slices.Clone(t.Synonyms)
		t.Images = slices.Clone(t.Images)
		out[i] = t
	}
	return out
}

// Lookup returns the canonical item type with the given name
func (c *Catalog) Lookup(name string) (ItemType, bool) {
	i, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return ItemType{}, false
	}
	t := c.types[i]
	t.Synonyms = slices.Clone(t.Synonyms)
	t.Images = slices.Clone(t.Images)
	return t, true
}

// Canonical maps a term onto its canonical item type by exact match
func (c *Catalog) Canonical(term string) (string, bool) {
	name, ok := c.byTerm[strings.ToLower(term)]
	return name, ok
}

// Synonyms returns every synonym in scan order
func (c *Catalog) Synonyms() []Synonym {
	return slices.Clone(c.synonyms)
}

// Category returns the category of a canonical item type
func (c *Catalog) Category(name string) (Category, bool) {
	i, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return 0, false
	}
	return c.types[i].Category, true
}

// Title returns the display name of an item type, or the name itself when the
// type is unknown.
func (c *Catalog) Title(name string) string {
	if i, ok := c.byName[strings.ToLower(name)]; ok {
		return c.types[i].Title
	}
	return name
}

// PriceBand returns the price band of an item type or DefaultPrice
func (c *Catalog) PriceBand(name string) PriceBand {
	if i, ok := c.byName[strings.ToLower(name)]; ok && c.types[i].Price.Max >= c.types[i].Price.Min && c.types[i].Price.Max > 0 {
		return c.types[i].Price
	}
	return DefaultPrice
}

// ImageURL picks the image for result slot i, cycling through the item type's
// pool. Unknown types and empty pools get DefaultImageURL.
func (c *Catalog) ImageURL(name string, i int) string {
	idx, ok := c.byName[strings.ToLower(name)]
	if !ok || len(c.types[idx].Images) == 0 || i < 0 {
		return DefaultImageURL
	}
	pool := c.types[idx].Images
	return pool[i%len(pool)]
}

// IsColor reports whether term is a known color
func (c *Catalog) IsColor(term string) bool { return c.colors[term] }

// IsStyle reports whether term is a known style
func (c *Catalog) IsStyle(term string) bool { return c.styles[term] }

// Stores returns the demo store names
func (c *Catalog) Stores() []string { return slices.Clone(c.tables.Stores) }

// Adjectives returns the title adjectives
func (c *Catalog) Adjectives() []string { return slices.Clone(c.tables.Adjectives) }

// Colors returns the color vocabulary
func (c *Catalog) Colors() []string { return slices.Clone(c.tables.Colors) }

// Styles returns the style vocabulary
func (c *Catalog) Styles() []string { return slices.Clone(c.tables.Styles) }

// Patterns returns the pattern vocabulary
func (c *Catalog) Patterns() []string { return slices.Clone(c.tables.Patterns) }

// Materials returns the material vocabulary
func (c *Catalog) Materials() []string { return slices.Clone(c.tables.Materials) }

// DefaultColors are used when a query names no color
func (c *Catalog) DefaultColors() []string { return slices.Clone(c.tables.DefaultColors) }

// DefaultStyles are used when a query names no style
func (c *Catalog) DefaultStyles() []string { return slices.Clone(c.tables.DefaultStyles) }

// FallbackTypes are used when a query matches no item type
func (c *Catalog) FallbackTypes() []string { return slices.Clone(c.tables.FallbackTypes) }
