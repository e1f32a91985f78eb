package query

import "strings"

// Sizes offered by the structured search form
var Sizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

// Form is the structured search form. Empty fields are skipped.
type Form struct {
	ItemType string `json:"itemType" form:"item_type"`
	Color    string `json:"color" form:"color"`
	Brand    string `json:"brand" form:"brand"`
	Style    string `json:"style" form:"style"`
	MaxPrice string `json:"priceRange" form:"price_range"`
	Size     string `json:"size" form:"size"`
	Material string `json:"material" form:"material"`
	Details  string `json:"details" form:"details"`
}

// Text renders the form as a comma separated description, e.g.
// "jacket, black, under $100, size M". An empty form yields DefaultFallback.
func (f Form) Text() string {
	var parts []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	add(f.ItemType)
	add(f.Color)
	add(f.Brand)
	add(f.Style)
	if p := strings.TrimSpace(f.MaxPrice); p != "" {
		add("under " + p)
	}
	if s := strings.TrimSpace(f.Size); s != "" {
		add("size " + s)
	}
	add(f.Material)
	add(f.Details)

	if len(parts) == 0 {
		return DefaultFallback
	}
	return strings.Join(parts, ", ")
}

// Structured builds a query from a form
func Structured(f Form) Query {
	return Build(f.Text(), nil, DefaultFallback)
}
