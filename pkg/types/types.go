package types

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Primary represents the dominant garment reported by a vision model
type Primary struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// AnalysisResult is the JSON document a vision model returns for a selection
type AnalysisResult struct {
	Primary     Primary  `json:"primary"`
	Items       []string `json:"items"`
	Colors      []string `json:"colors"`
	Styles      []string `json:"styles"`
	Patterns    []string `json:"patterns"`
	Materials   []string `json:"materials"`
	Description string   `json:"description"`
}

// Descriptors are the terms an image analysis contributes to a search query.
// Items are listed in detection order; the search layer picks the dominant one.
type Descriptors struct {
	Items     []string `json:"items"`
	Colors    []string `json:"colors"`
	Styles    []string `json:"styles"`
	Patterns  []string `json:"patterns"`
	Materials []string `json:"materials"`
}

// Terms flattens the descriptors in a stable order: items, colors, styles,
// patterns, materials.
func (d Descriptors) Terms() []string {
	out := make([]string, 0, len(d.Items)+len(d.Colors)+len(d.Styles)+len(d.Patterns)+len(d.Materials))
	out = append(out, d.Items...)
	out = append(out, d.Colors...)
	out = append(out, d.Styles...)
	out = append(out, d.Patterns...)
	out = append(out, d.Materials...)
	return out
}

// IsEmpty reports whether the analysis produced no terms at all
func (d Descriptors) IsEmpty() bool {
	return len(d.Items)+len(d.Colors)+len(d.Styles)+len(d.Patterns)+len(d.Materials) == 0
}

// Descriptors converts a model result into query descriptors. The primary
// label leads the item list.
func (r AnalysisResult) Descriptors() Descriptors {
	items := make([]string, 0, len(r.Items)+1)
	if r.Primary.Label != "" && r.Primary.Label != "none" {
		items = append(items, r.Primary.Label)
	}
	items = append(items, r.Items...)
	return Descriptors{
		Items:     items,
		Colors:    r.Colors,
		Styles:    r.Styles,
		Patterns:  r.Patterns,
		Materials: r.Materials,
	}
}
