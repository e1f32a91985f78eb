package vision

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/menta2k/fashion-search/pkg/region"
	"github.com/menta2k/fashion-search/pkg/types"
)

// HeuristicAnalyzer describes a selection from its pixels alone: dominant
// colors, a garment guess from where the selection sits in the picture, and a
// pattern guess from edge density. It needs no model and is deterministic.
type HeuristicAnalyzer struct {
	config DetectionConfig
}

// DetectionConfig holds configuration for the heuristic analysis
type DetectionConfig struct {
	EdgeThreshold   float64 // mean edge strength above which a region is patterned
	DirectionRatio  float64 // gradient ratio above which a pattern counts as striped
	MaxColors       int
	MaxSamples      int // pixels sampled per region, bounds the cost on large images
	DarkLuminance   float64
	VividSaturation float64
}

// New creates a new HeuristicAnalyzer with default configuration
func New() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{
		config: DetectionConfig{
			EdgeThreshold:   0.06,
			DirectionRatio:  2.0,
			MaxColors:       3,
			MaxSamples:      40000,
			DarkLuminance:   0.25,
			VividSaturation: 0.45,
		},
	}
}

// NewWithConfig creates a new HeuristicAnalyzer with custom configuration
func NewWithConfig(config DetectionConfig) *HeuristicAnalyzer {
	if config.MaxColors <= 0 {
		config.MaxColors = 3
	}
	if config.MaxSamples <= 0 {
		config.MaxSamples = 40000
	}
	return &HeuristicAnalyzer{config: config}
}

// Analyze implements search.Analyzer
func (d *HeuristicAnalyzer) Analyze(ctx context.Context, img image.Image, r region.ImageRegion) (types.Descriptors, error) {
	if err := ctx.Err(); err != nil {
		return types.Descriptors{}, err
	}
	if img == nil {
		return types.Descriptors{}, fmt.Errorf("no image to analyze")
	}

	bounds := img.Bounds()
	rect := r.Rectangle().Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return types.Descriptors{}, fmt.Errorf("%w: selection outside image", region.ErrNoRegion)
	}

	item := d.GuessItem(bounds, rect)
	colors := d.GetDominantColors(img, rect)
	stats := d.measure(img, rect)

	desc := types.Descriptors{
		Items:  []string{item},
		Colors: colors,
		Styles: []string{d.style(stats)},
	}
	if p := d.pattern(stats); p != "" {
		desc.Patterns = []string{p}
	}
	if m := material(item, colors); m != "" {
		desc.Materials = []string{m}
	}
	return desc, nil
}

// GuessItem names the garment most likely to sit at rect within an image of
// the given bounds, assuming an upright full-body photo.
func (d *HeuristicAnalyzer) GuessItem(bounds, rect image.Rectangle) string {
	h := float64(bounds.Dy())
	if h <= 0 {
		return "shirt"
	}
	cy := (float64(rect.Min.Y+rect.Max.Y)/2 - float64(bounds.Min.Y)) / h
	relH := float64(rect.Dy()) / h
	aspect := float64(rect.Dx()) / math.Max(1, float64(rect.Dy()))

	switch {
	case cy < 0.2 && relH < 0.35:
		return "hat"
	case cy > 0.85:
		return "shoes"
	case cy < 0.55:
		if relH > 0.5 {
			return "dress"
		}
		return "shirt"
	case aspect > 1.2:
		return "skirt"
	default:
		return "pants"
	}
}

// regionStats summarizes the sampled pixels of a region
type regionStats struct {
	edge       float64 // mean edge strength in [0,1]
	gradX      float64
	gradY      float64
	luminance  float64
	saturation float64
}

// sampleStep returns the stride that keeps a region within MaxSamples pixels
func (d *HeuristicAnalyzer) sampleStep(rect image.Rectangle) int {
	area := rect.Dx() * rect.Dy()
	if area <= d.config.MaxSamples {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(area) / float64(d.config.MaxSamples))))
}

func (d *HeuristicAnalyzer) measure(img image.Image, rect image.Rectangle) regionStats {
	var s regionStats
	step := d.sampleStep(rect)
	count := 0
	edges := 0

	for y := rect.Min.Y; y < rect.Max.Y; y += step {
		for x := rect.Min.X; x < rect.Max.X; x += step {
			r1, g1, b1, _ := img.At(x, y).RGBA()
			lum, sat := lumSat(r1, g1, b1)
			s.luminance += lum
			s.saturation += sat
			count++

			if x+step >= rect.Max.X || y+step >= rect.Max.Y {
				continue
			}
			// Forward differences against the right and lower neighbours
			dx := colorDiff(r1, g1, b1, img.At(x+step, y))
			dy := colorDiff(r1, g1, b1, img.At(x, y+step))
			s.gradX += dx
			s.gradY += dy
			s.edge += (dx + dy) / 2
			edges++
		}
	}

	if count > 0 {
		s.luminance /= float64(count)
		s.saturation /= float64(count)
	}
	if edges > 0 {
		s.edge /= float64(edges)
		s.gradX /= float64(edges)
		s.gradY /= float64(edges)
	}
	return s
}

// colorDiff returns the normalized RGB distance between a pixel and c
func colorDiff(r1, g1, b1 uint32, c color.Color) float64 {
	r2, g2, b2, _ := c.RGBA()
	dr := float64(r1) - float64(r2)
	dg := float64(g1) - float64(g2)
	db := float64(b1) - float64(b2)
	return math.Sqrt(dr*dr+dg*dg+db*db) / (math.Sqrt(3) * 65535.0)
}

func lumSat(r, g, b uint32) (float64, float64) {
	rf, gf, bf := float64(r)/65535, float64(g)/65535, float64(b)/65535
	lum := 0.299*rf + 0.587*gf + 0.114*bf
	hi := math.Max(rf, math.Max(gf, bf))
	lo := math.Min(rf, math.Min(gf, bf))
	if hi == 0 {
		return lum, 0
	}
	return lum, (hi - lo) / hi
}

func (d *HeuristicAnalyzer) pattern(s regionStats) string {
	if s.edge < d.config.EdgeThreshold {
		return "solid"
	}
	lo := math.Min(s.gradX, s.gradY)
	hi := math.Max(s.gradX, s.gradY)
	if lo == 0 || hi/lo >= d.config.DirectionRatio {
		return "striped"
	}
	return "geometric"
}

func (d *HeuristicAnalyzer) style(s regionStats) string {
	switch {
	case s.luminance < d.config.DarkLuminance:
		return "elegant"
	case s.saturation > d.config.VividSaturation:
		return "summer"
	default:
		return "casual"
	}
}

func material(item string, colors []string) string {
	if item != "pants" || len(colors) == 0 {
		return ""
	}
	if colors[0] == "blue" || colors[0] == "navy" {
		return "denim"
	}
	return ""
}

// namedColor is an entry of the palette dominant colors are snapped to
type namedColor struct {
	name    string
	r, g, b float64
}

var palette = []namedColor{
	{"black", 0, 0, 0},
	{"white", 255, 255, 255},
	{"blue", 30, 80, 200},
	{"red", 200, 30, 30},
	{"green", 40, 150, 60},
	{"yellow", 240, 220, 50},
	{"purple", 120, 50, 160},
	{"pink", 240, 150, 190},
	{"brown", 120, 75, 40},
	{"gray", 128, 128, 128},
	{"navy", 20, 30, 80},
	{"beige", 225, 205, 165},
	{"orange", 245, 140, 30},
	{"coral", 250, 120, 100},
	{"turquoise", 60, 200, 200},
}

// NameColor snaps c to the nearest palette color name
func NameColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	rf, gf, bf := float64(r>>8), float64(g>>8), float64(b>>8)

	best := palette[0].name
	bestDist := math.MaxFloat64
	for _, p := range palette {
		dr, dg, db := rf-p.r, gf-p.g, bf-p.b
		if dist := dr*dr + dg*dg + db*db; dist < bestDist {
			best, bestDist = p.name, dist
		}
	}
	return best
}

// GetDominantColors returns the names of the most frequent colors in rect,
// most frequent first.
func (d *HeuristicAnalyzer) GetDominantColors(img image.Image, rect image.Rectangle) []string {
	rect = rect.Intersect(img.Bounds())
	step := d.sampleStep(rect)

	// Color histogram
	colorMap := make(map[uint32]int)
	for y := rect.Min.Y; y < rect.Max.Y; y += step {
		for x := rect.Min.X; x < rect.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()

			// Quantize colors to reduce noise
			r = (r >> 8) & 0xf0
			g = (g >> 8) & 0xf0
			b = (b >> 8) & 0xf0

			colorMap[(r<<16)|(g<<8)|b]++
		}
	}

	type bucket struct {
		key   uint32
		count int
	}
	buckets := make([]bucket, 0, len(colorMap))
	for k, c := range colorMap {
		buckets = append(buckets, bucket{k, c})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].key < buckets[j].key
	})

	// Buckets below a quarter of the top count are noise
	var names []string
	for _, bk := range buckets {
		if bk.count < buckets[0].count/4 || len(names) >= d.config.MaxColors {
			break
		}
		c := color.RGBA{uint8(bk.key >> 16), uint8(bk.key >> 8), uint8(bk.key), 255}
		if name := NameColor(c); !contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
