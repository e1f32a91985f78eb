package vision

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/fashion-search/pkg/catalog"
	"github.com/menta2k/fashion-search/pkg/region"
)

// createTestImage creates a solid image of the given color
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createStripedImage creates horizontal black and white stripes
func createStripedImage(width, height, stripe int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		c := color.RGBA{0, 0, 0, 255}
		if (y/stripe)%2 == 1 {
			c = color.RGBA{255, 255, 255, 255}
		}
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNew(t *testing.T) {
	detector := New()
	if detector == nil {
		t.Fatal("New() returned nil")
	}

	if detector.config.EdgeThreshold != 0.06 {
		t.Errorf("Expected edge threshold 0.06, got %f", detector.config.EdgeThreshold)
	}
}

func TestNewWithConfig(t *testing.T) {
	detector := NewWithConfig(DetectionConfig{EdgeThreshold: 0.2})
	if detector.config.EdgeThreshold != 0.2 {
		t.Errorf("Expected edge threshold 0.2, got %f", detector.config.EdgeThreshold)
	}
	if detector.config.MaxColors != 3 {
		t.Errorf("Expected default max colors 3, got %d", detector.config.MaxColors)
	}
}

func TestAnalyzeSolidRed(t *testing.T) {
	detector := New()
	img := createTestImage(200, 400, color.RGBA{210, 25, 30, 255})

	desc, err := detector.Analyze(context.Background(), img, region.ImageRegion{X: 50, Y: 100, Width: 100, Height: 80})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(desc.Colors) != 1 || desc.Colors[0] != "red" {
		t.Errorf("Expected colors [red], got %v", desc.Colors)
	}
	if len(desc.Items) != 1 || desc.Items[0] != "shirt" {
		t.Errorf("Expected items [shirt], got %v", desc.Items)
	}
	if len(desc.Patterns) != 1 || desc.Patterns[0] != "solid" {
		t.Errorf("Expected solid pattern, got %v", desc.Patterns)
	}
	if len(desc.Styles) != 1 || desc.Styles[0] != "summer" {
		t.Errorf("Expected summer style for a vivid color, got %v", desc.Styles)
	}
}

func TestAnalyzeStripes(t *testing.T) {
	detector := New()
	img := createStripedImage(100, 100, 2)

	desc, err := detector.Analyze(context.Background(), img, region.ImageRegion{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(desc.Patterns) != 1 || desc.Patterns[0] != "striped" {
		t.Errorf("Expected striped pattern, got %v", desc.Patterns)
	}
	if len(desc.Colors) != 2 {
		t.Errorf("Expected two colors, got %v", desc.Colors)
	}
}

func TestAnalyzeDenim(t *testing.T) {
	detector := New()
	img := createTestImage(200, 400, color.RGBA{25, 35, 85, 255})

	desc, err := detector.Analyze(context.Background(), img, region.ImageRegion{X: 40, Y: 240, Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if desc.Items[0] != "pants" {
		t.Errorf("Expected pants, got %v", desc.Items)
	}
	if len(desc.Materials) != 1 || desc.Materials[0] != "denim" {
		t.Errorf("Expected denim, got %v", desc.Materials)
	}
	if desc.Styles[0] != "elegant" {
		t.Errorf("Expected elegant for a dark region, got %v", desc.Styles)
	}
}

func TestAnalyzeOutsideImage(t *testing.T) {
	detector := New()
	img := createTestImage(50, 50, color.White)

	_, err := detector.Analyze(context.Background(), img, region.ImageRegion{X: 100, Y: 100, Width: 10, Height: 10})
	if !errors.Is(err, region.ErrNoRegion) {
		t.Errorf("Expected ErrNoRegion, got %v", err)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Analyze(ctx, createTestImage(10, 10, color.White), region.ImageRegion{Width: 10, Height: 10})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestGuessItem(t *testing.T) {
	detector := New()
	bounds := image.Rect(0, 0, 300, 1000)

	cases := []struct {
		rect image.Rectangle
		want string
	}{
		{image.Rect(100, 20, 200, 120), "hat"},
		{image.Rect(50, 250, 250, 450), "shirt"},
		{image.Rect(50, 150, 250, 800), "dress"},
		{image.Rect(80, 600, 220, 800), "pants"},
		{image.Rect(0, 600, 300, 700), "skirt"},
		{image.Rect(50, 900, 250, 980), "shoes"},
	}

	for _, tc := range cases {
		if got := detector.GuessItem(bounds, tc.rect); got != tc.want {
			t.Errorf("GuessItem(%v) = %s, want %s", tc.rect, got, tc.want)
		}
	}
}

func TestPaletteNamesAreCatalogColors(t *testing.T) {
	cat := catalog.Default()
	for _, p := range palette {
		if !cat.IsColor(p.name) {
			t.Errorf("Palette color %q is not in the catalog", p.name)
		}
	}
}

func TestNameColor(t *testing.T) {
	cases := map[string]color.Color{
		"black": color.RGBA{10, 10, 10, 255},
		"white": color.RGBA{250, 250, 250, 255},
		"navy":  color.RGBA{20, 30, 90, 255},
		"beige": color.RGBA{220, 200, 160, 255},
	}
	for want, c := range cases {
		if got := NameColor(c); got != want {
			t.Errorf("NameColor(%v) = %s, want %s", c, got, want)
		}
	}
}

func TestGetDominantColorsOrder(t *testing.T) {
	detector := New()
	img := createTestImage(100, 100, color.RGBA{255, 255, 255, 255})
	// a quarter of the image green
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.RGBA{40, 150, 60, 255})
		}
	}

	colors := detector.GetDominantColors(img, img.Bounds())
	if len(colors) != 2 || colors[0] != "white" || colors[1] != "green" {
		t.Errorf("Expected [white green], got %v", colors)
	}
}

func BenchmarkAnalyze(b *testing.B) {
	detector := New()
	img := createStripedImage(1920, 1080, 8)
	r := region.ImageRegion{X: 400, Y: 200, Width: 800, Height: 600}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		detector.Analyze(context.Background(), img, r)
	}
}
