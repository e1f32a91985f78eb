package cropper

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/fashion-search/pkg/region"
)

// createTestImage creates an image with a bright square in the center
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}

	return img
}

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.BoxSize() != DefaultBoxSize {
		t.Errorf("Expected box size %d, got %d", DefaultBoxSize, c.BoxSize())
	}
}

func TestNewWithConfigDefaults(t *testing.T) {
	c := NewWithConfig(PreviewConfig{})
	if c.BoxSize() != DefaultBoxSize {
		t.Errorf("Expected default box size, got %d", c.BoxSize())
	}
	if c.config.Filter.Kernel == nil {
		t.Error("Expected a default resample filter")
	}
}

func TestPreviewSize(t *testing.T) {
	cases := []struct {
		r     region.ImageRegion
		box   int
		wantW int
		wantH int
	}{
		{region.ImageRegion{Width: 300, Height: 150}, 150, 150, 75},
		{region.ImageRegion{Width: 100, Height: 400}, 150, 38, 150},
		{region.ImageRegion{Width: 200, Height: 200}, 128, 128, 128},
		{region.ImageRegion{Width: 1000, Height: 1}, 150, 150, 1},
		{region.ImageRegion{Width: 0, Height: 100}, 150, 0, 0},
	}

	for _, tc := range cases {
		w, h := PreviewSize(tc.r, tc.box)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("PreviewSize(%vx%v, %d) = %dx%d, want %dx%d",
				tc.r.Width, tc.r.Height, tc.box, w, h, tc.wantW, tc.wantH)
		}
	}
}

func TestRenderCroppedPreview(t *testing.T) {
	c := New()
	img := createTestImage(600, 400)

	// Center square is bright
	prev, err := c.RenderCroppedPreview(img, region.ImageRegion{X: 250, Y: 150, Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("RenderCroppedPreview failed: %v", err)
	}

	b := prev.Image.Bounds()
	if b.Dx() != 150 || b.Dy() != 150 {
		t.Errorf("Expected 150x150, got %dx%d", b.Dx(), b.Dy())
	}
	if prev.Width != b.Dx() || prev.Height != b.Dy() {
		t.Errorf("Preview size fields %dx%d disagree with bounds", prev.Width, prev.Height)
	}

	r, _, _, _ := prev.Image.At(75, 75).RGBA()
	if r>>8 < 200 {
		t.Errorf("Expected bright center pixel, got %d", r>>8)
	}
}

func TestRenderCroppedPreviewKeepsAspect(t *testing.T) {
	c := New()
	img := createTestImage(600, 400)

	prev, err := c.RenderCroppedPreview(img, region.ImageRegion{X: 0, Y: 0, Width: 300, Height: 100})
	if err != nil {
		t.Fatalf("RenderCroppedPreview failed: %v", err)
	}
	if prev.Width != 150 || prev.Height != 50 {
		t.Errorf("Expected 150x50, got %dx%d", prev.Width, prev.Height)
	}
}

func TestRenderCroppedPreviewFailures(t *testing.T) {
	c := New()
	img := createTestImage(100, 100)

	cases := map[string]struct {
		img image.Image
		r   region.ImageRegion
	}{
		"nil image":      {nil, region.ImageRegion{Width: 10, Height: 10}},
		"zero area":      {img, region.ImageRegion{X: 10, Y: 10}},
		"outside bounds": {img, region.ImageRegion{X: 200, Y: 200, Width: 10, Height: 10}},
	}

	for name, tc := range cases {
		if _, err := c.RenderCroppedPreview(tc.img, tc.r); !errors.Is(err, ErrNoPreview) {
			t.Errorf("%s: expected ErrNoPreview, got %v", name, err)
		}
	}
}

// panicImage simulates a decoder that fails while pixels are read
type panicImage struct{}

func (panicImage) ColorModel() color.Model { return color.RGBAModel }
func (panicImage) Bounds() image.Rectangle { return image.Rect(0, 0, 50, 50) }
func (panicImage) At(x, y int) color.Color { panic("corrupt pixel data") }

func TestRenderCroppedPreviewRecoversFromDrawFailure(t *testing.T) {
	c := New()
	prev, err := c.RenderCroppedPreview(panicImage{}, region.ImageRegion{X: 10, Y: 10, Width: 30, Height: 20})
	if !errors.Is(err, ErrNoPreview) {
		t.Errorf("Expected ErrNoPreview, got %v", err)
	}
	if prev.Image != nil {
		t.Error("Expected an empty preview on failure")
	}

	// the renderer stays usable afterwards
	if _, err := c.RenderCroppedPreview(createTestImage(100, 100), region.ImageRegion{Width: 40, Height: 40}); err != nil {
		t.Errorf("Expected a preview after a failed render, got %v", err)
	}
}

func TestCrop(t *testing.T) {
	original := createTestImage(200, 200)

	cropped, err := Crop(original, region.ImageRegion{X: 50, Y: 50, Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	bounds := cropped.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("Expected 100x100, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	r1, g1, b1, a1 := cropped.At(0, 0).RGBA()
	r2, g2, b2, a2 := original.At(50, 50).RGBA()
	if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
		t.Error("Cropped image pixel should match original image pixel")
	}

	// the copy is detached from the source
	original.(*image.RGBA).Set(50, 50, color.RGBA{1, 2, 3, 255})
	if r, _, _, _ := cropped.At(0, 0).RGBA(); r != r2 {
		t.Error("Cropped image should not follow later writes to the source")
	}
}

func TestCropRecoversFromDrawFailure(t *testing.T) {
	img, err := Crop(panicImage{}, region.ImageRegion{X: 5, Y: 5, Width: 30, Height: 30})
	if !errors.Is(err, ErrNoPreview) {
		t.Errorf("Expected ErrNoPreview, got %v", err)
	}
	if img != nil {
		t.Error("Expected no image on failure")
	}
}

func BenchmarkRenderCroppedPreview(b *testing.B) {
	c := New()
	img := createTestImage(1920, 1080)
	r := region.ImageRegion{X: 400, Y: 200, Width: 800, Height: 600}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RenderCroppedPreview(img, r)
	}
}
