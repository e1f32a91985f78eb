package fashionsearch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/menta2k/fashion-search/pkg/capture"
	"github.com/menta2k/fashion-search/pkg/region"
	"github.com/menta2k/fashion-search/pkg/search"
	"github.com/menta2k/fashion-search/pkg/types"
)

// createTestImage creates a dark image with a bright red block in the center
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{220, 20, 30, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

func TestNew(t *testing.T) {
	fs := New()
	if fs == nil {
		t.Fatal("New() returned nil")
	}
	if fs.analyzer == nil || fs.capturer == nil || fs.previews == nil || fs.engine == nil || fs.vision == nil {
		t.Error("a component is nil")
	}
	if fs.minDrag != region.DefaultMinDrag {
		t.Errorf("Expected min drag %v, got %v", region.DefaultMinDrag, fs.minDrag)
	}
}

func TestSelect(t *testing.T) {
	fs := New()
	img := createTestImage(600, 400)

	sel, err := fs.Select(img, region.ScreenRegion{X: 250, Y: 150, Width: 100, Height: 100}, 600, 400)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	want := region.ImageRegion{X: 250, Y: 150, Width: 100, Height: 100}
	if sel.Region != want {
		t.Errorf("Expected region %+v, got %+v", want, sel.Region)
	}
	if sel.Preview == nil {
		t.Fatal("Expected a preview")
	}
	if sel.Preview.Width != 150 || sel.Preview.Height != 150 {
		t.Errorf("Expected 150x150 preview, got %dx%d", sel.Preview.Width, sel.Preview.Height)
	}
}

func TestSelectLetterboxed(t *testing.T) {
	fs := New()
	img := createTestImage(800, 400)

	// 800x400 in a 400x400 container renders 400x200 with 100px bars above and below
	frame := fs.Frame(img, 400, 400)
	if frame.OffsetY != 100 || frame.RenderedHeight != 200 {
		t.Errorf("Unexpected frame %+v", frame)
	}

	_, err := fs.Select(img, region.ScreenRegion{X: 10, Y: 10, Width: 50, Height: 50}, 400, 400)
	if !errors.Is(err, region.ErrNoRegion) {
		t.Errorf("Expected ErrNoRegion for a letterbox selection, got %v", err)
	}

	sel, err := fs.Select(img, region.ScreenRegion{X: 100, Y: 150, Width: 100, Height: 100}, 400, 400)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	want := region.ImageRegion{X: 200, Y: 100, Width: 200, Height: 200}
	if sel.Region != want {
		t.Errorf("Expected region %+v, got %+v", want, sel.Region)
	}
}

// corruptImage fails while its pixels are read, like a truncated JPEG
type corruptImage struct{}

func (corruptImage) ColorModel() color.Model { return color.RGBAModel }
func (corruptImage) Bounds() image.Rectangle { return image.Rect(0, 0, 400, 400) }
func (corruptImage) At(x, y int) color.Color { panic("truncated jpeg") }

func TestSelectWithoutPreview(t *testing.T) {
	fs := New()

	sel, err := fs.Select(corruptImage{}, region.ScreenRegion{X: 10, Y: 10, Width: 100, Height: 100}, 400, 400)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if sel.Preview != nil {
		t.Error("Expected no preview for an unreadable image")
	}
	want := region.ImageRegion{X: 10, Y: 10, Width: 100, Height: 100}
	if sel.Region != want {
		t.Errorf("Expected region %+v, got %+v", want, sel.Region)
	}
}

func TestSelectTooSmall(t *testing.T) {
	fs := New()
	_, err := fs.Select(createTestImage(100, 100), region.ScreenRegion{Width: 10, Height: 50}, 100, 100)
	if !errors.Is(err, ErrSelectionTooSmall) {
		t.Errorf("Expected ErrSelectionTooSmall, got %v", err)
	}
}

func TestSearchText(t *testing.T) {
	fs := New()

	state, err := fs.Search(context.Background(), search.Request{Text: "red jacket"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if state.Status != search.StatusDone {
		t.Errorf("Expected done, got %s", state.Status)
	}
	if n := len(state.Results); n < search.DefaultMinResults || n > search.DefaultMaxResults {
		t.Errorf("Expected 6-9 results, got %d", n)
	}
	if state.Label != `Text Search: "red jacket"` {
		t.Errorf("Unexpected label %q", state.Label)
	}
}

func TestSearchSelection(t *testing.T) {
	fs := New()
	img := createTestImage(200, 400)
	r := region.ImageRegion{X: 50, Y: 100, Width: 100, Height: 80}

	state, err := fs.Search(context.Background(), search.Request{Image: img, Region: &r})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if state.ItemType != "shirt" {
		t.Fatalf("Expected the selection to pin shirt, got %q", state.ItemType)
	}
	for _, res := range state.Results {
		if res.ItemType != "shirt" {
			t.Errorf("Result %s has type %s", res.ID, res.ItemType)
		}
	}
	if !strings.HasPrefix(state.Label, "Image Analysis: ") {
		t.Errorf("Unexpected label %q", state.Label)
	}
}

func TestSearchFailure(t *testing.T) {
	fs := NewWithConfig(Config{
		Vision: search.AnalyzerFunc(func(ctx context.Context, img image.Image, r region.ImageRegion) (types.Descriptors, error) {
			return types.Descriptors{}, errors.New("backend down")
		}),
	})

	state, err := fs.Search(context.Background(), search.Request{Image: createTestImage(50, 50)})
	if !errors.Is(err, search.ErrSearchFailed) {
		t.Errorf("Expected ErrSearchFailed, got %v", err)
	}
	if state.Error != search.FailureMessage {
		t.Errorf("Expected failure message, got %q", state.Error)
	}
}

func TestUpload(t *testing.T) {
	fs := New()

	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(60, 40)); err != nil {
		t.Fatal(err)
	}

	img, err := fs.Upload("image/png", buf.Bytes())
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if img.Width() != 60 || img.Height() != 40 {
		t.Errorf("Expected 60x40, got %dx%d", img.Width(), img.Height())
	}

	if _, err := fs.Upload("text/plain", []byte("hello")); !errors.Is(err, capture.ErrUnsupportedType) {
		t.Errorf("Expected ErrUnsupportedType, got %v", err)
	}
}

func TestGetImageInfo(t *testing.T) {
	info := New().GetImageInfo(createTestImage(300, 150))
	if info.Width != 300 || info.Height != 150 || info.AspectRatio != 2 {
		t.Errorf("Unexpected info %+v", info)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("Expected %s, got %s", Version, GetVersion())
	}
}
