package cropper

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/fashion-search/pkg/region"
)

// ErrNoPreview is returned when a preview cannot be produced. Callers show a
// placeholder instead.
var ErrNoPreview = errors.New("no preview")

// DefaultBoxSize is the preview's larger dimension in pixels
const DefaultBoxSize = 150

// PreviewRenderer resamples a selected image region into a small preview
type PreviewRenderer struct {
	config PreviewConfig
}

// PreviewConfig holds configuration for preview rendering
type PreviewConfig struct {
	BoxSize int
	Filter  imaging.ResampleFilter
}

// New creates a PreviewRenderer with default configuration
func New() *PreviewRenderer {
	return &PreviewRenderer{
		config: PreviewConfig{
			BoxSize: DefaultBoxSize,
			Filter:  imaging.Lanczos,
		},
	}
}

// NewWithConfig creates a PreviewRenderer with custom configuration
func NewWithConfig(config PreviewConfig) *PreviewRenderer {
	if config.BoxSize <= 0 {
		config.BoxSize = DefaultBoxSize
	}
	if config.Filter.Kernel == nil {
		config.Filter = imaging.Lanczos
	}
	return &PreviewRenderer{config: config}
}

// BoxSize returns the configured preview box size
func (c *PreviewRenderer) BoxSize() int {
	return c.config.BoxSize
}

// Preview is a rendered crop together with the region it was taken from
type Preview struct {
	Image  image.Image
	Region region.ImageRegion
	Width  int
	Height int
}

// PreviewSize returns the output dimensions for a region: the larger side is
// boxSize and the aspect ratio follows the region.
func PreviewSize(r region.ImageRegion, boxSize int) (int, int) {
	if r.Width <= 0 || r.Height <= 0 || boxSize <= 0 {
		return 0, 0
	}
	if r.Width >= r.Height {
		h := int(math.Round(float64(boxSize) * r.Height / r.Width))
		return boxSize, max(h, 1)
	}
	w := int(math.Round(float64(boxSize) * r.Width / r.Height))
	return max(w, 1), boxSize
}

// RenderCroppedPreview crops r out of img and resamples it into a preview whose
// larger dimension equals the configured box size.
func (c *PreviewRenderer) RenderCroppedPreview(img image.Image, r region.ImageRegion) (Preview, error) {
	return c.RenderCroppedPreviewSize(img, r, c.config.BoxSize)
}

// RenderCroppedPreviewSize is RenderCroppedPreview with an explicit box size
func (c *PreviewRenderer) RenderCroppedPreviewSize(img image.Image, r region.ImageRegion, boxSize int) (Preview, error) {
	if img == nil {
		return Preview{}, fmt.Errorf("%w: no source image", ErrNoPreview)
	}
	if r.Area() <= 0 {
		return Preview{}, fmt.Errorf("%w: region has no area", ErrNoPreview)
	}

	w, h := PreviewSize(r, boxSize)
	if w == 0 || h == 0 {
		return Preview{}, fmt.Errorf("%w: invalid preview size", ErrNoPreview)
	}

	bounds := img.Bounds()
	rect := r.Rectangle().Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return Preview{}, fmt.Errorf("%w: region %v outside image %v", ErrNoPreview, rect, bounds)
	}

	cropped, err := copyRect(img, rect)
	if err != nil {
		return Preview{}, err
	}
	resized := imaging.Resize(cropped, w, h, c.config.Filter)

	return Preview{
		Image:  resized,
		Region: r,
		Width:  w,
		Height: h,
	}, nil
}

// Crop returns a copy of the region of img without resampling
func Crop(img image.Image, r region.ImageRegion) (image.Image, error) {
	if img == nil || r.Area() <= 0 {
		return nil, ErrNoPreview
	}
	bounds := img.Bounds()
	rect := r.Rectangle().Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return nil, ErrNoPreview
	}
	dst, err := copyRect(img, rect)
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// copyRect reads rect into a new NRGBA image on the calling goroutine.
// imaging reads pixels from worker goroutines where a panic in a broken
// decoder's At cannot be recovered, so pixels are read here first.
func copyRect(img image.Image, rect image.Rectangle) (dst *image.NRGBA, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			dst = nil
			err = fmt.Errorf("%w: %v", ErrNoPreview, rec)
		}
	}()

	dst = image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst, nil
}
