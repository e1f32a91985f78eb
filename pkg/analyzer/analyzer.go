package analyzer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for image encodings the search cannot accept
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrTooSmall is returned when an image is below the configured minimum size
var ErrTooSmall = errors.New("image too small")

// ErrTooLarge is returned when an upload exceeds the configured byte limit
var ErrTooLarge = errors.New("image too large")

// ImageAnalyzer inspects candidate images before they become the active image
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
	MaxBytes         int64
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedFormats: []string{"jpeg", "png", "webp", "gif"},
			MinImageSize:     1,
			MaxBytes:         20 << 20,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Format      string  `json:"format"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Area        int     `json:"area"`
}

// Inspect reads the image header from data and validates format and size
// without decoding pixels.
func (a *ImageAnalyzer) Inspect(data []byte) (ImageInfo, error) {
	if a.config.MaxBytes > 0 && int64(len(data)) > a.config.MaxBytes {
		return ImageInfo{}, fmt.Errorf("%w: %d bytes (maximum: %d)", ErrTooLarge, len(data), a.config.MaxBytes)
	}
	return a.InspectReader(bytes.NewReader(data))
}

// InspectReader is Inspect for a stream
func (a *ImageAnalyzer) InspectReader(r io.Reader) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if !a.isFormatSupported(format) {
		return ImageInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	info := newInfo(format, cfg.Width, cfg.Height)
	if err := a.validateSize(info.Width, info.Height); err != nil {
		return ImageInfo{}, err
	}
	return info, nil
}

// GetImageInfo returns basic information about a decoded image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	return newInfo("", bounds.Dx(), bounds.Dy())
}

func newInfo(format string, width, height int) ImageInfo {
	info := ImageInfo{
		Format: format,
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// IsFormatSupported reports whether the named encoding is accepted
func (a *ImageAnalyzer) IsFormatSupported(format string) bool {
	return a.isFormatSupported(format)
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	if format == "jpg" {
		format = "jpeg"
	}
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: no image", ErrTooSmall)
	}
	bounds := img.Bounds()
	return a.validateSize(bounds.Dx(), bounds.Dy())
}

func (a *ImageAnalyzer) validateSize(w, h int) error {
	minSize := max(a.config.MinImageSize, 1)
	if w < minSize || h < minSize {
		return fmt.Errorf("%w: %dx%d (minimum: %d)", ErrTooSmall, w, h, minSize)
	}
	return nil
}
