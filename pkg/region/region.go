// Package region maps a rectangle drawn over a "contain"-fitted image back
// into the image's natural pixel space.
//
// Three coordinate spaces are involved: the display container (screen space,
// origin at the container's top-left), the image's natural pixels, and the
// preview raster produced by the cropper package. The image is assumed to be
// scaled uniformly to fit entirely inside the container and centered, leaving
// letterbox bars on one axis.
package region

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	// ErrNoRegion is returned when a selection does not overlap the rendered
	// image at all. Callers must not render a preview in that case.
	ErrNoRegion = errors.New("no valid region")

	// ErrInvalidFrame is returned when the image or container has no area.
	ErrInvalidFrame = errors.New("invalid display frame")
)

// Frame describes where the image is drawn inside its container
type Frame struct {
	RenderedWidth  float64 `json:"renderedWidth"`
	RenderedHeight float64 `json:"renderedHeight"`
	OffsetX        float64 `json:"offsetX"`
	OffsetY        float64 `json:"offsetY"`
}

// IsZero reports whether nothing is rendered
func (f Frame) IsZero() bool {
	return f.RenderedWidth <= 0 || f.RenderedHeight <= 0
}

// ScreenRegion is a rectangle in container pixels as drawn by the user
type ScreenRegion struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ImageRegion is a rectangle in the image's natural pixel space
type ImageRegion struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the region's area in square pixels
func (r ImageRegion) Area() float64 {
	return r.Width * r.Height
}

// AspectRatio returns width/height, or 0 for a degenerate region
func (r ImageRegion) AspectRatio() float64 {
	if r.Height <= 0 {
		return 0
	}
	return r.Width / r.Height
}

// Center returns the region's center point
func (r ImageRegion) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Rectangle converts the region into the smallest integer pixel rectangle
// covering it.
func (r ImageRegion) Rectangle() image.Rectangle {
	x0 := int(math.Floor(r.X))
	y0 := int(math.Floor(r.Y))
	x1 := int(math.Ceil(r.X + r.Width))
	y1 := int(math.Ceil(r.Y + r.Height))
	return image.Rect(x0, y0, x1, y1)
}

// ComputeRenderedFrame computes the size and centering offset of an image of
// natural size naturalWidth x naturalHeight shown with "contain" fitting inside
// a containerWidth x containerHeight element. Any non-positive dimension
// yields the zero Frame.
func ComputeRenderedFrame(naturalWidth, naturalHeight, containerWidth, containerHeight float64) Frame {
	if naturalWidth <= 0 || naturalHeight <= 0 || containerWidth <= 0 || containerHeight <= 0 {
		return Frame{}
	}

	imageAspect := naturalWidth / naturalHeight
	containerAspect := containerWidth / containerHeight

	if imageAspect > containerAspect {
		// Image is relatively wider: letterbox top and bottom
		renderedHeight := containerWidth / imageAspect
		return Frame{
			RenderedWidth:  containerWidth,
			RenderedHeight: renderedHeight,
			OffsetX:        0,
			OffsetY:        (containerHeight - renderedHeight) / 2,
		}
	}

	renderedWidth := containerHeight * imageAspect
	return Frame{
		RenderedWidth:  renderedWidth,
		RenderedHeight: containerHeight,
		OffsetX:        (containerWidth - renderedWidth) / 2,
		OffsetY:        0,
	}
}

// ToImageRegion converts a screen selection into natural image pixels.
//
// The selection is shifted by the letterbox offset and scaled by
// natural/rendered on each axis. Both edges are clamped into the image so the
// result never extends past it. A selection that lies entirely in the
// letterbox (or outside the container) yields ErrNoRegion.
func ToImageRegion(sr ScreenRegion, frame Frame, naturalWidth, naturalHeight float64) (ImageRegion, error) {
	t, err := NewTransform(frame, naturalWidth, naturalHeight)
	if err != nil {
		return ImageRegion{}, fmt.Errorf("%w: %w", ErrNoRegion, err)
	}

	if sr.Width <= 0 || sr.Height <= 0 {
		return ImageRegion{}, fmt.Errorf("%w: selection %.1fx%.1f has no area", ErrNoRegion, sr.Width, sr.Height)
	}

	relX := sr.X - frame.OffsetX
	relY := sr.Y - frame.OffsetY
	if relX >= frame.RenderedWidth || relX+sr.Width <= 0 ||
		relY >= frame.RenderedHeight || relY+sr.Height <= 0 {
		return ImageRegion{}, fmt.Errorf("%w: selection lies outside the rendered image", ErrNoRegion)
	}

	x0, y0 := t.Apply(sr.X, sr.Y)
	x1, y1 := t.Apply(sr.X+sr.Width, sr.Y+sr.Height)

	x0 = clamp(x0, 0, naturalWidth)
	y0 = clamp(y0, 0, naturalHeight)
	x1 = clamp(x1, 0, naturalWidth)
	y1 = clamp(y1, 0, naturalHeight)

	if x1 <= x0 || y1 <= y0 {
		return ImageRegion{}, fmt.Errorf("%w: clamped selection has no area", ErrNoRegion)
	}

	return ImageRegion{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, nil
}

// ToScreenRegion maps an image region back into container coordinates
func ToScreenRegion(ir ImageRegion, frame Frame, naturalWidth, naturalHeight float64) (ScreenRegion, error) {
	t, err := NewTransform(frame, naturalWidth, naturalHeight)
	if err != nil {
		return ScreenRegion{}, err
	}
	inv, err := t.Inverse()
	if err != nil {
		return ScreenRegion{}, err
	}

	x0, y0 := inv.Apply(ir.X, ir.Y)
	x1, y1 := inv.Apply(ir.X+ir.Width, ir.Y+ir.Height)
	return ScreenRegion{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, nil
}

// Map is a convenience that computes the rendered frame for the given
// container and converts the selection in one step.
func Map(sr ScreenRegion, naturalWidth, naturalHeight, containerWidth, containerHeight float64) (ImageRegion, Frame, error) {
	frame := ComputeRenderedFrame(naturalWidth, naturalHeight, containerWidth, containerHeight)
	ir, err := ToImageRegion(sr, frame, naturalWidth, naturalHeight)
	if err != nil {
		return ImageRegion{}, frame, err
	}
	return ir, frame, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
