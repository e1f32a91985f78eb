package region

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transform is a 2D affine transform stored as a 3x3 homogeneous matrix
type Transform struct {
	m *mat.Dense
}

// NewTransform builds the screen-to-image transform for a rendered frame:
// translate by the letterbox offset, then scale by natural/rendered.
func NewTransform(frame Frame, naturalWidth, naturalHeight float64) (Transform, error) {
	if frame.IsZero() || naturalWidth <= 0 || naturalHeight <= 0 {
		return Transform{}, ErrInvalidFrame
	}

	sx := naturalWidth / frame.RenderedWidth
	sy := naturalHeight / frame.RenderedHeight

	return Transform{m: mat.NewDense(3, 3, []float64{
		sx, 0, -sx * frame.OffsetX,
		0, sy, -sy * frame.OffsetY,
		0, 0, 1,
	})}, nil
}

// Apply maps a point through the transform
func (t Transform) Apply(x, y float64) (float64, float64) {
	var out mat.VecDense
	out.MulVec(t.m, mat.NewVecDense(3, []float64{x, y, 1}))
	return out.AtVec(0), out.AtVec(1)
}

// Inverse returns the transform mapping image points back to the screen
func (t Transform) Inverse() (Transform, error) {
	var inv mat.Dense
	if err := inv.Inverse(t.m); err != nil {
		return Transform{}, fmt.Errorf("transform is not invertible: %w", err)
	}
	return Transform{m: &inv}, nil
}
