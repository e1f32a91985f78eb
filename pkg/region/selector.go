package region

import "math"

// DefaultMinDrag is the drag size, in container pixels, a selection must
// exceed on both axes to be committed.
const DefaultMinDrag = 20

// Point is a pointer position in container coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Selector tracks a pointer-down/move/up drag and commits a ScreenRegion only
// when the drag is large enough to not be an accidental click.
type Selector struct {
	minDrag  float64
	start    Point
	current  Point
	dragging bool
}

// NewSelector creates a selector with the given minimum drag size. A
// non-positive value selects DefaultMinDrag.
func NewSelector(minDrag float64) *Selector {
	if minDrag <= 0 {
		minDrag = DefaultMinDrag
	}
	return &Selector{minDrag: minDrag}
}

// Begin starts a drag at p
func (s *Selector) Begin(p Point) {
	s.start = p
	s.current = p
	s.dragging = true
}

// Move updates the drag's current corner; ignored when no drag is active
func (s *Selector) Move(p Point) {
	if !s.dragging {
		return
	}
	s.current = p
}

// Dragging reports whether a drag is in progress
func (s *Selector) Dragging() bool {
	return s.dragging
}

// Current returns the rectangle spanned so far, for drawing the rubber band
func (s *Selector) Current() (ScreenRegion, bool) {
	if !s.dragging {
		return ScreenRegion{}, false
	}
	return NormalizeDrag(s.start, s.current), true
}

// End finishes the drag. The region is returned with ok=true only if both
// dimensions exceed the minimum drag size.
func (s *Selector) End() (ScreenRegion, bool) {
	if !s.dragging {
		return ScreenRegion{}, false
	}
	s.dragging = false

	r := NormalizeDrag(s.start, s.current)
	if !Committable(r, s.minDrag) {
		return ScreenRegion{}, false
	}
	return r, true
}

// Cancel abandons the drag in progress
func (s *Selector) Cancel() {
	s.dragging = false
}

// Committable reports whether r exceeds minDrag on both axes
func Committable(r ScreenRegion, minDrag float64) bool {
	return r.Width > minDrag && r.Height > minDrag
}

// NormalizeDrag turns two drag corners into a rectangle with positive size
func NormalizeDrag(a, b Point) ScreenRegion {
	return ScreenRegion{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}
