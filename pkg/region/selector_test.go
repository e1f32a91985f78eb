package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectorCommitsLargeDrag(t *testing.T) {
	s := NewSelector(0)
	s.Begin(Point{X: 120, Y: 90})
	s.Move(Point{X: 40, Y: 30})

	r, ok := s.End()
	assert.True(t, ok)
	assert.Equal(t, ScreenRegion{X: 40, Y: 30, Width: 80, Height: 60}, r)
	assert.False(t, s.Dragging())
}

func TestSelectorRejectsSmallDrag(t *testing.T) {
	cases := []struct {
		name string
		end  Point
	}{
		{"click", Point{X: 10, Y: 10}},
		{"narrow", Point{X: 30, Y: 200}},
		{"short", Point{X: 200, Y: 30}},
		{"exactly threshold", Point{X: 30, Y: 30}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSelector(DefaultMinDrag)
			s.Begin(Point{X: 10, Y: 10})
			s.Move(tc.end)
			_, ok := s.End()
			assert.False(t, ok)
		})
	}
}

func TestSelectorMoveWithoutBegin(t *testing.T) {
	s := NewSelector(20)
	s.Move(Point{X: 100, Y: 100})

	_, ok := s.Current()
	assert.False(t, ok)
	_, ok = s.End()
	assert.False(t, ok)
}

func TestSelectorCurrentAndCancel(t *testing.T) {
	s := NewSelector(20)
	s.Begin(Point{X: 0, Y: 0})
	s.Move(Point{X: 5, Y: 8})

	r, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, ScreenRegion{Width: 5, Height: 8}, r)

	s.Cancel()
	_, ok = s.End()
	assert.False(t, ok)
}

func TestCommittable(t *testing.T) {
	assert.True(t, Committable(ScreenRegion{Width: 21, Height: 21}, 20))
	assert.False(t, Committable(ScreenRegion{Width: 20, Height: 100}, 20))
	assert.False(t, Committable(ScreenRegion{Width: 100, Height: 20}, 20))
}
