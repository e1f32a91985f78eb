package capture

import (
	"context"
	"errors"
	"image"
	"sync"
)

var errStreamClosed = errors.New("stream closed")

// StillDevice is a Device that always shows the same picture. It stands in for
// a camera on hosts without one.
type StillDevice struct {
	Image image.Image
}

// Open starts a stream over the still image
func (d StillDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Image == nil {
		return nil, ErrDeviceUnavailable
	}
	return &stillStream{img: d.Image}, nil
}

type stillStream struct {
	mu     sync.Mutex
	img    image.Image
	closed bool
}

func (s *stillStream) Snapshot(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errStreamClosed
	}
	return s.img, nil
}

func (s *stillStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
