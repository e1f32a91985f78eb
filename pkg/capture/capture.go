package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"mime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/fashion-search/pkg/analyzer"
	"github.com/menta2k/fashion-search/pkg/processing"
)

var (
	// ErrPermissionDenied is returned when the user refuses camera access
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrDeviceUnavailable is returned when no capture device can be opened
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrUnsupportedType is returned for uploads that are not decodable images
	ErrUnsupportedType = errors.New("unsupported file type")
)

// CaptureError reports a failed capture. It is recoverable by capturing again.
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string {
	return "capture " + e.Op + ": " + e.Err.Error()
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Source identifies where an image came from
type Source string

const (
	SourceUpload Source = "upload"
	SourceCamera Source = "camera"
)

// DefaultSnapshotQuality is the JPEG quality used for camera snapshots
const DefaultSnapshotQuality = 80

// Image is a captured raster together with its self-contained encoding
type Image struct {
	Source  Source
	DataURL string
	Image   image.Image
	Info    analyzer.ImageInfo
}

// Width returns the natural width of the image
func (i *Image) Width() int { return i.Info.Width }

// Height returns the natural height of the image
func (i *Image) Height() int { return i.Info.Height }

// Config holds configuration for a Capturer
type Config struct {
	SnapshotQuality int
	Analyzer        analyzer.Config
}

// Capturer turns uploads and camera snapshots into images the mapper can use
type Capturer struct {
	quality   int
	inspector *analyzer.ImageAnalyzer
	processor *processing.Processor
	log       logrus.FieldLogger
}

// New creates a Capturer with default configuration
func New() *Capturer {
	return &Capturer{
		quality:   DefaultSnapshotQuality,
		inspector: analyzer.New(),
		processor: processing.NewProcessor(),
		log:       logrus.StandardLogger(),
	}
}

// NewWithConfig creates a Capturer with custom configuration
func NewWithConfig(cfg Config) *Capturer {
	c := New()
	if cfg.SnapshotQuality > 0 && cfg.SnapshotQuality <= 100 {
		c.quality = cfg.SnapshotQuality
	}
	if len(cfg.Analyzer.SupportedFormats) > 0 {
		c.inspector = analyzer.NewWithConfig(cfg.Analyzer)
	}
	return c
}

// SetLogger replaces the logger used for absorbed failures
func (c *Capturer) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		c.log = log
	}
}

// FromUpload validates and decodes an uploaded file. contentType must be an
// image/* media type and data must decode as a supported image.
func (c *Capturer) FromUpload(contentType string, data []byte) (*Image, error) {
	mediaType, err := imageMediaType(contentType)
	if err != nil {
		return nil, &CaptureError{Op: "upload", Err: err}
	}

	info, err := c.inspector.Inspect(data)
	if err != nil {
		return nil, &CaptureError{Op: "upload", Err: fmt.Errorf("%w: %w", ErrUnsupportedType, err)}
	}

	img, err := c.processor.DecodeBytes(data)
	if err != nil {
		return nil, &CaptureError{Op: "upload", Err: fmt.Errorf("%w: %w", ErrUnsupportedType, err)}
	}

	return &Image{
		Source:  SourceUpload,
		DataURL: "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Image:   img,
		Info:    info,
	}, nil
}

// FromDataURL accepts an image that was already encoded by the browser
func (c *Capturer) FromDataURL(dataURL string) (*Image, error) {
	mediaType, data, err := processing.ParseDataURL(dataURL)
	if err != nil {
		return nil, &CaptureError{Op: "upload", Err: fmt.Errorf("%w: %w", ErrUnsupportedType, err)}
	}
	return c.FromUpload(mediaType, data)
}

func imageMediaType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
	return mediaType, nil
}

// Device is a camera that can be opened for streaming
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open camera stream. Close releases the device.
type Stream interface {
	Snapshot(ctx context.Context) (image.Image, error)
	Close() error
}

// FromDevice opens dev, takes one snapshot and releases the stream on every
// exit path, including cancellation of ctx. The snapshot is re-encoded as a
// JPEG data URL.
func (c *Capturer) FromDevice(ctx context.Context, dev Device) (*Image, error) {
	if dev == nil {
		return nil, &CaptureError{Op: "camera", Err: ErrDeviceUnavailable}
	}
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Op: "camera", Err: err}
	}

	stream, err := dev.Open(ctx)
	if err != nil {
		return nil, &CaptureError{Op: "camera", Err: deviceError(err)}
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			c.log.WithError(cerr).Warn("failed to release camera stream")
		}
	}()

	frame, err := stream.Snapshot(ctx)
	if err != nil {
		return nil, &CaptureError{Op: "camera", Err: deviceError(err)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Op: "camera", Err: err}
	}
	if frame == nil {
		return nil, &CaptureError{Op: "camera", Err: fmt.Errorf("%w: empty frame", ErrDeviceUnavailable)}
	}

	dataURL, err := c.processor.EncodeDataURL(frame, "jpg", c.quality)
	if err != nil {
		return nil, &CaptureError{Op: "camera", Err: fmt.Errorf("encode snapshot: %w", err)}
	}

	info := c.inspector.GetImageInfo(frame)
	info.Format = "jpeg"
	return &Image{
		Source:  SourceCamera,
		DataURL: dataURL,
		Image:   frame,
		Info:    info,
	}, nil
}

// deviceError keeps known sentinels and cancellation intact and classifies
// everything else as an unavailable device.
func deviceError(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrDeviceUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
}
