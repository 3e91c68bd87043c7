package video

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Source is a decodable media stream with an absolute-index read cursor.
type Source interface {
	// FrameCount reports the total number of frames in the stream.
	FrameCount() int
	// Seek positions the read cursor at an absolute frame index.
	// No bounds checking is performed.
	Seek(index int) error
	// Read decodes the frame under the cursor and advances the cursor.
	// It returns a nil frame and a nil error at end-of-stream.
	Read() (*Frame, error)
	// Close releases decoder resources.
	Close() error
}

// VideoSource adapts a Source for playback: it knows the true decoded
// dimensions and resizes every delivered frame to the target size.
type VideoSource struct {
	src    Source
	scaler *Scaler

	totalFrames    int
	nativeWidth    int
	nativeHeight   int
	targetWidth    int
	targetHeight   int
	preserveAspect bool
	closed         bool
}

// Open opens a media file through FileSource and wraps it in a VideoSource.
func Open(path string, size SizeOptions) (*VideoSource, error) {
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	vs, err := NewVideoSource(src, size)
	if err != nil {
		src.Close()
		return nil, err
	}
	return vs, nil
}

// NewVideoSource probes src and computes the target frame size.
//
// The probe reads frame 0 to learn the decoded dimensions and then rewinds
// the cursor to frame 0. Any probe failure is reported as ErrSourceUnavailable.
func NewVideoSource(src Source, size SizeOptions) (*VideoSource, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrSourceUnavailable)
	}

	total := src.FrameCount()
	if total <= 0 {
		logrus.WithFields(logrus.Fields{
			"function":     "NewVideoSource",
			"total_frames": total,
		}).Error("Source reports no frames")
		return nil, fmt.Errorf("%w: source reports %d frames", ErrSourceUnavailable, total)
	}

	vs := &VideoSource{
		src:            src,
		scaler:         NewScaler(),
		totalFrames:    total,
		preserveAspect: size.PreserveAspect,
	}

	width, height, err := vs.probeDimensions()
	if err != nil {
		return nil, err
	}
	vs.nativeWidth, vs.nativeHeight = width, height

	vs.targetWidth, vs.targetHeight, err = CalculateSize(width, height, size)
	if err != nil {
		return nil, fmt.Errorf("target size: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":        "NewVideoSource",
		"total_frames":    vs.totalFrames,
		"native_width":    vs.nativeWidth,
		"native_height":   vs.nativeHeight,
		"target_width":    vs.targetWidth,
		"target_height":   vs.targetHeight,
		"preserve_aspect": vs.preserveAspect,
	}).Info("Video source opened")

	return vs, nil
}

// probeDimensions decodes one frame to learn its true size, then rewinds.
func (vs *VideoSource) probeDimensions() (int, int, error) {
	if err := vs.src.Seek(0); err != nil {
		return 0, 0, fmt.Errorf("%w: probe seek: %v", ErrSourceUnavailable, err)
	}
	frame, err := vs.src.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: probe read: %v", ErrSourceUnavailable, err)
	}
	if frame == nil {
		return 0, 0, fmt.Errorf("%w: probe read returned no frame", ErrSourceUnavailable)
	}
	if err := frame.Validate(); err != nil {
		return 0, 0, fmt.Errorf("%w: probe frame: %v", ErrSourceUnavailable, err)
	}
	if err := vs.src.Seek(0); err != nil {
		return 0, 0, fmt.Errorf("%w: probe rewind: %v", ErrSourceUnavailable, err)
	}
	return frame.Width, frame.Height, nil
}

// TotalFrames returns the number of frames in the stream.
func (vs *VideoSource) TotalFrames() int {
	return vs.totalFrames
}

// NativeSize returns the decoded frame dimensions.
func (vs *VideoSource) NativeSize() (width, height int) {
	return vs.nativeWidth, vs.nativeHeight
}

// TargetSize returns the dimensions of delivered frames.
func (vs *VideoSource) TargetSize() (width, height int) {
	return vs.targetWidth, vs.targetHeight
}

// PreserveAspect reports whether the target size keeps the native ratio.
func (vs *VideoSource) PreserveAspect() bool {
	return vs.preserveAspect
}

// Seek positions the read cursor at index. The caller validates the range.
func (vs *VideoSource) Seek(index int) error {
	if vs.closed {
		return ErrSourceClosed
	}
	return vs.src.Seek(index)
}

// ReadNext decodes the next frame and resizes it to the target size.
// It returns nil, nil at end-of-stream.
func (vs *VideoSource) ReadNext() (*Frame, error) {
	if vs.closed {
		return nil, ErrSourceClosed
	}
	frame, err := vs.src.Read()
	if err != nil || frame == nil {
		return nil, err
	}
	return vs.scaler.Scale(frame, vs.targetWidth, vs.targetHeight)
}

// Close closes the underlying source. Closing twice is a no-op.
func (vs *VideoSource) Close() error {
	if vs.closed {
		return nil
	}
	vs.closed = true

	logrus.WithFields(logrus.Fields{
		"function": "VideoSource.Close",
	}).Debug("Closing video source")

	return vs.src.Close()
}
