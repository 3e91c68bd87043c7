package video

import "errors"

// Source errors.
var (
	// ErrSourceUnavailable indicates the media could not be opened or probed.
	ErrSourceUnavailable = errors.New("video source unavailable")

	// ErrSourceClosed indicates an operation on a closed source.
	ErrSourceClosed = errors.New("video source closed")

	// ErrReadFailed indicates the decoder reported an error while reading a frame.
	ErrReadFailed = errors.New("video frame read failed")
)

// Frame errors.
var (
	// ErrInvalidDimensions indicates a width or height that cannot be used.
	ErrInvalidDimensions = errors.New("invalid frame dimensions")

	// ErrNilFrame indicates a nil frame was passed where one is required.
	ErrNilFrame = errors.New("frame cannot be nil")
)
