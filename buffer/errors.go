package buffer

import "errors"

var (
	// ErrDecodeFailure indicates a read returned no frame where one was
	// expected. It halts the scheduling loop.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrEngineClosed indicates the engine has been shut down or halted.
	ErrEngineClosed = errors.New("engine closed")

	// ErrEmptyRegion indicates a selection rectangle with no area.
	ErrEmptyRegion = errors.New("empty region")

	// ErrShutdownTimeout indicates the loop did not exit within the grace period.
	ErrShutdownTimeout = errors.New("shutdown grace period expired")
)
