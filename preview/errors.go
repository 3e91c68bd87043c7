package preview

import "errors"

var (
	// ErrUnknownCommand indicates a websocket command with an unrecognised name.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrIndexOutOfRange indicates a jump outside the stream.
	ErrIndexOutOfRange = errors.New("frame index out of range")

	// ErrServerClosed indicates the server has been shut down.
	ErrServerClosed = errors.New("preview server closed")
)
