package buffer

import (
	"image"
	"math"

	"github.com/opd-ai/masa/video"
)

// FrameSource is the video source consumed by the engine.
// *video.VideoSource implements it.
type FrameSource interface {
	TotalFrames() int
	NativeSize() (width, height int)
	TargetSize() (width, height int)
	Seek(index int) error
	ReadNext() (*video.Frame, error)
	Close() error
}

// Direction is the playback direction.
type Direction int

const (
	// Forward plays from frame 0 towards the last frame.
	Forward Direction = iota
	// Backward plays from the last frame towards frame 0.
	Backward
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Status is the externally visible playback state.
type Status int

const (
	// StatusStopped: not playing and either at end-of-stream, never started, or shut down.
	StatusStopped Status = iota
	// StatusPaused: not playing, positioned at a frame.
	StatusPaused
	// StatusPlayingForward: advancing towards the last frame.
	StatusPlayingForward
	// StatusPlayingBackward: advancing towards frame 0.
	StatusPlayingBackward
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPaused:
		return "paused"
	case StatusPlayingForward:
		return "playing-forward"
	case StatusPlayingBackward:
		return "playing-backward"
	default:
		return "stopped"
	}
}

// JumpPolicy selects the play state after JumpTo.
type JumpPolicy int

const (
	// JumpResumeAlways resumes playback after every jump, even one made while paused.
	JumpResumeAlways JumpPolicy = iota
	// JumpResumePrevious keeps the play state from before the jump; a jump
	// made while paused publishes the target frame once instead.
	JumpResumePrevious
)

// NoIndex marks an undefined index in PlaybackState.
const NoIndex = -1

// PlaybackState is a snapshot of the engine state.
type PlaybackState struct {
	CurrentIndex  int // NoIndex when undefined
	PreviousIndex int // NoIndex when undefined
	Playing       bool
	Direction     Direction
	FPS           int
	DefaultFPS    int
	Running       bool
	TotalFrames   int
	Status        Status
}

// NormalizedRect is a rectangle in fractions of the display size, as
// drawn by a presentation layer. Coordinates outside [0, 1] are clamped
// and the corners may be given in any order.
type NormalizedRect struct {
	X1, Y1, X2, Y2 float64
}

// Canon clamps the rectangle to [0, 1] and orders its corners.
func (r NormalizedRect) Canon() NormalizedRect {
	x1, x2 := clamp01(r.X1), clamp01(r.X2)
	y1, y2 := clamp01(r.Y1), clamp01(r.Y2)
	return NormalizedRect{
		X1: math.Min(x1, x2),
		Y1: math.Min(y1, y2),
		X2: math.Max(x1, x2),
		Y2: math.Max(y1, y2),
	}
}

// Scale maps the rectangle onto a width x height pixel grid.
func (r NormalizedRect) Scale(width, height int) image.Rectangle {
	c := r.Canon()
	return image.Rect(
		int(c.X1*float64(width)),
		int(c.Y1*float64(height)),
		int(c.X2*float64(width)),
		int(c.Y2*float64(height)),
	)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
