package buffer

import (
	"time"

	"github.com/opd-ai/masa/events"
	"github.com/opd-ai/masa/session"
)

const (
	// MinFPS is the lowest frame rate the engine accepts.
	MinFPS = 3
	// DefaultFPS is the frame rate used when none is configured.
	DefaultFPS = 30
	// DefaultIdleInterval is the poll interval while paused.
	DefaultIdleInterval = 100 * time.Millisecond
	// DefaultShutdownGrace bounds how long Shutdown waits for the loop.
	DefaultShutdownGrace = 200 * time.Millisecond
)

// Option configures an Engine.
type Option func(*Engine)

// WithFPS sets the initial and default frame rate, floored at MinFPS.
func WithFPS(fps int) Option {
	return func(e *Engine) {
		fps = clampFPS(fps)
		e.fps = fps
		e.defaultFPS = fps
	}
}

// WithBackward sets the initial playback direction.
func WithBackward(backward bool) Option {
	return func(e *Engine) {
		if backward {
			e.direction = Backward
		} else {
			e.direction = Forward
		}
	}
}

// WithIdleInterval sets the poll interval used while paused.
func WithIdleInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.idleInterval = d
		}
	}
}

// WithShutdownGrace sets how long Shutdown waits for the loop to exit.
func WithShutdownGrace(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.shutdownGrace = d
		}
	}
}

// WithBus publishes on an existing bus. The caller keeps ownership and
// closes it; otherwise the engine creates a bus and closes it on Shutdown.
func WithBus(bus *events.Bus) Option {
	return func(e *Engine) {
		if bus != nil {
			e.bus = bus
			e.ownsBus = false
		}
	}
}

// WithRegistry sets the registry used by InitSession.
func WithRegistry(r *session.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithJumpPolicy sets the play state applied after JumpTo.
func WithJumpPolicy(p JumpPolicy) Option {
	return func(e *Engine) {
		e.jumpPolicy = p
	}
}

func clampFPS(fps int) int {
	if fps < MinFPS {
		return MinFPS
	}
	return fps
}
