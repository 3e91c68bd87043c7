package buffer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opd-ai/masa/events"
	"github.com/opd-ai/masa/video"
)

const (
	testWidth  = 32
	testHeight = 24
)

func newTestEngine(t *testing.T, frames int, opts ...Option) (*Engine, *video.SyntheticSource) {
	t.Helper()
	return newScaledEngine(t, frames, testWidth, testHeight, video.SizeOptions{}, opts...)
}

func newScaledEngine(t *testing.T, frames, width, height int, size video.SizeOptions, opts ...Option) (*Engine, *video.SyntheticSource) {
	t.Helper()
	synth := video.NewSyntheticSource(frames, width, height)
	src, err := video.NewVideoSource(synth, size)
	require.NoError(t, err)

	opts = append([]Option{WithIdleInterval(5 * time.Millisecond)}, opts...)
	e, err := New(src, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	return e, synth
}

// recorder collects every event published on an engine's bus.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func record(t *testing.T, e *Engine) *recorder {
	t.Helper()
	r := &recorder{}
	_, err := e.Subscribe(func(ev events.Event) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	})
	require.NoError(t, err)
	return r
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) ofKind(kind events.Kind) []events.Event {
	var out []events.Event
	for _, ev := range r.all() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) frameIndices() []int {
	var out []int
	for _, ev := range r.ofKind(events.KindFrameReady) {
		out = append(out, ev.Index)
	}
	return out
}

func (r *recorder) has(kind events.Kind) bool {
	return len(r.ofKind(kind)) > 0
}

func sequence(from, to int) []int {
	var out []int
	if from <= to {
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	}
	for i := from; i >= to; i-- {
		out = append(out, i)
	}
	return out
}

func syntheticIndex(t *testing.T, f *video.Frame) int {
	t.Helper()
	i, err := video.SyntheticIndex(f)
	require.NoError(t, err)
	return i
}
