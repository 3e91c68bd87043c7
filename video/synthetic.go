package video

import (
	"fmt"
	"sync"
)

// SyntheticSource generates deterministic frames in memory.
//
// Frame i is filled with R = i & 0xff, G = (i >> 8) & 0xff and a
// horizontal gradient in B, so the index survives resizing and can be
// recovered with SyntheticIndex. It is safe for concurrent use so tests can
// inspect Stats while the engine is running.
type SyntheticSource struct {
	mu     sync.Mutex
	frames int
	width  int
	height int
	cursor int
	failAt map[int]bool
	stats  SyntheticStats
	closed bool
}

// SyntheticStats counts the operations performed on a SyntheticSource.
type SyntheticStats struct {
	Seeks int
	Reads int
}

// NewSyntheticSource creates a source of frames frames of width x height.
func NewSyntheticSource(frames, width, height int) *SyntheticSource {
	return &SyntheticSource{
		frames: frames,
		width:  width,
		height: height,
		failAt: make(map[int]bool),
	}
}

// FailAt makes reads of the given indices return no frame.
func (s *SyntheticSource) FailAt(indices ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range indices {
		s.failAt[i] = true
	}
}

// FrameCount returns the configured number of frames.
func (s *SyntheticSource) FrameCount() int {
	return s.frames
}

// Seek positions the cursor at index.
func (s *SyntheticSource) Seek(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSourceClosed
	}
	s.stats.Seeks++
	s.cursor = index
	return nil
}

// Read renders the frame under the cursor and advances it.
func (s *SyntheticSource) Read() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSourceClosed
	}
	s.stats.Reads++

	index := s.cursor
	if index < 0 || index >= s.frames || s.failAt[index] {
		return nil, nil
	}
	s.cursor++
	return RenderSynthetic(index, s.width, s.height), nil
}

// Cursor returns the index the next Read will produce.
func (s *SyntheticSource) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Stats returns a snapshot of the operation counters.
func (s *SyntheticSource) Stats() SyntheticStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close marks the source closed.
func (s *SyntheticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *SyntheticSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// RenderSynthetic draws the synthetic pattern for frame index.
func RenderSynthetic(index, width, height int) *Frame {
	f := NewFrame(width, height)
	r := byte(index & 0xff)
	g := byte((index >> 8) & 0xff)
	for y := 0; y < height; y++ {
		row := y * f.Stride
		for x := 0; x < width; x++ {
			i := row + x*bytesPerPixel
			f.Pix[i] = r
			f.Pix[i+1] = g
			f.Pix[i+2] = byte(x * 255 / max(width-1, 1))
			f.Pix[i+3] = 0xff
		}
	}
	return f
}

// SyntheticIndex recovers the frame index encoded by RenderSynthetic.
func SyntheticIndex(f *Frame) (int, error) {
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("synthetic index: %w", err)
	}
	r, g, _, _ := f.At(f.Width/2, f.Height/2)
	return int(r) | int(g)<<8, nil
}
