package buffer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/masa/events"
	"github.com/opd-ai/masa/video"
)

// GetFrame seeks to index and returns a copy of the frame there. The
// engine's current index moves to index; sequential playback continues
// from index+1. With straightJump the frame is also published as
// FrameReady.
func (e *Engine) GetFrame(index int, straightJump bool) (*video.Frame, error) {
	e.cursorMu.Lock()
	defer e.cursorMu.Unlock()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	frame, err := e.seekRead(index)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.previousIndex, e.hasPrevious = e.currentIndex, e.hasIndex
	e.currentIndex, e.hasIndex = index, true
	e.pendingJump = false
	e.readPos = index + 1
	e.lastFrame = frame
	e.lastIndex = index
	if straightJump {
		e.bus.Publish(events.Event{
			Kind:  events.KindFrameReady,
			Index: index,
			Frame: frame.Clone(),
		})
	}
	return frame.Clone(), nil
}

// GetFrames pauses playback and returns the frames at indices, in request
// order. The current index is restored afterwards (an undefined index is
// restored as 0) and the result is also published as FramesFetched.
// Playback is not resumed.
func (e *Engine) GetFrames(indices []int) ([]events.FramePacket, error) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	e.playing = false
	e.mu.Unlock()

	e.cursorMu.Lock()
	defer e.cursorMu.Unlock()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	restore := 0
	if e.hasIndex {
		restore = e.currentIndex
	}
	e.mu.Unlock()

	packets := make([]events.FramePacket, 0, len(indices))
	var fetchErr error
	for _, index := range indices {
		frame, err := e.seekRead(index)
		if err != nil {
			fetchErr = err
			break
		}
		packets = append(packets, events.FramePacket{Index: index, Frame: frame})
	}

	if err := e.src.Seek(restore); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.GetFrames",
			"index":    restore,
			"error":    err.Error(),
		}).Warn("Failed to restore decoder position")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentIndex, e.hasIndex = restore, true
	e.pendingJump = false
	e.readPos = restore
	if fetchErr != nil {
		return nil, fetchErr
	}

	published := make([]events.FramePacket, len(packets))
	for i, p := range packets {
		published[i] = events.FramePacket{Index: p.Index, Frame: p.Frame.Clone()}
	}
	e.bus.Publish(events.Event{
		Kind:   events.KindFramesFetched,
		Frames: published,
	})

	logrus.WithFields(logrus.Fields{
		"function": "Engine.GetFrames",
		"count":    len(packets),
		"restored": restore,
	}).Debug("Fetched frames")
	return packets, nil
}

// checkOpen reports ErrEngineClosed once the source is gone. The caller
// holds cursorMu.
func (e *Engine) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.srcClosed {
		return ErrEngineClosed
	}
	return nil
}

// seekRead reads the frame at index. The caller holds cursorMu.
func (e *Engine) seekRead(index int) (*video.Frame, error) {
	frame, err := e.read(index, readSeek)
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: %v", ErrDecodeFailure, index, err)
	}
	if frame == nil {
		return nil, fmt.Errorf("%w: frame %d", ErrDecodeFailure, index)
	}
	return frame, nil
}
