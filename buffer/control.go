package buffer

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/masa/events"
)

// Play resumes playback in the current direction. At the end of the
// stream Play publishes EndOfStream again until the index is moved by
// JumpTo or cleared by SetDirection.
func (e *Engine) Play() {
	e.mu.Lock()
	if !e.running || e.playing {
		e.mu.Unlock()
		return
	}
	e.playing = true
	e.stopped = false
	e.mu.Unlock()

	e.signalWake()
	logrus.WithFields(logrus.Fields{
		"function": "Engine.Play",
	}).Debug("Playback resumed")
}

// Pause halts playback at the current index.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || !e.playing {
		return
	}
	e.playing = false
	logrus.WithFields(logrus.Fields{
		"function": "Engine.Pause",
		"index":    e.indexLocked(),
	}).Debug("Playback paused")
}

// TogglePlay flips between playing and paused and returns the new
// playing flag.
func (e *Engine) TogglePlay() bool {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()
	if playing {
		e.Pause()
	} else {
		e.Play()
	}
	return e.State().Playing
}

// Stop pauses playback and publishes EndOfStream with the current index.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	e.playing = false
	e.stopped = true
	index := e.indexLocked()
	e.bus.Publish(events.Event{
		Kind:  events.KindEndOfStream,
		Index: index,
	})
	logrus.WithFields(logrus.Fields{
		"function": "Engine.Stop",
		"index":    index,
	}).Info("Playback stopped")
}

func (e *Engine) indexLocked() int {
	if !e.hasIndex {
		return NoIndex
	}
	return e.currentIndex
}

// JumpTo moves playback to index. The index is not validated; use
// ValidIndex first. With JumpResumeAlways the engine resumes and the next
// emitted frame is index. With JumpResumePrevious a jump made while paused
// publishes the frame at index once and stays paused.
func (e *Engine) JumpTo(index int) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	wasPlaying := e.playing
	e.playing = false
	e.previousIndex, e.hasPrevious = e.currentIndex, e.hasIndex
	e.currentIndex, e.hasIndex = index, true
	e.generation++

	resume := e.jumpPolicy == JumpResumeAlways || wasPlaying
	if resume {
		e.pendingJump = true
		e.playing = true
		e.stopped = false
	}
	e.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Engine.JumpTo",
		"index":    index,
		"resume":   resume,
	}).Info("Jumping to frame")

	if resume {
		e.signalWake()
		return
	}
	if _, err := e.GetFrame(index, true); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.JumpTo",
			"index":    index,
			"error":    err.Error(),
		}).Warn("Failed to show jump target")
	}
}

// SetDirection sets the playback direction. Changing direction clears
// the current index so playback restarts from the opposite edge; the play
// state is kept. Setting the current direction is a no-op.
func (e *Engine) SetDirection(backward bool) {
	dir := Forward
	if backward {
		dir = Backward
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.direction == dir {
		return
	}
	e.direction = dir
	e.hasIndex = false
	e.hasPrevious = false
	e.currentIndex = NoIndex
	e.previousIndex = NoIndex
	e.pendingJump = false
	e.stopped = false
	e.generation++

	e.bus.Publish(events.Event{
		Kind:     events.KindDirectionChanged,
		Backward: backward,
	})
	logrus.WithFields(logrus.Fields{
		"function":  "Engine.SetDirection",
		"direction": dir.String(),
	}).Info("Playback direction changed")
}

// SetFPS sets the frame rate, floored at MinFPS.
func (e *Engine) SetFPS(fps int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setFPSLocked(fps)
}

// IncreaseFPS raises the frame rate to ceil(fps*(1+factor)/factor).
// A factor <= 0 is ignored.
func (e *Engine) IncreaseFPS(factor float64) {
	if !e.validFactor("Engine.IncreaseFPS", factor) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := int(math.Ceil(float64(e.fps) * (1 + factor) / factor))
	e.setFPSLocked(next)
}

// DecreaseFPS lowers the frame rate to int(fps*(factor-1)/factor),
// floored at MinFPS. A factor <= 0 is ignored.
func (e *Engine) DecreaseFPS(factor float64) {
	if !e.validFactor("Engine.DecreaseFPS", factor) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := int(float64(e.fps) * (factor - 1) / factor)
	e.setFPSLocked(next)
}

// ResetFPS restores the configured default frame rate.
func (e *Engine) ResetFPS() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setFPSLocked(e.defaultFPS)
}

func (e *Engine) validFactor(function string, factor float64) bool {
	if factor > 0 && !math.IsInf(factor, 0) && !math.IsNaN(factor) {
		return true
	}
	logrus.WithFields(logrus.Fields{
		"function": function,
		"factor":   factor,
	}).Warn("Ignoring non-positive rate factor")
	return false
}

func (e *Engine) setFPSLocked(fps int) {
	if !e.running {
		return
	}
	e.fps = clampFPS(fps)
	e.bus.Publish(events.Event{
		Kind: events.KindRateChanged,
		FPS:  e.fps,
	})
	logrus.WithFields(logrus.Fields{
		"function": "Engine.SetFPS",
		"fps":      e.fps,
	}).Debug("Frame rate changed")
}
