// Package buffer implements the playback engine of the Masa video
// annotation tool.
//
// An Engine owns a video source and a scheduling goroutine that advances
// through the stream at a configured frame rate, forward or backward, and
// publishes every decoded frame on an events.Bus:
//
//	engine, err := buffer.Open("clip.mp4", video.SizeOptions{Width: 640, PreserveAspect: true},
//	    buffer.WithFPS(30))
//	if err != nil {
//	    return err
//	}
//	defer engine.Shutdown()
//
//	engine.Subscribe(func(e events.Event) {
//	    render(e.Frame, e.Index)
//	}, events.KindFrameReady)
//	engine.Play()
//
// # State Machine
//
// The engine is Stopped, Paused, or Playing in one of two directions.
// Play, Pause, Stop, JumpTo, SetDirection and the frame-rate controls are
// safe to call from any goroutine; they only update fields that the loop
// reads at the top of its next tick. Operations that touch the decoder
// cursor from outside the loop (GetFrame, GetFrames) pause playback and
// take the cursor lock, so a seek never races a sequential read.
//
// # Index Advance
//
// Each tick moves the index by one in the current direction, clamped to
// the stream. A tick that cannot move (clamped at either end) stops
// playback and publishes EndOfStream. A forward step whose target is
// exactly where the decoder already is uses a cheap sequential read;
// every other step (backward, after a jump, after a direction change)
// seeks first. A read that returns no frame outside the end-of-stream case
// is a decode failure: the loop halts and an Error event is published.
//
// # Pacing
//
// The loop sleeps 1/fps between ticks without compensating for the time
// spent decoding, and polls every idle interval (100ms by default) while
// paused.
package buffer
