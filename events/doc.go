// Package events implements the frame delivery channel of the playback
// engine.
//
// The engine publishes notifications to a Bus; every subscriber owns a
// bounded queue drained by its own goroutine, so a slow subscriber never
// blocks the publisher and never delays other subscribers. Events reach
// each subscriber in publication order. When a queue is full the event is
// dropped for that subscriber only and counted in its stats; there is no
// retry and no coalescing.
//
//	bus := events.NewBus()
//	defer bus.Close()
//
//	id, err := bus.Subscribe(func(e events.Event) {
//	    if e.Kind == events.KindFrameReady {
//	        render(e.Frame, e.Index)
//	    }
//	}, events.KindFrameReady, events.KindEndOfStream)
package events
