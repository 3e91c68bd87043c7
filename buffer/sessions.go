package buffer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/masa/events"
	"github.com/opd-ai/masa/session"
)

// sessionKinds are the events delivered to annotation sessions.
var sessionKinds = []events.Kind{
	events.KindFrameReady,
	events.KindRegionSelected,
	events.KindEndOfStream,
}

// InitSession pauses playback, creates a session of kind from the
// registry and subscribes it to frame, region and end-of-stream events.
// It returns the session id.
func (e *Engine) InitSession(kind string, data any) (string, error) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return "", ErrEngineClosed
	}
	e.playing = false
	e.mu.Unlock()

	s, err := e.registry.Create(kind, data)
	if err != nil {
		return "", err
	}
	id, err := e.bus.Subscribe(s.HandleEvent, sessionKinds...)
	if err != nil {
		_ = s.Close()
		return "", fmt.Errorf("subscribe session %q: %w", kind, err)
	}

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		e.closeSession(id, s)
		return "", ErrEngineClosed
	}
	e.sessions[id] = s
	e.bus.Publish(events.Event{
		Kind:    events.KindSessionInitialized,
		Session: kind,
		ID:      id,
	})
	e.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Engine.InitSession",
		"kind":     kind,
		"id":       id,
	}).Info("Annotation session started")
	return id, nil
}

// Session returns the active session with id.
func (e *Engine) Session(id string) (session.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", events.ErrSubscriberNotFound, id)
	}
	return s, nil
}

// EndSession unsubscribes and closes the session with id.
func (e *Engine) EndSession(id string) error {
	e.mu.Lock()
	s, ok := e.sessions[id]
	delete(e.sessions, id)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", events.ErrSubscriberNotFound, id)
	}
	return e.closeSession(id, s)
}

func (e *Engine) closeSession(id string, s session.Session) error {
	_ = e.bus.Unsubscribe(id)
	if err := s.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.closeSession",
			"id":       id,
			"error":    err.Error(),
		}).Warn("Session close failed")
		return err
	}
	return nil
}
