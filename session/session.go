// Package session provides the explicit registry of annotation sessions.
//
// A session is a frame consumer created on demand by the playback engine
// (for example a manual box-drawing session or a tracker). Sessions are
// looked up by a kind tag in a Registry instead of implicit attribute
// dispatch, so new kinds are added with Register.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/masa/events"
)

var (
	// ErrUnknownSession indicates no factory is registered for a kind.
	ErrUnknownSession = errors.New("unknown session kind")

	// ErrSessionExists indicates a factory is already registered for a kind.
	ErrSessionExists = errors.New("session kind already registered")

	// ErrInvalidSessionData indicates the data passed to a factory has the wrong shape.
	ErrInvalidSessionData = errors.New("invalid session data")
)

// Session consumes engine events. HandleEvent runs on the session's own
// bus goroutine.
type Session interface {
	HandleEvent(e events.Event)
	Close() error
}

// Factory builds a session from caller-supplied data.
type Factory func(data any) (Session, error)

// Registry maps session kinds to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the built-in kinds registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(KindManual, NewManual)
	return r
}

// Register adds a factory for kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" || factory == nil {
		return fmt.Errorf("%w: kind and factory are required", ErrInvalidSessionData)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("%w: %s", ErrSessionExists, kind)
	}
	r.factories[kind] = factory

	logrus.WithFields(logrus.Fields{
		"function": "Registry.Register",
		"kind":     kind,
	}).Debug("Session kind registered")

	return nil
}

// Create builds a session of the given kind.
func (r *Registry) Create(kind string, data any) (Session, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, kind)
	}
	return factory(data)
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
