package session

import (
	"fmt"
	"sync"

	"github.com/opd-ai/masa/annotation"
	"github.com/opd-ai/masa/events"
)

// KindManual is the registry tag of the manual annotation session.
const KindManual = "manual"

// ManualData identifies the object a manual session annotates.
type ManualData struct {
	TrackID     int
	ObjectClass string
}

// Manual records every selected region as an instance of one tracked object.
type Manual struct {
	mu     sync.Mutex
	data   ManualData
	object *annotation.TrackedObject
	frames int
	closed bool
}

// NewManual is the Factory for KindManual. data must be ManualData or *ManualData.
func NewManual(data any) (Session, error) {
	var d ManualData
	switch v := data.(type) {
	case ManualData:
		d = v
	case *ManualData:
		if v == nil {
			return nil, fmt.Errorf("%w: nil ManualData", ErrInvalidSessionData)
		}
		d = *v
	default:
		return nil, fmt.Errorf("%w: expected ManualData, got %T", ErrInvalidSessionData, data)
	}
	return &Manual{data: d}, nil
}

// HandleEvent counts frames and records RegionSelected events.
func (m *Manual) HandleEvent(e events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	switch e.Kind {
	case events.KindFrameReady:
		m.frames++
	case events.KindRegionSelected:
		if e.Region == nil {
			return
		}
		r := e.Region.Native
		instance := annotation.Instance{
			"frame_id": e.Region.Index,
			"x1":       r.Min.X,
			"y1":       r.Min.Y,
			"x2":       r.Max.X,
			"y2":       r.Max.Y,
		}
		if m.object == nil {
			m.object = annotation.NewTrackedObject(m.data.TrackID, m.data.ObjectClass, instance)
			return
		}
		m.object.AddInstance(instance)
	}
}

// Object returns the tracked object built so far, or nil before the first region.
func (m *Manual) Object() *annotation.TrackedObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.object
}

// FramesSeen returns the number of FrameReady events observed.
func (m *Manual) FramesSeen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// Close stops recording.
func (m *Manual) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
