package buffer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/masa/events"
)

// SelectRegion maps a rectangle drawn on the displayed frame onto display
// and native pixel coordinates and publishes it as RegionSelected. It is a
// no-op before the first frame has been emitted.
func (e *Engine) SelectRegion(rect NormalizedRect) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.lastFrame == nil {
		return nil
	}

	tw, th := e.src.TargetSize()
	nw, nh := e.src.NativeSize()
	display := rect.Scale(tw, th)
	native := rect.Scale(nw, nh)
	if display.Empty() || native.Empty() {
		return fmt.Errorf("%w: %+v", ErrEmptyRegion, rect)
	}

	e.bus.Publish(events.Event{
		Kind:  events.KindRegionSelected,
		Index: e.lastIndex,
		Region: &events.Region{
			Index:   e.lastIndex,
			Frame:   e.lastFrame.Clone(),
			Display: display,
			Native:  native,
		},
	})
	logrus.WithFields(logrus.Fields{
		"function": "Engine.SelectRegion",
		"index":    e.lastIndex,
		"native":   native.String(),
	}).Info("Region selected")
	return nil
}
