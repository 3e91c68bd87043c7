package events

import (
	"image"
	"time"

	"github.com/opd-ai/masa/video"
)

// Kind identifies the type of notification carried by an Event.
type Kind string

const (
	// KindFrameReady carries a decoded frame and its index.
	KindFrameReady Kind = "FrameReady"
	// KindEndOfStream carries the last index reached before stopping.
	KindEndOfStream Kind = "EndOfStream"
	// KindDirectionChanged carries the new playback direction.
	KindDirectionChanged Kind = "DirectionChanged"
	// KindRateChanged carries the new frame rate.
	KindRateChanged Kind = "RateChanged"
	// KindFramesFetched carries the result of a batched fetch.
	KindFramesFetched Kind = "FramesFetched"
	// KindRegionSelected carries a user-selected region on the current frame.
	KindRegionSelected Kind = "RegionSelected"
	// KindSessionInitialized carries the kind and id of a new session.
	KindSessionInitialized Kind = "SessionInitialized"
	// KindError reports a fatal engine error; the scheduling loop has halted.
	KindError Kind = "Error"
)

// NoIndex marks an undefined frame index.
const NoIndex = -1

// FramePacket pairs a frame with its index in the stream.
type FramePacket struct {
	Index int
	Frame *video.Frame
}

// Region is a selection rectangle mapped onto the current frame.
type Region struct {
	Index   int             // Frame the region was drawn on
	Frame   *video.Frame    // Copy of that frame, at display size
	Display image.Rectangle // Pixel coordinates in the display frame
	Native  image.Rectangle // Pixel coordinates at native resolution
}

// Event is a single notification published on the bus.
//
// Only the fields relevant to Kind are set.
type Event struct {
	Kind      Kind
	Seq       uint64
	Timestamp time.Time

	Index    int          // FrameReady, EndOfStream
	Frame    *video.Frame // FrameReady
	Backward bool         // DirectionChanged
	FPS      int          // RateChanged
	Frames   []FramePacket
	Region   *Region
	Session  string // SessionInitialized: kind
	ID       string // SessionInitialized: session id
	Err      error  // Error
}

// Handler receives events on the subscriber's own goroutine.
type Handler func(Event)

// SubscriberStats counts deliveries for one subscriber.
type SubscriberStats struct {
	Delivered uint64
	Dropped   uint64
	Pending   int
}
