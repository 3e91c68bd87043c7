package preview

import (
	"image"

	jsoniter "github.com/json-iterator/go"

	"github.com/opd-ai/masa/buffer"
	"github.com/opd-ai/masa/events"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Command names accepted on the websocket.
const (
	CmdPlay      = "play"
	CmdPause     = "pause"
	CmdStop      = "stop"
	CmdToggle    = "toggle"
	CmdJump      = "jump"
	CmdDirection = "direction"
	CmdFPS       = "fps"
	CmdFPSUp     = "fps_up"
	CmdFPSDown   = "fps_down"
	CmdFPSReset  = "fps_reset"
	CmdRegion    = "region"
	CmdState     = "state"
)

// Message types sent to clients.
const (
	TypeState     = "state"
	TypeFrame     = "frame"
	TypeEOS       = "eos"
	TypeDirection = "direction"
	TypeRate      = "rate"
	TypeRegion    = "region"
	TypeFetched   = "fetched"
	TypeSession   = "session"
	TypeError     = "error"
)

// Command is a control message received from a client.
type Command struct {
	Cmd      string  `json:"cmd"`
	Index    int     `json:"index"`
	FPS      int     `json:"fps"`
	Factor   float64 `json:"factor"`
	Backward bool    `json:"backward"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
}

// StateMessage reports the playback state.
type StateMessage struct {
	Type          string `json:"type"`
	Index         int    `json:"index"`
	PreviousIndex int    `json:"previous_index"`
	Playing       bool   `json:"playing"`
	Backward      bool   `json:"backward"`
	FPS           int    `json:"fps"`
	DefaultFPS    int    `json:"default_fps"`
	TotalFrames   int    `json:"total_frames"`
	Running       bool   `json:"running"`
	Status        string `json:"status"`
}

// FrameMessage carries one JPEG-encoded frame.
type FrameMessage struct {
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Index  int    `json:"index"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	JPEG   []byte `json:"jpeg"`
}

// EventMessage carries every non-frame engine event.
type EventMessage struct {
	Type     string `json:"type"`
	Seq      uint64 `json:"seq"`
	Index    int    `json:"index"`
	Backward bool   `json:"backward,omitempty"`
	FPS      int    `json:"fps,omitempty"`
	Display  []int  `json:"display,omitempty"`
	Native   []int  `json:"native,omitempty"`
	Indices  []int  `json:"indices,omitempty"`
	Session  string `json:"session,omitempty"`
	ID       string `json:"id,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newStateMessage(st buffer.PlaybackState) StateMessage {
	return StateMessage{
		Type:          TypeState,
		Index:         st.CurrentIndex,
		PreviousIndex: st.PreviousIndex,
		Playing:       st.Playing,
		Backward:      st.Direction == buffer.Backward,
		FPS:           st.FPS,
		DefaultFPS:    st.DefaultFPS,
		TotalFrames:   st.TotalFrames,
		Running:       st.Running,
		Status:        st.Status.String(),
	}
}

// newEventMessage converts a non-frame event. ok is false for kinds that
// are not forwarded.
func newEventMessage(e events.Event) (EventMessage, bool) {
	m := EventMessage{Seq: e.Seq, Index: e.Index}
	switch e.Kind {
	case events.KindEndOfStream:
		m.Type = TypeEOS
	case events.KindDirectionChanged:
		m.Type = TypeDirection
		m.Backward = e.Backward
	case events.KindRateChanged:
		m.Type = TypeRate
		m.FPS = e.FPS
	case events.KindRegionSelected:
		if e.Region == nil {
			return m, false
		}
		m.Type = TypeRegion
		m.Index = e.Region.Index
		m.Display = rectSlice(e.Region.Display)
		m.Native = rectSlice(e.Region.Native)
	case events.KindFramesFetched:
		m.Type = TypeFetched
		m.Index = events.NoIndex
		for _, p := range e.Frames {
			m.Indices = append(m.Indices, p.Index)
		}
	case events.KindSessionInitialized:
		m.Type = TypeSession
		m.Index = events.NoIndex
		m.Session = e.Session
		m.ID = e.ID
	case events.KindError:
		m.Type = TypeError
		if e.Err != nil {
			m.Error = e.Err.Error()
		}
	default:
		return m, false
	}
	return m, true
}

func errorMessage(index int, err error) EventMessage {
	return EventMessage{Type: TypeError, Index: index, Error: err.Error()}
}

func rectSlice(r image.Rectangle) []int {
	return []int{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y}
}
