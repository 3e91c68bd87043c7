package buffer

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/masa/events"
	"github.com/opd-ai/masa/session"
	"github.com/opd-ai/masa/video"
)

// readStrategy is how a tick obtains its frame.
type readStrategy int

const (
	readNone readStrategy = iota
	readSequential
	readSeek
)

func (s readStrategy) String() string {
	switch s {
	case readSequential:
		return "sequential"
	case readSeek:
		return "seek"
	default:
		return "none"
	}
}

// Engine is the playback driver. All exported methods are safe for
// concurrent use, including from bus handlers, except Shutdown.
type Engine struct {
	src      FrameSource
	bus      *events.Bus
	ownsBus  bool
	registry *session.Registry

	// cursorMu serialises every Seek and ReadNext on src. It is always
	// acquired before mu.
	cursorMu  sync.Mutex
	srcClosed bool

	mu            sync.Mutex
	totalFrames   int
	currentIndex  int
	hasIndex      bool
	previousIndex int
	hasPrevious   bool
	pendingJump   bool
	readPos       int
	generation    uint64
	playing       bool
	stopped       bool
	running       bool
	direction     Direction
	fps           int
	defaultFPS    int
	jumpPolicy    JumpPolicy
	err           error
	lastFrame     *video.Frame
	lastIndex     int
	sessions      map[string]session.Session
	idleInterval  time.Duration
	shutdownGrace time.Duration

	wake     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
}

// Open opens the video file at path and starts an engine over it.
func Open(path string, size video.SizeOptions, opts ...Option) (*Engine, error) {
	src, err := video.Open(path, size)
	if err != nil {
		return nil, err
	}
	e, err := New(src, opts...)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return e, nil
}

// New starts an engine over src. The engine is initially stopped with an
// undefined index; call Play to start emitting frames.
func New(src FrameSource, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", video.ErrSourceUnavailable)
	}
	total := src.TotalFrames()
	if total <= 0 {
		return nil, fmt.Errorf("%w: source reports %d frames", video.ErrSourceUnavailable, total)
	}

	e := &Engine{
		src:           src,
		ownsBus:       true,
		totalFrames:   total,
		currentIndex:  NoIndex,
		previousIndex: NoIndex,
		lastIndex:     NoIndex,
		running:       true,
		direction:     Forward,
		fps:           DefaultFPS,
		defaultFPS:    DefaultFPS,
		jumpPolicy:    JumpResumeAlways,
		sessions:      make(map[string]session.Session),
		idleInterval:  DefaultIdleInterval,
		shutdownGrace: DefaultShutdownGrace,
		wake:          make(chan struct{}, 1),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = events.NewBus()
	}
	if e.registry == nil {
		e.registry = session.DefaultRegistry()
	}

	tw, th := src.TargetSize()
	logrus.WithFields(logrus.Fields{
		"function":  "buffer.New",
		"frames":    total,
		"width":     tw,
		"height":    th,
		"fps":       e.fps,
		"direction": e.direction.String(),
	}).Info("Playback engine started")

	go e.run()
	return e, nil
}

// Bus returns the bus the engine publishes on.
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// Subscribe registers handler on the engine's bus.
func (e *Engine) Subscribe(handler events.Handler, kinds ...events.Kind) (string, error) {
	return e.bus.Subscribe(handler, kinds...)
}

// Unsubscribe removes a subscriber registered with Subscribe.
func (e *Engine) Unsubscribe(id string) error {
	return e.bus.Unsubscribe(id)
}

// TotalFrames returns the number of frames in the source.
func (e *Engine) TotalFrames() int {
	return e.totalFrames
}

// TargetSize returns the display size of emitted frames.
func (e *Engine) TargetSize() (width, height int) {
	return e.src.TargetSize()
}

// ValidIndex reports whether index addresses a frame of the source.
// JumpTo and GetFrame do not validate their argument.
func (e *Engine) ValidIndex(index int) bool {
	return index >= 0 && index < e.totalFrames
}

// Err returns the error that halted the loop, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Done is closed once the scheduling loop has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// State returns a snapshot of the playback state.
func (e *Engine) State() PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := PlaybackState{
		CurrentIndex:  NoIndex,
		PreviousIndex: NoIndex,
		Playing:       e.playing,
		Direction:     e.direction,
		FPS:           e.fps,
		DefaultFPS:    e.defaultFPS,
		Running:       e.running,
		TotalFrames:   e.totalFrames,
	}
	if e.hasIndex {
		st.CurrentIndex = e.currentIndex
	}
	if e.hasPrevious {
		st.PreviousIndex = e.previousIndex
	}
	switch {
	case !e.running || (!e.playing && (e.stopped || !e.hasIndex)):
		st.Status = StatusStopped
	case !e.playing:
		st.Status = StatusPaused
	case e.direction == Backward:
		st.Status = StatusPlayingBackward
	default:
		st.Status = StatusPlayingForward
	}
	return st
}

// run is the scheduling loop.
func (e *Engine) run() {
	defer close(e.done)
	defer e.closeSource()

	for {
		e.mu.Lock()
		running, playing := e.running, e.playing
		e.mu.Unlock()

		if !running {
			return
		}
		if !playing {
			if !e.wait(e.idleInterval, true) {
				return
			}
			continue
		}

		e.tick()

		if !e.wait(e.frameInterval(), false) {
			return
		}
	}
}

func (e *Engine) frameInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Second / time.Duration(e.fps)
}

// wait sleeps for d. It returns false once the engine is shutting down.
func (e *Engine) wait(d time.Duration, wakeable bool) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	var wake <-chan struct{}
	if wakeable {
		wake = e.wake
	}
	select {
	case <-e.quit:
		return false
	case <-wake:
		return true
	case <-timer.C:
		return true
	}
}

// tick advances one frame and publishes it.
func (e *Engine) tick() {
	e.cursorMu.Lock()
	defer e.cursorMu.Unlock()

	e.mu.Lock()
	if !e.running || !e.playing {
		e.mu.Unlock()
		return
	}
	index, strategy := e.advanceLocked()
	if strategy == readNone {
		e.stopLocked()
		e.mu.Unlock()
		return
	}
	gen := e.generation
	e.mu.Unlock()

	frame, err := e.read(index, strategy)
	if err != nil || frame == nil {
		e.fail(index, strategy, err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.readPos = index + 1
	if gen != e.generation || !e.running {
		// A jump or direction change landed while the frame was decoding.
		logrus.WithFields(logrus.Fields{
			"function": "Engine.tick",
			"index":    index,
		}).Debug("Discarding superseded frame")
		return
	}
	e.lastFrame = frame
	e.lastIndex = index
	e.bus.Publish(events.Event{
		Kind:  events.KindFrameReady,
		Index: index,
		Frame: frame.Clone(),
	})
}

// advanceLocked computes the next index and how to read it.
func (e *Engine) advanceLocked() (int, readStrategy) {
	if e.pendingJump {
		e.pendingJump = false
		return e.currentIndex, readSeek
	}

	if !e.hasIndex {
		if e.direction == Backward {
			e.currentIndex = e.totalFrames - 1
		} else {
			e.currentIndex = 0
		}
		e.hasIndex = true
		e.hasPrevious = false
		return e.currentIndex, readSeek
	}

	e.previousIndex = e.currentIndex
	e.hasPrevious = true
	if e.direction == Backward {
		e.currentIndex = max(e.previousIndex-1, 0)
	} else {
		e.currentIndex = min(e.previousIndex+1, e.totalFrames-1)
	}

	if e.previousIndex == e.currentIndex {
		return e.currentIndex, readNone
	}
	if e.currentIndex == e.previousIndex+1 && e.readPos == e.currentIndex {
		return e.currentIndex, readSequential
	}
	return e.currentIndex, readSeek
}

// read fetches index from the source. The caller holds cursorMu.
func (e *Engine) read(index int, strategy readStrategy) (*video.Frame, error) {
	if strategy == readSeek {
		if err := e.src.Seek(index); err != nil {
			return nil, err
		}
	}
	return e.src.ReadNext()
}

// fail halts the loop after a decode failure.
func (e *Engine) fail(index int, strategy readStrategy, cause error) {
	err := fmt.Errorf("%w: frame %d (%s read)", ErrDecodeFailure, index, strategy)
	if cause != nil {
		err = fmt.Errorf("%w: frame %d (%s read): %v", ErrDecodeFailure, index, strategy, cause)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Engine.tick",
		"index":    index,
		"strategy": strategy.String(),
		"error":    err.Error(),
	}).Error("Decode failure, halting playback")

	e.mu.Lock()
	e.err = err
	e.playing = false
	e.running = false
	e.bus.Publish(events.Event{
		Kind:  events.KindError,
		Index: index,
		Err:   err,
	})
	e.mu.Unlock()

	e.signalQuit()
}

func (e *Engine) signalQuit() {
	e.quitOnce.Do(func() { close(e.quit) })
}

func (e *Engine) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) closeSource() {
	e.cursorMu.Lock()
	defer e.cursorMu.Unlock()
	if e.srcClosed {
		return
	}
	e.srcClosed = true
	if err := e.src.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.closeSource",
			"error":    err.Error(),
		}).Warn("Failed to close video source")
	}
}

// Shutdown stops the loop, waits up to the grace period for it to exit,
// closes active sessions and, when the engine created it, the bus.
// Every transition after Shutdown is a no-op. It must not be called from
// a bus handler.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	e.playing = false
	e.running = false
	sessions := e.sessions
	e.sessions = make(map[string]session.Session)
	e.mu.Unlock()

	e.signalQuit()

	var err error
	select {
	case <-e.done:
	case <-time.After(e.shutdownGrace):
		err = fmt.Errorf("%w: %s", ErrShutdownTimeout, e.shutdownGrace)
		logrus.WithFields(logrus.Fields{
			"function": "Engine.Shutdown",
			"grace":    e.shutdownGrace.String(),
		}).Warn("Playback loop did not exit in time")
	}

	for id, s := range sessions {
		e.closeSession(id, s)
	}
	if e.ownsBus {
		e.bus.Close()
	}

	logrus.WithFields(logrus.Fields{
		"function": "Engine.Shutdown",
	}).Info("Playback engine shut down")
	return err
}
