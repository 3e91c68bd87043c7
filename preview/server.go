package preview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/masa/events"
)

// DefaultClientQueue is the per-client send queue length.
const DefaultClientQueue = 64

// Server streams engine events to websocket clients and accepts playback
// commands from them.
type Server struct {
	ctrl      Controller
	router    *gin.Engine
	upgrader  websocket.Upgrader
	quality   int
	queueSize int
	subID     string

	mu          sync.Mutex
	clients     map[string]*client
	latest      []byte
	latestIndex int
	closed      bool
	httpSrv     *http.Server
	listener    net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithJPEGQuality sets the JPEG quality of streamed frames (1-100).
func WithJPEGQuality(q int) Option {
	return func(s *Server) {
		if q > 0 && q <= 100 {
			s.quality = q
		}
	}
}

// WithClientQueue sets the per-client send queue length.
func WithClientQueue(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// NewServer creates a server bound to ctrl and subscribes it to the
// engine's events. Call Start to listen, or mount Handler yourself.
func NewServer(ctrl Controller, opts ...Option) (*Server, error) {
	s := &Server{
		ctrl:        ctrl,
		quality:     DefaultJPEGQuality,
		queueSize:   DefaultClientQueue,
		clients:     make(map[string]*client),
		latestIndex: events.NoIndex,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.GET("/state", s.handleState)
	router.GET("/frame.jpg", s.handleFrame)
	router.GET("/ws", s.handleWebsocket)
	s.router = router

	id, err := ctrl.Subscribe(s.onEvent)
	if err != nil {
		return nil, fmt.Errorf("subscribe preview: %w", err)
	}
	s.subID = id
	return s, nil
}

// Handler returns the HTTP handler serving the preview routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("preview listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.listener = ln
	s.httpSrv = srv

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithFields(logrus.Fields{
				"function": "Server.Start",
				"error":    err.Error(),
			}).Error("Preview server stopped")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"function": "Server.Start",
		"addr":     ln.Addr().String(),
	}).Info("Preview server listening")
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Shutdown unsubscribes from the engine, disconnects every client and
// stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clients := s.clients
	s.clients = make(map[string]*client)
	srv := s.httpSrv
	s.mu.Unlock()

	_ = s.ctrl.Unsubscribe(s.subID)
	for _, c := range clients {
		c.close()
	}
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("preview shutdown: %w", err)
	}
	return nil
}

// onEvent runs on the server's bus goroutine.
func (s *Server) onEvent(e events.Event) {
	if e.Kind == events.KindFrameReady {
		s.onFrame(e)
		return
	}
	msg, ok := newEventMessage(e)
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.broadcast(data)
}

func (s *Server) onFrame(e events.Event) {
	if e.Frame == nil {
		return
	}
	jpg, err := EncodeJPEG(e.Frame, s.quality)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Server.onFrame",
			"index":    e.Index,
			"error":    err.Error(),
		}).Warn("Failed to encode frame")
		return
	}
	data, err := json.Marshal(FrameMessage{
		Type:   TypeFrame,
		Seq:    e.Seq,
		Index:  e.Index,
		Width:  e.Frame.Width,
		Height: e.Frame.Height,
		JPEG:   jpg,
	})
	if err != nil {
		return
	}

	s.mu.Lock()
	s.latest = jpg
	s.latestIndex = e.Index
	s.mu.Unlock()
	s.broadcast(data)
}

func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, c := range s.clients {
		c.enqueue(data)
	}
}

func (s *Server) stateJSON() []byte {
	data, err := json.Marshal(newStateMessage(s.ctrl.State()))
	if err != nil {
		return nil
	}
	return data
}

func (s *Server) handleState(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", s.stateJSON())
}

func (s *Server) handleFrame(ctx *gin.Context) {
	s.mu.Lock()
	jpg, index := s.latest, s.latestIndex
	s.mu.Unlock()

	if jpg == nil {
		ctx.Status(http.StatusNoContent)
		return
	}
	ctx.Header("X-Frame-Index", strconv.Itoa(index))
	ctx.Data(http.StatusOK, "image/jpeg", jpg)
}

func (s *Server) handleWebsocket(ctx *gin.Context) {
	if !ctx.IsWebsocket() {
		ctx.AbortWithStatus(http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Server.handleWebsocket",
			"error":    err.Error(),
		}).Warn("Websocket upgrade failed")
		return
	}

	c := newClient(conn, s.queueSize)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		c.close()
		return
	}
	s.clients[c.id] = c
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Server.handleWebsocket",
		"client_id": c.id,
		"remote":    ctx.Request.RemoteAddr,
	}).Info("Preview client connected")

	c.enqueue(s.stateJSON())
	go c.writePump()
	c.readPump(s.handleCommand)

	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Server.handleWebsocket",
		"client_id": c.id,
		"dropped":   c.droppedCount(),
	}).Info("Preview client disconnected")
}

// handleCommand applies one client command and returns the reply.
func (s *Server) handleCommand(data []byte) []byte {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return s.errorJSON(fmt.Errorf("decode command: %w", err))
	}
	if err := apply(s.ctrl, cmd); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Server.handleCommand",
			"cmd":      cmd.Cmd,
			"error":    err.Error(),
		}).Debug("Command rejected")
		return s.errorJSON(err)
	}
	return s.stateJSON()
}

func (s *Server) errorJSON(err error) []byte {
	data, mErr := json.Marshal(errorMessage(events.NoIndex, err))
	if mErr != nil {
		return nil
	}
	return data
}

// requestLogger logs plain HTTP requests through logrus.
func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logrus.WithFields(logrus.Fields{
			"function": "preview.requestLogger",
			"method":   ctx.Request.Method,
			"path":     ctx.Request.URL.Path,
			"status":   ctx.Writer.Status(),
			"latency":  time.Since(start).String(),
		}).Debug("HTTP request")
	}
}
