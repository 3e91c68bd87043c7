package preview

import (
	"bytes"
	"context"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/masa/buffer"
	"github.com/opd-ai/masa/video"
)

func newTestServer(t *testing.T, frames int) (*buffer.Engine, *Server, *httptest.Server) {
	t.Helper()
	src, err := video.NewVideoSource(video.NewSyntheticSource(frames, 32, 24), video.SizeOptions{})
	require.NoError(t, err)
	engine, err := buffer.New(src, buffer.WithFPS(100), buffer.WithIdleInterval(5*time.Millisecond))
	require.NoError(t, err)

	srv, err := NewServer(engine)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
		_ = engine.Shutdown()
	})
	return engine, srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until one has the wanted type.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var head struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &head))
		if head.Type == msgType {
			return data
		}
	}
}

func TestServer_State(t *testing.T) {
	_, _, ts := newTestServer(t, 12)

	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var st StateMessage
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, TypeState, st.Type)
	assert.Equal(t, 12, st.TotalFrames)
	assert.Equal(t, 100, st.FPS)
	assert.Equal(t, buffer.NoIndex, st.Index)
	assert.Equal(t, "stopped", st.Status)
}

func TestServer_FrameBeforeFirstFrame(t *testing.T) {
	_, _, ts := newTestServer(t, 3)

	resp, err := http.Get(ts.URL + "/frame.jpg")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_WebsocketRejectsPlainRequest(t *testing.T) {
	_, _, ts := newTestServer(t, 3)

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_JumpStreamsFrame(t *testing.T) {
	engine, srv, ts := newTestServer(t, 20)
	conn := dial(t, ts)

	readUntil(t, conn, TypeState)
	require.Eventually(t, func() bool { return srv.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Command{Cmd: CmdJump, Index: 7}))

	var frame FrameMessage
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeFrame), &frame))
	engine.Pause()

	assert.Equal(t, 7, frame.Index)
	assert.Equal(t, 32, frame.Width)
	assert.Equal(t, 24, frame.Height)
	img, err := jpeg.Decode(bytes.NewReader(frame.JPEG))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())

	resp, err := http.Get(ts.URL + "/frame.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
}

func TestServer_CommandReplies(t *testing.T) {
	engine, _, ts := newTestServer(t, 20)
	conn := dial(t, ts)
	readUntil(t, conn, TypeState)

	require.NoError(t, conn.WriteJSON(Command{Cmd: CmdFPS, FPS: 40}))
	var st StateMessage
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeState), &st))
	assert.Equal(t, 40, st.FPS)
	assert.Equal(t, 40, engine.State().FPS)

	require.NoError(t, conn.WriteJSON(Command{Cmd: CmdDirection, Backward: true}))
	var dir EventMessage
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeDirection), &dir))
	assert.True(t, dir.Backward)

	require.NoError(t, conn.WriteJSON(Command{Cmd: "rewind"}))
	var bad EventMessage
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeError), &bad))
	assert.Contains(t, bad.Error, "unknown command")

	require.NoError(t, conn.WriteJSON(Command{Cmd: CmdJump, Index: 99}))
	require.NoError(t, json.Unmarshal(readUntil(t, conn, TypeError), &bad))
	assert.Contains(t, bad.Error, "out of range")
}

func TestServer_Shutdown(t *testing.T) {
	_, srv, ts := newTestServer(t, 5)
	conn := dial(t, ts)
	readUntil(t, conn, TypeState)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, 0, srv.ClientCount())

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.ErrorIs(t, srv.Start("127.0.0.1:0"), ErrServerClosed)
}

func TestServer_StartListens(t *testing.T) {
	_, srv, _ := newTestServer(t, 5)

	require.NoError(t, srv.Start("127.0.0.1:0"))
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
