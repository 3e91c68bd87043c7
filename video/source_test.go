package video

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource reports a frame count but can be told to fail probing.
type stubSource struct {
	*SyntheticSource
	count   int
	seekErr error
}

func (s *stubSource) FrameCount() int { return s.count }

func (s *stubSource) Seek(index int) error {
	if s.seekErr != nil {
		return s.seekErr
	}
	return s.SyntheticSource.Seek(index)
}

func TestNewVideoSource_ProbesAndRewinds(t *testing.T) {
	src := NewSyntheticSource(10, 64, 32)

	vs, err := NewVideoSource(src, SizeOptions{Width: 32, PreserveAspect: true})
	require.NoError(t, err)

	assert.Equal(t, 10, vs.TotalFrames())
	w, h := vs.NativeSize()
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
	w, h = vs.TargetSize()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)
	assert.True(t, vs.PreserveAspect())

	assert.Equal(t, 0, src.Cursor(), "probe must rewind to frame 0")
	assert.Equal(t, 1, src.Stats().Reads)

	frame, err := vs.ReadNext()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, 32, frame.Width)
	assert.Equal(t, 16, frame.Height)
	idx, err := SyntheticIndex(frame)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestNewVideoSource_SeekAndEndOfStream(t *testing.T) {
	vs, err := NewVideoSource(NewSyntheticSource(3, 8, 8), SizeOptions{})
	require.NoError(t, err)

	require.NoError(t, vs.Seek(2))
	frame, err := vs.ReadNext()
	require.NoError(t, err)
	idx, _ := SyntheticIndex(frame)
	assert.Equal(t, 2, idx)

	frame, err = vs.ReadNext()
	assert.NoError(t, err, "end-of-stream is not an error")
	assert.Nil(t, frame)
}

func TestNewVideoSource_Unavailable(t *testing.T) {
	t.Run("nil source", func(t *testing.T) {
		_, err := NewVideoSource(nil, SizeOptions{})
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("no frames", func(t *testing.T) {
		_, err := NewVideoSource(NewSyntheticSource(0, 8, 8), SizeOptions{})
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("probe read fails", func(t *testing.T) {
		src := NewSyntheticSource(5, 8, 8)
		src.FailAt(0)
		_, err := NewVideoSource(src, SizeOptions{})
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("probe seek fails", func(t *testing.T) {
		src := &stubSource{SyntheticSource: NewSyntheticSource(5, 8, 8), count: 5, seekErr: errors.New("boom")}
		_, err := NewVideoSource(src, SizeOptions{})
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})
}

func TestVideoSource_Close(t *testing.T) {
	src := NewSyntheticSource(3, 8, 8)
	vs, err := NewVideoSource(src, SizeOptions{})
	require.NoError(t, err)

	require.NoError(t, vs.Close())
	assert.True(t, src.Closed())
	assert.NoError(t, vs.Close())

	assert.ErrorIs(t, vs.Seek(0), ErrSourceClosed)
	_, err = vs.ReadNext()
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open("/nonexistent/clip.mp4", SizeOptions{})
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestSyntheticSource_FailAtAndBounds(t *testing.T) {
	src := NewSyntheticSource(4, 4, 4)
	src.FailAt(2)

	require.NoError(t, src.Seek(2))
	frame, err := src.Read()
	assert.NoError(t, err)
	assert.Nil(t, frame)

	require.NoError(t, src.Seek(-1))
	frame, err = src.Read()
	assert.NoError(t, err)
	assert.Nil(t, frame)

	require.NoError(t, src.Seek(3))
	frame, err = src.Read()
	require.NoError(t, err)
	idx, _ := SyntheticIndex(frame)
	assert.Equal(t, 3, idx)
	assert.Equal(t, 3, src.Stats().Seeks)
}
