package video

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecoder mimics Vidio: a forward-only pipe plus random access.
type fakeDecoder struct {
	frames  int
	pipe    int
	current int
	random  []int
	closed  bool
	buf     []byte
}

func (d *fakeDecoder) Frames() int { return d.frames }
func (d *fakeDecoder) Width() int  { return 4 }
func (d *fakeDecoder) Height() int { return 2 }

func (d *fakeDecoder) Read() bool {
	if d.pipe >= d.frames {
		return false
	}
	d.current = d.pipe
	d.pipe++
	d.render()
	return true
}

func (d *fakeDecoder) ReadFrame(n int) error {
	if n < 0 || n >= d.frames {
		return errors.New("out of range")
	}
	d.random = append(d.random, n)
	d.current = n
	d.render()
	return nil
}

func (d *fakeDecoder) render() {
	d.buf = RenderSynthetic(d.current, 4, 2).Pix
}

func (d *fakeDecoder) FrameBuffer() []byte { return d.buf }
func (d *fakeDecoder) Close()              { d.closed = true }

type fakeOpener struct {
	frames   int
	opened   []*fakeDecoder
	failNext bool
}

func (o *fakeOpener) open(string) (decoder, error) {
	if o.failNext {
		return nil, errors.New("cannot open")
	}
	d := &fakeDecoder{frames: o.frames}
	o.opened = append(o.opened, d)
	return d, nil
}

func readIndex(t *testing.T, fs *FileSource) int {
	t.Helper()
	frame, err := fs.Read()
	require.NoError(t, err)
	require.NotNil(t, frame)
	idx, err := SyntheticIndex(frame)
	require.NoError(t, err)
	return idx
}

func TestFileSource_SequentialRead(t *testing.T) {
	opener := &fakeOpener{frames: 5}
	fs, err := openFileWith("clip.mp4", opener.open)
	require.NoError(t, err)
	assert.Equal(t, 5, fs.FrameCount())

	for i := 0; i < 5; i++ {
		assert.Equal(t, i, readIndex(t, fs))
	}
	frame, err := fs.Read()
	assert.NoError(t, err)
	assert.Nil(t, frame)

	assert.Empty(t, opener.opened[0].random, "sequential playback never uses random access")
	assert.Len(t, opener.opened, 1)
}

func TestFileSource_ForwardSeekSkips(t *testing.T) {
	opener := &fakeOpener{frames: 10}
	fs, err := openFileWith("clip.mp4", opener.open)
	require.NoError(t, err)

	require.NoError(t, fs.Seek(6))
	assert.Equal(t, 6, readIndex(t, fs))
	assert.Equal(t, 7, readIndex(t, fs))
	assert.Empty(t, opener.opened[0].random)
}

func TestFileSource_BackwardUsesRandomAccess(t *testing.T) {
	opener := &fakeOpener{frames: 10}
	fs, err := openFileWith("clip.mp4", opener.open)
	require.NoError(t, err)

	require.NoError(t, fs.Seek(9))
	assert.Equal(t, 9, readIndex(t, fs))

	for i := 8; i >= 6; i-- {
		require.NoError(t, fs.Seek(i))
		assert.Equal(t, i, readIndex(t, fs))
	}
	assert.Equal(t, []int{8, 7, 6}, opener.opened[0].random)
	assert.Len(t, opener.opened, 1)
}

func TestFileSource_ForwardAfterRandomReopensPipe(t *testing.T) {
	opener := &fakeOpener{frames: 10}
	fs, err := openFileWith("clip.mp4", opener.open)
	require.NoError(t, err)

	require.NoError(t, fs.Seek(8))
	assert.Equal(t, 8, readIndex(t, fs))

	require.NoError(t, fs.Seek(3))
	assert.Equal(t, 3, readIndex(t, fs))

	// Natural continuation from a random read rewinds the pipe once.
	assert.Equal(t, 4, readIndex(t, fs))
	assert.Equal(t, 5, readIndex(t, fs))

	require.Len(t, opener.opened, 2)
	assert.True(t, opener.opened[0].closed)
	assert.Empty(t, opener.opened[1].random)
}

func TestFileSource_ReopenFailure(t *testing.T) {
	opener := &fakeOpener{frames: 10}
	fs, err := openFileWith("clip.mp4", opener.open)
	require.NoError(t, err)

	require.NoError(t, fs.Seek(5))
	readIndex(t, fs)
	require.NoError(t, fs.Seek(2))
	readIndex(t, fs)

	opener.failNext = true
	_, err = fs.Read()
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestFileSource_OpenFailure(t *testing.T) {
	opener := &fakeOpener{failNext: true}
	_, err := openFileWith("clip.mp4", opener.open)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFileSource_Close(t *testing.T) {
	opener := &fakeOpener{frames: 3}
	fs, err := openFileWith("clip.mp4", opener.open)
	require.NoError(t, err)

	require.NoError(t, fs.Close())
	assert.True(t, opener.opened[0].closed)
	assert.NoError(t, fs.Close())
	assert.ErrorIs(t, fs.Seek(0), ErrSourceClosed)
	_, err = fs.Read()
	assert.ErrorIs(t, err, ErrSourceClosed)
}
