package video

import (
	"fmt"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/sirupsen/logrus"
)

// decoder is the subset of *vidio.Video used by FileSource.
type decoder interface {
	Frames() int
	Width() int
	Height() int
	Read() bool
	ReadFrame(n int) error
	FrameBuffer() []byte
	Close()
}

// openDecoder opens a media file with Vidio.
func openDecoder(path string) (decoder, error) {
	v, err := vidio.NewVideo(path)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// FileSource decodes a media file through Vidio.
//
// Vidio exposes a forward-only ffmpeg pipe plus random access by frame
// number. FileSource layers an absolute cursor over both: reads at the pipe
// position are sequential, forward gaps are skipped by decoding, and reads
// behind the pipe use random access. A forward read right after a random
// read reopens the pipe so the following frames are sequential again.
type FileSource struct {
	path   string
	open   func(path string) (decoder, error)
	dec    decoder
	frames int
	width  int
	height int

	cursor     int // Index the next Read returns
	next       int // Index the pipe decodes next
	lastRandom int // Index of the last random-access read
	closed     bool
}

// OpenFile opens path for decoding. Errors are reported as ErrSourceUnavailable.
func OpenFile(path string) (*FileSource, error) {
	return openFileWith(path, openDecoder)
}

func openFileWith(path string, open func(string) (decoder, error)) (*FileSource, error) {
	logrus.WithFields(logrus.Fields{
		"function": "OpenFile",
		"path":     path,
	}).Info("Opening video file")

	dec, err := open(path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "OpenFile",
			"path":     path,
			"error":    err.Error(),
		}).Error("Failed to open video file")
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}

	fs := &FileSource{
		path:       path,
		open:       open,
		dec:        dec,
		frames:     dec.Frames(),
		width:      dec.Width(),
		height:     dec.Height(),
		lastRandom: -2,
	}

	logrus.WithFields(logrus.Fields{
		"function":        "OpenFile",
		"path":            path,
		"frames":          fs.frames,
		"reported_width":  fs.width,
		"reported_height": fs.height,
	}).Debug("Video file opened")

	return fs, nil
}

// FrameCount returns the frame count reported by the container.
func (fs *FileSource) FrameCount() int {
	return fs.frames
}

// Seek positions the cursor at index.
func (fs *FileSource) Seek(index int) error {
	if fs.closed {
		return ErrSourceClosed
	}
	fs.cursor = index
	return nil
}

// Read decodes the frame under the cursor.
func (fs *FileSource) Read() (*Frame, error) {
	if fs.closed {
		return nil, ErrSourceClosed
	}
	if fs.cursor < 0 || fs.cursor >= fs.frames {
		return nil, nil
	}

	if fs.cursor < fs.next {
		if fs.cursor != fs.lastRandom+1 {
			return fs.readRandom()
		}
		if err := fs.rewind(); err != nil {
			return nil, err
		}
	}

	for fs.next < fs.cursor {
		if !fs.dec.Read() {
			return nil, nil
		}
		fs.next++
	}

	if !fs.dec.Read() {
		return nil, nil
	}
	fs.next++
	fs.cursor++
	return fs.copyBuffer()
}

// readRandom decodes the frame under the cursor without moving the pipe.
func (fs *FileSource) readRandom() (*Frame, error) {
	logrus.WithFields(logrus.Fields{
		"function": "FileSource.readRandom",
		"index":    fs.cursor,
		"pipe":     fs.next,
	}).Debug("Random access read")

	if err := fs.dec.ReadFrame(fs.cursor); err != nil {
		return nil, fmt.Errorf("%w: frame %d: %v", ErrReadFailed, fs.cursor, err)
	}
	fs.lastRandom = fs.cursor
	fs.cursor++
	return fs.copyBuffer()
}

// rewind reopens the sequential pipe at frame 0.
func (fs *FileSource) rewind() error {
	logrus.WithFields(logrus.Fields{
		"function": "FileSource.rewind",
		"path":     fs.path,
		"cursor":   fs.cursor,
	}).Debug("Reopening decoder pipe")

	fs.dec.Close()
	dec, err := fs.open(fs.path)
	if err != nil {
		fs.closed = true
		return fmt.Errorf("%w: reopen %s: %v", ErrReadFailed, fs.path, err)
	}
	fs.dec = dec
	fs.next = 0
	fs.lastRandom = -2
	return nil
}

func (fs *FileSource) copyBuffer() (*Frame, error) {
	frame, err := FrameFromBuffer(fs.dec.FrameBuffer(), fs.dec.Width(), fs.dec.Height())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return frame, nil
}

// Close stops the decoder. Closing twice is a no-op.
func (fs *FileSource) Close() error {
	if fs.closed {
		return nil
	}
	fs.closed = true
	fs.dec.Close()
	return nil
}
