package video

import (
	"fmt"
	"image"
)

// bytesPerPixel is the size of one RGBA pixel.
const bytesPerPixel = 4

// Frame represents a decoded video frame in packed RGBA layout.
//
// Frames handed out by the playback engine are independent copies; a
// consumer may keep or mutate one without affecting the engine.
type Frame struct {
	Width  int
	Height int
	Stride int    // Bytes per row
	Pix    []byte // RGBA samples, row-major
}

// NewFrame allocates a zeroed frame of the given size.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Stride: width * bytesPerPixel,
		Pix:    make([]byte, width*height*bytesPerPixel),
	}
}

// FrameFromImage wraps an RGBA image as a Frame without copying.
func FrameFromImage(img *image.RGBA) *Frame {
	b := img.Bounds()
	return &Frame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: img.Stride,
		Pix:    img.Pix,
	}
}

// FrameFromBuffer copies a packed RGBA buffer of width x height into a new Frame.
func FrameFromBuffer(buf []byte, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	need := width * height * bytesPerPixel
	if len(buf) < need {
		return nil, fmt.Errorf("frame buffer too small: got %d, expected %d", len(buf), need)
	}
	f := NewFrame(width, height)
	copy(f.Pix, buf[:need])
	return f, nil
}

// Image returns an *image.RGBA view sharing the frame's pixel storage.
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Stride,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	return &Frame{
		Width:  f.Width,
		Height: f.Height,
		Stride: f.Stride,
		Pix:    append([]byte(nil), f.Pix...),
	}
}

// Validate checks that the frame dimensions and pixel buffer agree.
func (f *Frame) Validate() error {
	if f == nil {
		return ErrNilFrame
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, f.Width, f.Height)
	}
	if f.Stride < f.Width*bytesPerPixel {
		return fmt.Errorf("stride too small: got %d, expected at least %d", f.Stride, f.Width*bytesPerPixel)
	}
	if len(f.Pix) < (f.Height-1)*f.Stride+f.Width*bytesPerPixel {
		return fmt.Errorf("pixel buffer too small: got %d bytes for %dx%d", len(f.Pix), f.Width, f.Height)
	}
	return nil
}

// At returns the RGBA components of the pixel at (x, y).
func (f *Frame) At(x, y int) (r, g, b, a uint8) {
	i := y*f.Stride + x*bytesPerPixel
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]
}
