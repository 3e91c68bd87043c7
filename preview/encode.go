package preview

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/opd-ai/masa/video"
)

// DefaultJPEGQuality is the quality used when none is configured.
const DefaultJPEGQuality = 75

// EncodeJPEG encodes frame as a JPEG image.
func EncodeJPEG(frame *video.Frame, quality int) ([]byte, error) {
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode %dx%d: %w", frame.Width, frame.Height, err)
	}
	return buf.Bytes(), nil
}
