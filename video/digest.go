package video

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Digest returns a hex BLAKE2b-256 fingerprint of the frame's dimensions
// and visible pixels. Row padding beyond Width is ignored, so two frames
// with equal content produce equal digests regardless of stride.
func Digest(f *Frame) string {
	if f == nil {
		return ""
	}
	h, _ := blake2b.New256(nil)

	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:4], uint32(f.Width))
	binary.LittleEndian.PutUint32(dims[4:8], uint32(f.Height))
	h.Write(dims[:])

	row := f.Width * bytesPerPixel
	for y := 0; y < f.Height; y++ {
		off := y * f.Stride
		h.Write(f.Pix[off : off+row])
	}
	return hex.EncodeToString(h.Sum(nil))
}
