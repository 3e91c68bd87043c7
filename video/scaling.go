package video

import (
	"fmt"

	"golang.org/x/image/draw"
)

// Scaler resizes RGBA frames.
//
// The default interpolator is Catmull-Rom, a cubic kernel that keeps edges
// sharper than bilinear filtering when frames are shrunk for display.
type Scaler struct {
	interpolator draw.Interpolator
}

// NewScaler creates a scaler using Catmull-Rom interpolation.
func NewScaler() *Scaler {
	return &Scaler{interpolator: draw.CatmullRom}
}

// NewScalerWithInterpolator creates a scaler with a caller-chosen kernel,
// such as draw.BiLinear or draw.NearestNeighbor.
func NewScalerWithInterpolator(interpolator draw.Interpolator) *Scaler {
	if interpolator == nil {
		interpolator = draw.CatmullRom
	}
	return &Scaler{interpolator: interpolator}
}

// Scale resizes a frame to the specified dimensions.
//
// The result never shares pixel storage with the source frame; when no
// resize is needed a copy is returned.
func (s *Scaler) Scale(frame *Frame, targetWidth, targetHeight int) (*Frame, error) {
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source frame: %w", err)
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return nil, fmt.Errorf("%w: target %dx%d", ErrInvalidDimensions, targetWidth, targetHeight)
	}

	if !s.IsScalingRequired(frame.Width, frame.Height, targetWidth, targetHeight) {
		return frame.Clone(), nil
	}

	result := NewFrame(targetWidth, targetHeight)
	dst := result.Image()
	src := frame.Image()
	s.interpolator.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return result, nil
}

// GetScaleFactors calculates the scaling factors for given dimensions.
func (s *Scaler) GetScaleFactors(srcWidth, srcHeight, dstWidth, dstHeight int) (xFactor, yFactor float64) {
	xFactor = float64(dstWidth) / float64(srcWidth)
	yFactor = float64(dstHeight) / float64(srcHeight)
	return
}

// IsScalingRequired checks if scaling is needed for given dimensions.
func (s *Scaler) IsScalingRequired(srcWidth, srcHeight, dstWidth, dstHeight int) bool {
	return srcWidth != dstWidth || srcHeight != dstHeight
}
