package video

import (
	"fmt"
	"math"
)

// SizeOptions describes the display size requested for delivered frames.
//
// A zero Width or Height means "not requested". With PreserveAspect the
// missing dimension is derived from the native aspect ratio, and when both
// are given the frame is fitted inside the Width x Height box.
type SizeOptions struct {
	Width          int
	Height         int
	PreserveAspect bool
}

// CalculateSize computes the target dimensions for a native frame size.
//
// Rules:
//   - no requested dimension: native size
//   - PreserveAspect with one dimension: the other follows the native ratio
//   - PreserveAspect with both: largest size fitting inside the box
//   - without PreserveAspect: each requested dimension replaces the native one
//
// The result is never smaller than 1x1.
func CalculateSize(nativeWidth, nativeHeight int, opts SizeOptions) (width, height int, err error) {
	if nativeWidth <= 0 || nativeHeight <= 0 {
		return 0, 0, fmt.Errorf("%w: native %dx%d", ErrInvalidDimensions, nativeWidth, nativeHeight)
	}
	if opts.Width < 0 || opts.Height < 0 {
		return 0, 0, fmt.Errorf("%w: requested %dx%d", ErrInvalidDimensions, opts.Width, opts.Height)
	}

	width, height = nativeWidth, nativeHeight
	ratio := float64(nativeWidth) / float64(nativeHeight)

	switch {
	case opts.Width == 0 && opts.Height == 0:
	case !opts.PreserveAspect:
		if opts.Width > 0 {
			width = opts.Width
		}
		if opts.Height > 0 {
			height = opts.Height
		}
	case opts.Height == 0:
		width = opts.Width
		height = int(math.Round(float64(opts.Width) / ratio))
	case opts.Width == 0:
		height = opts.Height
		width = int(math.Round(float64(opts.Height) * ratio))
	default:
		scale := math.Min(float64(opts.Width)/float64(nativeWidth), float64(opts.Height)/float64(nativeHeight))
		width = int(math.Round(float64(nativeWidth) * scale))
		height = int(math.Round(float64(nativeHeight) * scale))
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height, nil
}
