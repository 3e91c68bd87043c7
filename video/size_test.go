package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSize(t *testing.T) {
	tests := []struct {
		name         string
		nativeWidth  int
		nativeHeight int
		opts         SizeOptions
		wantWidth    int
		wantHeight   int
	}{
		{"no request keeps native", 640, 320, SizeOptions{}, 640, 320},
		{"no request ignores aspect flag", 640, 320, SizeOptions{PreserveAspect: true}, 640, 320},
		{"width only with aspect", 640, 320, SizeOptions{Width: 320, PreserveAspect: true}, 320, 160},
		{"height only with aspect", 640, 320, SizeOptions{Height: 80, PreserveAspect: true}, 160, 80},
		{"box fit limited by width", 640, 320, SizeOptions{Width: 320, Height: 320, PreserveAspect: true}, 320, 160},
		{"box fit limited by height", 640, 320, SizeOptions{Width: 640, Height: 100, PreserveAspect: true}, 200, 100},
		{"stretch both", 640, 320, SizeOptions{Width: 100, Height: 100}, 100, 100},
		{"stretch width only", 640, 320, SizeOptions{Width: 100}, 100, 320},
		{"tiny result clamps to one", 1000, 10, SizeOptions{Width: 10, PreserveAspect: true}, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := CalculateSize(tt.nativeWidth, tt.nativeHeight, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidth, w)
			assert.Equal(t, tt.wantHeight, h)
		})
	}
}

func TestCalculateSize_InvalidInput(t *testing.T) {
	_, _, err := CalculateSize(0, 10, SizeOptions{})
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	_, _, err = CalculateSize(10, 10, SizeOptions{Width: -1})
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}
