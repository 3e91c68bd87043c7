package buffer

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/masa/events"
	"github.com/opd-ai/masa/video"
)

func TestNormalizedRect_Canon(t *testing.T) {
	r := NormalizedRect{X1: 0.8, Y1: 1.4, X2: -0.2, Y2: 0.3}.Canon()
	assert.Equal(t, NormalizedRect{X1: 0, Y1: 0.3, X2: 0.8, Y2: 1}, r)
}

func TestNormalizedRect_Scale(t *testing.T) {
	r := NormalizedRect{X1: 0.25, Y1: 0, X2: 0.75, Y2: 0.5}
	assert.Equal(t, image.Rect(16, 0, 48, 24), r.Scale(64, 48))
}

func TestEngine_SelectRegion_NoFrameYet(t *testing.T) {
	e, _ := newTestEngine(t, 5)
	rec := record(t, e)

	require.NoError(t, e.SelectRegion(NormalizedRect{X1: 0.1, Y1: 0.1, X2: 0.5, Y2: 0.5}))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, rec.has(events.KindRegionSelected))
}

func TestEngine_SelectRegion_MapsDisplayAndNative(t *testing.T) {
	e, _ := newScaledEngine(t, 5, 64, 48, video.SizeOptions{Width: 32, Height: 24})
	rec := record(t, e)

	_, err := e.GetFrame(3, true)
	require.NoError(t, err)
	require.NoError(t, e.SelectRegion(NormalizedRect{X1: 0.75, Y1: 0.5, X2: 0.25, Y2: 0}))

	require.Eventually(t, func() bool { return rec.has(events.KindRegionSelected) },
		time.Second, 5*time.Millisecond)
	region := rec.ofKind(events.KindRegionSelected)[0].Region
	require.NotNil(t, region)
	assert.Equal(t, 3, region.Index)
	assert.Equal(t, image.Rect(8, 0, 24, 12), region.Display)
	assert.Equal(t, image.Rect(16, 0, 48, 24), region.Native)
	assert.Equal(t, 32, region.Frame.Width)
	assert.Equal(t, 3, syntheticIndex(t, region.Frame))
}

func TestEngine_SelectRegion_Empty(t *testing.T) {
	e, _ := newTestEngine(t, 5)

	_, err := e.GetFrame(0, false)
	require.NoError(t, err)

	err = e.SelectRegion(NormalizedRect{X1: 0.5, Y1: 0.1, X2: 0.5, Y2: 0.9})
	assert.ErrorIs(t, err, ErrEmptyRegion)
}
