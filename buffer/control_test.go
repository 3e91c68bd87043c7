package buffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/masa/events"
)

func TestEngine_SetFPS_Floor(t *testing.T) {
	e, _ := newTestEngine(t, 5)

	e.SetFPS(1)
	assert.Equal(t, MinFPS, e.State().FPS)
	e.SetFPS(48)
	assert.Equal(t, 48, e.State().FPS)
}

func TestWithFPS_Floor(t *testing.T) {
	e, _ := newTestEngine(t, 5, WithFPS(0))
	st := e.State()
	assert.Equal(t, MinFPS, st.FPS)
	assert.Equal(t, MinFPS, st.DefaultFPS)
}

func TestEngine_IncreaseFPS(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		factor float64
		want   int
	}{
		{"factor two", 30, 2, 45},
		{"factor one doubles", 30, 1, 60},
		{"rounds up", 10, 3, 14},
		{"small factor", 30, 0.5, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, 5, WithFPS(tt.start))
			e.IncreaseFPS(tt.factor)
			assert.Equal(t, tt.want, e.State().FPS)
		})
	}
}

func TestEngine_DecreaseFPS(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		factor float64
		want   int
	}{
		{"factor two", 30, 2, 15},
		{"truncates", 10, 3, 6},
		{"floors at minimum", 4, 2, MinFPS},
		{"factor below one", 30, 0.5, MinFPS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, 5, WithFPS(tt.start))
			e.DecreaseFPS(tt.factor)
			assert.Equal(t, tt.want, e.State().FPS)
		})
	}
}

func TestEngine_RateFactorIgnoredWhenNonPositive(t *testing.T) {
	e, _ := newTestEngine(t, 5, WithFPS(20))
	rec := record(t, e)

	e.IncreaseFPS(0)
	e.DecreaseFPS(-1)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 20, e.State().FPS)
	assert.False(t, rec.has(events.KindRateChanged))
}

func TestEngine_IncreaseThenDecreaseNeverExceedsStart(t *testing.T) {
	e, _ := newTestEngine(t, 5)
	factors := []float64{0.25, 0.5, 1, 1.5, 2, 3, 7, 10, 100}

	for fps := MinFPS; fps <= 240; fps++ {
		for _, f := range factors {
			e.SetFPS(fps)
			e.IncreaseFPS(f)
			assert.GreaterOrEqual(t, e.State().FPS, fps)
			e.DecreaseFPS(f)
			got := e.State().FPS
			assert.LessOrEqual(t, got, fps, "fps=%d factor=%v", fps, f)
			assert.GreaterOrEqual(t, got, MinFPS)
		}
	}
}

func TestEngine_ResetFPS(t *testing.T) {
	e, _ := newTestEngine(t, 5, WithFPS(25))
	rec := record(t, e)

	e.IncreaseFPS(2)
	e.ResetFPS()
	assert.Equal(t, 25, e.State().FPS)

	require.Eventually(t, func() bool { return len(rec.ofKind(events.KindRateChanged)) == 2 },
		time.Second, 5*time.Millisecond)
	changes := rec.ofKind(events.KindRateChanged)
	assert.Equal(t, 38, changes[0].FPS)
	assert.Equal(t, 25, changes[1].FPS)
}
