package preview

import (
	"fmt"

	"github.com/opd-ai/masa/buffer"
	"github.com/opd-ai/masa/events"
)

// Controller is the engine surface the preview server drives.
// *buffer.Engine implements it.
type Controller interface {
	Play()
	Pause()
	Stop()
	TogglePlay() bool
	JumpTo(index int)
	ValidIndex(index int) bool
	SetDirection(backward bool)
	SetFPS(fps int)
	IncreaseFPS(factor float64)
	DecreaseFPS(factor float64)
	ResetFPS()
	SelectRegion(rect buffer.NormalizedRect) error
	State() buffer.PlaybackState
	Subscribe(handler events.Handler, kinds ...events.Kind) (string, error)
	Unsubscribe(id string) error
}

// DefaultRateFactor is used by fps_up and fps_down when no factor is sent.
const DefaultRateFactor = 2.0

// apply runs cmd against ctrl.
func apply(ctrl Controller, cmd Command) error {
	switch cmd.Cmd {
	case CmdPlay:
		ctrl.Play()
	case CmdPause:
		ctrl.Pause()
	case CmdStop:
		ctrl.Stop()
	case CmdToggle:
		ctrl.TogglePlay()
	case CmdJump:
		if !ctrl.ValidIndex(cmd.Index) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, cmd.Index)
		}
		ctrl.JumpTo(cmd.Index)
	case CmdDirection:
		ctrl.SetDirection(cmd.Backward)
	case CmdFPS:
		ctrl.SetFPS(cmd.FPS)
	case CmdFPSUp:
		ctrl.IncreaseFPS(rateFactor(cmd.Factor))
	case CmdFPSDown:
		ctrl.DecreaseFPS(rateFactor(cmd.Factor))
	case CmdFPSReset:
		ctrl.ResetFPS()
	case CmdRegion:
		return ctrl.SelectRegion(buffer.NormalizedRect{X1: cmd.X1, Y1: cmd.Y1, X2: cmd.X2, Y2: cmd.Y2})
	case CmdState:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Cmd)
	}
	return nil
}

func rateFactor(f float64) float64 {
	if f <= 0 {
		return DefaultRateFactor
	}
	return f
}
