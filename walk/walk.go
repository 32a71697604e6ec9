// Package walk converts desired body velocity into per leg foot tip
// trajectories. A WalkController owns one LegStepper per leg, runs the robot
// and leg level gait state machines, and advances every tip along piecewise
// quartic Bézier curves once per control tick.
package walk

import "github.com/pkg/errors"

// WalkState is the robot level gait state.
type WalkState int

// Robot level gait states.
const (
	StateStopped WalkState = iota
	StateStarting
	StateMoving
	StateStopping
)

func (s WalkState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateMoving:
		return "moving"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// StepState is the per leg trajectory regime.
type StepState int

// Per leg step states. The forced variants exist only while the robot state
// machine coordinates starting and stopping transitions.
const (
	StepStance StepState = iota
	StepSwing
	StepForceStance
	StepForceStop
)

func (s StepState) String() string {
	switch s {
	case StepStance:
		return "stance"
	case StepSwing:
		return "swing"
	case StepForceStance:
		return "force_stance"
	case StepForceStop:
		return "force_stop"
	default:
		return "unknown"
	}
}

// ErrGeometryInfeasible indicates the leg geometry cannot support the
// requested clearances; construction fails before any tick runs.
var ErrGeometryInfeasible = errors.New("geometry infeasible")

// ErrSpeedOutOfRange indicates a normalised speed input with magnitude beyond
// the allowed tolerance; the offending tick is rejected without advancing
// state.
var ErrSpeedOutOfRange = errors.New("normalised speed input out of range")
