package walk

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ZombyDogs/syropod-highlevel-controller/bezier"
	"github.com/ZombyDogs/syropod-highlevel-controller/gait"
)

// TraceFunc observes per tick trajectory generation for any leg. It replaces
// conditional debug logging tied to a fixed leg identity; install one with
// WalkController.SetTrace.
type TraceFunc func(legIndex int, state StepState, iteration int, t float64, origin, position, target r3.Vector)

// LegStepper generates the tip trajectory of a single leg across its step
// cycle using three quartic Bézier curves: a primary and secondary curve for
// the swing period and one for the stance period. Control nodes are chosen so
// the combined trajectory is C2 smooth around the full cycle.
type LegStepper struct {
	legIndex int
	timing   *gait.Timing

	swingHeight      float64
	stanceDepth      float64
	scaleFinalStance bool
	trace            TraceFunc

	phase       int
	phaseOffset int
	stepState   StepState

	atCorrectPhase     bool
	completedFirstStep bool

	swingProgress  float64
	stanceProgress float64

	strideVector r3.Vector

	defaultTipPosition      r3.Vector
	currentTipPosition      r3.Vector
	currentTipVelocity      r3.Vector
	swingOriginTipPosition  r3.Vector
	stanceOriginTipPosition r3.Vector

	swing1Nodes [5]r3.Vector
	swing2Nodes [5]r3.Vector
	stanceNodes [5]r3.Vector

	swingDeltaT  float64
	stanceDeltaT float64
}

func newLegStepper(legIndex int, timing *gait.Timing, identityTipPosition r3.Vector, swingHeight, stanceDepth float64, scaleFinalStance bool) *LegStepper {
	return &LegStepper{
		legIndex:           legIndex,
		timing:             timing,
		swingHeight:        swingHeight,
		stanceDepth:        stanceDepth,
		scaleFinalStance:   scaleFinalStance,
		phaseOffset:        timing.LegPhaseOffset(legIndex),
		stepState:          StepStance,
		swingProgress:      -1.0,
		stanceProgress:     -1.0,
		defaultTipPosition: identityTipPosition,
		currentTipPosition: identityTipPosition,
	}
}

// Phase returns the current position in the step cycle.
func (s *LegStepper) Phase() int { return s.phase }

// PhaseOffset returns this leg's fixed offset from phase zero.
func (s *LegStepper) PhaseOffset() int { return s.phaseOffset }

// StepState returns the current trajectory regime.
func (s *LegStepper) StepState() StepState { return s.stepState }

// CurrentTipPosition returns the tip position in the robot frame.
func (s *LegStepper) CurrentTipPosition() r3.Vector { return s.currentTipPosition }

// DefaultTipPosition returns the resting tip position the cycle is based on.
func (s *LegStepper) DefaultTipPosition() r3.Vector { return s.defaultTipPosition }

// TipVelocity returns the tip velocity of the last tick.
func (s *LegStepper) TipVelocity() r3.Vector { return s.currentTipVelocity }

// StrideVector returns the horizontal displacement this leg covers during one
// stance period.
func (s *LegStepper) StrideVector() r3.Vector { return s.strideVector }

// AtCorrectPhase reports whether the leg has reached the phase required by
// the current walk state transition.
func (s *LegStepper) AtCorrectPhase() bool { return s.atCorrectPhase }

// HasCompletedFirstStep reports whether the leg finished a full step since
// the walk state left stopped.
func (s *LegStepper) HasCompletedFirstStep() bool { return s.completedFirstStep }

// SwingProgress returns progress through the swing period in [0,1], or -1
// outside swing.
func (s *LegStepper) SwingProgress() float64 { return s.swingProgress }

// StanceProgress returns progress through the stance period in [0,1], or -1
// outside stance.
func (s *LegStepper) StanceProgress() float64 { return s.stanceProgress }

// updateTiming rebinds the stepper to a freshly quantized step cycle.
func (s *LegStepper) updateTiming(timing *gait.Timing) {
	s.timing = timing
	s.phaseOffset = timing.LegPhaseOffset(s.legIndex)
}

// updatePosition advances the tip one tick along the trajectory for the
// current step state. Positions move by the curve derivative scaled by the
// per tick parameter increment, so the tip velocity is continuous across
// curve boundaries.
func (s *LegStepper) updatePosition(walkState WalkState) {
	t := s.timing
	switch s.stepState {
	case StepSwing:
		swingLength := t.SwingLength()
		s.swingDeltaT = t.SwingDeltaT(swingLength)
		numIterations := int(math.Round(2.0 / s.swingDeltaT))
		iteration := s.phase - t.SwingStart + 1

		if iteration == 1 {
			s.swingOriginTipPosition = s.currentTipPosition
		}

		stride := s.strideVector
		var deltaPos r3.Vector
		var tParam float64
		if iteration <= numIterations/2 {
			s.generateSwingControlNodes()
			tParam = float64(iteration) * s.swingDeltaT
			deltaPos = bezier.QuarticDerivative(&s.swing1Nodes, tParam).Mul(s.swingDeltaT)
		} else {
			// Regenerate the upcoming stance curve first: the secondary swing
			// curve's terminal nodes must match the velocity and acceleration
			// it will enter that stance with.
			stanceLength := mod(t.StanceEnd-t.StanceStart, t.PhaseLength)
			s.stanceDeltaT = t.StanceDeltaT(stanceLength)
			s.stanceOriginTipPosition = s.defaultTipPosition.Add(stride.Mul(0.5))
			s.generateStanceControlNodes(stride)

			s.generateSwingControlNodes()
			tParam = float64(iteration-numIterations/2) * s.swingDeltaT
			deltaPos = bezier.QuarticDerivative(&s.swing2Nodes, tParam).Mul(s.swingDeltaT)
		}

		s.currentTipPosition = s.currentTipPosition.Add(deltaPos)
		s.currentTipVelocity = deltaPos.Mul(1.0 / t.TimeDelta)
		s.swingProgress = math.Min(float64(iteration)/float64(numIterations), 1.0)
		s.stanceProgress = -1.0

		if s.trace != nil {
			s.trace(s.legIndex, StepSwing, iteration, tParam,
				s.swingOriginTipPosition, s.currentTipPosition, s.swing2Nodes[4])
		}

	case StepStance:
		stanceStart := t.StanceStart
		partialStance := !s.completedFirstStep
		// Policy hook: optionally treat the final stance while stopping like
		// the partial first stance after starting.
		if s.scaleFinalStance && walkState == StateStopping && !s.atCorrectPhase {
			partialStance = true
		}
		if partialStance {
			stanceStart = s.phaseOffset
		}
		stanceLength := mod(t.StanceEnd-stanceStart, t.PhaseLength)
		if stanceLength == 0 {
			stanceLength = t.PhaseLength - t.SwingLength()
		}
		s.stanceDeltaT = t.StanceDeltaT(stanceLength)
		numIterations := int(math.Round(1.0 / s.stanceDeltaT))
		iteration := mod(s.phase+(t.PhaseLength-stanceStart), t.PhaseLength) + 1

		if iteration == 1 {
			s.stanceOriginTipPosition = s.currentTipPosition
		}

		// A partial stance covers proportionally less stride than a nominal
		// one, correctly sizing the first step after starting.
		nominalStanceLength := mod(t.SwingStart-t.SwingEnd, t.PhaseLength)
		stride := s.strideVector.Mul(float64(stanceLength) / float64(nominalStanceLength))
		s.generateStanceControlNodes(stride)

		tParam := float64(iteration) * s.stanceDeltaT
		deltaPos := bezier.QuarticDerivative(&s.stanceNodes, tParam).Mul(s.stanceDeltaT)

		s.currentTipPosition = s.currentTipPosition.Add(deltaPos)
		s.currentTipVelocity = deltaPos.Mul(1.0 / t.TimeDelta)
		s.stanceProgress = math.Min(float64(iteration)/float64(numIterations), 1.0)
		s.swingProgress = -1.0

		if s.trace != nil {
			s.trace(s.legIndex, StepStance, iteration, tParam,
				s.stanceOriginTipPosition, s.currentTipPosition, s.stanceNodes[4])
		}

	default:
		// Forced states hold the tip in place.
		s.currentTipVelocity = r3.Vector{}
		s.swingProgress = -1.0
		s.stanceProgress = -1.0
	}
}

// generateSwingControlNodes builds both swing curves from the current stance
// curve so position, velocity and acceleration are continuous at every
// segment boundary. The horizontal and vertical planes are parameterized
// independently: horizontally the apex lands on the default tip position,
// vertically it lands the swing height above the swing origin.
func (s *LegStepper) generateSwingControlNodes() {
	// The stance curve advances its parameter at a different rate, so node
	// differences borrowed from it scale by the delta-t ratio.
	bezierScaler := s.stanceDeltaT / s.swingDeltaT

	st := &s.stanceNodes
	sw1 := &s.swing1Nodes
	sw2 := &s.swing2Nodes

	// Horizontal plane.
	sw1[0] = s.swingOriginTipPosition                          // C0 with stance exit
	sw1[1] = sw1[0].Add(st[4].Sub(st[3]).Mul(bezierScaler))    // C1 with stance exit
	sw1[2] = sw1[1].Add(sw1[1].Sub(sw1[0]))                    // C2 with stance exit
	sw1[4] = s.defaultTipPosition                              // apex at default tip position
	sw1[3] = sw1[2].Add(sw1[4]).Mul(0.5)                       // C2 between swing halves (symmetric curves only)

	sw2[0] = sw1[4]                                            // C0 between swing halves
	sw2[1] = sw2[0].Add(sw2[0].Sub(sw1[3]))                    // C1 between swing halves
	sw2[3] = st[0].Add(st[0].Sub(st[1]).Mul(bezierScaler))     // C1 with stance entry
	sw2[2] = sw2[3].Add(sw2[3].Sub(st[0]))                     // C2 with stance entry
	sw2[4] = st[0]                                             // C0 with stance entry

	// Vertical plane.
	stanceExitRate := st[4].Z - st[3].Z
	stanceEntryRate := st[0].Z - st[1].Z
	sw1[0].Z = s.swingOriginTipPosition.Z
	sw1[1].Z = sw1[0].Z + bezierScaler*stanceExitRate
	sw1[4].Z = sw1[0].Z + s.swingHeight
	sw1[2].Z = sw1[0].Z + 2.0*bezierScaler*stanceExitRate
	sw1[3].Z = sw1[4].Z

	sw2[0].Z = sw1[4].Z
	sw2[1].Z = sw2[0].Z
	sw2[2].Z = st[0].Z + 2.0*bezierScaler*stanceEntryRate
	sw2[3].Z = st[0].Z + bezierScaler*stanceEntryRate
	sw2[4].Z = st[0].Z
}

// generateStanceControlNodes builds the stance curve: evenly spaced
// horizontal nodes between stance entry and exit for constant horizontal
// velocity, with the vertical profile dipping to the stance depth at the
// midpoint node.
func (s *LegStepper) generateStanceControlNodes(stride r3.Vector) {
	st := &s.stanceNodes

	// Horizontal plane.
	st[0] = s.stanceOriginTipPosition
	st[4] = s.stanceOriginTipPosition.Sub(stride)
	span := st[0].Sub(st[4])
	st[1] = st[4].Add(span.Mul(0.75))
	st[2] = st[4].Add(span.Mul(0.5))
	st[3] = st[4].Add(span.Mul(0.25))

	// Vertical plane.
	st[0].Z = s.stanceOriginTipPosition.Z
	st[4].Z = s.defaultTipPosition.Z
	st[2].Z = st[0].Z - s.stanceDepth
	st[1].Z = (st[0].Z + st[2].Z) / 2.0
	st[3].Z = (st[4].Z + st[2].Z) / 2.0
}

// mod returns a modulo b, wrapped into [0,b).
func mod(a, b int) int {
	return ((a % b) + b) % b
}
