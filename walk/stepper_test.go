package walk

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/ZombyDogs/syropod-highlevel-controller/bezier"
	"github.com/ZombyDogs/syropod-highlevel-controller/gait"
)

func testTiming(t *testing.T) *gait.Timing {
	t.Helper()
	timing, err := gait.New(gait.Params{
		StancePhase:       2,
		SwingPhase:        2,
		PhaseOffset:       2,
		StepFrequency:     1.0,
		OffsetMultipliers: []int{0, 1},
	}, 0.02)
	test.That(t, err, test.ShouldBeNil)
	return timing
}

// steadyStateStepper builds a stepper mid walk with its stance curve
// populated the way a full cycle would leave it.
func steadyStateStepper(t *testing.T, timing *gait.Timing, stride r3.Vector, swingHeight, stanceDepth float64) *LegStepper {
	t.Helper()
	defaultTip := r3.Vector{X: 0.25, Y: 0.15, Z: -0.2}
	s := newLegStepper(0, timing, defaultTip, swingHeight, stanceDepth, false)
	s.completedFirstStep = true
	s.strideVector = stride

	stanceLength := timing.PhaseLength - timing.SwingLength()
	s.stanceDeltaT = timing.StanceDeltaT(stanceLength)
	s.swingDeltaT = timing.SwingDeltaT(timing.SwingLength())
	s.stanceOriginTipPosition = defaultTip.Add(stride.Mul(0.5))
	s.generateStanceControlNodes(stride)
	s.swingOriginTipPosition = s.stanceNodes[4]
	s.generateSwingControlNodes()
	return s
}

// Per tick motion at a curve boundary: derivative scaled by that curve's
// parameter increment.
func tickVelocity(nodes *[5]r3.Vector, tt, deltaT float64) r3.Vector {
	return bezier.QuarticDerivative(nodes, tt).Mul(deltaT)
}

func tickAcceleration(nodes *[5]r3.Vector, tt, deltaT float64) r3.Vector {
	return bezier.QuarticSecondDerivative(nodes, tt).Mul(deltaT * deltaT)
}

func TestSwingStanceContinuity(t *testing.T) {
	timing := testTiming(t)
	for _, stride := range []r3.Vector{
		{},
		{X: 0.08, Y: -0.02},
		{X: -0.05, Y: 0.06},
	} {
		for _, swingHeight := range []float64{0.0, 0.05, 0.12} {
			s := steadyStateStepper(t, timing, stride, swingHeight, 0.01)

			// Stance exit into primary swing.
			test.That(t, s.swing1Nodes[0].Sub(s.stanceNodes[4]).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
			vOut := tickVelocity(&s.stanceNodes, 1, s.stanceDeltaT)
			vIn := tickVelocity(&s.swing1Nodes, 0, s.swingDeltaT)
			test.That(t, vOut.Sub(vIn).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
			aOut := tickAcceleration(&s.stanceNodes, 1, s.stanceDeltaT)
			aIn := tickAcceleration(&s.swing1Nodes, 0, s.swingDeltaT)
			test.That(t, aOut.Sub(aIn).Norm(), test.ShouldAlmostEqual, 0, 1e-12)

			// Primary into secondary swing.
			test.That(t, s.swing2Nodes[0].Sub(s.swing1Nodes[4]).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
			vOut = tickVelocity(&s.swing1Nodes, 1, s.swingDeltaT)
			vIn = tickVelocity(&s.swing2Nodes, 0, s.swingDeltaT)
			test.That(t, vOut.Sub(vIn).Norm(), test.ShouldAlmostEqual, 0, 1e-12)

			// Secondary swing into the next stance.
			test.That(t, s.swing2Nodes[4].Sub(s.stanceNodes[0]).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
			vOut = tickVelocity(&s.swing2Nodes, 1, s.swingDeltaT)
			vIn = tickVelocity(&s.stanceNodes, 0, s.stanceDeltaT)
			test.That(t, vOut.Sub(vIn).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
			aOut = tickAcceleration(&s.swing2Nodes, 1, s.swingDeltaT)
			aIn = tickAcceleration(&s.stanceNodes, 0, s.stanceDeltaT)
			test.That(t, aOut.Sub(aIn).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
		}
	}
}

func TestMidSwingAccelerationContinuitySymmetric(t *testing.T) {
	// The midpoint node placement only guarantees C2 between the two swing
	// halves when the curves are symmetric, i.e. a step in place.
	timing := testTiming(t)
	s := steadyStateStepper(t, timing, r3.Vector{}, 0.07, 0.0)
	aOut := tickAcceleration(&s.swing1Nodes, 1, s.swingDeltaT)
	aIn := tickAcceleration(&s.swing2Nodes, 0, s.swingDeltaT)
	test.That(t, aOut.Sub(aIn).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
}

// runCycle advances the stepper through one full step cycle the way the walk
// controller would during steady moving, starting at the beginning of stance.
func runCycle(s *LegStepper, timing *gait.Timing, onTick func()) {
	s.phase = -1
	for i := 0; i < timing.PhaseLength; i++ {
		s.phase = (s.phase + 1) % timing.PhaseLength
		if s.phase >= timing.SwingStart && s.phase < timing.SwingEnd {
			s.stepState = StepSwing
		} else {
			s.stepState = StepStance
		}
		s.updatePosition(StateMoving)
		if onTick != nil {
			onTick()
		}
	}
}

func TestStepInPlace(t *testing.T) {
	// Zero stride must still lift to the swing height and return to the
	// default tip position.
	timing := testTiming(t)
	const swingHeight = 0.1
	defaultTip := r3.Vector{X: 0.25, Y: 0.15, Z: -0.2}
	s := newLegStepper(0, timing, defaultTip, swingHeight, 0.0, false)
	s.completedFirstStep = true

	maxZ := math.Inf(-1)
	runCycle(s, timing, func() {
		maxZ = math.Max(maxZ, s.currentTipPosition.Z)
		// A step in place never moves horizontally.
		test.That(t, s.currentTipPosition.X, test.ShouldAlmostEqual, defaultTip.X, 1e-9)
		test.That(t, s.currentTipPosition.Y, test.ShouldAlmostEqual, defaultTip.Y, 1e-9)
	})

	test.That(t, maxZ, test.ShouldAlmostEqual, defaultTip.Z+swingHeight, 0.01)
	test.That(t, s.currentTipPosition.Sub(defaultTip).Norm(), test.ShouldAlmostEqual, 0, 0.01)
}

func TestClosedTrajectoryUnderConstantStride(t *testing.T) {
	timing := testTiming(t)
	stride := r3.Vector{X: 0.08, Y: -0.03}
	defaultTip := r3.Vector{X: 0.25, Y: 0.15, Z: -0.2}
	s := newLegStepper(0, timing, defaultTip, 0.06, 0.005, false)
	s.completedFirstStep = true
	s.strideVector = stride

	// Steady state stance begins half a stride ahead of the default tip.
	start := defaultTip.Add(stride.Mul(0.5))
	s.currentTipPosition = start

	runCycle(s, timing, nil)
	test.That(t, s.currentTipPosition.Sub(start).Norm(), test.ShouldAlmostEqual, 0, 0.01)
}

func TestProgressAccessors(t *testing.T) {
	timing := testTiming(t)
	s := newLegStepper(0, timing, r3.Vector{Z: -0.2}, 0.05, 0.0, false)
	s.completedFirstStep = true

	runCycle(s, timing, func() {
		if s.stepState == StepSwing {
			test.That(t, s.SwingProgress(), test.ShouldBeGreaterThan, 0)
			test.That(t, s.SwingProgress(), test.ShouldBeLessThanOrEqualTo, 1)
			test.That(t, s.StanceProgress(), test.ShouldEqual, -1)
		} else {
			test.That(t, s.StanceProgress(), test.ShouldBeGreaterThan, 0)
			test.That(t, s.StanceProgress(), test.ShouldBeLessThanOrEqualTo, 1)
			test.That(t, s.SwingProgress(), test.ShouldEqual, -1)
		}
	})
}

func TestTraceHookObservesBothRegimes(t *testing.T) {
	timing := testTiming(t)
	s := newLegStepper(1, timing, r3.Vector{Z: -0.2}, 0.05, 0.0, false)
	s.completedFirstStep = true

	seen := map[StepState]int{}
	s.trace = func(legIndex int, state StepState, iteration int, tt float64, origin, position, target r3.Vector) {
		test.That(t, legIndex, test.ShouldEqual, 1)
		seen[state]++
	}
	runCycle(s, timing, nil)
	test.That(t, seen[StepSwing], test.ShouldEqual, timing.SwingLength())
	test.That(t, seen[StepStance], test.ShouldEqual, timing.PhaseLength-timing.SwingLength())
}
