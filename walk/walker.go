package walk

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ZombyDogs/syropod-highlevel-controller/gait"
	"github.com/ZombyDogs/syropod-highlevel-controller/robotmodel"
)

// speedTolerance is the allowed overshoot on normalised speed inputs before
// a tick is rejected.
const speedTolerance = 0.01

// Pose is the integrated planar body odometry exposed for telemetry
// consumers.
type Pose struct {
	Position r3.Vector
	Yaw      float64
}

// WalkController owns one LegStepper per leg and converts normalised body
// velocity commands into per leg stride vectors and tip trajectories. Update
// must be called exactly once per control tick; nothing here blocks or spawns
// concurrent work.
type WalkController struct {
	cfg    Config
	model  *robotmodel.Model
	logger golog.Logger

	timing    *gait.Timing
	workspace *workspace
	steppers  []*LegStepper

	applier      robotmodel.PositionApplier
	referenceLeg int

	walkState           WalkState
	localCentreVelocity r2.Point
	angularVelocity     float64
	maxAcceleration     float64

	legsAtCorrectPhase     int
	legsCompletedFirstStep int

	pose Pose
}

// NewWalkController derives the stance geometry and step cycle timing and
// creates a stepper per leg. It fails before any tick runs if the geometry
// cannot support the requested clearances.
func NewWalkController(model *robotmodel.Model, cfg Config, logger golog.Logger) (*WalkController, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Gait.OffsetMultipliers) != len(model.Legs) {
		return nil, errors.Errorf("gait has %d offset multipliers for %d legs",
			len(cfg.Gait.OffsetMultipliers), len(model.Legs))
	}

	ws, err := newWorkspace(model, &cfg)
	if err != nil {
		return nil, err
	}

	w := &WalkController{
		cfg:       cfg,
		model:     model,
		logger:    logger,
		workspace: ws,
		walkState: StateStopped,
	}
	if err := w.SetGaitParams(cfg.Gait); err != nil {
		return nil, err
	}

	w.steppers = make([]*LegStepper, len(model.Legs))
	for i := range model.Legs {
		w.steppers[i] = newLegStepper(i, w.timing, ws.identityTipPositions[i],
			cfg.StepClearance*ws.maxBodyHeight, cfg.StepDepth*ws.maxBodyHeight, cfg.ScaleFinalStance)
		model.Legs[i].LocalTipPosition = ws.identityTipPositions[i]
	}

	logger.Infow("walk controller initialised",
		"legs", len(model.Legs),
		"gait", cfg.Gait.Name,
		"phase_length", w.timing.PhaseLength,
		"footprint_radius", ws.footprintRadius,
		"max_body_height", ws.maxBodyHeight,
	)
	return w, nil
}

// SetGaitParams requantizes the step cycle for new gait parameters. It must
// be called between ticks; steppers observe the new timing wholesale on the
// next tick.
func (w *WalkController) SetGaitParams(p gait.Params) error {
	timing, err := gait.New(p, w.cfg.TimeDelta)
	if err != nil {
		return err
	}
	if len(p.OffsetMultipliers) != len(w.model.Legs) {
		return errors.Errorf("gait has %d offset multipliers for %d legs",
			len(p.OffsetMultipliers), len(w.model.Legs))
	}
	w.cfg.Gait = p
	w.timing = timing

	if w.cfg.MaxAcceleration != nil {
		w.maxAcceleration = *w.cfg.MaxAcceleration
	} else {
		// Largest acceleration that keeps the last leg to lift within one
		// footprint radius before its first swing begins (s = at²/2).
		rampTicks := float64(timing.PhaseLength) - float64(timing.SwingLength())*0.5
		rampTime := rampTicks * w.cfg.TimeDelta
		w.maxAcceleration = 2.0 * w.workspace.footprintRadius / (rampTime * rampTime)
	}

	for _, stepper := range w.steppers {
		stepper.updateTiming(timing)
	}
	return nil
}

// SetPositionApplier installs the inverse kinematics/actuation stage invoked
// with each leg's tip position every tick.
func (w *WalkController) SetPositionApplier(applier robotmodel.PositionApplier) {
	w.applier = applier
}

// SetTrace installs a trajectory tracing hook on every leg.
func (w *WalkController) SetTrace(trace TraceFunc) {
	for _, stepper := range w.steppers {
		stepper.trace = trace
	}
}

// WalkState returns the robot level gait state.
func (w *WalkController) WalkState() WalkState { return w.walkState }

// PhaseLength returns the tick count of one step cycle.
func (w *WalkController) PhaseLength() int { return w.timing.PhaseLength }

// SwingStart returns the phase at which the swing period starts.
func (w *WalkController) SwingStart() int { return w.timing.SwingStart }

// SwingEnd returns the phase at which the swing period ends.
func (w *WalkController) SwingEnd() int { return w.timing.SwingEnd }

// StanceStart returns the phase at which the stance period starts.
func (w *WalkController) StanceStart() int { return w.timing.StanceStart }

// StanceEnd returns the phase at which the stance period ends.
func (w *WalkController) StanceEnd() int { return w.timing.StanceEnd }

// StepFrequency returns the quantization corrected step frequency.
func (w *WalkController) StepFrequency() float64 { return w.timing.StepFrequency }

// WorkspaceRadius returns the usable footprint radius shared by all legs.
func (w *WalkController) WorkspaceRadius() float64 { return w.workspace.footprintRadius }

// StanceRadius returns the turning circle radius used to convert angular
// velocity commands into linear stride at the outermost leg.
func (w *WalkController) StanceRadius() float64 { return w.workspace.stanceRadius }

// MaxBodyHeight returns the highest body elevation the leg geometry supports.
func (w *WalkController) MaxBodyHeight() float64 { return w.workspace.maxBodyHeight }

// BodyClearance returns the body height ratio the controller walks at.
func (w *WalkController) BodyClearance() float64 { return w.workspace.bodyClearance }

// BodyVelocity returns the acceleration limited linear and angular body
// velocity currently tracked.
func (w *WalkController) BodyVelocity() (r2.Point, float64) {
	return w.localCentreVelocity, w.angularVelocity
}

// BodyPose returns the integrated planar odometry pose.
func (w *WalkController) BodyPose() Pose { return w.pose }

// Stepper returns the stepper for leg i.
func (w *WalkController) Stepper(i int) *LegStepper { return w.steppers[i] }

// Update advances the walk one control tick. The normalised velocity input
// has components in [-1,1] with magnitude at most 1; curvature selects the
// blend between straight line motion and turning. Tip positions are handed to
// the position applier when one is installed.
func (w *WalkController) Update(normalisedVelocity r2.Point, curvature float64) error {
	if normalisedVelocity.Norm() > 1.0+speedTolerance {
		return errors.Wrapf(ErrSpeedOutOfRange, "input magnitude %.3f", normalisedVelocity.Norm())
	}

	t := w.timing
	onGroundRatio := float64(t.PhaseLength-t.SwingLength()) / float64(t.PhaseLength)

	// A full magnitude input commands the maximum speed the step cycle can
	// sustain for the usable footprint.
	var localVelocity r2.Point
	if w.walkState != StateStopping {
		localVelocity = normalisedVelocity.Mul(2.0 * w.workspace.footprintRadius * t.StepFrequency / onGroundRatio)
	}
	speed := localVelocity.Norm()

	// Turning rate refers to the outermost leg so turning on the spot still
	// has a meaningful speed argument.
	targetAngularVelocity := curvature * speed / w.workspace.stanceRadius
	if diff := targetAngularVelocity - w.angularVelocity; diff != 0 {
		w.angularVelocity += diff * math.Min(1.0, w.cfg.MaxCurvatureSpeed*w.cfg.TimeDelta/math.Abs(diff))
	}

	centralVelocity := localVelocity.Mul(1.0 - math.Abs(curvature))
	if accel := centralVelocity.Sub(w.localCentreVelocity); accel.Norm() > 0 {
		w.localCentreVelocity = w.localCentreVelocity.Add(
			accel.Mul(math.Min(1.0, w.maxAcceleration*w.cfg.TimeDelta/accel.Norm())))
	}

	w.updateWalkState(speed)
	w.coordinateLegs()
	w.deriveStepStates()

	var err error
	for i, stepper := range w.steppers {
		if w.walkState != StateStopped {
			stepper.updatePosition(w.walkState)
		}
		w.model.Legs[i].LocalTipPosition = stepper.currentTipPosition
		if w.applier != nil {
			if applyErr := w.applier.ApplyPosition(i, stepper.currentTipPosition, stepper.currentTipVelocity); applyErr != nil {
				err = errors.Wrapf(applyErr, "applying tip position for leg %d", i)
			}
		}
	}

	// Integrate planar odometry for telemetry consumers.
	push := w.localCentreVelocity.Mul(w.cfg.TimeDelta)
	sin, cos := math.Sincos(w.pose.Yaw)
	w.pose.Position = w.pose.Position.Add(r3.Vector{
		X: push.X*cos - push.Y*sin,
		Y: push.X*sin + push.Y*cos,
	})
	w.pose.Yaw -= w.angularVelocity * w.cfg.TimeDelta

	return err
}

// updateWalkState runs the robot level state machine off the commanded speed
// and the leg coordination counters.
func (w *WalkController) updateWalkState(speed float64) {
	switch {
	case w.walkState == StateStopped && speed > 0:
		w.walkState = StateStarting
		// Seed each leg one tick before its offset so every cycle begins at
		// the correct relative phase.
		for _, stepper := range w.steppers {
			stepper.phase = stepper.phaseOffset - 1
		}
		w.logger.Debugw("walk state transition", "from", StateStopped, "to", StateStarting)

	case w.walkState == StateStarting &&
		w.legsAtCorrectPhase == len(w.steppers) && w.legsCompletedFirstStep == len(w.steppers):
		w.legsAtCorrectPhase = 0
		w.legsCompletedFirstStep = 0
		w.walkState = StateMoving
		w.logger.Debugw("walk state transition", "from", StateStarting, "to", StateMoving)

	case w.walkState == StateMoving && speed == 0:
		w.walkState = StateStopping
		w.logger.Debugw("walk state transition", "from", StateMoving, "to", StateStopping)

	case w.walkState == StateStopping && w.legsAtCorrectPhase == len(w.steppers):
		w.legsAtCorrectPhase = 0
		w.walkState = StateStopped
		w.logger.Debugw("walk state transition", "from", StateStopping, "to", StateStopped)
	}
}

// coordinateLegs iterates phases and maintains the per leg coordination flags
// for the current walk state, recomputing stride vectors along the way.
func (w *WalkController) coordinateLegs() {
	t := w.timing
	onGroundRatio := float64(t.PhaseLength-t.SwingLength()) / float64(t.PhaseLength)
	swingEndWrapped := t.SwingEnd % t.PhaseLength

	for i, stepper := range w.steppers {
		// Stride is the body motion at this tip over one on-ground period;
		// the angular term is the leg's planar offset rotated a quarter turn
		// to point along the tangential velocity.
		tip := w.model.Legs[i].LocalTipPosition
		tangential := r2.Point{X: tip.Y, Y: -tip.X}.Mul(w.angularVelocity)
		stride := w.localCentreVelocity.Add(tangential).Mul(onGroundRatio / t.StepFrequency)
		stepper.strideVector = r3.Vector{X: stride.X, Y: stride.Y}

		switch w.walkState {
		case StateStarting:
			stepper.phase = (stepper.phase + 1) % t.PhaseLength

			if w.legsAtCorrectPhase == len(w.steppers) {
				if stepper.phase == swingEndWrapped && !stepper.completedFirstStep {
					stepper.completedFirstStep = true
					w.legsCompletedFirstStep++
				}
			}

			// A leg whose offset lands mid swing is forced into stance until
			// its natural phase reaches the end of the swing window, so it
			// cannot pop into an already advanced swing position.
			if !stepper.atCorrectPhase {
				if stepper.phaseOffset > t.SwingStart && stepper.phaseOffset < t.SwingEnd {
					if stepper.phase == swingEndWrapped {
						stepper.atCorrectPhase = true
						w.legsAtCorrectPhase++
					} else {
						stepper.stepState = StepForceStance
					}
				} else {
					stepper.atCorrectPhase = true
					w.legsAtCorrectPhase++
				}
			}

		case StateStopping:
			if !stepper.atCorrectPhase {
				stepper.phase = (stepper.phase + 1) % t.PhaseLength

				// The reference leg only meets its target after completing
				// its extra step and returning to phase zero.
				if i == w.referenceLeg && stepper.stepState == StepForceStop && stepper.phase == 0 {
					stepper.atCorrectPhase = true
					w.legsAtCorrectPhase++
					stepper.stepState = StepStance
				}
			}

			// Every other leg makes exactly one more step after the stop
			// signal, then freezes at the end of its swing. A leg already at
			// its correct phase keeps the state the release gave it.
			if !stepper.atCorrectPhase && stepper.strideVector.Norm() == 0 && stepper.phase == swingEndWrapped {
				stepper.stepState = StepForceStop
				if i != w.referenceLeg {
					stepper.atCorrectPhase = true
					w.legsAtCorrectPhase++
				}
			}

		case StateMoving:
			stepper.phase = (stepper.phase + 1) % t.PhaseLength
			stepper.atCorrectPhase = false

		case StateStopped:
			stepper.atCorrectPhase = false
			stepper.completedFirstStep = false
			stepper.phase = 0
			stepper.stepState = StepStance
			stepper.currentTipVelocity = r3.Vector{}
		}
	}
}

// deriveStepStates maps each leg's phase onto its step state after the
// coordination pass. Forced states take precedence over the phase windows.
func (w *WalkController) deriveStepStates() {
	t := w.timing
	for _, stepper := range w.steppers {
		switch {
		case stepper.stepState == StepForceStance:
			stepper.stepState = StepStance
		case stepper.stepState == StepForceStop:
			// Holds until the stopping sequence releases it.
		case stepper.phase >= t.SwingStart && stepper.phase < t.SwingEnd:
			stepper.stepState = StepSwing
		default:
			stepper.stepState = StepStance
		}
	}
}
