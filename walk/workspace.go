package walk

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ZombyDogs/syropod-highlevel-controller/robotmodel"
)

// The step cycle intentionally overshoots the ground footprint to sustain
// velocity through the swing apex, so usable footprints are shrunk by this
// factor.
const footprintDownscale = 0.8

// workspace holds the stance geometry derived once from leg link lengths and
// joint limits. It changes only when parameters change, never per tick.
type workspace struct {
	maxBodyHeight        float64
	bodyClearance        float64
	footprintRadius      float64
	stanceRadius         float64
	footSpread           []float64
	identityTipPositions []r3.Vector
}

// solvePositiveQuadratic returns the positive root of a*x^2 + b*x + c = 0.
func solvePositiveQuadratic(a, b, c float64) float64 {
	return (-b + math.Sqrt(b*b-4.0*a*c)) / (2.0 * a)
}

// newWorkspace finds the largest circular footprint each leg can trace at the
// configured clearance, the default tip position centred in it, and the body
// height the geometry supports. Legs are assumed to share link
// characteristics when computing the shared maximum body height.
func newWorkspace(model *robotmodel.Model, cfg *Config) (*workspace, error) {
	leg0 := model.Legs[0]
	minKnee := math.Max(0.0, model.MinKneeBend)

	maxHipDrop := math.Min(-model.MinHipLift, math.Pi/2.0-
		math.Atan2(leg0.TibiaLength*math.Sin(minKnee),
			leg0.FemurLength+leg0.TibiaLength*math.Cos(minKnee)))

	kneeAtFullDrop := clamp(math.Pi/2.0-maxHipDrop, minKnee, model.MaxKneeBend)
	maxBodyHeight := leg0.FemurLength*math.Sin(maxHipDrop) +
		leg0.TibiaLength*math.Sin(maxHipDrop+kneeAtFullDrop)

	if cfg.StepClearance*maxBodyHeight > 2.0*leg0.FemurLength {
		return nil, errors.Wrapf(ErrGeometryInfeasible,
			"step clearance %.3fm exceeds twice the femur length %.3fm",
			cfg.StepClearance*maxBodyHeight, leg0.FemurLength)
	}

	bodyClearance := 0.0
	if cfg.BodyClearance != nil {
		bodyClearance = *cfg.BodyClearance
	} else {
		// Best value to maximise the circular footprint for the given step
		// clearance, assuming legs have equal characteristics.
		bodyClearance = model.MinLegLength(0)/maxBodyHeight + cfg.StepCurvatureAllowance*cfg.StepClearance
	}
	if bodyClearance <= 0 || bodyClearance >= 1.0 {
		return nil, errors.Wrapf(ErrGeometryInfeasible, "derived body clearance %.3f outside (0,1)", bodyClearance)
	}

	ws := &workspace{
		maxBodyHeight:        maxBodyHeight,
		bodyClearance:        bodyClearance,
		footprintRadius:      math.Inf(1),
		footSpread:           make([]float64, len(model.Legs)),
		identityTipPositions: make([]r3.Vector, len(model.Legs)),
	}

	clearanceHeight := bodyClearance * maxBodyHeight
	for i, leg := range model.Legs {
		maxLegLength := model.MaxLegLength(i)
		minLegLength := model.MinLegLength(i)

		// Downward angle of the leg when reaching the ground at clearance.
		legDrop := math.Asin(clearanceHeight / maxLegLength)
		horizontalRange := 0.0
		rad := math.Inf(1)

		if legDrop > -model.MinHipLift {
			// Leg cannot be straight while touching the ground: the tibia
			// makes up the extra height and limits the radius directly.
			extraHeight := clearanceHeight - leg.FemurLength*math.Sin(-model.MinHipLift)
			if extraHeight > leg.TibiaLength {
				return nil, errors.Wrapf(ErrGeometryInfeasible,
					"leg %d cannot reach the ground at clearance %.3fm", i, clearanceHeight)
			}
			rad = math.Sqrt(leg.TibiaLength*leg.TibiaLength - extraHeight*extraHeight)
			horizontalRange = leg.FemurLength*math.Cos(-model.MinHipLift) + rad
		} else {
			horizontalRange = math.Sqrt(maxLegLength*maxLegLength - clearanceHeight*clearanceHeight)
		}
		horizontalRange *= cfg.LegSpanScale

		// Largest circle inside the pie sector allowed by the yaw limits.
		cotanTheta := math.Tan(0.5*math.Pi - leg.YawLimit)
		rad = math.Min(rad, solvePositiveQuadratic(cotanTheta*cotanTheta, 2.0*horizontalRange, -horizontalRange*horizontalRange))
		if rad <= 0.0 {
			return nil, errors.Wrapf(ErrGeometryInfeasible, "leg %d footprint radius is non-positive", i)
		}

		// Shrink further if the step clearance needs more reach than the leg
		// has at its minimum length.
		legTipClearance := math.Max(0.0, bodyClearance-cfg.StepCurvatureAllowance*cfg.StepClearance) * maxBodyHeight
		if legTipClearance < minLegLength {
			rad = math.Min(rad, (horizontalRange-math.Sqrt(minLegLength*minLegLength-legTipClearance*legTipClearance))/2.0)
		}
		if rad <= 0.0 {
			return nil, errors.Wrapf(ErrGeometryInfeasible,
				"leg %d footprint radius is non-positive, step clearance too high", i)
		}

		ws.footSpread[i] = leg.HipLength + horizontalRange - rad
		ws.identityTipPositions[i] = leg.RootOffset.
			Add(r3.Vector{X: math.Cos(leg.StanceYaw), Y: math.Sin(leg.StanceYaw)}.Mul(ws.footSpread[i])).
			Add(r3.Vector{Z: -clearanceHeight})

		ws.footprintRadius = math.Min(ws.footprintRadius, rad*footprintDownscale)
	}

	// Shrink footprints that overlap a neighbour's identity position.
	minGap := math.Inf(1)
	for i := range ws.identityTipPositions {
		for j := i + 1; j < len(ws.identityTipPositions); j++ {
			diff := ws.identityTipPositions[j].Sub(ws.identityTipPositions[i])
			diff.Z = 0.0
			minGap = math.Min(minGap, diff.Norm()-2.0*ws.footprintRadius)
		}
	}
	if minGap < 0.0 {
		ws.footprintRadius += minGap * 0.5
	}
	if ws.footprintRadius <= 0.0 {
		return nil, errors.Wrap(ErrGeometryInfeasible, "leg footprints fully overlap")
	}

	// Angular velocity commands convert to linear stride at the outermost leg.
	for _, tip := range ws.identityTipPositions {
		planar := math.Hypot(tip.X, tip.Y)
		ws.stanceRadius = math.Max(ws.stanceRadius, planar)
	}
	return ws, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
