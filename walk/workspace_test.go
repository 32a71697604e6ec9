package walk

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/ZombyDogs/syropod-highlevel-controller/robotmodel"
)

func TestWorkspaceHexapod(t *testing.T) {
	model := robotmodel.DefaultHexapod()
	cfg := DefaultConfig()

	ws, err := newWorkspace(model, &cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ws.maxBodyHeight, test.ShouldBeGreaterThan, 0)
	test.That(t, ws.bodyClearance, test.ShouldBeGreaterThan, 0)
	test.That(t, ws.bodyClearance, test.ShouldBeLessThan, 1)
	test.That(t, ws.footprintRadius, test.ShouldBeGreaterThan, 0)
	test.That(t, ws.stanceRadius, test.ShouldBeGreaterThan, 0)
	test.That(t, ws.identityTipPositions, test.ShouldHaveLength, len(model.Legs))

	// Every default tip rests at the configured clearance below the body.
	for _, tip := range ws.identityTipPositions {
		test.That(t, tip.Z, test.ShouldAlmostEqual, -ws.bodyClearance*ws.maxBodyHeight, 1e-9)
	}

	// Identity positions sit the foot spread distance out from each hip.
	for i, leg := range model.Legs {
		planar := ws.identityTipPositions[i].Sub(leg.RootOffset)
		planar.Z = 0
		test.That(t, planar.Norm(), test.ShouldAlmostEqual, ws.footSpread[i], 1e-9)
	}
}

func TestWorkspaceInfeasibleStepClearance(t *testing.T) {
	model := robotmodel.DefaultHexapod()
	for _, leg := range model.Legs {
		leg.FemurLength = 0.05
		leg.TibiaLength = 0.4
	}
	cfg := DefaultConfig()
	cfg.StepClearance = 0.9

	_, err := newWorkspace(model, &cfg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrGeometryInfeasible), test.ShouldBeTrue)
}

func twoLegModel(yawA, yawB float64) *robotmodel.Model {
	legs := []*robotmodel.Leg{
		{HipLength: 0.05, FemurLength: 0.22, TibiaLength: 0.28, StanceYaw: yawA, YawLimit: 0.35},
		{HipLength: 0.05, FemurLength: 0.22, TibiaLength: 0.28, StanceYaw: yawB, YawLimit: 0.35},
	}
	return &robotmodel.Model{
		Legs:        legs,
		MinHipLift:  -math.Pi / 4.0,
		MaxHipLift:  math.Pi / 6.0,
		MinKneeBend: 0.1,
		MaxKneeBend: 2.4,
	}
}

func TestWorkspaceOverlapShrinksFootprint(t *testing.T) {
	cfg := DefaultConfig()

	apart, err := newWorkspace(twoLegModel(0, math.Pi), &cfg)
	test.That(t, err, test.ShouldBeNil)

	// Legs rooted at the same point with nearly parallel yaws have
	// overlapping footprints, shrinking the usable radius.
	near, err := newWorkspace(twoLegModel(0.05, -0.05), &cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, near.footprintRadius, test.ShouldBeLessThan, apart.footprintRadius)
}

func TestWorkspaceFullOverlapFails(t *testing.T) {
	cfg := DefaultConfig()
	_, err := newWorkspace(twoLegModel(0.2, 0.2), &cfg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrGeometryInfeasible), test.ShouldBeTrue)
}

func TestSolvePositiveQuadratic(t *testing.T) {
	// x^2 - x - 6 has roots 3 and -2.
	test.That(t, solvePositiveQuadratic(1, -1, -6), test.ShouldAlmostEqual, 3, 1e-12)
}
