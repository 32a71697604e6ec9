package robotmodel

import (
	"math"

	"github.com/golang/geo/r3"
)

// DefaultHexapod returns a symmetric six legged model with front, middle and
// rear leg pairs. Leg order is front-left, front-right, middle-left,
// middle-right, rear-left, rear-right, matching the offset multiplier order
// used by the gait presets.
func DefaultHexapod() *Model {
	const (
		hip      = 0.05
		femur    = 0.22
		tibia    = 0.28
		rootX    = 0.16
		rootY    = 0.11
		yawLimit = 0.35
	)
	yaws := []float64{0.77, -0.77, math.Pi / 2.0, -math.Pi / 2.0, math.Pi - 0.77, 0.77 - math.Pi}
	roots := []r3.Vector{
		{X: rootX, Y: rootY},
		{X: rootX, Y: -rootY},
		{X: 0, Y: rootY},
		{X: 0, Y: -rootY},
		{X: -rootX, Y: rootY},
		{X: -rootX, Y: -rootY},
	}
	legs := make([]*Leg, 6)
	for i := range legs {
		legs[i] = &Leg{
			HipLength:   hip,
			FemurLength: femur,
			TibiaLength: tibia,
			RootOffset:  roots[i],
			StanceYaw:   yaws[i],
			YawLimit:    yawLimit,
		}
	}
	return &Model{
		Legs:        legs,
		MinHipLift:  -math.Pi / 4.0,
		MaxHipLift:  math.Pi / 6.0,
		MinKneeBend: 0.1,
		MaxKneeBend: 2.4,
	}
}
