// Package robotmodel describes the leg geometry the locomotion core walks
// with. It is the boundary to the external kinematics provider; no forward or
// inverse kinematics are solved here.
package robotmodel

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Leg holds the geometry of a single leg and its current tip position as
// reported by the external kinematics stage.
type Leg struct {
	// Link lengths in meters, from body outward.
	HipLength   float64 `json:"hip_length"`
	FemurLength float64 `json:"femur_length"`
	TibiaLength float64 `json:"tibia_length"`

	// RootOffset is the position of the leg's hip joint in the robot frame.
	RootOffset r3.Vector `json:"root_offset"`

	// StanceYaw is the nominal yaw of the leg when standing, in radians
	// measured in the robot frame.
	StanceYaw float64 `json:"stance_yaw"`

	// YawLimit is the allowed yaw travel either side of StanceYaw, in radians.
	YawLimit float64 `json:"yaw_limit"`

	// LocalTipPosition is the leg tip position in the robot frame. The walk
	// controller refreshes it with the commanded position each tick; a
	// kinematics provider with feedback may overwrite it with the measured
	// position between ticks.
	LocalTipPosition r3.Vector `json:"-"`
}

// Model is the set of legs plus the joint limits shared across them.
type Model struct {
	Legs []*Leg `json:"legs"`

	// Hip lift range in radians. MinHipLift is negative: the hip dropping
	// below horizontal.
	MinHipLift float64 `json:"min_hip_lift"`
	MaxHipLift float64 `json:"max_hip_lift"`

	// Knee bend range in radians, zero being a straight leg.
	MinKneeBend float64 `json:"min_knee_bend"`
	MaxKneeBend float64 `json:"max_knee_bend"`
}

// Validate checks the model geometry is usable.
func (m *Model) Validate() error {
	if len(m.Legs) < 2 {
		return errors.Errorf("model needs at least 2 legs, have %d", len(m.Legs))
	}
	for i, leg := range m.Legs {
		if leg.FemurLength <= 0 || leg.TibiaLength <= 0 {
			return errors.Errorf("leg %d has non-positive link lengths", i)
		}
		if leg.YawLimit <= 0 || leg.YawLimit >= math.Pi/2 {
			return errors.Errorf("leg %d yaw limit %.3f outside (0, pi/2)", i, leg.YawLimit)
		}
	}
	if m.MinKneeBend < 0 || m.MaxKneeBend <= m.MinKneeBend {
		return errors.New("knee bend limits are inverted or negative")
	}
	if m.MinHipLift > 0 || m.MaxHipLift < m.MinHipLift {
		return errors.New("hip lift limits are inverted or min is positive")
	}
	return nil
}

// MaxLegLength returns the hip-to-tip distance of leg i at the straightest
// allowed knee bend, ignoring the hip link which stays horizontal.
func (m *Model) MaxLegLength(i int) float64 {
	leg := m.Legs[i]
	f, t := leg.FemurLength, leg.TibiaLength
	return math.Sqrt(f*f + t*t + 2.0*f*t*math.Cos(m.MinKneeBend))
}

// MinLegLength returns the hip-to-tip distance of leg i at the most bent
// allowed knee.
func (m *Model) MinLegLength(i int) float64 {
	leg := m.Legs[i]
	f, t := leg.FemurLength, leg.TibiaLength
	return math.Sqrt(f*f + t*t + 2.0*f*t*math.Cos(m.MaxKneeBend))
}

// PositionApplier receives the tip position computed for a leg each tick.
// Implementations run inverse kinematics and actuation; the walk controller
// only calls it.
type PositionApplier interface {
	ApplyPosition(legIndex int, tipPosition, tipVelocity r3.Vector) error
}
