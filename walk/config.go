package walk

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/ZombyDogs/syropod-highlevel-controller/gait"
)

// Config tunes the walk controller. Ratios are fractions of the maximum body
// height computed from leg geometry.
type Config struct {
	// TimeDelta is the control tick period in seconds.
	TimeDelta float64 `json:"time_delta"`

	// StepClearance is the swing apex height ratio. Must lie in [0,1).
	StepClearance float64 `json:"step_clearance"`

	// StepDepth is the stance dip depth ratio below ground level.
	StepDepth float64 `json:"step_depth"`

	// BodyClearance is the body height ratio while walking. When nil a value
	// maximising the circular footprint for the configured step clearance is
	// derived from leg geometry.
	BodyClearance *float64 `json:"body_clearance,omitempty"`

	// StepCurvatureAllowance reserves part of the leg's reach for the swing
	// trajectory overshooting its ground footprint.
	StepCurvatureAllowance float64 `json:"step_curvature_allowance"`

	// LegSpanScale scales the horizontal reach used when placing default tip
	// positions, changing the width of the stance.
	LegSpanScale float64 `json:"leg_span_scale"`

	// MaxAcceleration bounds the linear body velocity slew rate in m/s^2.
	// When nil it defaults to the largest value that keeps a tip within one
	// footprint radius before the first swing begins.
	MaxAcceleration *float64 `json:"max_acceleration,omitempty"`

	// MaxCurvatureSpeed bounds the angular velocity slew rate in rad/s^2.
	MaxCurvatureSpeed float64 `json:"max_curvature_speed"`

	// ScaleFinalStance applies the partial stance stride scaling, normally
	// used only for the first step after starting, to the final stance while
	// stopping as well.
	ScaleFinalStance bool `json:"scale_final_stance,omitempty"`

	// Gait selects the step cycle layout.
	Gait gait.Params `json:"gait"`
}

// DefaultConfig returns a conservative tripod configuration at a 50Hz tick.
func DefaultConfig() Config {
	return Config{
		TimeDelta:              0.02,
		StepClearance:          0.1,
		StepDepth:              0.0,
		StepCurvatureAllowance: 1.0,
		LegSpanScale:           1.0,
		MaxCurvatureSpeed:      0.4,
		Gait:                   gait.Tripod(),
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate(path string) error {
	var err error
	if c.TimeDelta <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "time_delta"))
	}
	if c.StepClearance < 0 || c.StepClearance >= 1.0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("step_clearance %.3f outside [0,1)", c.StepClearance)))
	}
	if c.StepDepth < 0 || c.StepDepth >= 1.0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("step_depth %.3f outside [0,1)", c.StepDepth)))
	}
	if c.BodyClearance != nil && (*c.BodyClearance <= 0 || *c.BodyClearance >= 1.0) {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("body_clearance %.3f outside (0,1)", *c.BodyClearance)))
	}
	if c.MaxAcceleration != nil && *c.MaxAcceleration < 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.New("max_acceleration must be non-negative")))
	}
	if c.MaxCurvatureSpeed <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "max_curvature_speed"))
	}
	if c.LegSpanScale <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.New("leg_span_scale must be positive")))
	}
	if gaitErr := c.Gait.Validate(path + ".gait"); gaitErr != nil {
		err = multierr.Append(err, gaitErr)
	}
	return err
}
