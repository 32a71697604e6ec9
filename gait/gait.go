// Package gait derives the discrete timing of the step cycle from user gait
// parameters: how many control ticks one cycle spans, where the swing window
// sits inside it, and how far each leg's cycle is offset from phase zero.
package gait

import (
	"math"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Params are the user facing gait settings. StancePhase and SwingPhase are
// unitless ratio components (tripod is 1:1); PhaseOffset is the base offset
// between successive leg groups in the same units; OffsetMultipliers encode
// which legs step together, one entry per leg.
type Params struct {
	Name              string  `json:"name,omitempty"`
	StancePhase       int     `json:"stance_phase"`
	SwingPhase        int     `json:"swing_phase"`
	PhaseOffset       int     `json:"phase_offset"`
	StepFrequency     float64 `json:"step_frequency"`
	OffsetMultipliers []int   `json:"offset_multiplier"`
}

// Validate checks the gait parameters are internally consistent.
func (p *Params) Validate(path string) error {
	if p.StancePhase <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("stance_phase must be positive"))
	}
	if p.SwingPhase <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("swing_phase must be positive"))
	}
	if (p.StancePhase+p.SwingPhase)%2 != 0 {
		return goutils.NewConfigValidationError(path,
			errors.New("stance_phase + swing_phase must be even so the phase length quantizes to whole ticks"))
	}
	if p.StepFrequency <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "step_frequency")
	}
	if len(p.OffsetMultipliers) == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "offset_multiplier")
	}
	for _, m := range p.OffsetMultipliers {
		if m < 0 {
			return goutils.NewConfigValidationError(path, errors.New("offset multipliers must be non-negative"))
		}
	}
	return nil
}

// Timing is the quantized step cycle layout shared by the walk controller and
// every leg stepper. It is recomputed wholesale whenever gait parameters
// change and treated as read only in between.
type Timing struct {
	// PhaseLength is the tick count of one full step cycle. It is always a
	// multiple of StancePhase+SwingPhase so the swing window lands on whole
	// ticks.
	PhaseLength int

	// Window boundaries. Stance runs [0, StanceEnd), swing runs
	// [SwingStart, SwingEnd); SwingEnd equals PhaseLength and StanceStart is
	// its wrapped equivalent, phase zero.
	StanceEnd   int
	SwingStart  int
	SwingEnd    int
	StanceStart int

	// StepFrequency is the requested frequency corrected for quantization so
	// PhaseLength ticks still span one cycle.
	StepFrequency float64

	// TimeDelta is the control tick period in seconds.
	TimeDelta float64

	offsets []int
}

// New quantizes the step cycle for the given gait parameters and tick period.
func New(p Params, timeDelta float64) (*Timing, error) {
	if err := p.Validate(""); err != nil {
		return nil, err
	}
	if timeDelta <= 0 {
		return nil, errors.New("time delta must be positive")
	}

	basePhaseLength := p.StancePhase + p.SwingPhase
	swingRatio := float64(p.SwingPhase) / float64(basePhaseLength)

	// Round the ideal tick count to the nearest multiple of the swing window
	// so swing splits into two equal whole-tick halves.
	idealTicks := 1.0 / (2.0 * p.StepFrequency * timeDelta)
	unit := float64(basePhaseLength) * swingRatio
	multiples := int(math.Round(idealTicks / unit))
	if multiples < 1 {
		multiples = 1
	}
	phaseLength := multiples * basePhaseLength

	normaliser := phaseLength / basePhaseLength
	t := &Timing{
		PhaseLength:   phaseLength,
		StanceEnd:     p.StancePhase * normaliser,
		SwingStart:    p.StancePhase * normaliser,
		SwingEnd:      phaseLength,
		StanceStart:   0,
		StepFrequency: 1.0 / (float64(phaseLength) * timeDelta),
		TimeDelta:     timeDelta,
		offsets:       make([]int, len(p.OffsetMultipliers)),
	}
	for i, mult := range p.OffsetMultipliers {
		t.offsets[i] = (p.PhaseOffset * normaliser * mult) % phaseLength
	}
	return t, nil
}

// LegPhaseOffset returns the fixed phase offset of leg i.
func (t *Timing) LegPhaseOffset(i int) int {
	return t.offsets[i]
}

// SwingLength returns the tick count of the swing window.
func (t *Timing) SwingLength() int {
	return t.SwingEnd - t.SwingStart
}

// iterations quantizes a period of the given tick length to an even iteration
// count so a swing splits evenly across its two curves.
func (t *Timing) iterations(length int) int {
	n := int(math.Round((float64(length)/float64(t.PhaseLength))/(t.StepFrequency*t.TimeDelta)/2.0)) * 2
	if n < 2 {
		n = 2
	}
	return n
}

// SwingDeltaT returns the per tick Bézier parameter increment for a swing
// period of the given tick length. The two swing curves jointly span the
// parameter range [0,2].
func (t *Timing) SwingDeltaT(length int) float64 {
	return 2.0 / float64(t.iterations(length))
}

// StanceDeltaT returns the per tick Bézier parameter increment for a stance
// period of the given tick length, spanning [0,1].
func (t *Timing) StanceDeltaT(length int) float64 {
	return 1.0 / float64(t.iterations(length))
}
