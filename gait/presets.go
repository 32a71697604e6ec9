package gait

// Preset gaits for a six legged robot, leg order front-left, front-right,
// middle-left, middle-right, rear-left, rear-right. Callers tune
// StepFrequency after copying a preset.

// Tripod steps two alternating groups of three legs, half a cycle apart.
func Tripod() Params {
	return Params{
		Name:              "tripod",
		StancePhase:       1,
		SwingPhase:        1,
		PhaseOffset:       1,
		StepFrequency:     1.0,
		OffsetMultipliers: []int{0, 1, 1, 0, 0, 1},
	}
}

// Wave steps one leg at a time, the slowest and most stable preset.
func Wave() Params {
	return Params{
		Name:              "wave",
		StancePhase:       10,
		SwingPhase:        2,
		PhaseOffset:       2,
		StepFrequency:     1.0,
		OffsetMultipliers: []int{2, 5, 3, 0, 4, 1},
	}
}

// Amble steps opposing leg pairs in turn.
func Amble() Params {
	return Params{
		Name:              "amble",
		StancePhase:       4,
		SwingPhase:        2,
		PhaseOffset:       1,
		StepFrequency:     1.0,
		OffsetMultipliers: []int{0, 3, 4, 1, 2, 5},
	}
}

// Ripple overlaps swings so some pair of legs is always mid step.
func Ripple() Params {
	return Params{
		Name:              "ripple",
		StancePhase:       4,
		SwingPhase:        2,
		PhaseOffset:       1,
		StepFrequency:     1.0,
		OffsetMultipliers: []int{2, 0, 4, 1, 3, 5},
	}
}

// Presets returns all built in gaits.
func Presets() []Params {
	return []Params{Tripod(), Wave(), Amble(), Ripple()}
}
