package phasevoc

import (
	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/core"
)

const (
	minPitchRatio   = 0.25
	maxPitchRatio   = 4.0
	minStretchRatio = 0.25
	maxStretchRatio = 4.0
)

// Parameters is the control surface of the engine.
//
// PitchRatio scales all detected frequencies (2.0 = one octave up).
// TimeStretchRatio scales the output duration (2.0 = twice as long).
// Mix cross-fades the processed signal with a latency-matched copy of the
// dry input (1.0 = fully processed).
type Parameters struct {
	PitchRatio       float64
	TimeStretchRatio float64
	Mix              float64
}

func defaultParameters() Parameters {
	return Parameters{PitchRatio: 1, TimeStretchRatio: 1, Mix: 1}
}

// clampedAgainst returns p with every field clamped into its valid range.
// Non-finite fields fall back to the corresponding field of prev, so a
// corrupted control value can never enter the processing path.
func (p Parameters) clampedAgainst(prev Parameters) Parameters {
	if !core.IsFinite(p.PitchRatio) {
		p.PitchRatio = prev.PitchRatio
	}

	if !core.IsFinite(p.TimeStretchRatio) {
		p.TimeStretchRatio = prev.TimeStretchRatio
	}

	if !core.IsFinite(p.Mix) {
		p.Mix = prev.Mix
	}

	p.PitchRatio = core.Clamp(p.PitchRatio, minPitchRatio, maxPitchRatio)
	p.TimeStretchRatio = core.Clamp(p.TimeStretchRatio, minStretchRatio, maxStretchRatio)
	p.Mix = core.Clamp(p.Mix, 0, 1)

	return p
}
