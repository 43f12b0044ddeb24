package phasevoc

import "math"

// hopSchedule turns the non-integer ideal synthesis hop into a sequence of
// integer steps whose long-run average converges to the ideal exactly.
//
// A fractional residual carries the rounding remainder from hop to hop
// (Bresenham style), so no systematic bias can accumulate: a biased
// schedule would be equivalent to decimating grains and produces audible
// subharmonics. The analysis hop stays fixed; only the synthesis hop is
// fractional.
type hopSchedule struct {
	hopIn    int
	residual float64
}

// next returns the synthesis hop for the upcoming grain given the current
// time-stretch ratio. The returned step is always at least 1.
func (h *hopSchedule) next(stretch float64) int {
	h.residual += float64(h.hopIn) * stretch

	step := int(math.Floor(h.residual))
	if step < 1 {
		step = 1
	}

	h.residual -= float64(step)

	return step
}

func (h *hopSchedule) reset() {
	h.residual = 0
}
