package phasevoc

import (
	"math"

	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/core"
)

// vocoder holds the cross-hop phase state of one channel and performs the
// per-bin frequency estimation and re-scaling at the heart of the engine.
//
// It is deliberately independent of rings, transforms, and scheduling so
// the numeric path can be exercised in isolation: step consumes one
// analysis frame (magnitude/phase per bin) and leaves the synthesis
// magnitudes and accumulated phases ready for spectrum reconstruction.
type vocoder struct {
	frameSize  int
	hopIn      int
	sampleRate float64

	lastPhase []float64
	phaseAcc  []float64
	synthMag  []float64
	synthFreq []float64
}

func newVocoder(frameSize, hopIn int, sampleRate float64) *vocoder {
	bins := frameSize/2 + 1

	return &vocoder{
		frameSize:  frameSize,
		hopIn:      hopIn,
		sampleRate: sampleRate,
		lastPhase:  make([]float64, bins),
		phaseAcc:   make([]float64, bins),
		synthMag:   make([]float64, bins),
		synthFreq:  make([]float64, bins),
	}
}

// reset zeroes all cross-hop state. Until the next step call the phase
// arrays are defined as zero.
func (v *vocoder) reset() {
	for k := range v.lastPhase {
		v.lastPhase[k] = 0
		v.phaseAcc[k] = 0
		v.synthMag[k] = 0
		v.synthFreq[k] = 0
	}
}

// step processes one analysis frame.
//
// For every interior bin it unwraps the phase advance since the previous
// hop into a deviation from the bin center frequency, converts that into a
// true oscillation frequency, moves the bin's magnitude to the
// pitch-scaled target bin, and advances the target bin's accumulated phase
// by the scaled frequency over hopOut output samples.
//
// Bins 0 and frameSize/2 carry no phase information (their spectrum values
// are purely real) and are left to the caller to pass through unchanged.
//
// Every value that could turn non-finite is substituted with a safe
// default before it can reach the synthesis spectrum: magnitudes fall back
// to zero, phases to the previous phase, frequencies to the bin center.
func (v *vocoder) step(mag, phase []float64, pitchRatio float64, hopOut int) {
	half := v.frameSize / 2
	freqPerBin := v.sampleRate / float64(v.frameSize)
	expected := 2 * math.Pi * float64(v.hopIn) / float64(v.frameSize)
	overlaps := float64(v.frameSize) / float64(v.hopIn)

	for k := range v.synthMag {
		v.synthMag[k] = 0
		v.synthFreq[k] = 0
	}

	for k := 1; k < half; k++ {
		m := mag[k]
		if !core.IsFinite(m) {
			m = 0
		}

		ph := phase[k]
		if !core.IsFinite(ph) {
			ph = v.lastPhase[k]
		}

		deviation := wrapPhase(ph - v.lastPhase[k] - float64(k)*expected)
		v.lastPhase[k] = ph

		trueFreq := (float64(k) + deviation*overlaps/(2*math.Pi)) * freqPerBin
		if !core.IsFinite(trueFreq) {
			trueFreq = float64(k) * freqPerBin
		}

		target := int(math.Round(float64(k) * pitchRatio))
		if target < 1 || target >= half {
			continue
		}

		v.synthMag[target] += m
		v.synthFreq[target] = trueFreq * pitchRatio
	}

	// Phase advance for the grain about to be synthesized. Wrapping the
	// accumulator keeps it bounded without changing cos/sin.
	radPerHz := 2 * math.Pi * float64(hopOut) / v.sampleRate
	for k := 1; k < half; k++ {
		v.phaseAcc[k] = wrapPhase(v.phaseAcc[k] + v.synthFreq[k]*radPerHz)
	}
}

// wrapPhase reduces x to the principal value in (-pi, pi].
func wrapPhase(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x <= 0 {
		x += 2 * math.Pi
	}

	return x - math.Pi
}
