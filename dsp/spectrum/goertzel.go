package spectrum

import (
	"fmt"
	"math"
)

// Goertzel implements the Goertzel algorithm for single-bin frequency
// analysis.
//
// The analyzer is stateful and accumulates information from each processed
// sample. Power() and Magnitude() evaluate the frequency component based
// on all samples processed since the last Reset(). The effective frequency
// resolution follows the processed block length: the main lobe width is
// roughly 2*sampleRate/N Hz for N samples.
type Goertzel struct {
	frequency  float64
	sampleRate float64
	coeff      float64
	s0, s1     float64
}

// NewGoertzel creates a new Goertzel analyzer for the target frequency.
//
// frequency must be between 0 and sampleRate/2.
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}

	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return nil, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	g := &Goertzel{
		frequency:  frequency,
		sampleRate: sampleRate,
	}
	g.updateCoeff()

	return g, nil
}

func (g *Goertzel) updateCoeff() {
	g.coeff = 2 * math.Cos(2*math.Pi*g.frequency/g.sampleRate)
}

// Reset clears the internal state.
func (g *Goertzel) Reset() {
	g.s0 = 0
	g.s1 = 0
}

// ProcessSample updates the internal state with a single input sample.
func (g *Goertzel) ProcessSample(input float64) {
	s := input + g.coeff*g.s0 - g.s1
	g.s1 = g.s0
	g.s0 = s
}

// ProcessBlock updates the internal state with a block of samples.
func (g *Goertzel) ProcessBlock(input []float64) {
	s0, s1 := g.s0, g.s1

	coeff := g.coeff
	for _, x := range input {
		s := x + coeff*s0 - s1
		s1 = s0
		s0 = s
	}

	g.s0, g.s1 = s0, s1
}

// Power returns the squared magnitude of the frequency component.
func (g *Goertzel) Power() float64 {
	return g.s0*g.s0 + g.s1*g.s1 - g.coeff*g.s0*g.s1
}

// Magnitude returns the magnitude of the frequency component.
func (g *Goertzel) Magnitude() float64 {
	p := g.Power()
	if p <= 0 {
		return 0
	}

	return math.Sqrt(p)
}

// Frequency returns the current target frequency.
func (g *Goertzel) Frequency() float64 { return g.frequency }

// SampleRate returns the current sample rate.
func (g *Goertzel) SampleRate() float64 { return g.sampleRate }

// AnalyzeBlock computes the Goertzel power for a single frequency in one shot.
func AnalyzeBlock(input []float64, frequency, sampleRate float64) (float64, error) {
	g, err := NewGoertzel(frequency, sampleRate)
	if err != nil {
		return 0, err
	}

	g.ProcessBlock(input)

	return g.Power(), nil
}

// PeakFrequency scans [lo, hi] in the given step and returns the frequency
// whose Goertzel power over input is largest. For a dominant sinusoid the
// result is accurate to roughly one scan step when the block spans many
// cycles.
func PeakFrequency(input []float64, sampleRate, lo, hi, step float64) (float64, error) {
	if len(input) == 0 {
		return 0, fmt.Errorf("goertzel: input must not be empty")
	}

	if step <= 0 || lo < 0 || hi <= lo || hi > sampleRate/2 {
		return 0, fmt.Errorf("goertzel: invalid scan range [%v, %v] step %v", lo, hi, step)
	}

	best := lo
	bestPower := math.Inf(-1)

	for f := lo; f <= hi; f += step {
		p, err := AnalyzeBlock(input, f, sampleRate)
		if err != nil {
			return 0, err
		}

		if p > bestPower {
			bestPower = p
			best = f
		}
	}

	return best, nil
}
