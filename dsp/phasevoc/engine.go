package phasevoc

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/core"
	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/spectrum"
	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/transform"
	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/window"
)

const normFloor = 1e-12

var errNotPrepared = errors.New("phasevoc: engine not prepared")

// Engine is a streaming phase-vocoder pitch/time processor.
//
// Exactly one goroutine may call Process, Write, Read, Flush, and Reset;
// SetParameters may be called concurrently from a control goroutine.
// Reset must not run concurrently with Process.
//
// Two usage patterns are supported:
//
//   - Process: fixed-rate streaming with equal input and output block
//     sizes and a fixed latency of LatencySamples. This is the path for
//     pitch shifting (TimeStretchRatio = 1).
//   - Write/Available/Read/Flush: pull-driven draining for time
//     stretching, where the output sample count differs from the input.
type Engine struct {
	sampleRate   float64
	maxBlockSize int

	frameSize int
	overlap   int
	hopIn     int
	bins      int
	latency   int

	windowType window.Type
	factory    transform.Factory
	fft        transform.Transform

	windowCoeffs []float64
	windowSq     []float64

	// Hop scratch, shared across channels (channels are processed
	// sequentially on the audio thread).
	frame      []float64
	winScratch []float64
	re, im     []float64
	mag, phase []float64
	spec       []complex128
	timeFrame  []complex128
	wetBlock   []float64
	normBlock  []float64
	zeroFrame  []float64

	channels []*channelState

	params  atomic.Pointer[Parameters]
	current Parameters // last value published via SetParameters

	prepared bool
}

// New creates an Engine and prepares it for the given sample rate.
func New(sampleRate float64, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.frameSize < minFrameSize || cfg.frameSize&(cfg.frameSize-1) != 0 {
		return nil, fmt.Errorf("phasevoc: frame size must be a power of two >= %d: %d", minFrameSize, cfg.frameSize)
	}

	if cfg.overlap < 2 || cfg.overlap > 8 || cfg.frameSize%cfg.overlap != 0 {
		return nil, fmt.Errorf("phasevoc: overlap must be in [2, 8] and divide the frame size: %d", cfg.overlap)
	}

	if cfg.channels < 1 || cfg.channels > maxChannels {
		return nil, fmt.Errorf("phasevoc: channels must be in [1, %d]: %d", maxChannels, cfg.channels)
	}

	e := &Engine{
		frameSize:  cfg.frameSize,
		overlap:    cfg.overlap,
		windowType: cfg.windowType,
		factory:    cfg.factory,
		channels:   make([]*channelState, cfg.channels),
	}

	e.current = defaultParameters()
	e.publish(e.current)

	if err := e.Prepare(sampleRate, cfg.maxBlockSize); err != nil {
		return nil, err
	}

	return e, nil
}

// SampleRate returns the prepared sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// FrameSize returns the FFT frame size in samples.
func (e *Engine) FrameSize() int { return e.frameSize }

// AnalysisHop returns the fixed analysis hop in samples.
func (e *Engine) AnalysisHop() int { return e.hopIn }

// Channels returns the number of processed channels.
func (e *Engine) Channels() int { return len(e.channels) }

// LatencySamples returns the fixed algorithmic latency. The value is
// constant after a successful Prepare; hosts use it for delay
// compensation.
func (e *Engine) LatencySamples() int { return e.latency }

// Parameters returns the most recently published parameter set.
func (e *Engine) Parameters() Parameters { return *e.params.Load() }

// SetParameters publishes a new parameter set. Out-of-range values are
// clamped to the nearest bound and non-finite values are ignored in favor
// of the previous setting; the call never fails. The audio thread picks
// the new values up at the next hop boundary, never mid-hop.
func (e *Engine) SetParameters(pitchRatio, timeStretchRatio, mix float64) {
	p := Parameters{
		PitchRatio:       pitchRatio,
		TimeStretchRatio: timeStretchRatio,
		Mix:              mix,
	}.clampedAgainst(e.current)

	e.current = p
	e.publish(p)
}

func (e *Engine) publish(p Parameters) {
	e.params.Store(&p)
}

// Prepare allocates all processing state for the given sample rate and
// maximum per-call block size. It fails fast on invalid configuration and
// leaves the engine unusable until a later Prepare succeeds.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int) error {
	e.prepared = false

	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("phasevoc: sample rate must be > 0: %f", sampleRate)
	}

	if maxBlockSize <= 0 {
		return fmt.Errorf("phasevoc: max block size must be > 0: %d", maxBlockSize)
	}

	e.sampleRate = sampleRate
	e.maxBlockSize = maxBlockSize
	e.hopIn = e.frameSize / e.overlap
	e.bins = e.frameSize/2 + 1
	e.latency = e.frameSize

	fft, err := e.factory(e.frameSize)
	if err != nil {
		return fmt.Errorf("phasevoc: transform backend failed: %w", err)
	}

	if fft.Size() != e.frameSize {
		return fmt.Errorf("phasevoc: transform size %d does not match frame size %d", fft.Size(), e.frameSize)
	}

	e.fft = fft

	e.windowCoeffs = window.Generate(e.windowType, e.frameSize, window.WithPeriodic())
	e.windowSq = make([]float64, e.frameSize)
	for i, w := range e.windowCoeffs {
		e.windowSq[i] = w * w
	}

	e.frame = make([]float64, e.frameSize)
	e.winScratch = make([]float64, e.frameSize)
	e.re = make([]float64, e.bins)
	e.im = make([]float64, e.bins)
	e.mag = make([]float64, e.bins)
	e.phase = make([]float64, e.bins)
	e.spec = make([]complex128, e.frameSize)
	e.timeFrame = make([]complex128, e.frameSize)
	e.wetBlock = make([]float64, maxBlockSize)
	e.normBlock = make([]float64, maxBlockSize)
	e.zeroFrame = make([]float64, e.frameSize)

	// A single full block at the maximum stretch ratio synthesizes up to
	// 4*maxBlockSize samples before the caller can Read; the frame term
	// covers the grain tail past the write position.
	ringCapacity := 4 * (e.frameSize + maxBlockSize)
	dryCapacity := e.latency + maxBlockSize

	for ch := range e.channels {
		state, err := newChannelState(e.frameSize, e.hopIn, ringCapacity, dryCapacity, e.latency, sampleRate)
		if err != nil {
			return fmt.Errorf("phasevoc: channel %d state: %w", ch, err)
		}

		e.channels[ch] = state
	}

	e.prepared = true

	return nil
}

// Reset zeroes all persistent state, returning the engine to the exact
// condition of a freshly prepared instance. It is idempotent and must not
// be called while Process is running.
func (e *Engine) Reset() {
	if !e.prepared {
		return
	}

	for _, c := range e.channels {
		c.reset(e.latency)
	}
}

// Process streams one block: it consumes numSamples from each input
// channel and produces numSamples on each output channel, delayed by
// LatencySamples. Output positions the synthesis has not reached yet are
// zero-filled (startup, or when TimeStretchRatio < 1 drains slower than
// the input arrives). With TimeStretchRatio > 1 the output side
// eventually overruns; use Write/Read for stretching instead.
//
// inputs and outputs must hold Channels slices of at least numSamples.
// The call allocates nothing and takes no locks.
func (e *Engine) Process(inputs, outputs [][]float64, numSamples int) error {
	if err := e.checkBlock(inputs, outputs, numSamples); err != nil {
		return err
	}

	mix := e.params.Load().Mix

	for ch, c := range e.channels {
		if err := e.writeChannel(c, inputs[ch][:numSamples]); err != nil {
			return err
		}

		e.render(c, outputs[ch][:numSamples], mix)
	}

	return nil
}

// Write feeds numSamples into each channel without draining output.
// It returns ringbuf.ErrOverrun when the caller must Read before writing
// more.
func (e *Engine) Write(inputs [][]float64, numSamples int) error {
	if !e.prepared {
		return errNotPrepared
	}

	if len(inputs) != len(e.channels) {
		return fmt.Errorf("phasevoc: expected %d input channels, got %d", len(e.channels), len(inputs))
	}

	if numSamples < 0 || numSamples > e.maxBlockSize {
		return fmt.Errorf("phasevoc: block size must be in [0, %d]: %d", e.maxBlockSize, numSamples)
	}

	for ch, c := range e.channels {
		if len(inputs[ch]) < numSamples {
			return fmt.Errorf("phasevoc: input channel %d holds %d samples, need %d", ch, len(inputs[ch]), numSamples)
		}

		if err := e.writeChannel(c, inputs[ch][:numSamples]); err != nil {
			return err
		}
	}

	return nil
}

// Available returns how many output samples Read can currently deliver.
func (e *Engine) Available() int {
	if !e.prepared {
		return 0
	}

	avail := e.channels[0].readable()
	for _, c := range e.channels[1:] {
		if r := c.readable(); r < avail {
			avail = r
		}
	}

	if avail < 0 {
		return 0
	}

	return avail
}

// Read drains up to numSamples finished output samples per channel and
// returns how many were delivered on each.
func (e *Engine) Read(outputs [][]float64, numSamples int) (int, error) {
	if !e.prepared {
		return 0, errNotPrepared
	}

	if len(outputs) != len(e.channels) {
		return 0, fmt.Errorf("phasevoc: expected %d output channels, got %d", len(e.channels), len(outputs))
	}

	if numSamples < 0 || numSamples > e.maxBlockSize {
		return 0, fmt.Errorf("phasevoc: block size must be in [0, %d]: %d", e.maxBlockSize, numSamples)
	}

	n := e.Available()
	if n > numSamples {
		n = numSamples
	}

	mix := e.params.Load().Mix

	for ch, c := range e.channels {
		if len(outputs[ch]) < n {
			return 0, fmt.Errorf("phasevoc: output channel %d holds %d samples, need %d", ch, len(outputs[ch]), n)
		}

		e.render(c, outputs[ch][:n], mix)
	}

	return n, nil
}

// Flush pushes one frame of silence through each channel so every input
// sample already written ends up covered by an analysis frame. Call it
// once at end of stream before the final Reads.
func (e *Engine) Flush() error {
	if !e.prepared {
		return errNotPrepared
	}

	for _, c := range e.channels {
		if err := e.writeChannel(c, e.zeroFrame); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) checkBlock(inputs, outputs [][]float64, numSamples int) error {
	if !e.prepared {
		return errNotPrepared
	}

	if len(inputs) != len(e.channels) || len(outputs) != len(e.channels) {
		return fmt.Errorf("phasevoc: expected %d channels, got %d in / %d out",
			len(e.channels), len(inputs), len(outputs))
	}

	if numSamples < 0 || numSamples > e.maxBlockSize {
		return fmt.Errorf("phasevoc: block size must be in [0, %d]: %d", e.maxBlockSize, numSamples)
	}

	for ch := range e.channels {
		if len(inputs[ch]) < numSamples || len(outputs[ch]) < numSamples {
			return fmt.Errorf("phasevoc: channel %d block shorter than %d samples", ch, numSamples)
		}
	}

	return nil
}

// writeChannel pushes a block into one channel and runs every hop that has
// both a full analysis frame available and room for its synthesis grain.
func (e *Engine) writeChannel(c *channelState, samples []float64) error {
	c.pushDry(samples)

	if err := c.in.Push(samples); err != nil {
		return err
	}

	for c.in.End()-c.analysisPos >= int64(e.frameSize) {
		if int(c.writePos-c.wet.Start())+e.frameSize > c.wet.Capacity() {
			break
		}

		p := e.params.Load()
		if err := e.processHop(c, *p); err != nil {
			return err
		}
	}

	return nil
}

// processHop runs one full analyze/track/synthesize cycle for a channel.
func (e *Engine) processHop(c *channelState, p Parameters) error {
	// Analysis: windowed frame at the current analysis position.
	if err := c.in.CopyWindowed(e.frame, c.analysisPos, e.windowCoeffs); err != nil {
		return err
	}

	for i, v := range e.frame {
		e.spec[i] = complex(v, 0)
	}

	if err := e.fft.Forward(e.spec, e.spec); err != nil {
		return fmt.Errorf("phasevoc: forward transform failed: %w", err)
	}

	spectrum.SplitComplex(e.re, e.im, e.spec[:e.bins])
	spectrum.MagnitudeFromParts(e.mag, e.re, e.im)
	spectrum.PhaseFromParts(e.phase, e.re, e.im)

	// Phase tracking and frequency re-scaling. The synthesis hop comes
	// from the drift-free schedule, never from ad hoc rounding.
	hopOut := c.sched.next(p.TimeStretchRatio)
	c.voc.step(e.mag, e.phase, p.PitchRatio, hopOut)

	// Synthesis spectrum. Bins 0 and frameSize/2 are purely real and pass
	// through from the analysis; interior bins are rebuilt from the
	// accumulated phases, then mirrored for a real-valued inverse.
	half := e.frameSize / 2
	for k := 1; k < half; k++ {
		m := c.voc.synthMag[k]
		ph := c.voc.phaseAcc[k]
		e.spec[k] = complex(m*math.Cos(ph), m*math.Sin(ph))
	}

	e.spec[0] = complex(real(e.spec[0]), 0)

	e.spec[half] = complex(real(e.spec[half]), 0)
	for k := 1; k < half; k++ {
		v := e.spec[k]
		e.spec[e.frameSize-k] = complex(real(v), -imag(v))
	}

	if err := e.fft.Inverse(e.timeFrame, e.spec); err != nil {
		return fmt.Errorf("phasevoc: inverse transform failed: %w", err)
	}

	for i := range e.frame {
		e.frame[i] = real(e.timeFrame[i])
	}

	// Overlap-add at the scheduled grain position, with the squared
	// window accumulated alongside for per-sample unity-gain correction.
	if err := c.wet.AccumulateWindowed(e.frame, e.windowCoeffs, e.winScratch, c.writePos); err != nil {
		return err
	}

	if err := c.norm.Accumulate(e.windowSq, c.writePos); err != nil {
		return err
	}

	c.writePos += int64(hopOut)
	c.analysisPos += int64(e.hopIn)
	c.in.Drop(int(c.analysisPos - c.in.Start()))

	return nil
}

// render delivers output samples into dst, dividing finished wet samples
// by the accumulated window energy and cross-fading with the delayed dry
// signal. The first LatencySamples of the stream are leading silence;
// positions the synthesis has not reached yet contribute zero wet signal.
func (e *Engine) render(c *channelState, dst []float64, mix float64) {
	n := len(dst)

	lead := c.startup
	if lead > n {
		lead = n
	}
	c.startup -= lead

	avail := int(c.writePos - c.wet.Start())
	k := n - lead
	if k > avail {
		k = avail
	}
	if k < 0 {
		k = 0
	}

	c.wet.Pull(e.wetBlock[:k])
	c.norm.Pull(e.normBlock[:k])

	dryGain := 1 - mix

	for j := 0; j < n; j++ {
		wet := 0.0
		if j >= lead && j < lead+k {
			if e.normBlock[j-lead] > normFloor {
				wet = e.wetBlock[j-lead] / e.normBlock[j-lead]
			}
		}

		dry := c.dryAt(c.dryRead)
		c.dryRead++

		dst[j] = core.FlushDenormals(dry*dryGain + wet*mix)
	}
}
