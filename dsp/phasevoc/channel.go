package phasevoc

import (
	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/ringbuf"
)

// channelState owns all per-channel persistent state: the ring buffer
// pair, the dry-signal history for mixing, the cross-hop phase state, and
// the hop positions. One instance exists per audio channel for the
// lifetime of a prepared engine; Reset zeroes it in place.
type channelState struct {
	in   *ringbuf.Ring
	wet  *ringbuf.OverlapRing
	norm *ringbuf.OverlapRing

	dry      []float64
	dryMask  int64
	dryWrite int64
	dryRead  int64

	voc   *vocoder
	sched hopSchedule

	analysisPos int64 // input position of the next analysis frame
	writePos    int64 // output position of the next synthesis grain
	startup     int   // leading silence still owed before wet playback
}

func newChannelState(frameSize, hopIn, ringCapacity, dryCapacity, latency int, sampleRate float64) (*channelState, error) {
	in, err := ringbuf.New(ringCapacity)
	if err != nil {
		return nil, err
	}

	wet, err := ringbuf.NewOverlap(ringCapacity)
	if err != nil {
		return nil, err
	}

	norm, err := ringbuf.NewOverlap(ringCapacity)
	if err != nil {
		return nil, err
	}

	dryLen := nextPowerOf2(dryCapacity)

	c := &channelState{
		in:    in,
		wet:   wet,
		norm:  norm,
		dry:   make([]float64, dryLen),
		dryMask: int64(dryLen - 1),
		voc:   newVocoder(frameSize, hopIn, sampleRate),
		sched: hopSchedule{hopIn: hopIn},
	}
	c.dryRead = -int64(latency)
	c.startup = latency

	return c, nil
}

func (c *channelState) reset(latency int) {
	c.in.Reset()
	c.wet.Reset()
	c.norm.Reset()
	c.voc.reset()
	c.sched.reset()

	for i := range c.dry {
		c.dry[i] = 0
	}

	c.dryWrite = 0
	c.dryRead = -int64(latency)
	c.startup = latency
	c.analysisPos = 0
	c.writePos = 0
}

// pushDry records input samples into the circular dry history.
func (c *channelState) pushDry(samples []float64) {
	for _, v := range samples {
		c.dry[c.dryWrite&c.dryMask] = v
		c.dryWrite++
	}
}

// dryAt returns the dry sample at the given absolute position, or zero for
// positions before the stream start or already overwritten.
func (c *channelState) dryAt(pos int64) float64 {
	if pos < 0 || pos >= c.dryWrite || pos < c.dryWrite-int64(len(c.dry)) {
		return 0
	}

	return c.dry[pos&c.dryMask]
}

// readable returns how many output samples are final and can be
// delivered: the leading silence still owed for the fixed latency plus
// every wet position all overlapping grains have finished writing.
// Positions at or past writePos still receive future grain contributions
// and are never exposed.
func (c *channelState) readable() int {
	return c.startup + int(c.writePos-c.wet.Start())
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
