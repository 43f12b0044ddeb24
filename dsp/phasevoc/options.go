package phasevoc

import (
	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/transform"
	"github.com/blewistrumpet-lang/phoenix-Chimera-sub016/dsp/window"
)

const (
	defaultFrameSize    = 2048
	defaultOverlap      = 4
	defaultMaxBlockSize = 2048
	defaultChannels     = 1

	minFrameSize = 256
	maxChannels  = 32
)

// Option configures an Engine at construction time.
type Option func(*config)

type config struct {
	frameSize    int
	overlap      int
	channels     int
	maxBlockSize int
	windowType   window.Type
	factory      transform.Factory
}

func defaultConfig() config {
	return config{
		frameSize:    defaultFrameSize,
		overlap:      defaultOverlap,
		channels:     defaultChannels,
		maxBlockSize: defaultMaxBlockSize,
		windowType:   window.TypeHann,
		factory:      transform.NewFFT,
	}
}

// WithFrameSize sets the FFT frame size. size must be a power of two and
// at least 256.
func WithFrameSize(size int) Option {
	return func(c *config) {
		c.frameSize = size
	}
}

// WithOverlap sets the analysis overlap factor. The fixed analysis hop is
// frameSize/overlap; the overlap factor never changes at run time, so
// texture-style parameters can never disturb the hop schedule.
func WithOverlap(overlap int) Option {
	return func(c *config) {
		c.overlap = overlap
	}
}

// WithChannels sets the number of independently processed channels.
func WithChannels(channels int) Option {
	return func(c *config) {
		c.channels = channels
	}
}

// WithMaxBlockSize sets the largest per-call block the engine must accept.
func WithMaxBlockSize(size int) Option {
	return func(c *config) {
		c.maxBlockSize = size
	}
}

// WithWindowType sets the analysis/synthesis window shape.
func WithWindowType(t window.Type) Option {
	return func(c *config) {
		c.windowType = t
	}
}

// WithTransform sets the factory for the external FFT backend.
func WithTransform(f transform.Factory) Option {
	return func(c *config) {
		if f != nil {
			c.factory = f
		}
	}
}
