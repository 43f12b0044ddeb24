// Package spectrum provides spectrum-domain utilities shared by the
// spectral processors and their tests.
//
// The package intentionally does not implement FFT itself. It operates on
// bin data produced by external transform backends and additionally offers
// a Goertzel analyzer for single-frequency measurement, which the engine
// tests use to verify pitch accuracy to cent precision.
package spectrum
