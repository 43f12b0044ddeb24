// Package transform abstracts the forward/inverse FFT consumed by the
// spectral processors in this repository.
//
// The package intentionally does not implement an FFT. Spectral code
// depends only on the Transform interface; concrete backends wrap external
// FFT libraries. NewFFT (algo-fft) is the default; NewGonum (gonum
// dsp/fourier) exists to prove the seam and for cross-checking backends.
package transform
