// Package fft wraps the go-dsp transform backend behind destination-buffer
// calls and provides the spectral grids used by kinetic propagators.
package fft

import (
	"math"

	dsp "github.com/mjibson/go-dsp/fft"
)

// Forward writes the discrete Fourier transform of src into dst. dst and
// src may alias; both must have the same length.
func Forward(dst, src []complex128) {
	copy(dst, dsp.FFT(src))
}

// Inverse writes the inverse discrete Fourier transform of src into dst.
// dst and src may alias; both must have the same length.
func Inverse(dst, src []complex128) {
	copy(dst, dsp.IFFT(src))
}

// Wavenumbers returns the angular wavenumbers for an n-point periodic grid
// with spacing dx, in standard FFT ordering (non-negative frequencies first,
// then negative).
func Wavenumbers(n int, dx float64) []float64 {
	k := make([]float64, n)
	dk := 2 * math.Pi / (float64(n) * dx)
	for i := range k {
		if i <= n/2 {
			k[i] = float64(i) * dk
		} else {
			k[i] = float64(i-n) * dk
		}
	}
	return k
}
