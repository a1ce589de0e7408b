package fx

import "math"

// biquadCoeffs is a normalized (a0 = 1) biquad coefficient set.
//
// Ported directly from the load-bearing formulas of the teacher's
// dsp/filter/biquad and dsp/filter/design packages rather than importing
// them: those packages carry a multi-architecture SIMD dispatch registry
// and a dozen exotic filter families (Bessel, Chebyshev, elliptic,
// Linkwitz-Riley) that fx's single RBJ lowpass per channel has no use
// for. See DESIGN.md.
type biquadCoeffs struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// rbjLowpass derives RBJ-cookbook lowpass coefficients for cutoff freq,
// resonance q, and sampleRate.
func rbjLowpass(freq, q, sampleRate float64) biquadCoeffs {
	w0 := 2 * math.Pi * freq / sampleRate
	cosw0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := (1 - cosw0) / 2
	b1 := 1 - cosw0
	b2 := (1 - cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return biquadCoeffs{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

// biquadSection is a Direct Form II Transposed biquad, processed one
// sample at a time.
type biquadSection struct {
	coeffs biquadCoeffs
	d0, d1 float64
}

// SetCoeffs reassigns the section's coefficients without resetting its
// delay state, so a cutoff/resonance change mid-stream does not produce
// a click beyond the filter's own transient response.
func (s *biquadSection) SetCoeffs(c biquadCoeffs) {
	s.coeffs = c
}

// ProcessSample runs one sample through the section.
func (s *biquadSection) ProcessSample(x float64) float64 {
	y := s.coeffs.B0*x + s.d0
	s.d0 = s.coeffs.B1*x - s.coeffs.A1*y + s.d1
	s.d1 = s.coeffs.B2*x - s.coeffs.A2*y

	return y
}

// Reset clears the section's delay state.
func (s *biquadSection) Reset() {
	s.d0 = 0
	s.d1 = 0
}
