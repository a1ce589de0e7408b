// Package smooth implements the one-pole exponential parameter smoother
// used to eliminate discontinuities when a control-rate parameter change
// lands at an arbitrary point within an audio block.
package smooth

import "math"

// Smoother holds the running and target value of a single continuously
// varying parameter, advanced one sample at a time by the audio thread.
type Smoother struct {
	current float64
	target  float64
	coeff   float64
}

// New returns a Smoother with the given sample rate and time constant in
// milliseconds, initialized to value.
func New(sampleRate, smoothTimeMs, value float64) *Smoother {
	s := &Smoother{}
	s.Configure(sampleRate, smoothTimeMs)
	s.SetImmediate(value)

	return s
}

// Configure recomputes the smoothing coefficient for a new sample rate or
// time constant. It does not alter current or target.
func (s *Smoother) Configure(sampleRate, smoothTimeMs float64) {
	tau := sampleRate * smoothTimeMs / 1000
	if tau <= 0 {
		s.coeff = 1
		return
	}

	s.coeff = 1 - math.Exp(-1/tau)
}

// SetTarget updates the target value; current moves toward it on
// subsequent Advance calls.
func (s *Smoother) SetTarget(target float64) {
	s.target = target
}

// SetImmediate snaps both current and target to value, discarding any
// in-flight ramp.
func (s *Smoother) SetImmediate(value float64) {
	s.current = value
	s.target = value
}

// Advance steps current one sample toward target and returns the new
// current value.
func (s *Smoother) Advance() float64 {
	s.current += (s.target - s.current) * s.coeff
	return s.current
}

// Current returns the current value without advancing.
func (s *Smoother) Current() float64 {
	return s.current
}

// Target returns the target value.
func (s *Smoother) Target() float64 {
	return s.target
}
