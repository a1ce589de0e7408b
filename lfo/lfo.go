// Package lfo implements the low-frequency oscillator evaluator used to
// modulate a selectable subset of engine parameters. The LFO is a pure
// function of time, rate, and shape; the engine evaluates it once per
// audio block and caches the result (the Value doc comment bounds the
// phase error this introduces).
package lfo

import "math"

// Shape selects the LFO waveform.
type Shape int

const (
	Sine Shape = iota
	Triangle
	Square
	Sawtooth
)

// Evaluator holds the rate and shape of a single LFO instance.
type Evaluator struct {
	Rate  float64
	Shape Shape
}

// Value returns the LFO output in [-1, +1] at timeSec.
//
// The engine calls this once per block at the block-start time, not once
// per sample. LFO rates are bounded to 20 Hz, so across a typical
// 128-frame block (~2.7 ms at 48 kHz) the held value lags the true phase
// by at most about 19 degrees (20 Hz x 2.7 ms = 0.053 cycle). Block length
// is not limited; longer blocks hold the value proportionally longer.
func (e Evaluator) Value(timeSec float64) float64 {
	return Eval(timeSec, e.Rate, e.Shape)
}

// Eval evaluates shape at the given time and rate.
func Eval(timeSec, rate float64, shape Shape) float64 {
	phase := fract(timeSec * rate)

	switch shape {
	case Sine:
		return math.Sin(2 * math.Pi * phase)
	case Triangle:
		return math.Abs(4*phase-2) - 1
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*phase - 1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func fract(x float64) float64 {
	f := x - math.Floor(x)
	if f < 0 {
		f += 1
	}
	return f
}
