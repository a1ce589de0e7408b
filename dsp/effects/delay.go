package effects

import (
	"fmt"
	"math"

	"github.com/opengrain/granular/smooth"
)

const (
	defaultDelayTimeSeconds = 0.25
	defaultDelayFeedback    = 0.35
	defaultDelayMix         = 0.25
	maxDelayTimeSeconds     = 2.0
	minDelayTimeSeconds     = 0.001
	delayTimeSmoothMs       = 10.0
)

// Delay is a feedback delay line with dry/wet mix: one of the fixed
// stages fx.Chain runs every block. Delay time either snaps immediately
// (SetTime, for one-shot configuration) or ramps smoothly (SetTargetTime,
// driven by a continuously modulated delayTime parameter) using the same
// one-pole smoothing the engine applies to its own parameters.
type Delay struct {
	sampleRate float64
	feedback   float64
	mix        float64

	delaySamples *smooth.Smoother
	buffer       []float64
	write        int
}

// NewDelay creates a delay with practical defaults, sized for the given
// sample rate. The sample rate is fixed for the life of the Delay.
func NewDelay(sampleRate float64) (*Delay, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("delay sample rate must be > 0: %f", sampleRate)
	}

	maxSamples := int(math.Ceil(maxDelayTimeSeconds*sampleRate)) + 1

	d := &Delay{
		sampleRate: sampleRate,
		feedback:   defaultDelayFeedback,
		mix:        defaultDelayMix,
		buffer:     make([]float64, maxSamples),
	}
	d.delaySamples = smooth.New(sampleRate, delayTimeSmoothMs, defaultDelayTimeSeconds*sampleRate)

	return d, nil
}

// SetTime snaps the delay time to seconds immediately, discarding any
// in-flight ramp. Intended for one-shot configuration before playback.
func (d *Delay) SetTime(seconds float64) error {
	samples, err := d.clampedSamples(seconds)
	if err != nil {
		return err
	}

	d.delaySamples.SetImmediate(samples)

	return nil
}

// SetTargetTime retargets the delay time to seconds, ramping smoothly
// over subsequent ProcessSample calls rather than jumping (a jump would
// move the read pointer in one step, which is audible as a click).
func (d *Delay) SetTargetTime(seconds float64) error {
	samples, err := d.clampedSamples(seconds)
	if err != nil {
		return err
	}

	d.delaySamples.SetTarget(samples)

	return nil
}

func (d *Delay) clampedSamples(seconds float64) (float64, error) {
	if seconds < minDelayTimeSeconds || seconds > maxDelayTimeSeconds ||
		math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("delay time must be in [%f, %f]: %f",
			minDelayTimeSeconds, maxDelayTimeSeconds, seconds)
	}

	samples := seconds * d.sampleRate
	if maxSamples := float64(len(d.buffer) - 1); samples > maxSamples {
		samples = maxSamples
	}

	return samples, nil
}

// CurrentDelaySamples returns the smoother's current (possibly
// in-flight-ramping) delay length in samples.
func (d *Delay) CurrentDelaySamples() float64 {
	return d.delaySamples.Current()
}

// SetFeedback sets feedback amount in [0, 0.99].
func (d *Delay) SetFeedback(feedback float64) error {
	if feedback < 0 || feedback > 0.99 || math.IsNaN(feedback) || math.IsInf(feedback, 0) {
		return fmt.Errorf("delay feedback must be in [0, 0.99]: %f", feedback)
	}
	d.feedback = feedback
	return nil
}

// SetMix sets wet amount in [0, 1].
func (d *Delay) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
		return fmt.Errorf("delay mix must be in [0, 1]: %f", mix)
	}
	d.mix = mix
	return nil
}

// Reset clears delay state without touching the current delay time.
func (d *Delay) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.write = 0
}

// ProcessSample processes one sample, advancing the delay-time ramp by
// one step.
func (d *Delay) ProcessSample(input float64) float64 {
	samples := d.delaySamples.Advance()
	delayed := d.readInterpolated(samples)

	d.buffer[d.write] = input + delayed*d.feedback
	d.write++
	if d.write >= len(d.buffer) {
		d.write = 0
	}

	return input*(1-d.mix) + delayed*d.mix
}

// ProcessInPlace applies delay to buf in place.
func (d *Delay) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = d.ProcessSample(buf[i])
	}
}

// readInterpolated linearly interpolates the buffer between the two
// integer taps bracketing a fractional delay-in-samples value.
func (d *Delay) readInterpolated(samples float64) float64 {
	n := len(d.buffer)

	whole := int(samples)
	frac := samples - float64(whole)

	i0 := d.write - whole
	for i0 < 0 {
		i0 += n
	}

	i1 := i0 - 1
	if i1 < 0 {
		i1 += n
	}

	return d.buffer[i0] + (d.buffer[i1]-d.buffer[i0])*frac
}
