// Package fx implements the post-engine effects chain: lowpass, waveshaping
// distortion, feedback delay, algorithmic reverb, and master gain, run as a
// straight cascade over the engine's stereo output (spec.md §1, "out of
// scope" list; this package supplies the external collaborator).
package fx

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/opengrain/granular/dsp/effects"
	"github.com/opengrain/granular/params"
)

// dead zone below which a coefficient/room recompute is skipped, avoiding
// per-block trig work when a parameter is holding steady.
const (
	filterDeadZoneHz = 1.0
	filterDeadZoneQ  = 0.01
	reverbDeadZone   = 0.005

	// delayFeedbackCeiling hard-caps feedback below the teacher's own
	// Delay.SetFeedback ceiling (0.99): spec.md's documented range for
	// delayFeedback is [0, 0.95], so the clamp lives here, not in
	// dsp/effects.
	delayFeedbackCeiling = 0.95

	// distAmount drives both mix and drive: minDistortionDrive/maxDistortionDrive
	// bound the pre-shape gain an amount of 1.0 reaches.
	minDistortionDrive = 1.0
	maxDistortionDrive = 8.0
)

// channel holds one mono signal path's worth of effect state.
type channel struct {
	lowpass    biquadSection
	distortion *effects.Distortion
	delay      *effects.Delay
	reverb     *effects.Reverb
}

// Chain runs the five-stage post-engine effects cascade over independent
// left/right mono paths sharing parameter-derived coefficients.
type Chain struct {
	sampleRate float64

	left  channel
	right channel

	lastFilterFreq float64
	lastFilterRes  float64
	lastReverbDecay float64
}

// New constructs a Chain for the given host sample rate.
func New(sampleRate float64) (*Chain, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("fx: sample rate must be > 0: %f", sampleRate)
	}

	c := &Chain{sampleRate: sampleRate}

	for _, ch := range []*channel{&c.left, &c.right} {
		dist, err := effects.NewDistortion(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("fx: new distortion: %w", err)
		}

		delay, err := effects.NewDelay(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("fx: new delay: %w", err)
		}

		ch.distortion = dist
		ch.delay = delay
		ch.reverb = effects.NewReverb()
	}

	c.lastFilterFreq = -1
	c.lastFilterRes = -1
	c.lastReverbDecay = -1

	return c, nil
}

// Process runs left and right through the five-stage cascade in place:
// lowpass, distortion, delay+feedback, reverb, master gain. p must
// already carry modulated, clamped values (engine.FXParams's contract).
func (c *Chain) Process(p params.FXParams, left, right []float64) error {
	c.updateLowpass(p.FilterFreq, p.FilterRes)
	c.updateReverb(p.ReverbDecay)

	if err := c.setDistortionParams(&c.left, p.DistAmount); err != nil {
		return err
	}
	if err := c.setDistortionParams(&c.right, p.DistAmount); err != nil {
		return err
	}

	if err := c.setDelayParams(&c.left, p); err != nil {
		return err
	}
	if err := c.setDelayParams(&c.right, p); err != nil {
		return err
	}

	c.left.reverb.SetWet(p.ReverbMix)
	c.left.reverb.SetDry(1 - p.ReverbMix)
	c.right.reverb.SetWet(p.ReverbMix)
	c.right.reverb.SetDry(1 - p.ReverbMix)

	c.processChannel(&c.left, left)
	c.processChannel(&c.right, right)

	vecmath.ScaleBlockInPlace(left, p.MasterGain)
	vecmath.ScaleBlockInPlace(right, p.MasterGain)

	return nil
}

func (c *Chain) setDistortionParams(ch *channel, distAmount float64) error {
	drive := minDistortionDrive + distAmount*(maxDistortionDrive-minDistortionDrive)
	if err := ch.distortion.SetDrive(drive); err != nil {
		return fmt.Errorf("fx: set distortion drive: %w", err)
	}

	if err := ch.distortion.SetMix(distAmount); err != nil {
		return fmt.Errorf("fx: set distortion mix: %w", err)
	}

	return nil
}

func (c *Chain) setDelayParams(ch *channel, p params.FXParams) error {
	if err := ch.delay.SetTargetTime(math.Max(p.DelayTime, 0.001)); err != nil {
		return fmt.Errorf("fx: set delay time: %w", err)
	}

	feedback := p.DelayFeedback
	if feedback > delayFeedbackCeiling {
		feedback = delayFeedbackCeiling
	}
	if err := ch.delay.SetFeedback(feedback); err != nil {
		return fmt.Errorf("fx: set delay feedback: %w", err)
	}
	if err := ch.delay.SetMix(p.DelayMix); err != nil {
		return fmt.Errorf("fx: set delay mix: %w", err)
	}

	return nil
}

func (c *Chain) processChannel(ch *channel, buf []float64) {
	for i, x := range buf {
		y := ch.lowpass.ProcessSample(x)
		y = ch.distortion.ProcessSample(y)
		y = ch.delay.ProcessSample(y)
		y = ch.reverb.ProcessSample(y)
		buf[i] = y
	}
}

func (c *Chain) updateLowpass(freq, q float64) {
	if math.Abs(freq-c.lastFilterFreq) < filterDeadZoneHz && math.Abs(q-c.lastFilterRes) < filterDeadZoneQ {
		return
	}

	coeffs := rbjLowpass(freq, q, c.sampleRate)
	c.left.lowpass.SetCoeffs(coeffs)
	c.right.lowpass.SetCoeffs(coeffs)

	c.lastFilterFreq = freq
	c.lastFilterRes = q
}

func (c *Chain) updateReverb(decay float64) {
	if math.Abs(decay-c.lastReverbDecay) < reverbDeadZone {
		return
	}

	t := (decay - params.RangeReverbDecay.Min) / (params.RangeReverbDecay.Max - params.RangeReverbDecay.Min)
	roomSize := 0.1 + t*0.85
	damp := 1 - t*0.9

	c.left.reverb.SetRoomSize(roomSize)
	c.left.reverb.SetDamp(damp)
	c.right.reverb.SetRoomSize(roomSize)
	c.right.reverb.SetDamp(damp)

	c.lastReverbDecay = decay
}
