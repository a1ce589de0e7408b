package effects

import (
	"fmt"
	"math"
)

const (
	defaultDistortionDrive = 1.0
	defaultDistortionMix   = 1.0

	minDistortionDrive = 0.01
	maxDistortionDrive = 20.0
)

// DistortionOption mutates construction-time parameters.
type DistortionOption func(*distortionConfig) error

type distortionConfig struct {
	drive float64
	mix   float64
}

func defaultDistortionConfig() distortionConfig {
	return distortionConfig{
		drive: defaultDistortionDrive,
		mix:   defaultDistortionMix,
	}
}

// WithDistortionDrive sets input drive in [0.01, 20].
func WithDistortionDrive(drive float64) DistortionOption {
	return func(cfg *distortionConfig) error {
		if drive < minDistortionDrive || drive > maxDistortionDrive || math.IsNaN(drive) || math.IsInf(drive, 0) {
			return fmt.Errorf("distortion drive must be in [%g, %g]: %f", minDistortionDrive, maxDistortionDrive, drive)
		}

		cfg.drive = drive

		return nil
	}
}

// WithDistortionMix sets dry/wet mix in [0, 1].
func WithDistortionMix(mix float64) DistortionOption {
	return func(cfg *distortionConfig) error {
		if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
			return fmt.Errorf("distortion mix must be in [0, 1]: %f", mix)
		}

		cfg.mix = mix

		return nil
	}
}

// Distortion is a tanh waveshaper with pre-drive and dry/wet mix: the
// distortion stage fx.Chain runs once per channel per block.
type Distortion struct {
	drive float64
	mix   float64
}

// NewDistortion creates a distortion processor with validated options.
func NewDistortion(sampleRate float64, opts ...DistortionOption) (*Distortion, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("distortion sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultDistortionConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Distortion{
		drive: cfg.drive,
		mix:   cfg.mix,
	}, nil
}

// SetDrive sets input drive in [0.01, 20].
func (d *Distortion) SetDrive(drive float64) error {
	if drive < minDistortionDrive || drive > maxDistortionDrive || math.IsNaN(drive) || math.IsInf(drive, 0) {
		return fmt.Errorf("distortion drive must be in [%g, %g]: %f", minDistortionDrive, maxDistortionDrive, drive)
	}

	d.drive = drive

	return nil
}

// SetMix sets dry/wet mix in [0, 1].
func (d *Distortion) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
		return fmt.Errorf("distortion mix must be in [0, 1]: %f", mix)
	}

	d.mix = mix

	return nil
}

// ProcessSample applies tanh waveshaping to one sample.
func (d *Distortion) ProcessSample(input float64) float64 {
	dry := input
	wet := math.Tanh(input * d.drive)

	return dry*(1-d.mix) + wet*d.mix
}

// ProcessInPlace applies distortion to buf in place.
func (d *Distortion) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = d.ProcessSample(buf[i])
	}
}
