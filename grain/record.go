// Package grain implements the per-grain DSP and the fixed-capacity grain
// pool: spawn-time parameter capture, linear-interpolating buffer reads,
// the nine-region envelope, and equal-power panning.
//
// This package's structure is grounded on dsp/effects/granular.go's
// fixed-voice-array design (granularGrain, spawnGrain's slot-scan, the
// ProcessSample accumulate loop) and the original_source grain engine's
// exact spawn/envelope math, adapted for stereo pan, oldest-dying
// eviction, pitch/detune/FM/reversal, and a nine-region click-safe
// envelope in place of the teacher's single Hann window.
package grain

const (
	// fadeRatio is the fixed anti-click pre-roll fraction of envPhase.
	fadeRatio = 0.01
	// epsilon is the click-safety floor value reached at the end of the
	// fade-in and the start of the release snap.
	epsilon = 0.001
	// minSnapSpan is the minimum attack/release span below which the
	// envelope snaps directly to its boundary value rather than ramping.
	minSnapSpan = epsilon
)

// Record is a plain-data description of one active grain's playback
// state, envelope progress, and pan gains. It holds no heap references.
type Record struct {
	Active bool

	ReadPos          float64
	Rate             float64
	SamplesTotal     int
	SamplesRemaining int

	EnvPhase       float64
	EnvIncrement   float64
	AttackRatio    float64
	ReleaseRatio   float64
	ExponentialEnv bool

	PanL, PanR float64

	// Visualization snapshot, captured at spawn time.
	NormStart   float64
	DurationSec float64
	Pan         float64
}

// envelope evaluates the nine-region amplitude envelope of spec.md §4.7
// at the given phase in [0,1].
func envelope(phase, attackRatio, releaseRatio float64, exponential bool) float64 {
	switch {
	case phase < fadeRatio:
		return phase / fadeRatio * epsilon
	case phase < attackRatio:
		span := attackRatio - fadeRatio
		if span < minSnapSpan {
			return epsilon
		}

		t := (phase - fadeRatio) / span
		if exponential {
			t *= t
		}

		return epsilon + t*(1-epsilon)
	case phase < 1-releaseRatio:
		return 1.0
	default:
		if releaseRatio < minSnapSpan {
			return 0
		}

		t := (phase - (1 - releaseRatio)) / releaseRatio

		v := 1 - t
		if v < 0 {
			v = 0
		}
		if exponential {
			v *= v
		}

		return v
	}
}
