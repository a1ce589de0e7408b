// Package params defines the engine's flat parameter record, its
// documented numeric ranges, and the LFO modulation target mask and scale
// table. The bit positions and scale values below are a wire contract
// shared with UI consumers and must not be renumbered or rescaled.
package params

import "github.com/opengrain/granular/lfo"

// Target is a bit position in the LFO modulation mask.
type Target uint32

const (
	TargetGrainSize     Target = 1 << 0
	TargetDensity       Target = 1 << 1
	TargetSpread        Target = 1 << 2
	TargetPosition      Target = 1 << 3
	TargetPitch         Target = 1 << 4
	TargetFMFreq        Target = 1 << 5
	TargetFMAmount      Target = 1 << 6
	TargetFilterFreq    Target = 1 << 7
	TargetFilterRes     Target = 1 << 8
	TargetAttack        Target = 1 << 9
	TargetRelease       Target = 1 << 10
	TargetDistAmount    Target = 1 << 11
	TargetDelayMix      Target = 1 << 12
	TargetDelayTime     Target = 1 << 13
	TargetDelayFeedback Target = 1 << 14
	TargetPan           Target = 1 << 15
	TargetPanSpread     Target = 1 << 16
)

// Range describes the inclusive clamp bounds for one parameter.
type Range struct {
	Min, Max float64
}

// Clamp restricts v to [r.Min, r.Max].
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Documented numeric ranges, spec.md §6.
var (
	RangeGrainSize        = Range{0.01, 0.5}
	RangeDensity          = Range{0.005, 0.5}
	RangeSpread           = Range{0.0, 2.0}
	RangePosition         = Range{0.0, 1.0}
	RangeGrainReversal    = Range{0.0, 1.0}
	RangePan              = Range{-1.0, 1.0}
	RangePanSpread        = Range{0.0, 1.0}
	RangePitch            = Range{-24, 24}
	RangeDetune           = Range{0, 100}
	RangeFMFreq           = Range{0, 1000}
	RangeFMAmount         = Range{0, 100}
	RangeAttackRelease    = Range{0.01, 0.9}
	RangeLFORate          = Range{0.1, 20}
	RangeLFOAmount        = Range{0.0, 1.0}
	RangeFilterFreq       = Range{20, 20000}
	RangeFilterRes        = Range{0.1, 20}
	RangeDistAmount       = Range{0, 1}
	RangeDelayMix         = Range{0, 1}
	RangeDelayTime        = Range{0, 2}
	RangeDelayFeedback    = Range{0, 0.95}
	RangeReverbMix        = Range{0, 1}
	RangeReverbDecay      = Range{0.1, 10}
	RangeMasterGain       = Range{0, 1.5}
)

// scaleEntry binds a target bit to its modulation scale and clamp range.
type scaleEntry struct {
	target Target
	scale  float64
	rng    Range
}

// modTable is the LFO modulation scale table of spec.md §6, in bit order.
var modTable = []scaleEntry{
	{TargetGrainSize, 0.2, RangeGrainSize},
	{TargetDensity, 0.1, RangeDensity},
	{TargetSpread, 1.0, RangeSpread},
	{TargetPosition, 0.5, RangePosition},
	{TargetPitch, 24, RangePitch},
	{TargetFMFreq, 200, RangeFMFreq},
	{TargetFMAmount, 50, RangeFMAmount},
	{TargetFilterFreq, 5000, RangeFilterFreq},
	{TargetFilterRes, 10, RangeFilterRes},
	{TargetAttack, 0.5, RangeAttackRelease},
	{TargetRelease, 0.5, RangeAttackRelease},
	{TargetDistAmount, 0.5, RangeDistAmount},
	{TargetDelayMix, 0.5, RangeDelayMix},
	{TargetDelayTime, 0.5, RangeDelayTime},
	{TargetDelayFeedback, 0.5, RangeDelayFeedback},
	{TargetPan, 1.0, RangePan},
	{TargetPanSpread, 1.0, RangePanSpread},
}

func entryFor(t Target) scaleEntry {
	for _, e := range modTable {
		if e.target == t {
			return e
		}
	}
	return scaleEntry{}
}

// Modulated applies the LFO modulation mux (spec.md §4.3) for target t:
// if mask has the bit for t set, returns clamp(base + lfoValue*depth*scale,
// lo, hi); otherwise returns base unchanged.
func Modulated(base float64, mask Target, t Target, lfoValue, depth float64) float64 {
	if mask&t == 0 {
		return base
	}

	e := entryFor(t)
	return e.rng.Clamp(base + lfoValue*depth*e.scale)
}

// Engine is the flat parameter record forwarded from control thread to
// audio thread. The engine reads the grain-related fields and
// LFOTargetMask/LFOAmount/LFORate/LFOShape directly; the FX fields reach
// the effects chain through an FXParams snapshot, with the LFO modulation
// mux applied to those that have a Target bit.
type Engine struct {
	GrainSize           float64
	Density             float64
	Position            float64
	Spread              float64
	Pan                 float64
	PanSpread           float64
	Pitch               float64
	Detune              float64
	FMFreq              float64
	FMAmount            float64
	Attack              float64
	Release             float64
	ExponentialEnv      bool
	GrainReversalChance float64

	LFORate       float64
	LFOAmount     float64
	LFOShape      lfo.Shape
	LFOTargetMask Target

	// FX fields, handed to the fx package through FXParams.
	FilterFreq    float64
	FilterRes     float64
	DistAmount    float64
	DelayMix      float64
	DelayTime     float64
	DelayFeedback float64
	ReverbMix     float64
	ReverbDecay   float64
	MasterGain    float64
}

// FXParams is the already-modulated snapshot of the FX pass-through
// fields that the engine hands to fx.Chain once per block. The engine
// owns the LFO and modulation mux, so FX values reaching this struct
// have already had Modulated applied (where a Target bit exists) and
// been clamped to their ranges; MasterGain is the smoothed volume.
type FXParams struct {
	FilterFreq    float64
	FilterRes     float64
	DistAmount    float64
	DelayMix      float64
	DelayTime     float64
	DelayFeedback float64
	ReverbMix     float64
	ReverbDecay   float64
	MasterGain    float64
}

// Default returns a parameter record with conservative, audible defaults.
func Default() Engine {
	return Engine{
		GrainSize:           0.08,
		Density:             0.05,
		Position:            0.5,
		Spread:              0.2,
		Pan:                 0,
		PanSpread:           0,
		Pitch:               0,
		Detune:              0,
		FMFreq:              0,
		FMAmount:            0,
		Attack:              0.2,
		Release:             0.2,
		GrainReversalChance: 0,
		LFORate:             1,
		LFOAmount:           0,
		LFOShape:            lfo.Sine,
		LFOTargetMask:       0,
		FilterFreq:          20000,
		FilterRes:           0.707,
		DistAmount:          0,
		DelayMix:            0,
		DelayTime:           0.25,
		DelayFeedback:       0.3,
		ReverbMix:           0,
		ReverbDecay:         1.5,
		MasterGain:          1,
	}
}

// Clamped returns a copy of p with every field restricted to its
// documented range (spec.md §3: "the engine clamps all modulated values
// to these bounds").
func (p Engine) Clamped() Engine {
	p.GrainSize = RangeGrainSize.Clamp(p.GrainSize)
	p.Density = RangeDensity.Clamp(p.Density)
	p.Position = RangePosition.Clamp(p.Position)
	p.Spread = RangeSpread.Clamp(p.Spread)
	p.Pan = RangePan.Clamp(p.Pan)
	p.PanSpread = RangePanSpread.Clamp(p.PanSpread)
	p.Pitch = RangePitch.Clamp(p.Pitch)
	p.Detune = RangeDetune.Clamp(p.Detune)
	p.FMFreq = RangeFMFreq.Clamp(p.FMFreq)
	p.FMAmount = RangeFMAmount.Clamp(p.FMAmount)
	p.Attack = RangeAttackRelease.Clamp(p.Attack)
	p.Release = RangeAttackRelease.Clamp(p.Release)
	p.GrainReversalChance = RangeGrainReversal.Clamp(p.GrainReversalChance)
	p.LFORate = RangeLFORate.Clamp(p.LFORate)
	p.LFOAmount = RangeLFOAmount.Clamp(p.LFOAmount)
	p.FilterFreq = RangeFilterFreq.Clamp(p.FilterFreq)
	p.FilterRes = RangeFilterRes.Clamp(p.FilterRes)
	p.DistAmount = RangeDistAmount.Clamp(p.DistAmount)
	p.DelayMix = RangeDelayMix.Clamp(p.DelayMix)
	p.DelayTime = RangeDelayTime.Clamp(p.DelayTime)
	p.DelayFeedback = RangeDelayFeedback.Clamp(p.DelayFeedback)
	p.ReverbMix = RangeReverbMix.Clamp(p.ReverbMix)
	p.ReverbDecay = RangeReverbDecay.Clamp(p.ReverbDecay)
	p.MasterGain = RangeMasterGain.Clamp(p.MasterGain)

	return p
}
