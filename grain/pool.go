package grain

import (
	"math"

	"github.com/opengrain/granular/rng"
	"github.com/opengrain/granular/sample"
)

// Capacity is the fixed grain pool size (spec.md §6).
const Capacity = 128

// Pool is a fixed-capacity array of grain Records. At most Capacity
// grains are active at any time; spawning reuses an inactive slot if one
// exists, otherwise evicts the grain with the smallest SamplesRemaining
// (oldest-dying eviction, spec.md §3).
type Pool struct {
	slots [Capacity]Record
}

// Slots returns a read-only view of every pool slot, active or not, for
// diagnostics and visualization callers that need more than ActiveCount.
func (p *Pool) Slots() []Record {
	return p.slots[:]
}

// ActiveCount returns the number of currently active grains.
func (p *Pool) ActiveCount() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Active {
			n++
		}
	}
	return n
}

// Reset deactivates every grain immediately, used by stop() (spec.md
// §4.5: "On stop, all grains are immediately deactivated").
func (p *Pool) Reset() {
	for i := range p.slots {
		p.slots[i] = Record{}
	}
}

// SpawnInput carries the already-smoothed, already-modulated scalar
// parameters a single grain spawn needs. The grain package does not know
// about the modulation mux or smoothers; the engine resolves those and
// passes plain numbers here.
type SpawnInput struct {
	SampleRate   float64
	BufferLength int
	EngineTime   float64

	GrainSize      float64 // seconds
	Pitch          float64 // semitones
	Detune         float64 // cents, symmetric
	FMFreq         float64 // Hz
	FMAmount       float64 // 0..100
	ReversalChance float64 // 0..1

	Position  float64 // normalized [0,1]
	Spread    float64 // dimensionless
	Pan       float64 // [-1,+1]
	PanSpread float64 // [0,1]

	Attack      float64
	Release     float64
	Exponential bool
}

// Spawn allocates a slot and initializes a new grain from in, returning a
// copy of the spawned Record for visualization (spec.md §4.6).
func (p *Pool) Spawn(in SpawnInput, src *rng.Source) Record {
	slot := p.allocSlot()

	grainSize := in.GrainSize
	if grainSize < 0.01 {
		grainSize = 0.01
	}

	samplesTotal := int(math.Round(grainSize * in.SampleRate))
	if samplesTotal < 1 {
		samplesTotal = 1
	}

	cents := in.Pitch*100 + src.Uniform(-in.Detune, in.Detune)
	rate := math.Pow(2, cents/1200)

	reversed := src.Float64() < in.ReversalChance

	finalRate := rate
	if in.FMAmount > 0 {
		fmMod := math.Sin(in.EngineTime*in.FMFreq) * (in.FMAmount * 0.01)
		finalRate = math.Max(0.1, math.Abs(rate+fmMod))
	} else {
		finalRate = math.Abs(rate)
	}
	if reversed {
		finalRate = -finalRate
	}

	bufLen := float64(in.BufferLength)
	maxStart := bufLen - float64(samplesTotal)*math.Abs(finalRate)
	if maxStart < 0 {
		maxStart = 0
	}

	center := in.Position * bufLen
	offset := src.Signed() * in.Spread * bufLen * 0.5
	start := clamp(center+offset, 0, maxStart)

	if reversed {
		start = math.Min(start+float64(samplesTotal)*math.Abs(finalRate), bufLen-1)
	}

	randomPan := src.Signed() * in.PanSpread
	finalPan := clamp(in.Pan+randomPan, -1, 1)
	theta := (finalPan + 1) * math.Pi / 4
	panL := math.Cos(theta)
	panR := math.Sin(theta)

	rec := Record{
		Active:           true,
		ReadPos:          start,
		Rate:             finalRate,
		SamplesTotal:     samplesTotal,
		SamplesRemaining: samplesTotal,
		EnvPhase:         0,
		EnvIncrement:     1.0 / float64(samplesTotal),
		AttackRatio:      in.Attack,
		ReleaseRatio:     in.Release,
		ExponentialEnv:   in.Exponential,
		PanL:             panL,
		PanR:             panR,
		NormStart:        start / math.Max(bufLen, 1),
		DurationSec:      grainSize,
		Pan:              finalPan,
	}

	p.slots[slot] = rec

	return rec
}

// allocSlot scans for an inactive slot; if none exists, steals the slot
// with the smallest SamplesRemaining.
func (p *Pool) allocSlot() int {
	for i := range p.slots {
		if !p.slots[i].Active {
			return i
		}
	}

	victim := 0
	smallest := p.slots[0].SamplesRemaining
	for i := 1; i < Capacity; i++ {
		if p.slots[i].SamplesRemaining < smallest {
			smallest = p.slots[i].SamplesRemaining
			victim = i
		}
	}

	return victim
}

// Mix processes numFrames = len(outL) samples of every active grain into
// outL/outR, advancing each grain's state exactly once per sample
// (spec.md §4.7, §4.8 step 7). Callers must zero outL/outR beforehand.
func (p *Pool) Mix(buf *sample.Buffer, outL, outR []float64) {
	bufLen := 0
	if buf != nil {
		bufLen = buf.Length
	}

	for i := range p.slots {
		g := &p.slots[i]
		if !g.Active {
			continue
		}

		for n := range outL {
			if g.SamplesRemaining <= 0 {
				g.Active = false
				break
			}

			s := readLinear(buf, g.ReadPos)
			env := envelope(g.EnvPhase, g.AttackRatio, g.ReleaseRatio, g.ExponentialEnv)

			outL[n] += s * env * g.PanL
			outR[n] += s * env * g.PanR

			g.ReadPos += g.Rate
			g.EnvPhase += g.EnvIncrement
			g.SamplesRemaining--

			if g.ReadPos < 0 || g.ReadPos >= float64(bufLen) || g.SamplesRemaining <= 0 {
				g.Active = false
				break
			}
		}
	}
}

// readLinear linearly interpolates buf (downmixed to mono across
// channels) at fractional position pos, per spec.md §4.7: in-bounds
// reads interpolate, the last valid index returns its own sample, and
// anything else returns silence.
func readLinear(buf *sample.Buffer, pos float64) float64 {
	if buf == nil || buf.Length == 0 {
		return 0
	}

	idx := int(math.Floor(pos))
	frac := pos - float64(idx)

	if idx < 0 || idx >= buf.Length-1 {
		if idx == buf.Length-1 {
			return monoAt(buf, idx)
		}
		return 0
	}

	v0 := monoAt(buf, idx)
	v1 := monoAt(buf, idx+1)

	return v0 + (v1-v0)*frac
}

func monoAt(buf *sample.Buffer, frame int) float64 {
	if buf.Channels == 1 {
		return float64(buf.At(0, frame))
	}

	sum := 0.0
	for c := 0; c < buf.Channels; c++ {
		sum += float64(buf.At(c, frame))
	}

	return sum / float64(buf.Channels)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
