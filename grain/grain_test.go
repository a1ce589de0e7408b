package grain

import (
	"math"
	"testing"

	"github.com/opengrain/granular/rng"
	"github.com/opengrain/granular/sample"
)

func TestEnvelopeContinuityAndBounds(t *testing.T) {
	attack, release := 0.2, 0.2

	if v := envelope(0, attack, release, false); v != 0 {
		t.Errorf("env(0) = %v, want 0", v)
	}
	if v := envelope(fadeRatio, attack, release, false); v > epsilon+1e-9 {
		t.Errorf("env(fadeRatio) = %v, want <= epsilon", v)
	}
	v := envelope(attack, attack, release, false)
	if v < epsilon-1e-9 || v > 1+1e-9 {
		t.Errorf("env(attackRatio) = %v, want in [epsilon,1]", v)
	}
	if v := envelope(1-release, attack, release, false); math.Abs(v-1) > 1e-9 {
		t.Errorf("env(1-releaseRatio) = %v, want 1", v)
	}
	if v := envelope(1, attack, release, false); v > epsilon+1e-9 {
		t.Errorf("env(1) = %v, want <= epsilon", v)
	}
}

func TestEnvelopeAttackReleaseOverlap(t *testing.T) {
	// a + r > 1: sustain region collapses.
	v := envelope(0.6, 0.5, 0.6, false)
	if v < 0 || v > 1 {
		t.Errorf("envelope out of [0,1] with overlapping attack/release: %v", v)
	}
}

func TestEnvelopeBoundedUnit(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		phase := float64(i) / 1000
		for _, exp := range []bool{false, true} {
			v := envelope(phase, 0.3, 0.3, exp)
			if v < 0 || v > 1+1e-9 {
				t.Fatalf("envelope(%v, exp=%v) = %v out of bounds", phase, exp, v)
			}
		}
	}
}

func TestSpawnDeterministic(t *testing.T) {
	in := SpawnInput{
		SampleRate: 48000, BufferLength: 48000, EngineTime: 0,
		GrainSize: 0.05, Pitch: 3, Detune: 10, FMFreq: 5, FMAmount: 20,
		ReversalChance: 0.3, Position: 0.4, Spread: 0.5, Pan: 0.1, PanSpread: 0.2,
		Attack: 0.2, Release: 0.2,
	}

	var p1, p2 Pool
	r1 := rng.New(42)
	r2 := rng.New(42)

	a := p1.Spawn(in, r1)
	b := p2.Spawn(in, r2)

	if a != b {
		t.Fatalf("spawn not deterministic given same seed: %+v vs %+v", a, b)
	}
}

func TestSpawnReverseStaysInBounds(t *testing.T) {
	in := SpawnInput{
		SampleRate: 48000, BufferLength: 1000, EngineTime: 0,
		GrainSize: 0.01, Position: 0, Spread: 0, Pan: 0, PanSpread: 0,
		Attack: 0.5, Release: 0.5, ReversalChance: 1.0,
	}

	var p Pool
	r := rng.New(7)
	rec := p.Spawn(in, r)

	if rec.Rate >= 0 {
		t.Fatalf("expected reversed (negative) rate, got %v", rec.Rate)
	}
	if rec.ReadPos < 0 || rec.ReadPos >= 1000 {
		t.Fatalf("reverse grain start out of bounds: %v", rec.ReadPos)
	}
}

func TestEqualPowerPan(t *testing.T) {
	for pan := -1.0; pan <= 1.0; pan += 0.1 {
		in := SpawnInput{SampleRate: 48000, BufferLength: 1000, GrainSize: 0.01, Pan: pan, Attack: 0.5, Release: 0.5}
		var p Pool
		r := rng.New(1)
		rec := p.Spawn(in, r)

		sum := rec.PanL*rec.PanL + rec.PanR*rec.PanR
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("pan=%v: panL^2+panR^2 = %v, want 1", pan, sum)
		}
	}
}

func TestPoolCapacityAndOldestDyingEviction(t *testing.T) {
	var p Pool
	r := rng.New(1)

	in := SpawnInput{SampleRate: 48000, BufferLength: 48000, GrainSize: 0.5, Position: 0, Attack: 0.1, Release: 0.1}

	for i := 0; i < Capacity; i++ {
		p.Spawn(in, r)
	}
	if p.ActiveCount() != Capacity {
		t.Fatalf("expected %d active grains, got %d", Capacity, p.ActiveCount())
	}

	// Make slot 0 the one closest to ending.
	p.slots[0].SamplesRemaining = 1

	p.Spawn(in, r)
	if p.ActiveCount() != Capacity {
		t.Fatalf("pool should stay at capacity after eviction spawn, got %d", p.ActiveCount())
	}
	if p.slots[0].SamplesRemaining == 1 {
		t.Fatalf("expected slot with smallest SamplesRemaining to be evicted")
	}
}

func TestMixNeverLeavesReadPosOutOfBounds(t *testing.T) {
	var p Pool
	r := rng.New(3)

	buf, _ := sample.New(make([]float32, 1000), 1, 1000)
	for i := range buf.Data {
		buf.Data[i] = 1
	}

	in := SpawnInput{SampleRate: 48000, BufferLength: 1000, GrainSize: 0.01, Position: 0.5, Attack: 0.3, Release: 0.3}
	p.Spawn(in, r)

	outL := make([]float64, 512)
	outR := make([]float64, 512)
	p.Mix(buf, outL, outR)

	for i := range p.slots {
		if p.slots[i].Active && (p.slots[i].ReadPos < 0 || p.slots[i].ReadPos >= 1000) {
			t.Fatalf("active grain readPos out of bounds: %v", p.slots[i].ReadPos)
		}
	}
}

func TestResetDeactivatesAll(t *testing.T) {
	var p Pool
	r := rng.New(1)
	in := SpawnInput{SampleRate: 48000, BufferLength: 1000, GrainSize: 0.01, Attack: 0.1, Release: 0.1}
	p.Spawn(in, r)

	p.Reset()
	if p.ActiveCount() != 0 {
		t.Fatalf("expected 0 active after Reset, got %d", p.ActiveCount())
	}
}
