package rng

import "testing"

func TestDeterministic(t *testing.T) {
	a := New(12345)
	b := New(12345)

	for i := 0; i < 1000; i++ {
		av := a.Float64()
		bv := b.Float64()
		if av != bv {
			t.Fatalf("sample %d diverged: %v != %v", i, av, bv)
		}
	}
}

func TestFloat64Range(t *testing.T) {
	s := New(1)

	for i := 0; i < 100000; i++ {
		v := s.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64 out of [0,1): %v", v)
		}
	}
}

func TestZeroSeedRemapped(t *testing.T) {
	s := New(0)
	if s.state != 1 {
		t.Fatalf("zero seed not remapped: %v", s.state)
	}

	s.Seed(0)
	if s.state != 1 {
		t.Fatalf("zero reseed not remapped: %v", s.state)
	}
}

func TestUniformRange(t *testing.T) {
	s := New(7)

	for i := 0; i < 10000; i++ {
		v := s.Uniform(-3, 5)
		if v < -3 || v >= 5 {
			t.Fatalf("Uniform out of range: %v", v)
		}
	}
}
