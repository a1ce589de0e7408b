package lfo

import (
	"math"
	"testing"
)

func TestSineShape(t *testing.T) {
	cases := []struct {
		t, rate float64
		want    float64
	}{
		{0, 1, 0},
		{0.25, 1, 1},
		{0.5, 1, 0},
		{0.75, 1, -1},
	}
	for _, c := range cases {
		got := Eval(c.t, c.rate, Sine)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Eval(%v,%v,Sine) = %v, want %v", c.t, c.rate, got, c.want)
		}
	}
}

func TestSquareShape(t *testing.T) {
	if Eval(0, 1, Square) != 1 {
		t.Errorf("expected +1 at phase 0")
	}
	if Eval(0.6, 1, Square) != -1 {
		t.Errorf("expected -1 at phase 0.6")
	}
}

func TestSawtoothShape(t *testing.T) {
	got := Eval(0.25, 1, Sawtooth)
	want := -0.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Eval sawtooth = %v, want %v", got, want)
	}
}

func TestTriangleShape(t *testing.T) {
	got := Eval(0, 1, Triangle)
	want := 1.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("triangle at phase 0 = %v, want %v", got, want)
	}

	got = Eval(0.25, 1, Triangle)
	want = 0.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("triangle at phase 0.25 = %v, want %v", got, want)
	}
}

func TestAllShapesBounded(t *testing.T) {
	shapes := []Shape{Sine, Triangle, Square, Sawtooth}
	for _, sh := range shapes {
		for i := 0; i < 1000; i++ {
			tSec := float64(i) * 0.0013
			v := Eval(tSec, 3.7, sh)
			if v < -1-1e-9 || v > 1+1e-9 {
				t.Fatalf("shape %v out of range at t=%v: %v", sh, tSec, v)
			}
		}
	}
}

func TestNegativeTimeFract(t *testing.T) {
	// Negative engine time should never occur in practice, but fract must
	// still normalize correctly if it does.
	got := Eval(-0.25, 1, Sawtooth)
	want := Eval(0.75, 1, Sawtooth)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("negative time not normalized: got %v, want %v", got, want)
	}
}
