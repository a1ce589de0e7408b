package sample

import "testing"

func TestNewValidatesLength(t *testing.T) {
	_, err := New(make([]float32, 5), 2, 3)
	if err == nil {
		t.Fatal("expected error on mismatched length")
	}
}

func TestNewAcceptsMatchingLength(t *testing.T) {
	b, err := New(make([]float32, 6), 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Length != 3 || b.Channels != 2 {
		t.Fatalf("unexpected buffer shape: %+v", b)
	}
}

func TestAtOutOfBoundsIsZero(t *testing.T) {
	b, _ := New([]float32{1, 2, 3, 4}, 1, 4)
	if b.At(0, -1) != 0 {
		t.Errorf("expected 0 for negative frame")
	}
	if b.At(0, 4) != 0 {
		t.Errorf("expected 0 for frame past end")
	}
	if b.At(1, 0) != 0 {
		t.Errorf("expected 0 for invalid channel")
	}
}

func TestAtNilBufferIsZero(t *testing.T) {
	var b *Buffer
	if b.At(0, 0) != 0 {
		t.Errorf("expected 0 for nil buffer")
	}
}

func TestHandlePublishAndLoad(t *testing.T) {
	var h Handle
	if h.Load() != nil {
		t.Fatal("expected nil before publish")
	}

	b, _ := New([]float32{1, 2}, 1, 2)
	h.Publish(b)
	if h.Load() != b {
		t.Fatal("expected published buffer back from Load")
	}
}
