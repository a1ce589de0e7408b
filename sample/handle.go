package sample

import "sync/atomic"

// Handle publishes Buffer replacements from a control thread to a single
// audio-thread reader without locks. The audio thread calls Load once per
// block (spec.md §5: "a replacement buffer is published by the producer
// and picked up at the next block boundary").
type Handle struct {
	ptr atomic.Pointer[Buffer]
}

// Publish installs buf as the current buffer. Safe to call from any
// thread; takes effect for the reader's next Load.
func (h *Handle) Publish(buf *Buffer) {
	h.ptr.Store(buf)
}

// Load returns the currently published buffer, or nil if none has been
// published yet.
func (h *Handle) Load() *Buffer {
	return h.ptr.Load()
}
