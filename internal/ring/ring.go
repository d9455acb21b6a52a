// Package ring implements a single-producer/single-consumer bounded ring
// buffer for replay events. Head and tail indices are cache-line padded to
// avoid false sharing between the producer and consumer cores, and use
// code.hybscloud.com/atomix's explicit-ordering atomics (relaxed loads on
// the owning side, acquire loads / release stores across the handoff) in
// place of Go's plain sync/atomic, which has no relaxed-load primitive.
//
// The harness itself runs its hot loop on a single goroutine/core, so this
// ring is built and tested as a reusable primitive; internal/engine does not
// use it.
package ring

import "code.hybscloud.com/atomix"

type pad [64]byte

// Ring is a bounded SPSC queue of T, capacity rounded up to a power of two.
type Ring[T any] struct {
	_    pad
	head atomix.Uint64 // producer-owned
	_    pad
	tail atomix.Uint64 // consumer-owned
	_    pad
	buf  []T
	mask uint64
}

// New creates a ring sized for at least capacity elements.
func New[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		panic("ring: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	return &Ring[T]{
		buf:  make([]T, n),
		mask: n - 1,
	}
}

// TryPush appends x to the ring. Returns false if the ring is full.
// Producer-side only.
func (r *Ring[T]) TryPush(x T) bool {
	head := r.head.LoadRelaxed()
	next := (head + 1) & r.mask
	if next == r.tail.LoadAcquire() {
		return false
	}
	r.buf[head] = x
	r.head.StoreRelease(next)
	return true
}

// TryPop removes and returns the oldest element. Returns false if the ring
// is empty. Consumer-side only.
func (r *Ring[T]) TryPop() (T, bool) {
	tail := r.tail.LoadRelaxed()
	if tail == r.head.LoadAcquire() {
		var zero T
		return zero, false
	}
	x := r.buf[tail]
	r.tail.StoreRelease((tail + 1) & r.mask)
	return x, true
}

// Cap returns the ring's usable capacity (one slot below the backing array
// size, since a full head==tail state is indistinguishable from empty).
func (r *Ring[T]) Cap() int {
	return int(r.mask)
}

func roundToPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
