// Package timing provides pre-sized per-stage latency sample buffers and a
// scoped timer that records one nanosecond duration per call without
// allocating, plus an end-of-run percentile summarizer.
package timing

import (
	"sort"
	"time"
)

// SampleBuffer is a pre-sized, append-only vector of nanosecond durations.
// Writes past capacity are silently dropped — the buffer itself defines the
// capacity, matching the pre-sizing discipline the whole harness depends on.
type SampleBuffer struct {
	ns  []uint64
	idx int
}

// NewSampleBuffer allocates a buffer sized to cap samples. This is the only
// allocation; it must happen before the allocation tripwire is armed.
func NewSampleBuffer(cap int) *SampleBuffer {
	return &SampleBuffer{ns: make([]uint64, cap)}
}

// Push records one sample. Out-of-bounds writes (idx >= cap) are dropped.
func (b *SampleBuffer) Push(v uint64) {
	if b.idx < len(b.ns) {
		b.ns[b.idx] = v
	}
	b.idx++
}

// Len reports how many samples were pushed (may exceed capacity; samples
// beyond capacity were dropped, not stored).
func (b *SampleBuffer) Len() int { return b.idx }

// Samples returns the stored slice, truncated to min(Len(), capacity).
func (b *SampleBuffer) Samples() []uint64 {
	n := b.idx
	if n > len(b.ns) {
		n = len(b.ns)
	}
	return b.ns[:n]
}

// ScopedTimer records monotonic time at construction and writes the elapsed
// duration in nanoseconds to buf when Stop is called. The caller is
// responsible for calling Stop (typically via defer) exactly once.
type ScopedTimer struct {
	buf   *SampleBuffer
	start time.Time
}

// Start begins timing a stage, writing the elapsed duration into buf on Stop.
func Start(buf *SampleBuffer) ScopedTimer {
	return ScopedTimer{buf: buf, start: time.Now()}
}

// Stop records the elapsed duration since Start.
func (t ScopedTimer) Stop() {
	t.buf.Push(uint64(time.Since(t.start).Nanoseconds()))
}

// StageTimers groups the five canonical pipeline stages' sample buffers.
type StageTimers struct {
	Parse *SampleBuffer
	Lob   *SampleBuffer
	Sig   *SampleBuffer
	Risk  *SampleBuffer
	E2E   *SampleBuffer
}

// NewStageTimers allocates all five stage buffers with the given capacity.
func NewStageTimers(cap int) *StageTimers {
	return &StageTimers{
		Parse: NewSampleBuffer(cap),
		Lob:   NewSampleBuffer(cap),
		Sig:   NewSampleBuffer(cap),
		Risk:  NewSampleBuffer(cap),
		E2E:   NewSampleBuffer(cap),
	}
}

// Quantile operates on ns[warmup..min(total,len(ns))], selecting the
// floor((n-1)*q)-th smallest element by copy-then-sort partial selection,
// and returns it in microseconds. Returns 0 if the windowed range has fewer
// than 2 samples.
func Quantile(ns []uint64, warmup, total int, q float64) float64 {
	start := warmup
	if start > len(ns) {
		start = len(ns)
	}
	end := total
	if end > len(ns) {
		end = len(ns)
	}
	if end <= start+1 {
		return 0
	}

	window := make([]uint64, end-start)
	copy(window, ns[start:end])
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })

	k := int(float64(len(window)-1) * q)
	return float64(window[k]) / 1000.0
}

// Summary holds the canonical percentile outputs for one stage.
type Summary struct {
	P50  float64
	P90  float64
	P99  float64
	P999 float64
}

// Summarize computes the canonical percentiles for one stage's samples.
func Summarize(ns []uint64, warmup, total int) Summary {
	return Summary{
		P50:  Quantile(ns, warmup, total, 0.50),
		P90:  Quantile(ns, warmup, total, 0.90),
		P99:  Quantile(ns, warmup, total, 0.99),
		P999: Quantile(ns, warmup, total, 0.999),
	}
}
