// Package nomalloc provides the process-wide allocation tripwire: a flag
// that is armed once warmup completes and disarmed before teardown, plus a
// test helper that proves a hot-path call makes zero heap allocations while
// armed.
//
// Go offers no hook to intercept the allocator the way the original C++
// harness overrides operator new, so the "tripwire" here is advisory: the
// engine arms and disarms the flag around the measured run, no pipeline code
// branches on Enabled(), and nothing aborts on an allocation. Tests enforce
// the zero-allocation invariant directly with testing.AllocsPerRun via
// AssertZeroAllocs.
package nomalloc

import "sync/atomic"

var guardEnabled atomic.Bool

// Enable arms the tripwire. Call once the warmup event count is reached.
func Enable() {
	guardEnabled.Store(true)
}

// Disable disarms the tripwire. Call before teardown.
func Disable() {
	guardEnabled.Store(false)
}

// Enabled reports whether the tripwire is currently armed. Safe to call
// from any goroutine.
func Enabled() bool {
	return guardEnabled.Load()
}
