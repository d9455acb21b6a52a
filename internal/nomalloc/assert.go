package nomalloc

import "testing"

// AssertZeroAllocs runs f once to prime any lazy initialization, then uses
// testing.AllocsPerRun to fail t if a subsequent run of f allocates. This is
// the Go-idiomatic stand-in for the original tripwire's process-abort-on-
// malloc behavior: it is only meaningful in tests, called on the packaged-up
// hot-path operations (internal/lob's Add/Cancel) after warmup.
func AssertZeroAllocs(t *testing.T, f func()) {
	t.Helper()
	f() // warm up caches, lazy slice growth, etc. before measuring
	allocs := testing.AllocsPerRun(1, f)
	if allocs > 0 {
		t.Fatalf("expected zero allocations post-warmup, got %.0f", allocs)
	}
}
