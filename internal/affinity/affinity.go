// Package affinity pins the current OS thread to a specific logical CPU on
// Linux, best-effort elsewhere, so a backtest run's latency numbers aren't
// perturbed by the scheduler migrating it mid-run.
package affinity

import (
	"fmt"
	"runtime"
)

// PinToCore locks the calling goroutine to its current OS thread and pins
// that thread to coreID. It returns a human-readable status string and a
// nil error on success or where pinning is unsupported. On Linux it returns
// an error when sched_setaffinity fails (with a non-empty status string) and
// when coreID is negative (with an empty status string, before attempting).
func PinToCore(coreID int) (string, error) {
	return pinToCore(coreID)
}

func unsupported(coreID int) (string, error) {
	return fmt.Sprintf("%s: core pinning not supported, running unpinned (requested core %d)", runtime.GOOS, coreID), nil
}
