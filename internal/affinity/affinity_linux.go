//go:build linux

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

func pinToCore(coreID int) (string, error) {
	if coreID < 0 {
		return "", fmt.Errorf("affinity: core id must be >= 0, got %d", coreID)
	}

	runtime.LockOSThread()

	var set unix.CPUSet
	set.Set(coreID)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Sprintf("linux core %d pin-failed", coreID), fmt.Errorf("affinity: sched_setaffinity(core %d): %w", coreID, err)
	}
	return fmt.Sprintf("linux core %d pinned", coreID), nil
}
