//go:build darwin

package sysmem

import (
	"golang.org/x/sys/unix"
)

// Resident returns the best available resident figure in bytes.
//
// macOS has no /proc; reading the true current RSS needs a mach task_info
// call that x/sys does not wrap, so the high-water mark stands in.
func Resident() (uint64, error) {
	return Peak()
}

// Peak returns the peak resident set size in bytes.
//
// Getrusage reports Maxrss in bytes on macOS.
func Peak() (uint64, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	return uint64(ru.Maxrss), nil
}
