//go:build !linux && !darwin && !windows

package sysmem

// Resident is unavailable on this platform.
func Resident() (uint64, error) {
	return 0, ErrUnsupported
}

// Peak is unavailable on this platform.
func Peak() (uint64, error) {
	return 0, ErrUnsupported
}
