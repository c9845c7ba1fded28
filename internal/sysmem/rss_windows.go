//go:build windows

package sysmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Resident returns the current working set size in bytes.
func Resident() (uint64, error) {
	info, err := memoryCounters()
	if err != nil {
		return 0, err
	}
	return uint64(info.WorkingSetSize), nil
}

// Peak returns the peak working set size in bytes.
func Peak() (uint64, error) {
	info, err := memoryCounters()
	if err != nil {
		return 0, err
	}
	return uint64(info.PeakWorkingSetSize), nil
}

func memoryCounters() (*windows.PROCESS_MEMORY_COUNTERS, error) {
	var info windows.PROCESS_MEMORY_COUNTERS
	err := windows.GetProcessMemoryInfo(
		windows.CurrentProcess(),
		&info,
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		return nil, err
	}
	return &info, nil
}
