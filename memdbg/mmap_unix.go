//go:build unix

package memdbg

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapArena is an Arena whose pages come from an anonymous private
// mapping instead of the Go heap, keeping large tracked arenas out of the
// garbage collector's view. Close releases the mapping; no buffer handed
// out by the arena may be touched after that.
type MmapArena struct {
	Arena
}

// NewMmapArena maps capacity bytes and returns the arena over them.
func NewMmapArena(capacity int) (*MmapArena, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("mmap arena: invalid capacity %d", capacity)
	}
	data, err := unix.Mmap(-1, 0, capacity,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap arena: %w", err)
	}
	return &MmapArena{Arena: Arena{buf: data}}, nil
}

// Close unmaps the arena's pages. Closing twice is a no-op.
func (m *MmapArena) Close() error {
	if m.buf == nil {
		return nil
	}
	data := m.buf
	m.buf = nil
	m.next = 0
	if err := unix.Munmap(data); err != nil && !errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("unmap arena: %w", err)
	}
	return nil
}
