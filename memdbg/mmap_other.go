//go:build !unix

package memdbg

import "fmt"

// MmapArena falls back to a heap-backed Arena on platforms without an
// anonymous-mapping path.
type MmapArena struct {
	Arena
}

// NewMmapArena returns a heap-backed arena of the given capacity.
func NewMmapArena(capacity int) (*MmapArena, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("mmap arena: invalid capacity %d", capacity)
	}
	return &MmapArena{Arena: Arena{buf: make([]byte, capacity)}}, nil
}

// Close releases the backing slice. Closing twice is a no-op.
func (m *MmapArena) Close() error {
	m.buf = nil
	m.next = 0
	return nil
}
