package memdbg

// Backing supplies the raw bytes behind guarded allocations. The default
// backing draws from the Go heap and never fails; a bounded backing (such
// as Arena) returns nil on exhaustion, which Alloc reports as an
// allocation-failure event and propagates as a nil buffer.
type Backing interface {
	// Allocate returns a zeroed slice of exactly n bytes, or nil when the
	// backing cannot satisfy the request.
	Allocate(n int) []byte
}

type heapBacking struct{}

func (heapBacking) Allocate(n int) []byte { return make([]byte, n) }

// Arena is a fixed-capacity bump backing. Once the budget is spent every
// further Allocate returns nil; freed blocks are not recycled. It exists
// to exercise exhaustion paths and to bound tracked memory in embedded
// scenarios.
type Arena struct {
	buf  []byte
	next int
}

// NewArena creates an arena with the given byte capacity.
func NewArena(capacity int) *Arena {
	return &Arena{buf: make([]byte, capacity)}
}

// Allocate bumps the arena cursor. Returns nil when fewer than n bytes
// remain.
func (a *Arena) Allocate(n int) []byte {
	if n <= 0 || a.next+n > len(a.buf) {
		return nil
	}
	out := a.buf[a.next : a.next+n : a.next+n]
	a.next += n
	return out
}

// Remaining reports the unspent byte budget.
func (a *Arena) Remaining() int { return len(a.buf) - a.next }
