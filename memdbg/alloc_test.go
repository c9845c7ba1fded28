package memdbg

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memtools/memkit/internal/format"
	"github.com/memtools/memkit/pkg/types"
)

// TestAlloc_RoundTrip verifies the basic alloc/use/free cycle on a guarded
// buffer.
func TestAlloc_RoundTrip(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	p := d.Alloc(32, 8, types.CategoryComponents, "Transform", "world.go:42")
	require.NotNil(t, p)
	require.Len(t, p, 32)

	// Capacity extends over the rear guard so overruns via re-slicing land
	// in the guard word instead of unrelated memory.
	require.Equal(t, 32+format.FooterSize, cap(p))

	for i := range p {
		p[i] = byte(i)
	}
	require.Equal(t, 1, d.ActiveCount())

	recs := d.ActiveAllocations()
	require.Len(t, recs, 1)
	require.Equal(t, uint64(32), recs[0].Size)
	require.Equal(t, types.CategoryComponents, recs[0].Category)
	require.Equal(t, "Transform", recs[0].TypeName)
	require.Equal(t, "world.go:42", recs[0].CallSite)
	require.True(t, recs[0].Guarded)

	require.True(t, d.Free(p))
	require.Equal(t, 0, d.ActiveCount())

	// The payload is dead-filled on free, so stale readers see poison.
	require.Equal(t, bytes.Repeat([]byte{format.DeadByte}, 32), []byte(p))
}

// TestAlloc_Alignment verifies payload addresses honor the requested
// alignment.
func TestAlloc_Alignment(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	for _, align := range []int{1, 2, 4, 8, 16, 32, 64, 256, 4096} {
		p := d.Alloc(24, align, types.CategoryGraphics, "", "")
		require.NotNil(t, p)
		require.Zero(t, addrOf(p)%uintptr(align), "alignment %d", align)
	}
}

// TestAlloc_BadSize verifies zero and negative sizes return nil without
// touching the ledger.
func TestAlloc_BadSize(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	require.Nil(t, d.Alloc(0, 8, types.CategoryUnknown, "", ""))
	require.Nil(t, d.Alloc(-5, 8, types.CategoryUnknown, "", ""))
	require.Equal(t, 0, d.ActiveCount())
	require.Zero(t, d.AllocationCount())
}

// TestAlloc_OverrunDetected verifies a write past the payload end is caught
// at free time.
func TestAlloc_OverrunDetected(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	p := d.Alloc(32, 8, types.CategoryScripts, "", "")
	ext := p[:cap(p)]
	ext[32] = 0xFF // first byte of the rear guard

	require.True(t, d.Free(p))

	events := d.Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventCorruption, events[0].Kind)
	require.Equal(t, types.CorruptionGuardAfter, events[0].Corruption)
	require.Equal(t, uint64(32), events[0].Size)
}

// TestAlloc_OverrunSuppressed verifies guard faults are ignored when
// overrun detection is off.
func TestAlloc_OverrunSuppressed(t *testing.T) {
	d, _ := newTestDebugger(t, func(cfg *Config) {
		cfg.DetectBufferOverrun = false
	})

	p := d.Alloc(32, 8, types.CategoryScripts, "", "")
	p[:cap(p)][32] = 0xFF

	require.True(t, d.Free(p))
	require.Empty(t, d.Events())
}

// TestAlloc_HardFail verifies hard-fail mode escalates corruption to a
// panic.
func TestAlloc_HardFail(t *testing.T) {
	d, _ := newTestDebugger(t, func(cfg *Config) {
		cfg.HardFail = true
	})

	p := d.Alloc(16, 1, types.CategoryUnknown, "", "")
	p[:cap(p)][16] = 0x01

	require.Panics(t, func() { d.Free(p) })
}

// TestFree_Nil verifies freeing nil is a no-op.
func TestFree_Nil(t *testing.T) {
	d, _ := newTestDebugger(t, nil)
	require.False(t, d.Free(nil))
	require.Empty(t, d.Events())
}

// TestFree_Double verifies the second free of a buffer is rejected and
// attributed to the original allocation.
func TestFree_Double(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	p := d.Alloc(64, 8, types.CategoryAudio, "SampleBuffer", "")
	id := d.ActiveAllocations()[0].AllocationID

	require.True(t, d.Free(p))
	require.False(t, d.Free(p))

	events := d.Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventDoubleFree, events[0].Kind)
	require.Equal(t, id, events[0].AllocationID)
	require.Equal(t, "buffer already freed", events[0].Detail)
	require.Equal(t, uint64(1), d.DeallocationCount())
}

// TestFree_Untracked verifies freeing memory the debugger never saw is
// rejected and recorded.
func TestFree_Untracked(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	require.False(t, d.Free(make([]byte, 16)))

	events := d.Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventDoubleFree, events[0].Kind)
	require.Equal(t, "free of an address that was never tracked", events[0].Detail)
}

// TestFree_Resliced verifies identity is the payload address, not the
// slice length: a shortened view still frees the whole allocation.
func TestFree_Resliced(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	p := d.Alloc(64, 8, types.CategoryUnknown, "", "")
	require.True(t, d.Free(p[:8]))
	require.Equal(t, 0, d.ActiveCount())
}

// TestRegisterAllocation verifies the manual tracking path for memory owned
// elsewhere.
func TestRegisterAllocation(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	d.RegisterAllocation(0x7f0000001000, 4096, 16, types.CategoryAssets, "TexturePage", "atlas.go:10")
	require.Equal(t, 1, d.ActiveCount())
	require.Equal(t, uint64(4096), d.CurrentUsage())

	recs := d.ActiveAllocations()
	require.False(t, recs[0].Guarded)
	require.Equal(t, "TexturePage", recs[0].TypeName)

	require.True(t, d.UnregisterAllocation(0x7f0000001000))
	require.Equal(t, 0, d.ActiveCount())
	require.Zero(t, d.CurrentUsage())

	// Second unregister is a double free.
	require.False(t, d.UnregisterAllocation(0x7f0000001000))
	require.Equal(t, 1, d.EventCounts()[types.EventDoubleFree])
}

// TestRegisterAllocation_Invalid verifies nil addresses and zero sizes are
// ignored.
func TestRegisterAllocation_Invalid(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	d.RegisterAllocation(0, 128, 1, types.CategoryUnknown, "", "")
	d.RegisterAllocation(0x1000, 0, 1, types.CategoryUnknown, "", "")
	require.Equal(t, 0, d.ActiveCount())
}

// TestMarkIntentional verifies flagged allocations exist but are excluded
// from leak candidates.
func TestMarkIntentional(t *testing.T) {
	d, clk := newTestDebugger(t, nil)

	p := d.Alloc(256, 8, types.CategoryCache, "InternTable", "")
	require.True(t, d.MarkIntentional(addrOf(p)))
	require.False(t, d.MarkIntentional(0xDEAD))

	clk.Advance(2 * time.Minute)
	require.Empty(t, d.CheckForLeaks())
}

// TestRealloc_Grow verifies data, identity and alignment carry over to the
// resized buffer.
func TestRealloc_Grow(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	p := d.Alloc(16, 32, types.CategoryNetworking, "PacketBuf", "net.go:7")
	for i := range p {
		p[i] = byte(0xA0 + i)
	}

	q := d.Realloc(p, 64)
	require.NotNil(t, q)
	require.Len(t, q, 64)
	require.Equal(t, 1, d.ActiveCount())

	// Prefix copied, old buffer gone.
	for i := 0; i < 16; i++ {
		require.Equal(t, byte(0xA0+i), q[i])
	}
	require.False(t, d.Free(p))

	rec := d.ActiveAllocations()[0]
	require.True(t, rec.Reallocated)
	require.Equal(t, types.CategoryNetworking, rec.Category)
	require.Equal(t, "PacketBuf", rec.TypeName)
	require.Equal(t, "net.go:7", rec.CallSite)
	require.Equal(t, 32, rec.Alignment)
	require.Zero(t, addrOf(q)%32)
}

// TestRealloc_Shrink verifies shrinking keeps the retained prefix only.
func TestRealloc_Shrink(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	p := d.Alloc(64, 1, types.CategoryUnknown, "", "")
	p[0] = 0x11
	p[7] = 0x77

	q := d.Realloc(p, 8)
	require.Len(t, q, 8)
	require.Equal(t, byte(0x11), q[0])
	require.Equal(t, byte(0x77), q[7])
	require.Equal(t, uint64(8), d.ActiveAllocations()[0].Size)
}

// TestRealloc_Edges verifies the alloc-like and free-like degenerate forms
// and untracked input.
func TestRealloc_Edges(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	// nil behaves like Alloc.
	p := d.Realloc(nil, 32)
	require.Len(t, p, 32)
	require.Equal(t, 1, d.ActiveCount())

	// Zero size behaves like Free.
	require.Nil(t, d.Realloc(p, 0))
	require.Equal(t, 0, d.ActiveCount())

	// Untracked buffers cannot be resized.
	require.Nil(t, d.Realloc(make([]byte, 8), 16))
}

// TestAlloc_ArenaExhaustion verifies backing failure surfaces as a nil
// buffer plus an allocation-failure event, leaving prior state intact.
func TestAlloc_ArenaExhaustion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LeakThreshold = time.Minute

	arena := NewArena(200)
	d, err := New(WithConfig(cfg), WithClock(newFakeClock()), WithBacking(arena))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	// One guarded 64-byte block fits (48 header + 64 + 8 footer = 120).
	p := d.Alloc(64, 1, types.CategoryTemporary, "", "")
	require.NotNil(t, p)
	require.Equal(t, 80, arena.Remaining())

	q := d.Alloc(64, 1, types.CategoryTemporary, "", "")
	require.Nil(t, q)
	require.Equal(t, 1, d.ActiveCount())
	require.Equal(t, uint64(64), d.CurrentUsage())

	events := d.Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventAllocationFailure, events[0].Kind)
	require.Equal(t, uint64(64), events[0].Size)
}
