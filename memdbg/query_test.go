package memdbg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memtools/memkit/pkg/types"
)

// TestLargeAllocations verifies the size filter and its descending order.
func TestLargeAllocations(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	d.Alloc(100, 1, types.CategoryUnknown, "", "")
	d.Alloc(5000, 1, types.CategoryUnknown, "", "")
	d.Alloc(2000, 1, types.CategoryUnknown, "", "")

	recs := d.LargeAllocations(1000)
	require.Len(t, recs, 2)
	require.Equal(t, uint64(5000), recs[0].Size)
	require.Equal(t, uint64(2000), recs[1].Size)
}

// TestLongLivedAllocations verifies the age filter, oldest first.
func TestLongLivedAllocations(t *testing.T) {
	d, clk := newTestDebugger(t, nil)

	d.Alloc(10, 1, types.CategoryUnknown, "old", "")
	clk.Advance(time.Hour)
	d.Alloc(10, 1, types.CategoryUnknown, "mid", "")
	clk.Advance(time.Minute)
	d.Alloc(10, 1, types.CategoryUnknown, "new", "")

	recs := d.LongLivedAllocations(time.Minute)
	require.Len(t, recs, 2)
	require.Equal(t, "old", recs[0].TypeName)
	require.Equal(t, "mid", recs[1].TypeName)
}

// TestAllocationsByCategory verifies the category filter.
func TestAllocationsByCategory(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	d.Alloc(10, 1, types.CategoryPhysics, "", "")
	d.Alloc(20, 1, types.CategoryAudio, "", "")
	d.Alloc(30, 1, types.CategoryPhysics, "", "")

	recs := d.AllocationsByCategory(types.CategoryPhysics)
	require.Len(t, recs, 2)
	require.Equal(t, uint64(10), recs[0].Size)
	require.Equal(t, uint64(30), recs[1].Size)
	require.Empty(t, d.AllocationsByCategory(types.CategoryNetworking))
}

// TestHotAllocations verifies the access-count filter, most active first.
func TestHotAllocations(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	cold := d.Alloc(10, 1, types.CategoryUnknown, "cold", "")
	warm := d.Alloc(10, 1, types.CategoryUnknown, "warm", "")
	hot := d.Alloc(10, 1, types.CategoryUnknown, "hot", "")
	require.NotNil(t, cold)

	d.RecordAccess(addrOf(warm), 1, false)
	d.RecordAccess(addrOf(warm), 1, false)
	for i := 0; i < 5; i++ {
		d.RecordAccess(addrOf(hot), 1, false)
	}

	recs := d.HotAllocations(2)
	require.Len(t, recs, 2)
	require.Equal(t, "hot", recs[0].TypeName)
	require.Equal(t, "warm", recs[1].TypeName)
}

// TestTypeBreakdown verifies byte totals group by type name, with a bucket
// for unnamed allocations.
func TestTypeBreakdown(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	d.Alloc(100, 1, types.CategoryEntities, "Entity", "")
	d.Alloc(50, 1, types.CategoryEntities, "Entity", "")
	d.Alloc(30, 1, types.CategoryUnknown, "", "")

	byType := d.TypeBreakdown()
	require.Equal(t, uint64(150), byType["Entity"])
	require.Equal(t, uint64(30), byType["unknown"])
}

// TestEventCounts verifies tallies per event kind.
func TestEventCounts(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	p := d.Alloc(10, 1, types.CategoryUnknown, "", "")
	require.True(t, d.Free(p))
	require.False(t, d.Free(p))
	require.False(t, d.Free(make([]byte, 4)))

	counts := d.EventCounts()
	require.Equal(t, 2, counts[types.EventDoubleFree])
	require.Zero(t, counts[types.EventCorruption])
}

// TestPressure verifies grading against the configured budget.
func TestPressure(t *testing.T) {
	d, _ := newTestDebugger(t, func(cfg *Config) {
		cfg.MemoryBudget = 1000
	})

	require.Equal(t, types.PressureLow, d.Pressure().Level)

	d.Alloc(600, 1, types.CategoryUnknown, "", "")
	p := d.Pressure()
	require.Equal(t, types.PressureMedium, p.Level)
	require.InDelta(t, 0.6, p.UsageRatio, 1e-9)

	d.Alloc(250, 1, types.CategoryUnknown, "", "")
	require.Equal(t, types.PressureHigh, d.Pressure().Level)

	d.Alloc(149, 1, types.CategoryUnknown, "", "")
	require.Equal(t, types.PressureCritical, d.Pressure().Level)
}

// TestPressure_NoBudget verifies pressure stays low without a budget.
func TestPressure_NoBudget(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	d.Alloc(1 << 16, 1, types.CategoryUnknown, "", "")
	p := d.Pressure()
	require.Equal(t, types.PressureLow, p.Level)
	require.Zero(t, p.UsageRatio)
}
