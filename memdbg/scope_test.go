package memdbg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memtools/memkit/pkg/types"
)

// TestScope_Retained verifies a scope that allocates without freeing
// reports the retained bytes.
func TestScope_Retained(t *testing.T) {
	d, clk := newTestDebugger(t, nil)

	sc := d.Scope("level-load")
	clk.Advance(50 * time.Millisecond)
	d.Alloc(4096, 8, types.CategoryAssets, "", "")

	rep := sc.End()
	require.Equal(t, "level-load", rep.Name)
	require.Equal(t, int64(4096), rep.UsageDelta)
	require.True(t, rep.Retained())
	require.Equal(t, uint64(1), rep.Allocations)
	require.Zero(t, rep.Frees)
	require.Equal(t, 50*time.Millisecond, rep.Duration)
}

// TestScope_Balanced verifies a scope that frees what it allocates reports
// no retention.
func TestScope_Balanced(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	sc := d.Scope("frame")
	p := d.Alloc(256, 8, types.CategoryTemporary, "", "")
	require.True(t, d.Free(p))

	rep := sc.End()
	require.Zero(t, rep.UsageDelta)
	require.False(t, rep.Retained())
	require.Equal(t, uint64(1), rep.Allocations)
	require.Equal(t, uint64(1), rep.Frees)
}

// TestScope_Released verifies a scope that frees preexisting memory
// reports a negative delta.
func TestScope_Released(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	p := d.Alloc(512, 8, types.CategoryCache, "", "")

	sc := d.Scope("evict")
	require.True(t, d.Free(p))
	rep := sc.End()
	require.Equal(t, int64(-512), rep.UsageDelta)
	require.False(t, rep.Retained())
}

// TestScope_EndTwice verifies only the first End produces a report.
func TestScope_EndTwice(t *testing.T) {
	d, _ := newTestDebugger(t, nil)

	sc := d.Scope("once")
	d.Alloc(64, 1, types.CategoryUnknown, "", "")

	first := sc.End()
	require.Equal(t, int64(64), first.UsageDelta)

	second := sc.End()
	require.Zero(t, second.UsageDelta)
	require.Empty(t, second.Name)
}
