package memdbg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memtools/memkit/pkg/types"
)

// TestScenario_GameWorld drives the debugger the way a game runtime would:
// a spawn phase, a frame loop with per-frame scratch memory, a despawn
// phase that forgets some component buffers, and a leak pass that must
// point at exactly the forgotten buffers.
func TestScenario_GameWorld(t *testing.T) {
	d, clk := newTestDebugger(t, func(cfg *Config) {
		cfg.SnapshotInterval = 16
		cfg.MemoryBudget = 1 << 20
	})

	type entity struct {
		body     []byte
		velocity []byte
	}

	// Spawn phase: one long-lived cache plus 32 entities with a body and a
	// velocity component each.
	spawn := d.Scope("spawn")

	cache := d.Alloc(4096, 16, types.CategoryCache, "AssetCache", "")
	require.True(t, d.MarkIntentional(addrOf(cache)))

	world := make([]entity, 32)
	for i := range world {
		world[i] = entity{
			body:     d.Alloc(64, 16, types.CategoryEntities, "Entity", ""),
			velocity: d.Alloc(32, 8, types.CategoryComponents, "Velocity", ""),
		}
		require.NotNil(t, world[i].body)
		require.NotNil(t, world[i].velocity)
	}

	rep := spawn.End()
	require.Equal(t, int64(4096+32*(64+32)), rep.UsageDelta)
	require.Equal(t, 65, d.ActiveCount())

	// Frame loop: scratch memory comes and goes, live entities get touched
	// every frame.
	for frame := 0; frame < 10; frame++ {
		clk.Advance(16 * time.Millisecond)
		scratch := d.Alloc(1024, 16, types.CategoryTemporary, "FrameScratch", "")
		for _, e := range world {
			d.RecordAccess(addrOf(e.body), 64, false)
			d.RecordAccess(addrOf(e.velocity), 32, true)
		}
		require.True(t, d.Free(scratch))
	}

	// Despawn phase: 24 entities go away, but the velocity component of
	// the last 8 of them is forgotten.
	for i := 0; i < 24; i++ {
		require.True(t, d.Free(world[i].body))
		if i < 16 {
			require.True(t, d.Free(world[i].velocity))
		}
	}
	survivors := world[24:]

	require.Equal(t, 25, d.ActiveCount())
	require.Equal(t, uint64(4096+8*64+16*32), d.CurrentUsage())

	byCat := d.CategoryBreakdown()
	require.Equal(t, uint64(8*64), byCat[types.CategoryEntities])
	require.Equal(t, uint64(16*32), byCat[types.CategoryComponents])
	require.Equal(t, uint64(4096), byCat[types.CategoryCache])
	require.Zero(t, byCat[types.CategoryTemporary])

	// Keep the survivors warm so only the forgotten components look like
	// leaks when the pass runs.
	clk.Advance(2 * time.Minute)
	for _, e := range survivors {
		d.RecordAccess(addrOf(e.body), 64, false)
		d.RecordAccess(addrOf(e.velocity), 32, false)
	}

	leaks := d.CheckForLeaks()
	var potential []types.Leak
	for _, l := range leaks {
		if l.Potential {
			potential = append(potential, l)
		}
	}
	require.Len(t, potential, 8)
	for _, l := range potential {
		require.Equal(t, types.CategoryComponents, l.Record.Category)
		require.Equal(t, "Velocity", l.Record.TypeName)
		require.Equal(t, uint64(32), l.Record.Size)
		require.Equal(t, "Memory not accessed recently", l.Analysis)
	}

	// The frame loop crossed the snapshot cadence a few times.
	require.Len(t, d.UsageHistory(), 4)

	// The world never scribbled out of bounds, so teardown is clean.
	require.Empty(t, d.Events())
	for _, e := range survivors {
		require.True(t, d.Free(e.body))
		require.True(t, d.Free(e.velocity))
	}
	for i := 16; i < 24; i++ {
		require.True(t, d.Free(world[i].velocity))
	}
	require.True(t, d.Free(cache))
	require.Equal(t, 0, d.ActiveCount())
	require.Equal(t, d.TotalAllocated(), d.TotalFreed())
}
