package promexport

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/memtools/memkit/memdbg"
	"github.com/memtools/memkit/pkg/types"
)

var _ Source = (*memdbg.Debugger)(nil)

// TestCollector verifies the gauge and counter values a scrape produces
// for a known allocation history.
func TestCollector(t *testing.T) {
	cfg := memdbg.DefaultConfig()
	cfg.EnableStackTraces = false
	d, err := memdbg.New(memdbg.WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	// Two live allocations, one freed, one double free.
	d.Alloc(64, 8, types.CategoryEntities, "Entity", "")
	d.Alloc(192, 8, types.CategoryTemporary, "Scratch", "")
	p := d.Alloc(32, 8, types.CategoryCache, "Blob", "")
	require.True(t, d.Free(p))
	require.False(t, d.Free(p))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(New(d)))

	expected := `
# HELP memkit_active_allocations Live tracked allocations.
# TYPE memkit_active_allocations gauge
memkit_active_allocations 2
# HELP memkit_allocated_bytes_total Bytes allocated since tracking started.
# TYPE memkit_allocated_bytes_total counter
memkit_allocated_bytes_total 288
# HELP memkit_allocations_total Allocations since tracking started.
# TYPE memkit_allocations_total counter
memkit_allocations_total 3
# HELP memkit_category_usage_bytes Live bytes per allocation category.
# TYPE memkit_category_usage_bytes gauge
memkit_category_usage_bytes{category="entities"} 64
memkit_category_usage_bytes{category="temporary"} 192
# HELP memkit_current_usage_bytes Bytes currently tracked as live.
# TYPE memkit_current_usage_bytes gauge
memkit_current_usage_bytes 256
# HELP memkit_deallocations_total Deallocations since tracking started.
# TYPE memkit_deallocations_total counter
memkit_deallocations_total 1
# HELP memkit_fragmentation_ratio Size-weighted fragmentation across registered pools.
# TYPE memkit_fragmentation_ratio gauge
memkit_fragmentation_ratio 0
# HELP memkit_freed_bytes_total Bytes freed since tracking started.
# TYPE memkit_freed_bytes_total counter
memkit_freed_bytes_total 32
# HELP memkit_leak_candidates Leak candidates from the last detection pass, by confidence band.
# TYPE memkit_leak_candidates gauge
memkit_leak_candidates{band="high"} 0
memkit_leak_candidates{band="low"} 0
memkit_leak_candidates{band="moderate"} 0
# HELP memkit_peak_usage_bytes High-water mark of tracked bytes.
# TYPE memkit_peak_usage_bytes gauge
memkit_peak_usage_bytes 288
# HELP memkit_safety_events Safety events retained in the diagnostics ring, by kind.
# TYPE memkit_safety_events gauge
memkit_safety_events{kind="allocation_failure"} 0
memkit_safety_events{kind="corruption"} 0
memkit_safety_events{kind="double_free"} 1
memkit_safety_events{kind="use_after_free"} 0
`
	// System RSS varies per run, so the comparison names every series
	// except it.
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"memkit_active_allocations",
		"memkit_allocated_bytes_total",
		"memkit_allocations_total",
		"memkit_category_usage_bytes",
		"memkit_current_usage_bytes",
		"memkit_deallocations_total",
		"memkit_fragmentation_ratio",
		"memkit_freed_bytes_total",
		"memkit_leak_candidates",
		"memkit_peak_usage_bytes",
		"memkit_safety_events",
	))
}

// TestCollector_Describe verifies every descriptor is announced.
func TestCollector_Describe(t *testing.T) {
	d, err := memdbg.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	ch := make(chan *prometheus.Desc, 32)
	New(d).Describe(ch)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	require.Equal(t, 12, count)
}

// TestCollector_PoolFragmentation verifies pool math flows through to the
// fragmentation gauge.
func TestCollector_PoolFragmentation(t *testing.T) {
	d, err := memdbg.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	d.RegisterPool("arena", 0, 1000, types.CategoryTemporary)
	require.NoError(t, d.UpdatePoolUsage("arena", 400, []types.Block{
		{Offset: 400, Size: 300},
		{Offset: 700, Size: 300},
	}))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(New(d)))

	expected := `
# HELP memkit_fragmentation_ratio Size-weighted fragmentation across registered pools.
# TYPE memkit_fragmentation_ratio gauge
memkit_fragmentation_ratio 0.5
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"memkit_fragmentation_ratio"))
}
