package memdbg

import (
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/memtools/memkit/internal/sysmem"
	"github.com/memtools/memkit/pkg/types"
)

// Snapshot copies the whole ledger under the lock. Stack text for active
// records is resolved after unlock; this is the one place stacks get
// formatted on the tracking side.
func (d *Debugger) Snapshot() types.TrackerSnapshot {
	snap := types.TrackerSnapshot{
		Taken:             d.clock.Now(),
		TotalAllocated:    d.totalAllocated.Load(),
		TotalFreed:        d.totalFreed.Load(),
		CurrentUsage:      d.currentUsage.Load(),
		PeakUsage:         d.peakUsage.Load(),
		AllocationCount:   d.allocationCount.Load(),
		DeallocationCount: d.deallocationCount.Load(),
	}

	d.mu.Lock()
	if d.active != nil {
		snap.Active = make([]types.AllocationRecord, 0, len(d.active))
		for _, rec := range d.active {
			c := rec.AllocationRecord
			c.Stack = slices.Clone(rec.Stack)
			snap.Active = append(snap.Active, c)
		}
		snap.Pools = make([]types.Pool, 0, len(d.pools))
		for _, p := range d.pools {
			c := *p
			c.FreeBlocks = slices.Clone(p.FreeBlocks)
			snap.Pools = append(snap.Pools, c)
		}
		snap.Leaks = slices.Clone(d.leaks)
		snap.Events = d.events.snapshot()
		snap.UsageHistory = d.usageHist.snapshot()
		snap.CategoryUsage = maps.Clone(d.catUsage)
		if d.cfg.EnableFragmentationAnalysis {
			snap.Fragmentation = d.overallFragmentationLocked()
		}
	}
	d.mu.Unlock()

	sort.Slice(snap.Active, func(i, j int) bool {
		return snap.Active[i].AllocationID < snap.Active[j].AllocationID
	})
	sort.Slice(snap.Pools, func(i, j int) bool {
		return snap.Pools[i].Name < snap.Pools[j].Name
	})
	for i := range snap.Active {
		rec := &snap.Active[i]
		if rec.StackText == "" && len(rec.Stack) > 0 {
			rec.StackText = d.stacks.Format(rec.Stack)
		}
	}

	if rss, err := sysmem.Resident(); err == nil {
		snap.SystemRSS = rss
	}
	return snap
}

// CurrentSnapshot computes a fresh usage snapshot on demand, including the
// sorted active-size distribution that the periodic timeline omits.
func (d *Debugger) CurrentSnapshot() types.UsageSnapshot {
	d.mu.Lock()
	snap := d.buildUsageLocked(d.clock.Now())
	snap.AllocationSizes = make([]uint64, 0, len(d.active))
	for _, rec := range d.active {
		snap.AllocationSizes = append(snap.AllocationSizes, rec.Size)
	}
	d.mu.Unlock()

	slices.Sort(snap.AllocationSizes)
	return snap
}

// UsageHistory returns the periodic snapshot timeline, oldest first.
func (d *Debugger) UsageHistory() []types.UsageSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.usageHist.snapshot()
}

// captureUsageLocked appends a point to the usage timeline. Caller holds
// d.mu.
func (d *Debugger) captureUsageLocked(now time.Time) {
	d.usageHist.push(d.buildUsageLocked(now))
}

func (d *Debugger) buildUsageLocked(now time.Time) types.UsageSnapshot {
	snap := types.UsageSnapshot{
		Timestamp:         now,
		TotalAllocated:    d.totalAllocated.Load(),
		TotalFreed:        d.totalFreed.Load(),
		CurrentUsage:      d.currentUsage.Load(),
		PeakUsage:         d.peakUsage.Load(),
		AllocationCount:   d.allocationCount.Load(),
		DeallocationCount: d.deallocationCount.Load(),
		ActiveCount:       len(d.active),
		CategoryUsage:     maps.Clone(d.catUsage),
	}
	if d.cfg.EnableFragmentationAnalysis {
		snap.Fragmentation = d.overallFragmentationLocked()
	}
	if rss, err := sysmem.Resident(); err == nil {
		snap.SystemRSS = rss
	}
	return snap
}
