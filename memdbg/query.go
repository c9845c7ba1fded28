package memdbg

import (
	"slices"
	"sort"
	"time"

	"github.com/memtools/memkit/internal/sysmem"
	"github.com/memtools/memkit/pkg/types"
)

// ============================================================================
// Counter accessors
// ============================================================================

// CurrentUsage returns the number of tracked bytes currently live.
func (d *Debugger) CurrentUsage() uint64 { return d.currentUsage.Load() }

// PeakUsage returns the high-water mark of tracked bytes.
func (d *Debugger) PeakUsage() uint64 { return d.peakUsage.Load() }

// TotalAllocated returns the cumulative bytes handed out since New.
func (d *Debugger) TotalAllocated() uint64 { return d.totalAllocated.Load() }

// TotalFreed returns the cumulative bytes released since New.
func (d *Debugger) TotalFreed() uint64 { return d.totalFreed.Load() }

// AllocationCount returns the number of allocations tracked since New.
func (d *Debugger) AllocationCount() uint64 { return d.allocationCount.Load() }

// DeallocationCount returns the number of frees tracked since New.
func (d *Debugger) DeallocationCount() uint64 { return d.deallocationCount.Load() }

// ActiveCount returns the number of currently live tracked allocations.
func (d *Debugger) ActiveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.active)
}

// ============================================================================
// Record queries
// ============================================================================

// collectLocked copies every active record matching keep. Caller holds d.mu.
func (d *Debugger) collectLocked(keep func(*types.AllocationRecord) bool) []types.AllocationRecord {
	out := make([]types.AllocationRecord, 0, len(d.active))
	for _, rec := range d.active {
		if keep == nil || keep(&rec.AllocationRecord) {
			out = append(out, rec.AllocationRecord)
		}
	}
	return out
}

func (d *Debugger) collect(keep func(*types.AllocationRecord) bool) []types.AllocationRecord {
	d.mu.Lock()
	out := d.collectLocked(keep)
	d.mu.Unlock()
	return out
}

func sortByID(recs []types.AllocationRecord) []types.AllocationRecord {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].AllocationID < recs[j].AllocationID
	})
	return recs
}

// ActiveAllocations returns a copy of every live record, ordered by
// allocation id.
func (d *Debugger) ActiveAllocations() []types.AllocationRecord {
	return sortByID(d.collect(nil))
}

// RecordForID returns the record for an allocation id, live or freed, as
// long as it is still inside the bounded tracking history.
func (d *Debugger) RecordForID(id uint64) (types.AllocationRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.history[id]
	if !ok {
		return types.AllocationRecord{}, false
	}
	c := rec.AllocationRecord
	c.Stack = slices.Clone(rec.Stack)
	return c, true
}

// LargeAllocations returns live records of at least minSize bytes, largest
// first.
func (d *Debugger) LargeAllocations(minSize uint64) []types.AllocationRecord {
	recs := d.collect(func(r *types.AllocationRecord) bool {
		return r.Size >= minSize
	})
	sort.Slice(recs, func(i, j int) bool { return recs[i].Size > recs[j].Size })
	return recs
}

// LongLivedAllocations returns live records older than minAge, oldest first.
func (d *Debugger) LongLivedAllocations(minAge time.Duration) []types.AllocationRecord {
	now := d.clock.Now()
	recs := d.collect(func(r *types.AllocationRecord) bool {
		return r.Age(now) >= minAge
	})
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})
	return recs
}

// AllocationsByCategory returns live records tagged with cat, ordered by
// allocation id.
func (d *Debugger) AllocationsByCategory(cat types.Category) []types.AllocationRecord {
	return sortByID(d.collect(func(r *types.AllocationRecord) bool {
		return r.Category == cat
	}))
}

// HotAllocations returns live records accessed at least minAccesses times,
// most accessed first. Useful only when access tracking is enabled.
func (d *Debugger) HotAllocations(minAccesses uint64) []types.AllocationRecord {
	recs := d.collect(func(r *types.AllocationRecord) bool {
		return r.AccessCount >= minAccesses
	})
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].AccessCount > recs[j].AccessCount
	})
	return recs
}

// ============================================================================
// Aggregations
// ============================================================================

// CategoryBreakdown returns live bytes by category.
func (d *Debugger) CategoryBreakdown() map[types.Category]uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[types.Category]uint64, len(d.catUsage))
	for cat, n := range d.catUsage {
		out[cat] = n
	}
	return out
}

// TypeBreakdown returns live bytes by recorded type name. Records with no
// type name aggregate under "unknown".
func (d *Debugger) TypeBreakdown() map[string]uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]uint64)
	for _, rec := range d.active {
		name := rec.TypeName
		if name == "" {
			name = "unknown"
		}
		out[name] += rec.Size
	}
	return out
}

// Events returns the retained safety events, oldest first.
func (d *Debugger) Events() []types.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events.snapshot()
}

// EventCounts returns how many retained events exist per kind.
func (d *Debugger) EventCounts() map[types.EventKind]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[types.EventKind]int)
	d.events.each(func(ev types.Event) {
		out[ev.Kind]++
	})
	return out
}

// ============================================================================
// Pressure
// ============================================================================

// Pressure grades current usage against the configured budget. With no
// budget configured the level is always low.
func (d *Debugger) Pressure() types.Pressure {
	usage := d.currentUsage.Load()
	p := types.Pressure{CurrentUsage: usage}
	if d.cfg.MemoryBudget > 0 {
		p.UsageRatio = float64(usage) / float64(d.cfg.MemoryBudget)
	}
	p.Level = types.PressureFor(p.UsageRatio)
	if rss, err := sysmem.Resident(); err == nil {
		p.SystemRSS = rss
	}
	return p
}
