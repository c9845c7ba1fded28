package memdbg

import (
	"sort"
	"time"

	"github.com/memtools/memkit/pkg/types"
)

// RecordAccess feeds one memory access into the pattern recorder. addr may
// be the allocation base or any address inside a tracked range; size is the
// access width in bytes. A no-op unless access tracking is enabled.
//
// Accesses that resolve into no active range but fall inside a recently
// freed one are reported as use-after-free.
func (d *Debugger) RecordAccess(addr uintptr, size uint64, write bool) {
	if !d.cfg.EnableAccessTracking || !d.enabled.Load() || d.closed.Load() {
		return
	}
	now := d.clock.Now()

	d.mu.Lock()
	if d.active == nil {
		d.mu.Unlock()
		return
	}

	rec, ok := d.active[addr]
	if !ok {
		rec = d.containingLocked(addr)
	}
	if rec == nil {
		var ev *types.Event
		if d.cfg.DetectUseAfterFree {
			if fr, hit := d.recentFreeContainingLocked(addr); hit {
				ev = d.pushEventLocked(types.Event{
					Kind:         types.EventUseAfterFree,
					Time:         now,
					Addr:         addr,
					AllocationID: fr.id,
					Size:         fr.size,
					Category:     fr.cat,
					Detail:       "access inside a recently freed range",
				})
			}
		}
		d.mu.Unlock()
		d.reportEvent(ev)
		return
	}

	rec.AccessCount++
	rec.LastAccess = now
	rec.Hot = rec.AccessRate(now) > types.HotAccessRate

	// Utilization approximates how deep into the buffer accesses reach.
	off := int64(addr - rec.Addr)
	reach := uint64(off) + size
	if reach > rec.Size {
		reach = rec.Size
	}
	if rec.Size > 0 {
		if ext := float64(reach) / float64(rec.Size); ext > rec.UtilizationRatio {
			rec.UtilizationRatio = ext
		}
	}

	pat := d.patterns[rec.Addr]
	if pat == nil {
		pat = &types.AccessPattern{Addr: rec.Addr, LastOffset: -1}
		d.patterns[rec.Addr] = pat
	}
	if write {
		pat.WriteCount++
	} else {
		pat.ReadCount++
	}
	pat.ObserveOffset(off, size)
	if len(pat.Times) == types.AccessRingDepth {
		copy(pat.Times, pat.Times[1:])
		pat.Times[len(pat.Times)-1] = now
	} else {
		pat.Times = append(pat.Times, now)
	}

	d.mu.Unlock()
}

// AccessPatternFor returns a copy of the recorded pattern for an active
// allocation base.
func (d *Debugger) AccessPatternFor(addr uintptr) (types.AccessPattern, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pat, ok := d.patterns[addr]
	if !ok {
		return types.AccessPattern{}, false
	}
	out := *pat
	out.Times = append([]time.Time(nil), pat.Times...)
	return out, true
}

// containingLocked resolves an interior address to its active record via
// the sorted base index. Caller holds d.mu.
func (d *Debugger) containingLocked(addr uintptr) *liveRecord {
	if len(d.baseIndex) == 0 {
		return nil
	}
	// First base strictly greater than addr; the candidate is its left
	// neighbor.
	i := sort.Search(len(d.baseIndex), func(i int) bool { return d.baseIndex[i] > addr })
	if i == 0 {
		return nil
	}
	rec := d.active[d.baseIndex[i-1]]
	if rec != nil && rec.Contains(addr) {
		return rec
	}
	return nil
}

// recentFreeContainingLocked checks the recently-freed ranges, newest last.
// Caller holds d.mu.
func (d *Debugger) recentFreeContainingLocked(addr uintptr) (freedRange, bool) {
	var hit freedRange
	var found bool
	d.recentFrees.each(func(fr freedRange) {
		if addr >= fr.addr && addr < fr.addr+uintptr(fr.size) {
			hit = fr
			found = true
		}
	})
	return hit, found
}

// insertBaseLocked keeps the base index sorted on insert. Caller holds d.mu.
func (d *Debugger) insertBaseLocked(addr uintptr) {
	i := sort.Search(len(d.baseIndex), func(i int) bool { return d.baseIndex[i] >= addr })
	d.baseIndex = append(d.baseIndex, 0)
	copy(d.baseIndex[i+1:], d.baseIndex[i:])
	d.baseIndex[i] = addr
}

// removeBaseLocked drops a base from the index. Caller holds d.mu.
func (d *Debugger) removeBaseLocked(addr uintptr) {
	i := sort.Search(len(d.baseIndex), func(i int) bool { return d.baseIndex[i] >= addr })
	if i < len(d.baseIndex) && d.baseIndex[i] == addr {
		d.baseIndex = append(d.baseIndex[:i], d.baseIndex[i+1:]...)
	}
}
