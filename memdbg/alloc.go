package memdbg

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/memtools/memkit/internal/format"
	"github.com/memtools/memkit/internal/stack"
	"github.com/memtools/memkit/pkg/types"
)

// addrOf returns the tracked identity of a buffer: the address of its first
// payload byte.
func addrOf(p []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(p)))
}

// AddressOf returns the tracked address of a buffer returned by Alloc: the
// value RecordAccess, MarkIntentional and AccessPatternFor key on. Callers
// that manage raw addresses themselves do not need it.
func AddressOf(p []byte) uintptr {
	return addrOf(p)
}

// Alloc returns a tracked, guarded buffer of exactly size bytes whose first
// byte satisfies align (power of two; 0 and 1 mean unaligned). The returned
// slice has capacity extending over the rear guard word, so an out-of-range
// write past len lands in the guard and is caught when the buffer is freed.
//
// Returns nil when the backing allocator is exhausted; the failure is
// recorded as an event and the ledger is untouched. With tracking disabled
// the buffer comes straight from the backing, unguarded and untracked.
func (d *Debugger) Alloc(size, align int, cat types.Category, typeName, callSite string) []byte {
	if size <= 0 || d.closed.Load() {
		return nil
	}
	align = format.NormalizeAlignment(align)

	if !d.enabled.Load() {
		// Pass-through keeps callers working when tracking is off.
		return d.backing.Allocate(size)
	}

	raw := d.backing.Allocate(format.BlockSize(size) + format.PayloadSlack(align))
	if raw == nil {
		d.noteAllocationFailure(size, cat)
		return nil
	}

	// Shift so the payload (not the header) lands on the requested
	// alignment, then stamp the guarded layout around it.
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	pad := -(base + format.HeaderSize) & uintptr(align-1)
	stamped := raw[pad:]

	id := d.nextID.Add(1)
	format.Stamp(stamped, id, size, align, uint32(cat))
	payload := stamped[format.HeaderSize : format.HeaderSize+size : format.HeaderSize+size+format.FooterSize]

	rec := &liveRecord{
		AllocationRecord: types.AllocationRecord{
			AllocationID: id,
			Addr:         addrOf(payload),
			Size:         uint64(size),
			Alignment:    align,
			Category:     cat,
			TypeName:     typeName,
			CallSite:     callSite,
			Timestamp:    d.clock.Now(),
			Guarded:      true,
		},
		stamped: stamped,
	}
	d.finishAlloc(rec)

	if logTrack && uint64(size) >= d.cfg.LargeAllocationThreshold {
		fmt.Fprintf(os.Stderr, "[MEMDBG] large alloc: id=%d size=%d cat=%s site=%s\n",
			id, size, cat, rec.CallSite)
	}
	return payload
}

// Free returns a guarded buffer to the ledger. The buffer is verified
// (header magic, both guards, identity) when corruption detection is on,
// poisoned with the dead-fill byte, and its record migrated to history.
//
// Freeing nil returns false. Freeing a buffer that is not tracked records a
// double-free event and returns false; the length of p is never trusted,
// only its address, so a re-sliced view frees the original allocation.
func (d *Debugger) Free(p []byte) bool {
	if p == nil || d.closed.Load() {
		return false
	}
	return d.release(addrOf(p))
}

// RegisterAllocation tracks memory owned elsewhere. The ledger bookkeeping
// is identical to Alloc, but the block carries no guarded layout, so
// corruption detection does not apply to it.
func (d *Debugger) RegisterAllocation(addr uintptr, size uint64, align int, cat types.Category, typeName, callSite string) {
	if addr == 0 || size == 0 || d.closed.Load() || !d.enabled.Load() {
		return
	}
	rec := &liveRecord{
		AllocationRecord: types.AllocationRecord{
			AllocationID: d.nextID.Add(1),
			Addr:         addr,
			Size:         size,
			Alignment:    format.NormalizeAlignment(align),
			Category:     cat,
			TypeName:     typeName,
			CallSite:     callSite,
			Timestamp:    d.clock.Now(),
		},
	}
	d.finishAlloc(rec)
}

// UnregisterAllocation ends tracking for a manually registered address.
// Unknown addresses record a double-free event and return false.
func (d *Debugger) UnregisterAllocation(addr uintptr) bool {
	if addr == 0 || d.closed.Load() {
		return false
	}
	return d.release(addr)
}

// MarkIntentional excludes an active allocation from leak candidates
// (caches, interned data, deliberately immortal state). Returns false if
// the address is not tracked.
func (d *Debugger) MarkIntentional(addr uintptr) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.active[addr]
	if !ok {
		return false
	}
	rec.Intentional = true
	return true
}

// Realloc resizes a guarded buffer, preserving its category, type and call
// site. The data prefix is copied, the old buffer freed, and the new record
// marked reallocated. A nil p behaves like Alloc; newSize <= 0 behaves like
// Free and returns nil. On backing exhaustion the old buffer stays tracked
// and Realloc returns nil.
func (d *Debugger) Realloc(p []byte, newSize int) []byte {
	if p == nil {
		return d.Alloc(newSize, 1, types.CategoryUnknown, "", "")
	}
	if newSize <= 0 {
		d.Free(p)
		return nil
	}

	addr := addrOf(p)
	d.mu.Lock()
	rec, ok := d.active[addr]
	if !ok {
		d.mu.Unlock()
		return nil
	}
	oldSize := rec.Size
	align := rec.Alignment
	cat := rec.Category
	typeName := rec.TypeName
	callSite := rec.CallSite
	d.mu.Unlock()

	fresh := d.Alloc(newSize, align, cat, typeName, callSite)
	if fresh == nil {
		return nil
	}

	n := uint64(newSize)
	if oldSize < n {
		n = oldSize
	}
	copy(fresh, p[:n])

	d.mu.Lock()
	if nrec, ok := d.active[addrOf(fresh)]; ok {
		nrec.Reallocated = true
	}
	d.mu.Unlock()

	d.Free(p)
	return fresh
}

// finishAlloc captures provenance, inserts the record and fires hooks.
func (d *Debugger) finishAlloc(rec *liveRecord) {
	// Stack capture happens before taking the lock; it is the expensive
	// part of the allocation path.
	wantStack := d.cfg.EnableStackTraces || rec.Size >= d.cfg.LargeAllocationThreshold
	if wantStack {
		// Skip finishAlloc and its exported caller.
		rec.Stack = d.stacks.Capture(2, d.cfg.StackTraceDepth)
		rec.GoroutineID = stack.GoroutineID()
		if rec.CallSite == "" {
			rec.CallSite = stack.CallSite(rec.Stack)
		}
	}

	d.mu.Lock()
	if d.active == nil {
		d.mu.Unlock()
		return
	}
	d.trackLocked(rec)
	count := d.allocationCount.Load()
	if count%d.cfg.SnapshotInterval == 0 {
		d.captureUsageLocked(d.clock.Now())
	}
	hooks := d.copyAllocHooksLocked()
	addr, size, cat := rec.Addr, rec.Size, rec.Category
	d.mu.Unlock()

	for _, h := range hooks {
		h(addr, size, cat)
	}
	if count%d.cfg.SnapshotInterval == 0 {
		d.maybeTriggerLeakPass()
	}
}

// release is the shared free/unregister path.
func (d *Debugger) release(addr uintptr) bool {
	now := d.clock.Now()

	d.mu.Lock()
	if d.active == nil {
		d.mu.Unlock()
		return false
	}
	rec, ok := d.active[addr]
	if !ok {
		var ev *types.Event
		if d.enabled.Load() && d.cfg.DetectDoubleFree {
			e := types.Event{
				Kind:   types.EventDoubleFree,
				Time:   now,
				Addr:   addr,
				Detail: "free of an address that was never tracked",
			}
			// A recently freed range identifies a true double free and
			// names the original allocation.
			if fr, hit := d.recentFreeContainingLocked(addr); hit {
				e.AllocationID = fr.id
				e.Size = fr.size
				e.Category = fr.cat
				e.Detail = "buffer already freed"
			}
			ev = d.pushEventLocked(e)
		}
		d.mu.Unlock()
		d.reportEvent(ev)
		return false
	}

	var corrupt *types.Event
	if rec.Guarded && d.cfg.EnableCorruptionDetection {
		fault := format.Verify(rec.stamped, rec.AllocationID, int(rec.Size))
		if (fault == format.FaultGuardBefore || fault == format.FaultGuardAfter) && !d.cfg.DetectBufferOverrun {
			fault = format.FaultNone
		}
		if fault != format.FaultNone {
			corrupt = d.pushEventLocked(types.Event{
				Kind:         types.EventCorruption,
				Corruption:   corruptionKind(fault),
				Time:         now,
				Addr:         addr,
				AllocationID: rec.AllocationID,
				Size:         rec.Size,
				Category:     rec.Category,
				Detail:       fault.String(),
			})
		}
	}
	if rec.Guarded {
		// Dead-fill so stale readers see poison instead of old payload.
		format.Poison(rec.stamped, int(rec.Size))
	}

	d.untrackLocked(rec, now)
	hooks := d.copyFreeHooksLocked()
	size := rec.Size
	d.mu.Unlock()

	d.reportEvent(corrupt)
	for _, h := range hooks {
		h(addr, size)
	}
	return true
}

// noteAllocationFailure records backing exhaustion without touching the
// ledger.
func (d *Debugger) noteAllocationFailure(size int, cat types.Category) {
	d.mu.Lock()
	ev := d.pushEventLocked(types.Event{
		Kind:     types.EventAllocationFailure,
		Time:     d.clock.Now(),
		Size:     uint64(size),
		Category: cat,
		Detail:   "backing allocator exhausted",
	})
	d.mu.Unlock()
	d.reportEvent(ev)
}

func corruptionKind(f format.Fault) types.CorruptionKind {
	switch f {
	case format.FaultMagic:
		return types.CorruptionHeaderMagic
	case format.FaultGuardBefore:
		return types.CorruptionGuardBefore
	case format.FaultGuardAfter:
		return types.CorruptionGuardAfter
	case format.FaultIDMismatch:
		return types.CorruptionIDMismatch
	case format.FaultSizeMismatch:
		return types.CorruptionSizeMismatch
	default:
		return types.CorruptionNone
	}
}
