package memdbg

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/memtools/memkit/pkg/types"
)

// Debug flag - set to true to enable verbose logging (compile-time toggle).
const debugTrack = false

// Runtime debug flag for ledger logging - controlled by MEMKIT_LOG_TRACK env var.
var logTrack = os.Getenv("MEMKIT_LOG_TRACK") != ""

// AllocHook observes completed allocations. Hooks run outside the ledger
// lock, so a hook may call back into the debugger.
type AllocHook func(addr uintptr, size uint64, cat types.Category)

// FreeHook observes completed deallocations.
type FreeHook func(addr uintptr, size uint64)

// liveRecord couples the public record with tracker-internal state.
type liveRecord struct {
	types.AllocationRecord

	// stamped is the header-anchored view of the backing block for guarded
	// allocations (nil on the manual path). Holding it here also pins the
	// block for the GC while it is tracked.
	stamped []byte
}

// freedRange remembers where a freed allocation used to live, for
// use-after-free attribution.
type freedRange struct {
	addr uintptr
	size uint64
	id   uint64
	cat  types.Category
	at   time.Time
}

// Debugger is the allocation ledger plus every detector that feeds on it.
// One mutex guards the maps and rings; the counter mirrors are atomics
// updated inside the critical section and readable without it.
type Debugger struct {
	cfg     Config
	backing Backing
	clock   Clock
	stacks  StackTraceProvider
	log     *slog.Logger

	enabled atomic.Bool
	closed  atomic.Bool

	// Counter mirrors
	totalAllocated    atomic.Uint64
	totalFreed        atomic.Uint64
	currentUsage      atomic.Uint64
	peakUsage         atomic.Uint64
	allocationCount   atomic.Uint64
	deallocationCount atomic.Uint64

	// Allocation ids are never reused, so a stale id can always be told
	// apart from a recycled address.
	nextID atomic.Uint64

	// Async leak pass coordination
	leakPassActive atomic.Bool
	lastLeakPass   atomic.Int64 // unix nanos of the last completed pass

	mu           sync.Mutex
	active       map[uintptr]*liveRecord
	history      map[uint64]*liveRecord
	historyOrder []uint64 // insertion order, oldest first
	catUsage     map[types.Category]uint64
	pools        map[string]*types.Pool
	patterns     map[uintptr]*types.AccessPattern
	leaks        []types.Leak
	events       *ring[types.Event]
	usageHist    *ring[types.UsageSnapshot]
	recentFrees  *ring[freedRange]
	baseIndex    []uintptr // sorted active bases; maintained only with access tracking on
	allocHooks   []AllocHook
	freeHooks    []FreeHook
}

// New creates a Debugger. Without options it tracks on the Go heap with the
// system clock, runtime stack capture and the default configuration.
func New(opts ...Option) (*Debugger, error) {
	d := &Debugger{
		cfg:     DefaultConfig(),
		backing: heapBacking{},
		clock:   systemClock{},
		stacks:  runtimeStacks{},
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}

	d.active = make(map[uintptr]*liveRecord)
	d.history = make(map[uint64]*liveRecord)
	d.catUsage = make(map[types.Category]uint64)
	d.pools = make(map[string]*types.Pool)
	d.patterns = make(map[uintptr]*types.AccessPattern)
	d.events = newRing[types.Event](d.cfg.MaxEvents)
	d.usageHist = newRing[types.UsageSnapshot](d.cfg.MaxUsageHistory)
	d.recentFrees = newRing[freedRange](d.cfg.MaxRecentFrees)

	d.enabled.Store(d.cfg.EnableAllocationTracking)
	d.lastLeakPass.Store(d.clock.Now().UnixNano())

	d.log.Debug("memdbg: debugger created",
		"tracking", d.cfg.EnableAllocationTracking,
		"leak_detection", d.cfg.EnableLeakDetection,
		"access_tracking", d.cfg.EnableAccessTracking)
	return d, nil
}

// Enable turns tracking on at runtime.
func (d *Debugger) Enable() { d.enabled.Store(true) }

// Disable turns tracking off. Blocks already tracked are still processed on
// free; new allocations pass through untracked.
func (d *Debugger) Disable() { d.enabled.Store(false) }

// Enabled reports whether tracking is on.
func (d *Debugger) Enabled() bool { return d.enabled.Load() }

// AddAllocHook registers a hook observing every tracked allocation.
func (d *Debugger) AddAllocHook(h AllocHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allocHooks = append(d.allocHooks, h)
}

// AddFreeHook registers a hook observing every tracked deallocation.
func (d *Debugger) AddFreeHook(h FreeHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.freeHooks = append(d.freeHooks, h)
}

// Close runs a final leak pass, logs the end-of-life summary and releases
// the ledger. The debugger is unusable afterwards; operations become
// no-ops.
func (d *Debugger) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var leaks []types.Leak
	if d.cfg.EnableLeakDetection {
		leaks = d.checkForLeaks(true)
	}

	d.mu.Lock()
	active := len(d.active)
	d.active = nil
	d.history = nil
	d.historyOrder = nil
	d.patterns = nil
	d.pools = nil
	d.baseIndex = nil
	d.allocHooks = nil
	d.freeHooks = nil
	d.mu.Unlock()

	d.log.Info("memdbg: debugger closed",
		"total_allocated", d.totalAllocated.Load(),
		"total_freed", d.totalFreed.Load(),
		"peak_usage", d.peakUsage.Load(),
		"still_active", active,
		"leak_candidates", len(leaks))
	return nil
}

// ============================================================================
// Internal helpers
// ============================================================================

// trackLocked inserts a record into the active set and history and updates
// every counter. Caller holds d.mu.
func (d *Debugger) trackLocked(rec *liveRecord) {
	d.active[rec.Addr] = rec

	// History is bounded; evict oldest ids first. An evicted record that
	// is still active survives in the active map.
	if len(d.historyOrder) >= d.cfg.MaxTrackedAllocations {
		oldest := d.historyOrder[0]
		d.historyOrder = d.historyOrder[1:]
		delete(d.history, oldest)
		if debugTrack {
			debugLogf("history evicted id=%d", oldest)
		}
	}
	d.history[rec.AllocationID] = rec
	d.historyOrder = append(d.historyOrder, rec.AllocationID)

	d.totalAllocated.Add(rec.Size)
	cur := d.currentUsage.Add(rec.Size)
	if cur > d.peakUsage.Load() {
		d.peakUsage.Store(cur)
	}
	d.allocationCount.Add(1)
	d.catUsage[rec.Category] += rec.Size

	if d.cfg.EnableAccessTracking {
		d.insertBaseLocked(rec.Addr)
	}
}

// untrackLocked migrates a record out of the active set. Caller holds d.mu.
func (d *Debugger) untrackLocked(rec *liveRecord, now time.Time) {
	rec.Freed = true
	rec.FreeTimestamp = now

	delete(d.active, rec.Addr)
	delete(d.patterns, rec.Addr)
	if d.cfg.EnableAccessTracking {
		d.removeBaseLocked(rec.Addr)
	}
	d.recentFrees.push(freedRange{
		addr: rec.Addr,
		size: rec.Size,
		id:   rec.AllocationID,
		cat:  rec.Category,
		at:   now,
	})

	d.totalFreed.Add(rec.Size)
	cur := d.currentUsage.Load()
	if rec.Size > cur {
		// A tracked size larger than the mirror means a caller freed more
		// than the ledger saw allocated; saturate instead of wrapping.
		d.currentUsage.Store(0)
	} else {
		d.currentUsage.Store(cur - rec.Size)
	}
	d.deallocationCount.Add(1)

	if have := d.catUsage[rec.Category]; rec.Size > have {
		d.catUsage[rec.Category] = 0
	} else {
		d.catUsage[rec.Category] = have - rec.Size
	}
}

// pushEventLocked appends to the event ring and returns a copy for
// post-unlock reporting. Caller holds d.mu.
func (d *Debugger) pushEventLocked(ev types.Event) *types.Event {
	d.events.push(ev)
	return &ev
}

// reportEvent logs a finding and escalates it in hard-fail mode. Must be
// called without d.mu held.
func (d *Debugger) reportEvent(ev *types.Event) {
	if ev == nil {
		return
	}
	d.log.Warn("memdbg: "+ev.Kind.String(),
		"addr", fmt.Sprintf("0x%X", ev.Addr),
		"allocation_id", ev.AllocationID,
		"size", ev.Size,
		"category", ev.Category.String(),
		"detail", ev.Detail)
	if d.cfg.HardFail {
		switch ev.Kind {
		case types.EventCorruption, types.EventDoubleFree, types.EventUseAfterFree:
			panic("memdbg: " + ev.String())
		}
	}
}

// copyAllocHooksLocked snapshots the hook list so invocation happens after
// unlock. Caller holds d.mu.
func (d *Debugger) copyAllocHooksLocked() []AllocHook {
	if len(d.allocHooks) == 0 {
		return nil
	}
	return slices.Clone(d.allocHooks)
}

func (d *Debugger) copyFreeHooksLocked() []FreeHook {
	if len(d.freeHooks) == 0 {
		return nil
	}
	return slices.Clone(d.freeHooks)
}

// ============================================================================
// Debug helpers
// ============================================================================

// debugLogf prints debug messages if debugTrack is enabled.
func debugLogf(format string, args ...any) {
	if debugTrack {
		fmt.Fprintf(os.Stderr, "[MEMDBG] "+format+"\n", args...)
	}
}
