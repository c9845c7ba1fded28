package types

import "time"

// AllocationRecord describes one tracked allocation. The tracker owns the
// live record; query APIs and snapshots hand out copies, so retaining or
// mutating a returned record never races with the tracker.
type AllocationRecord struct {
	// Identity
	AllocationID uint64  `json:"allocation_id"` // strictly increasing, never reused
	Addr         uintptr `json:"addr"`          // first payload byte

	// Shape
	Size      uint64   `json:"size"`
	Alignment int      `json:"alignment"`
	Category  Category `json:"category"`
	TypeName  string   `json:"type_name,omitempty"`
	CallSite  string   `json:"call_site,omitempty"`

	// Provenance
	Timestamp   time.Time `json:"timestamp"`
	GoroutineID uint64    `json:"goroutine_id,omitempty"`
	Stack       []uintptr `json:"-"`
	StackText   string    `json:"stack,omitempty"`

	// Lifecycle
	Freed         bool      `json:"freed"`
	FreeTimestamp time.Time `json:"free_timestamp,omitzero"`
	Guarded       bool      `json:"guarded"`     // carries the in-band header/guard layout
	Intentional   bool      `json:"intentional"` // excluded from leak candidates
	Reallocated   bool      `json:"reallocated"`

	// Access telemetry (populated only when access tracking is enabled)
	AccessCount      uint64    `json:"access_count"`
	LastAccess       time.Time `json:"last_access,omitzero"`
	Hot              bool      `json:"hot"`
	UtilizationRatio float64   `json:"utilization_ratio"`
}

// Age returns how long the allocation has been (or was) alive at now.
// For freed records the age is frozen at the free timestamp.
func (r *AllocationRecord) Age(now time.Time) time.Duration {
	if r.Freed {
		return r.FreeTimestamp.Sub(r.Timestamp)
	}
	return now.Sub(r.Timestamp)
}

// IdleTime returns how long since the allocation was last touched. Records
// that were never accessed idle from their allocation timestamp.
func (r *AllocationRecord) IdleTime(now time.Time) time.Duration {
	if r.LastAccess.IsZero() {
		return now.Sub(r.Timestamp)
	}
	return now.Sub(r.LastAccess)
}

// AccessRate returns accesses per second over the record's lifetime.
// Sub-second lifetimes are clamped to one second so a burst right after
// allocation does not read as an absurd rate.
func (r *AllocationRecord) AccessRate(now time.Time) float64 {
	age := r.Age(now).Seconds()
	if age < 1 {
		age = 1
	}
	return float64(r.AccessCount) / age
}

// End returns the first address past the payload.
func (r *AllocationRecord) End() uintptr {
	return r.Addr + uintptr(r.Size)
}

// Contains reports whether addr falls inside the payload range.
func (r *AllocationRecord) Contains(addr uintptr) bool {
	return addr >= r.Addr && addr < r.End()
}

// AccessPattern accumulates per-allocation access telemetry: a bounded ring
// of access times plus a sequential/random classification of offsets.
type AccessPattern struct {
	Addr uintptr `json:"addr"`

	// Times holds the most recent access timestamps, oldest first,
	// bounded at AccessRingDepth.
	Times []time.Time `json:"-"`

	SequentialAccesses uint64 `json:"sequential_accesses"`
	RandomAccesses     uint64 `json:"random_accesses"`
	ReadCount          uint64 `json:"read_count"`
	WriteCount         uint64 `json:"write_count"`

	// LastOffset and LastSize describe the previous access, for the
	// adjacent-progression rule. LastOffset is -1 until the first access
	// lands.
	LastOffset int64  `json:"-"`
	LastSize   uint64 `json:"-"`
}

// ObserveOffset classifies one access at the given byte offset against the
// previous one: an access starting exactly where the last one ended is
// sequential, anything else is random. The first access only seeds the
// state.
func (p *AccessPattern) ObserveOffset(offset int64, size uint64) {
	if p.LastOffset >= 0 {
		if offset == p.LastOffset+int64(p.LastSize) {
			p.SequentialAccesses++
		} else {
			p.RandomAccesses++
		}
	}
	p.LastOffset = offset
	p.LastSize = size
}

// Locality returns the fraction of accesses classified sequential, in
// [0,1]. With no classified accesses yet it returns 0.
func (p *AccessPattern) Locality() float64 {
	total := p.SequentialAccesses + p.RandomAccesses
	if total == 0 {
		return 0
	}
	return float64(p.SequentialAccesses) / float64(total)
}

// CacheFriendly reports whether the access stream is dominated by
// sequential progressions.
func (p *AccessPattern) CacheFriendly() bool {
	return p.Locality() > CacheFriendlyLocality
}
