package memdbg

import (
	"sync/atomic"
	"time"
)

// Scope brackets a region of work and measures how tracked usage moved
// across it. Typical use:
//
//	sc := dbg.Scope("level-load")
//	defer sc.End()
//
// A scope that ends with more live bytes than it started with is a likely
// leak in the bracketed code, and End logs it as such.
type Scope struct {
	d    *Debugger
	name string

	startTime   time.Time
	startUsage  uint64
	startAllocs uint64
	startFrees  uint64

	done atomic.Bool
}

// ScopeReport summarizes one ended scope.
type ScopeReport struct {
	Name        string        `json:"name"`
	Duration    time.Duration `json:"duration"`
	Allocations uint64        `json:"allocations"`
	Frees       uint64        `json:"frees"`

	// UsageDelta is live bytes at End minus live bytes at Scope. Positive
	// means the scope retained memory.
	UsageDelta int64 `json:"usage_delta"`
}

// Retained reports whether the scope ended with more live bytes than it
// started with.
func (r ScopeReport) Retained() bool { return r.UsageDelta > 0 }

// Scope starts measuring a named region.
func (d *Debugger) Scope(name string) *Scope {
	return &Scope{
		d:           d,
		name:        name,
		startTime:   d.clock.Now(),
		startUsage:  d.currentUsage.Load(),
		startAllocs: d.allocationCount.Load(),
		startFrees:  d.deallocationCount.Load(),
	}
}

// End closes the scope and returns its report. Only the first call counts;
// later calls return the zero report.
func (s *Scope) End() ScopeReport {
	if !s.done.CompareAndSwap(false, true) {
		return ScopeReport{}
	}

	d := s.d
	rep := ScopeReport{
		Name:        s.name,
		Duration:    d.clock.Now().Sub(s.startTime),
		Allocations: d.allocationCount.Load() - s.startAllocs,
		Frees:       d.deallocationCount.Load() - s.startFrees,
		UsageDelta:  int64(d.currentUsage.Load()) - int64(s.startUsage),
	}

	if rep.Retained() {
		d.log.Warn("scope retained memory",
			"scope", rep.Name,
			"retained_bytes", rep.UsageDelta,
			"allocations", rep.Allocations,
			"frees", rep.Frees,
			"duration", rep.Duration)
	} else {
		d.log.Debug("scope ended",
			"scope", rep.Name,
			"allocations", rep.Allocations,
			"frees", rep.Frees,
			"duration", rep.Duration)
	}
	return rep
}
