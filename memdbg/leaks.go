package memdbg

import (
	"slices"
	"sort"
	"time"

	"github.com/memtools/memkit/pkg/types"
)

// CheckForLeaks runs a detection pass now: every active allocation older
// than the leak threshold (and not marked intentional) is scored by its
// access history and the candidate list is replaced wholesale. Returns the
// new list.
//
// Scoring never holds the ledger lock; candidates are copied out first.
func (d *Debugger) CheckForLeaks() []types.Leak {
	if !d.cfg.EnableLeakDetection || d.closed.Load() {
		return nil
	}
	return d.checkForLeaks(false)
}

// DetectedLeaks returns a copy of the candidates from the most recent pass.
func (d *Debugger) DetectedLeaks() []types.Leak {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.leaks)
}

// maybeTriggerLeakPass starts an asynchronous pass when the check interval
// has elapsed. Never runs inline with the allocation that triggered it, and
// never runs two passes at once.
func (d *Debugger) maybeTriggerLeakPass() {
	if !d.cfg.EnableLeakDetection || d.closed.Load() {
		return
	}
	last := time.Unix(0, d.lastLeakPass.Load())
	if d.clock.Now().Sub(last) < d.cfg.LeakCheckInterval {
		return
	}
	if !d.leakPassActive.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer d.leakPassActive.Store(false)
		d.checkForLeaks(false)
	}()
}

// checkForLeaks is the pass body. final passes run during Close, after the
// closed flag is already set.
func (d *Debugger) checkForLeaks(final bool) []types.Leak {
	now := d.clock.Now()

	d.mu.Lock()
	if d.active == nil {
		d.mu.Unlock()
		return nil
	}
	candidates := make([]types.AllocationRecord, 0)
	for _, rec := range d.active {
		if rec.Intentional {
			continue
		}
		if now.Sub(rec.Timestamp) <= d.cfg.LeakThreshold {
			continue
		}
		c := rec.AllocationRecord
		c.Stack = slices.Clone(rec.Stack)
		candidates = append(candidates, c)
	}
	d.mu.Unlock()

	leaks := make([]types.Leak, 0, len(candidates))
	for i := range candidates {
		rec := &candidates[i]
		if rec.StackText == "" && len(rec.Stack) > 0 {
			rec.StackText = d.stacks.Format(rec.Stack)
		}
		age := now.Sub(rec.Timestamp)
		confidence, analysis := d.scoreRecord(rec, now)
		leaks = append(leaks, types.Leak{
			Record:        *rec,
			Lifetime:      age,
			Confidence:    confidence,
			Potential:     confidence > types.PotentialLeakConfidence,
			SeverityScore: float64(rec.Size) * age.Hours(),
			Analysis:      analysis,
		})
	}
	sort.SliceStable(leaks, func(i, j int) bool {
		return leaks[i].SeverityScore > leaks[j].SeverityScore
	})

	d.mu.Lock()
	d.leaks = leaks
	d.mu.Unlock()
	d.lastLeakPass.Store(now.UnixNano())

	if len(leaks) > 0 || final {
		potential := 0
		var bytes uint64
		for _, l := range leaks {
			if l.Potential {
				potential++
			}
			bytes += l.Record.Size
		}
		d.log.Info("memdbg: leak pass complete",
			"candidates", len(leaks),
			"potential", potential,
			"bytes_held", bytes,
			"pass_time", d.clock.Now().Sub(now))
	}
	return slices.Clone(leaks)
}

// scoreRecord grades one candidate by its access history.
func (d *Debugger) scoreRecord(rec *types.AllocationRecord, now time.Time) (float64, string) {
	switch {
	case rec.AccessCount == 0:
		return 0.9, "Memory never accessed after allocation"
	case rec.AccessRate(now) > types.HotAccessRate:
		return 0.1, "Memory is frequently accessed"
	case rec.IdleTime(now) > d.cfg.StaleThreshold:
		return 0.7, "Memory not accessed recently"
	default:
		return 0.3, "Memory accessed recently"
	}
}
