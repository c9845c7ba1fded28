package types

import (
	"fmt"
	"time"
)

// UsageSnapshot is one point on the usage timeline. Snapshots are captured
// periodically on the allocation path and on demand; the history ring is
// bounded, oldest dropped.
type UsageSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	TotalAllocated uint64 `json:"total_allocated"`
	TotalFreed     uint64 `json:"total_freed"`
	CurrentUsage   uint64 `json:"current_usage"`
	PeakUsage      uint64 `json:"peak_usage"`

	AllocationCount   uint64 `json:"allocation_count"`
	DeallocationCount uint64 `json:"deallocation_count"`
	ActiveCount       int    `json:"active_count"`

	Fragmentation float64 `json:"fragmentation"`
	SystemRSS     uint64  `json:"system_rss,omitempty"`

	CategoryUsage map[Category]uint64 `json:"category_usage,omitempty"`

	// AllocationSizes holds the sizes of active allocations sorted
	// ascending, for distribution analysis. Populated only on on-demand
	// snapshots, not on the periodic timeline.
	AllocationSizes []uint64 `json:"-"`
}

// PressureLevel grades how close tracked usage is to the configured ceiling.
type PressureLevel int

const (
	PressureLow PressureLevel = iota
	PressureMedium
	PressureHigh
	PressureCritical
)

// String implements the Stringer interface for PressureLevel
func (l PressureLevel) String() string {
	switch l {
	case PressureLow:
		return "low"
	case PressureMedium:
		return "medium"
	case PressureHigh:
		return "high"
	case PressureCritical:
		return "critical"
	default:
		return fmt.Sprintf("PRESSURE_%d", int(l))
	}
}

// Pressure is the current memory pressure reading.
type Pressure struct {
	Level        PressureLevel `json:"level"`
	UsageRatio   float64       `json:"usage_ratio"` // current usage / budget
	CurrentUsage uint64        `json:"current_usage"`
	SystemRSS    uint64        `json:"system_rss,omitempty"`
}

// PressureFor grades a usage ratio: <50% low, <75% medium, <90% high,
// else critical.
func PressureFor(ratio float64) PressureLevel {
	switch {
	case ratio < 0.50:
		return PressureLow
	case ratio < 0.75:
		return PressureMedium
	case ratio < 0.90:
		return PressureHigh
	default:
		return PressureCritical
	}
}
