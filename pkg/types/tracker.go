package types

import "time"

// TrackerSnapshot is a consistent copy of a tracker's whole ledger, taken
// under its lock in one shot: live records, pools, leak candidates, safety
// events, the usage timeline and every counter. Report rendering and export
// consume snapshots only, never live state.
type TrackerSnapshot struct {
	Taken time.Time `json:"taken"`

	TotalAllocated    uint64 `json:"total_allocated"`
	TotalFreed        uint64 `json:"total_freed"`
	CurrentUsage      uint64 `json:"current_usage"`
	PeakUsage         uint64 `json:"peak_usage"`
	AllocationCount   uint64 `json:"allocation_count"`
	DeallocationCount uint64 `json:"deallocation_count"`

	// Active allocations sorted by allocation id
	Active []AllocationRecord `json:"active"`

	// Pools sorted by name
	Pools []Pool `json:"pools"`

	// Leak candidates from the last pass, severity descending
	Leaks []Leak `json:"leaks"`

	// Events oldest first
	Events []Event `json:"events"`

	// Usage timeline oldest first
	UsageHistory []UsageSnapshot `json:"usage_history"`

	CategoryUsage map[Category]uint64 `json:"category_usage"`
	Fragmentation float64             `json:"fragmentation"`
	SystemRSS     uint64              `json:"system_rss,omitempty"`
}

// ActiveBytes sums the sizes of the live records in the snapshot.
func (s *TrackerSnapshot) ActiveBytes() uint64 {
	var total uint64
	for i := range s.Active {
		total += s.Active[i].Size
	}
	return total
}

// EventTally counts retained events per kind.
func (s *TrackerSnapshot) EventTally() map[EventKind]int {
	out := make(map[EventKind]int)
	for _, ev := range s.Events {
		out[ev.Kind]++
	}
	return out
}
