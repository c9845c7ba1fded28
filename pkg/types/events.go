package types

import (
	"fmt"
	"time"
)

// EventKind classifies diagnostic events so callers can branch on intent
// rather than text.
type EventKind int

const (
	EventCorruption        EventKind = iota // guard or header damage found at free time
	EventDoubleFree                         // free/unregister of an address not in the active set
	EventUseAfterFree                       // access resolved into a recently freed range
	EventAllocationFailure                  // backing allocator returned nil
)

// String implements the Stringer interface for EventKind
func (k EventKind) String() string {
	switch k {
	case EventCorruption:
		return "corruption"
	case EventDoubleFree:
		return "double_free"
	case EventUseAfterFree:
		return "use_after_free"
	case EventAllocationFailure:
		return "allocation_failure"
	default:
		return fmt.Sprintf("EVENT_%d", int(k))
	}
}

// CorruptionKind pins down what exactly failed verification on a guarded
// block. CorruptionNone is used on events that are not corruption.
type CorruptionKind int

const (
	CorruptionNone        CorruptionKind = iota
	CorruptionHeaderMagic                // header signature overwritten
	CorruptionGuardBefore                // underrun into the front guard
	CorruptionGuardAfter                 // overrun into the rear guard
	CorruptionIDMismatch                 // header id disagrees with the ledger
	CorruptionSizeMismatch               // header size disagrees with the ledger
)

// String implements the Stringer interface for CorruptionKind
func (k CorruptionKind) String() string {
	switch k {
	case CorruptionNone:
		return "none"
	case CorruptionHeaderMagic:
		return "header_magic"
	case CorruptionGuardBefore:
		return "guard_before"
	case CorruptionGuardAfter:
		return "guard_after"
	case CorruptionIDMismatch:
		return "id_mismatch"
	case CorruptionSizeMismatch:
		return "size_mismatch"
	default:
		return fmt.Sprintf("CORRUPTION_%d", int(k))
	}
}

// Event is one recorded safety finding. Events accumulate in a bounded ring
// (oldest dropped); detection never surfaces as an error return.
type Event struct {
	Kind         EventKind      `json:"kind"`
	Corruption   CorruptionKind `json:"corruption,omitempty"`
	Time         time.Time      `json:"time"`
	Addr         uintptr        `json:"addr"`
	AllocationID uint64         `json:"allocation_id,omitempty"`
	Size         uint64         `json:"size,omitempty"`
	Category     Category       `json:"category"`
	Detail       string         `json:"detail,omitempty"`
}

// String renders a compact one-line form for logs.
func (e Event) String() string {
	if e.Kind == EventCorruption {
		return fmt.Sprintf("%s(%s) addr=0x%X id=%d size=%d", e.Kind, e.Corruption, e.Addr, e.AllocationID, e.Size)
	}
	return fmt.Sprintf("%s addr=0x%X size=%d", e.Kind, e.Addr, e.Size)
}
