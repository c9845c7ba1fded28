package memdbg

import (
	"time"

	"github.com/memtools/memkit/internal/stack"
)

// Clock supplies the debugger's notion of now. Ages, leak thresholds and
// access rates all derive from it, so tests inject a manual clock instead
// of sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// StackTraceProvider captures and formats allocation call stacks. The
// default provider reads the runtime; NoStacks disables capture entirely
// without touching the rest of the configuration.
type StackTraceProvider interface {
	// Capture returns up to depth program counters, skipping skip frames
	// above the caller. May return nil.
	Capture(skip, depth int) []uintptr

	// Format resolves captured counters into a printable stack.
	Format(pcs []uintptr) string
}

type runtimeStacks struct{}

func (runtimeStacks) Capture(skip, depth int) []uintptr { return stack.Capture(skip+1, depth) }
func (runtimeStacks) Format(pcs []uintptr) string       { return stack.Format(pcs) }

// NoStacks is a StackTraceProvider that never captures.
type NoStacks struct{}

func (NoStacks) Capture(int, int) []uintptr { return nil }
func (NoStacks) Format([]uintptr) string    { return "<no stack>" }
