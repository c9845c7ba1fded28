// Package stack captures and formats call stacks for allocation records.
//
// Capture is kept cheap (a bounded runtime.Callers with no symbolization);
// Format resolves frames only when a report actually renders the stack.
package stack

import (
	"fmt"
	"runtime"
	"strings"
)

// MaxDepth is the hard cap on captured frames.
const MaxDepth = 32

// Capture returns up to depth program counters, skipping skip frames above
// the caller. Returns nil when nothing was captured.
func Capture(skip, depth int) []uintptr {
	if depth <= 0 {
		return nil
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	pcs := make([]uintptr, depth)
	// +2 skips runtime.Callers and Capture itself.
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	return pcs[:n]
}

// Format resolves program counters into "function\n\tfile:line" lines,
// filtering runtime internals. Empty input formats as "<no stack>".
func Format(pcs []uintptr) string {
	if len(pcs) == 0 {
		return "<no stack>"
	}

	frames := runtime.CallersFrames(pcs)
	var b strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if strings.HasPrefix(frame.Function, "runtime.") {
			if !more {
				break
			}
			continue
		}
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}

	if b.Len() == 0 {
		return "<runtime internal>"
	}
	return b.String()
}

// CallSite returns the "file:line" of the first non-runtime frame, for the
// compact call-site field on records.
func CallSite(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if !strings.HasPrefix(frame.Function, "runtime.") {
			return fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return ""
}
