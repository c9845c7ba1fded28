package stack

import "runtime"

// GoroutineID parses the current goroutine's id out of runtime.Stack.
// Returns 0 when the header does not parse. This sits on the allocation
// path only when stack capture is enabled, so the runtime.Stack cost is
// opt-in.
func GoroutineID() uint64 {
	// Only the first line is needed: "goroutine 123 [running]:".
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

func parseGID(buf []byte) uint64 {
	const prefix = "goroutine "
	if len(buf) <= len(prefix) {
		return 0
	}
	buf = buf[len(prefix):]

	var id uint64
	for _, c := range buf {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
