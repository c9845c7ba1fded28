package format

// Alignment utilities for guarded blocks. Payload addresses must honor the
// caller's requested alignment even though the backing allocation carries a
// header in front.

// NormalizeAlignment clamps an alignment request to a usable power of two.
// Zero and one both mean "no requirement" and normalize to 1; anything else
// is rounded up to the next power of two.
//
// Example:
//
//	NormalizeAlignment(0)  = 1
//	NormalizeAlignment(8)  = 8
//	NormalizeAlignment(24) = 32
func NormalizeAlignment(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// AlignUp returns n aligned up to the next multiple of align. align must be a
// power of two.
//
// Example:
//
//	AlignUp(1, 8)  = 8
//	AlignUp(8, 8)  = 8
//	AlignUp(9, 8)  = 16
func AlignUp(n, align int) int {
	mask := align - 1
	return (n + mask) & ^mask
}

// PayloadSlack returns the extra bytes a backing allocation needs so that a
// payload placed HeaderSize bytes into it can be shifted onto an address
// satisfying align. The shift itself is computed from the runtime address by
// the caller; the slack only guarantees the shift fits.
func PayloadSlack(align int) int {
	if align <= 1 {
		return 0
	}
	return align - 1
}
