// Package format defines the binary layout of guarded memory blocks. The goal
// is to keep the byte-level encoding focused and allocation-free so the
// tracking layers above can orchestrate the data in a more ergonomic form.
//
// A guarded block is a single backing slice laid out as:
//
//	[ header | payload | guard-after ]
//
// The header ends with the guard-before word so both guards sit immediately
// adjacent to the payload, which is what makes underruns and overruns
// observable at free time.
package format

const (
	// HeaderMagic identifies a stamped block header.
	HeaderMagic = 0xDEADBEEF

	// GuardBefore is the sentinel word stored in the last header field,
	// directly preceding the payload. A write before payload start lands here.
	GuardBefore = 0xAAAAAAAAAAAAAAAA

	// GuardAfter is the sentinel word stored immediately after the payload.
	// A write past the payload end lands here.
	GuardAfter = 0xBBBBBBBBBBBBBBBB

	// DeadByte is the fill pattern written over a payload when its block is
	// released. Reads of repeated 0xDD downstream indicate use after free.
	DeadByte = 0xDD
)

// Header field offsets (little-endian).
//
//	Offset  Size  Description
//	0x00    4     Magic (HeaderMagic)
//	0x04    4     Category
//	0x08    8     Allocation id
//	0x10    8     Payload size in bytes
//	0x18    8     Requested alignment
//	0x20    4     Checksum (rolling fold, see checksum.go)
//	0x24    4     Reserved, zero
//	0x28    8     Guard-before word
//	0x30    ...   Payload
//	+size   8     Guard-after word
const (
	MagicOffset        = 0x00
	CategoryOffset     = 0x04
	AllocationIDOffset = 0x08
	SizeOffset         = 0x10
	AlignmentOffset    = 0x18
	ChecksumOffset     = 0x20
	ReservedOffset     = 0x24
	GuardBeforeOffset  = 0x28

	// HeaderSize is the number of bytes preceding the payload.
	HeaderSize = 0x30

	// FooterSize is the number of bytes following the payload (the
	// guard-after word).
	FooterSize = 8

	// Overhead is the total number of bookkeeping bytes added around a
	// payload.
	Overhead = HeaderSize + FooterSize
)

// BlockSize returns the total backing size for a payload of the given size.
func BlockSize(payload int) int {
	return HeaderSize + payload + FooterSize
}
