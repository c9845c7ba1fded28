package format

import "fmt"

// Header is the decoded form of a guarded block header.
type Header struct {
	Magic        uint32
	Category     uint32
	AllocationID uint64
	Size         uint64
	Alignment    uint64
	Checksum     uint32
}

// Fault classifies the first integrity violation found in a block.
type Fault int

const (
	FaultNone Fault = iota
	// FaultTruncated means the block is shorter than its header claims.
	FaultTruncated
	// FaultMagic means the header magic was overwritten.
	FaultMagic
	// FaultGuardBefore means the word directly before the payload was
	// overwritten (buffer underrun).
	FaultGuardBefore
	// FaultGuardAfter means the word directly after the payload was
	// overwritten (buffer overrun).
	FaultGuardAfter
	// FaultIDMismatch means the header carries a different allocation id
	// than the ledger record for this address.
	FaultIDMismatch
	// FaultSizeMismatch means the header size field disagrees with the
	// ledger record.
	FaultSizeMismatch
)

// String returns a short description suitable for event details.
func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "ok"
	case FaultTruncated:
		return "block truncated"
	case FaultMagic:
		return "header magic overwritten"
	case FaultGuardBefore:
		return "guard word before payload overwritten"
	case FaultGuardAfter:
		return "guard word after payload overwritten"
	case FaultIDMismatch:
		return "allocation id mismatch"
	case FaultSizeMismatch:
		return "header size mismatch"
	default:
		return fmt.Sprintf("fault(%d)", int(f))
	}
}

// Stamp writes a complete header and guard pair into block. The block must be
// at least BlockSize(size) long; the payload region is left untouched. The
// checksum is folded over the entire block last, so it covers the guard words
// and the (zero-initialized) payload as stamped.
func Stamp(block []byte, id uint64, size int, alignment int, category uint32) {
	PutU32(block, MagicOffset, HeaderMagic)
	PutU32(block, CategoryOffset, category)
	PutU64(block, AllocationIDOffset, id)
	PutU64(block, SizeOffset, uint64(size))
	PutU64(block, AlignmentOffset, uint64(alignment))
	PutU32(block, ChecksumOffset, 0)
	PutU32(block, ReservedOffset, 0)
	PutU64(block, GuardBeforeOffset, GuardBefore)
	PutU64(block, HeaderSize+size, GuardAfter)
	PutU32(block, ChecksumOffset, BlockChecksum(block[:BlockSize(size)]))
}

// ReadHeader decodes the header fields of block. It performs no validation
// beyond a length check; use Verify for integrity decisions.
func ReadHeader(block []byte) (Header, error) {
	if len(block) < HeaderSize {
		return Header{}, ErrTruncated
	}
	return Header{
		Magic:        ReadU32(block, MagicOffset),
		Category:     ReadU32(block, CategoryOffset),
		AllocationID: ReadU64(block, AllocationIDOffset),
		Size:         ReadU64(block, SizeOffset),
		Alignment:    ReadU64(block, AlignmentOffset),
		Checksum:     ReadU32(block, ChecksumOffset),
	}, nil
}

// Verify checks a block against the ledger's view of it and returns the first
// fault found. Check order matches severity for reporting: structural
// problems first, then the guard words, then ledger agreement.
func Verify(block []byte, id uint64, size int) Fault {
	if len(block) < BlockSize(size) {
		return FaultTruncated
	}
	if ReadU32(block, MagicOffset) != HeaderMagic {
		return FaultMagic
	}
	if ReadU64(block, GuardBeforeOffset) != GuardBefore {
		return FaultGuardBefore
	}
	if ReadU64(block, AllocationIDOffset) != id {
		return FaultIDMismatch
	}
	if ReadU64(block, SizeOffset) != uint64(size) {
		return FaultSizeMismatch
	}
	if ReadU64(block, HeaderSize+size) != GuardAfter {
		return FaultGuardAfter
	}
	return FaultNone
}

// Poison overwrites the payload region with the dead pattern. Called on free
// so stale readers observe 0xDD instead of the old contents.
func Poison(block []byte, size int) {
	payload := block[HeaderSize : HeaderSize+size]
	for i := range payload {
		payload[i] = DeadByte
	}
}
