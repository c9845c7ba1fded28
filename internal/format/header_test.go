package format

import (
	"bytes"
	"testing"
)

func stampedBlock(t *testing.T, id uint64, size int) []byte {
	t.Helper()
	block := make([]byte, BlockSize(size))
	Stamp(block, id, size, 16, 3)
	return block
}

func TestStampRoundTrip(t *testing.T) {
	block := stampedBlock(t, 42, 128)

	h, err := ReadHeader(block)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Magic != HeaderMagic {
		t.Fatalf("magic mismatch: got 0x%X", h.Magic)
	}
	if h.AllocationID != 42 || h.Size != 128 || h.Alignment != 16 || h.Category != 3 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if ReadU64(block, GuardBeforeOffset) != GuardBefore {
		t.Fatal("guard-before not stamped")
	}
	if ReadU64(block, HeaderSize+128) != GuardAfter {
		t.Fatal("guard-after not stamped")
	}
	if got := Verify(block, 42, 128); got != FaultNone {
		t.Fatalf("Verify on clean block: %v", got)
	}
}

func TestStampChecksumDeterministic(t *testing.T) {
	a := stampedBlock(t, 7, 64)
	b := stampedBlock(t, 7, 64)

	ha, _ := ReadHeader(a)
	hb, _ := ReadHeader(b)
	if ha.Checksum != hb.Checksum {
		t.Fatalf("checksum not deterministic: 0x%X vs 0x%X", ha.Checksum, hb.Checksum)
	}
	if ha.Checksum == 0 {
		t.Fatal("checksum not written")
	}
	// The stored value must equal a recomputation with the field zeroed.
	if got := BlockChecksum(a); got != ha.Checksum {
		t.Fatalf("BlockChecksum: got 0x%X want 0x%X", got, ha.Checksum)
	}
}

func TestVerifyOverrun(t *testing.T) {
	block := stampedBlock(t, 1, 32)

	// One byte past the payload end lands in the guard-after word.
	block[HeaderSize+32] = 0xFF
	if got := Verify(block, 1, 32); got != FaultGuardAfter {
		t.Fatalf("expected FaultGuardAfter, got %v", got)
	}
}

func TestVerifyUnderrun(t *testing.T) {
	block := stampedBlock(t, 1, 32)

	// One byte before the payload start lands in the guard-before word.
	block[HeaderSize-1] = 0x00
	if got := Verify(block, 1, 32); got != FaultGuardBefore {
		t.Fatalf("expected FaultGuardBefore, got %v", got)
	}
}

func TestVerifyMagicClobbered(t *testing.T) {
	block := stampedBlock(t, 1, 32)

	PutU32(block, MagicOffset, 0x12345678)
	if got := Verify(block, 1, 32); got != FaultMagic {
		t.Fatalf("expected FaultMagic, got %v", got)
	}
}

func TestVerifyIDMismatch(t *testing.T) {
	block := stampedBlock(t, 9, 32)

	if got := Verify(block, 10, 32); got != FaultIDMismatch {
		t.Fatalf("expected FaultIDMismatch, got %v", got)
	}
}

func TestVerifyTruncated(t *testing.T) {
	block := stampedBlock(t, 1, 32)

	if got := Verify(block[:HeaderSize], 1, 32); got != FaultTruncated {
		t.Fatalf("expected FaultTruncated, got %v", got)
	}
}

func TestPoison(t *testing.T) {
	block := stampedBlock(t, 1, 16)
	payload := block[HeaderSize : HeaderSize+16]
	copy(payload, []byte("live payload data"))

	Poison(block, 16)

	if !bytes.Equal(payload, bytes.Repeat([]byte{DeadByte}, 16)) {
		t.Fatalf("payload not poisoned: % X", payload)
	}
	// Guards survive poisoning.
	if got := Verify(block, 1, 16); got != FaultNone {
		t.Fatalf("Verify after poison: %v", got)
	}
}

func TestZeroSizePayload(t *testing.T) {
	block := stampedBlock(t, 5, 0)
	if got := Verify(block, 5, 0); got != FaultNone {
		t.Fatalf("Verify zero-size block: %v", got)
	}
}
