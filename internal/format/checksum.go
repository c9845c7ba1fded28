package format

// Checksum computes a rolling CRC-style fold over data. It is an internal
// consistency signal only, not a cryptographic integrity check: collisions
// are acceptable, silent hardware-grade tamper resistance is a non-goal.
//
// Polynomial 0xEDB88320, initial value 0xFFFFFFFF, final complement.
func Checksum(data []byte) uint32 {
	checksum := uint32(0xFFFFFFFF)
	for _, b := range data {
		checksum ^= uint32(b)
		for j := 0; j < 8; j++ {
			if checksum&1 != 0 {
				checksum = (checksum >> 1) ^ 0xEDB88320
			} else {
				checksum >>= 1
			}
		}
	}
	return ^checksum
}

// BlockChecksum computes the checksum of a stamped block. The checksum field
// itself is treated as zero so the value is stable regardless of whether it
// has been written yet.
func BlockChecksum(block []byte) uint32 {
	checksum := uint32(0xFFFFFFFF)
	for i, b := range block {
		if i >= ChecksumOffset && i < ChecksumOffset+4 {
			b = 0
		}
		checksum ^= uint32(b)
		for j := 0; j < 8; j++ {
			if checksum&1 != 0 {
				checksum = (checksum >> 1) ^ 0xEDB88320
			} else {
				checksum >>= 1
			}
		}
	}
	return ^checksum
}
