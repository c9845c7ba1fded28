package types

import "time"

// Block is one free region inside a pool, reported by the owning allocator.
type Block struct {
	Offset uint64 `json:"offset"`
	Size   uint64 `json:"size"`
}

// Pool carries the monitored statistics of one externally-owned memory pool.
// The monitor never allocates from a pool or walks its internals; everything
// here derives from what the owning allocator reports.
type Pool struct {
	Name     string   `json:"name"`
	Base     uintptr  `json:"base"`
	Category Category `json:"category"`

	TotalSize uint64 `json:"total_size"`
	UsedSize  uint64 `json:"used_size"`
	FreeSize  uint64 `json:"free_size"`

	BlockCount         int     `json:"block_count"`
	LargestFreeBlock   uint64  `json:"largest_free_block"`
	FragmentationRatio float64 `json:"fragmentation_ratio"`

	FreeBlocks []Block   `json:"free_blocks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// Recompute derives FreeSize, BlockCount, LargestFreeBlock and
// FragmentationRatio from TotalSize, UsedSize and FreeBlocks.
//
// FreeSize saturates at zero when UsedSize exceeds TotalSize (a reporting
// allocator may briefly over-commit). Fragmentation is
// 1 - largest/sum(free blocks); a pool with no free blocks is not
// fragmented, it is full, so the ratio is 0.
func (p *Pool) Recompute() {
	if p.UsedSize > p.TotalSize {
		p.FreeSize = 0
	} else {
		p.FreeSize = p.TotalSize - p.UsedSize
	}

	p.BlockCount = len(p.FreeBlocks)
	p.LargestFreeBlock = 0
	var sum uint64
	for _, b := range p.FreeBlocks {
		sum += b.Size
		if b.Size > p.LargestFreeBlock {
			p.LargestFreeBlock = b.Size
		}
	}

	if sum == 0 {
		p.FragmentationRatio = 0
		return
	}
	p.FragmentationRatio = 1 - float64(p.LargestFreeBlock)/float64(sum)
}

// Utilization returns UsedSize/TotalSize in [0,1]; zero-sized pools report 0.
func (p *Pool) Utilization() float64 {
	if p.TotalSize == 0 {
		return 0
	}
	return float64(p.UsedSize) / float64(p.TotalSize)
}

// WeightedFragmentation returns the size-weighted average fragmentation
// ratio across pools. With no pools (or only zero-sized pools) it returns 0.
func WeightedFragmentation(pools []Pool) float64 {
	var weighted float64
	var total uint64
	for _, p := range pools {
		weighted += p.FragmentationRatio * float64(p.TotalSize)
		total += p.TotalSize
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total)
}
