package memdbg

import (
	"slices"
	"sort"

	"github.com/memtools/memkit/pkg/types"
)

// RegisterPool starts monitoring an externally-owned pool under a unique
// name. Registering an existing name updates its base and size in place,
// keeping the accumulated statistics. No-op with pool monitoring disabled.
func (d *Debugger) RegisterPool(name string, base uintptr, size uint64, cat types.Category) {
	if !d.cfg.EnablePoolMonitoring || d.closed.Load() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pools == nil {
		return
	}
	if p, ok := d.pools[name]; ok {
		p.Base = base
		p.TotalSize = size
		p.Recompute()
		p.UpdatedAt = d.clock.Now()
		return
	}
	p := &types.Pool{
		Name:      name,
		Base:      base,
		TotalSize: size,
		Category:  cat,
		CreatedAt: d.clock.Now(),
	}
	p.Recompute()
	d.pools[name] = p
}

// UnregisterPool stops monitoring a pool. Returns false for unknown names.
func (d *Debugger) UnregisterPool(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pools[name]; !ok {
		return false
	}
	delete(d.pools, name)
	return true
}

// UpdatePoolUsage refreshes a pool with what its owning allocator reports:
// bytes in use and the current free-block list. The monitor derives free
// space, largest block and the fragmentation ratio; it never walks the
// pool's memory, so block sanity is the reporting allocator's contract.
func (d *Debugger) UpdatePoolUsage(name string, used uint64, freeBlocks []types.Block) error {
	if !d.cfg.EnablePoolMonitoring || d.closed.Load() {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pools[name]
	if !ok {
		return ErrUnknownPool
	}
	p.UsedSize = used
	p.FreeBlocks = slices.Clone(freeBlocks)
	p.Recompute()
	p.UpdatedAt = d.clock.Now()
	return nil
}

// Pools returns copies of all monitored pools, sorted by name.
func (d *Debugger) Pools() []types.Pool {
	d.mu.Lock()
	out := make([]types.Pool, 0, len(d.pools))
	for _, p := range d.pools {
		c := *p
		c.FreeBlocks = slices.Clone(p.FreeBlocks)
		out = append(out, c)
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PoolInfo returns a copy of one monitored pool.
func (d *Debugger) PoolInfo(name string) (types.Pool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pools[name]
	if !ok {
		return types.Pool{}, false
	}
	c := *p
	c.FreeBlocks = slices.Clone(p.FreeBlocks)
	return c, true
}

// OverallFragmentation returns the size-weighted average fragmentation
// ratio across monitored pools; 0 with no pools or with fragmentation
// analysis disabled.
func (d *Debugger) OverallFragmentation() float64 {
	if !d.cfg.EnableFragmentationAnalysis {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.overallFragmentationLocked()
}

func (d *Debugger) overallFragmentationLocked() float64 {
	if len(d.pools) == 0 {
		return 0
	}
	pools := make([]types.Pool, 0, len(d.pools))
	for _, p := range d.pools {
		pools = append(pools, *p)
	}
	return types.WeightedFragmentation(pools)
}
