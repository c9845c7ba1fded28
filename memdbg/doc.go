// Package memdbg provides allocation tracking and memory safety diagnostics
// for explicitly managed buffers: pool slabs, arena payloads, asset blobs
// and other memory whose lifetime the runtime's garbage collector does not
// explain.
//
// # Overview
//
// The core abstraction is the Debugger, a ledger of every tracked
// allocation. Buffers obtained through Alloc carry an in-band guarded
// layout (header, payload, rear guard word) that is verified when the
// buffer is freed; memory owned elsewhere is tracked out-of-band through
// RegisterAllocation. On top of the ledger sit a leak detector, a pool
// monitor, an access pattern recorder and a reporting layer.
//
// # Guarded Allocations
//
//	dbg, _ := memdbg.New()
//	defer dbg.Close()
//
//	buf := dbg.Alloc(4096, 16, types.CategoryAssets, "TextureData", "")
//	// ... use buf ...
//	dbg.Free(buf)
//
// Between Alloc and Free the debugger can detect buffer overruns and
// underruns (guard words), header clobbering (magic + checksum), double
// frees, and use-after-free accesses. Detections never surface as errors:
// they are recorded as events, queryable via Events(), and optionally
// escalate to a panic when Config.HardFail is set.
//
// # Manual Registration
//
// Memory allocated elsewhere (mmap regions, cgo buffers, GPU staging
// memory) joins the ledger without the guarded layout:
//
//	dbg.RegisterAllocation(addr, size, 64, types.CategoryGraphics, "VertexBuffer", "mesh.go:88")
//	...
//	dbg.UnregisterAllocation(addr)
//
// # Leak Detection
//
// CheckForLeaks scores long-lived allocations by their access history and
// replaces the candidate list each pass. Passes also trigger automatically
// from the allocation path on a coarse interval, always asynchronously.
//
// # Pool Monitoring
//
// External allocators report their pools with RegisterPool and refresh
// usage with UpdatePoolUsage; the monitor derives free space, largest free
// block and a fragmentation ratio per pool plus a size-weighted global
// ratio.
//
// # Thread Safety
//
// All Debugger methods are safe for concurrent use. One mutex guards the
// ledger; counter mirrors are atomics readable without it. Alloc and free
// hooks run outside the lock, so hooks may call back into the debugger.
//
// # Related Packages
//
//   - github.com/memtools/memkit/memdbg/report: deterministic text/CSV/JSON rendering
//   - github.com/memtools/memkit/memdbg/promexport: prometheus collector over debugger stats
//   - github.com/memtools/memkit/pkg/types: the shared data model
package memdbg
