package memdbg

import (
	"testing"
	"time"

	"github.com/memtools/memkit/pkg/types"
)

// Prevent compiler from optimizing away benchmark results.
//
//nolint:unused // Benchmark sink variables - intentionally write-only
var (
	benchBuf   []byte
	benchLeaks []types.Leak
	benchBool  bool
)

func newBenchDebugger(b *testing.B, mutate func(*Config)) *Debugger {
	b.Helper()

	cfg := DefaultConfig()
	cfg.EnableLeakDetection = false
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := New(WithConfig(cfg))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = d.Close() })
	return d
}

// BenchmarkAlloc measures the tracked allocation path.
func BenchmarkAlloc(b *testing.B) {
	variants := []struct {
		name   string
		mutate func(*Config)
	}{
		{"stacks", nil},
		{"no-stacks", func(cfg *Config) { cfg.EnableStackTraces = false }},
	}
	for _, tc := range variants {
		b.Run(tc.name, func(b *testing.B) {
			d := newBenchDebugger(b, tc.mutate)

			b.ReportAllocs()
			b.ResetTimer()
			for range b.N {
				benchBuf = d.Alloc(64, 8, types.CategoryTemporary, "", "")
			}
		})
	}
}

// BenchmarkAllocFree measures a full alloc/free cycle including guard
// verification and poisoning.
func BenchmarkAllocFree(b *testing.B) {
	d := newBenchDebugger(b, func(cfg *Config) {
		cfg.EnableStackTraces = false
	})

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		p := d.Alloc(256, 16, types.CategoryTemporary, "", "")
		benchBool = d.Free(p)
	}
}

// BenchmarkRecordAccess measures the access recorder on a base address.
func BenchmarkRecordAccess(b *testing.B) {
	d := newBenchDebugger(b, func(cfg *Config) {
		cfg.EnableStackTraces = false
		cfg.EnableAccessTracking = true
	})
	p := d.Alloc(4096, 16, types.CategoryAssets, "", "")
	addr := addrOf(p)

	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		d.RecordAccess(addr+uintptr(i%4096), 1, false)
	}
}

// BenchmarkCheckForLeaks scores 10k aged allocations per pass.
func BenchmarkCheckForLeaks(b *testing.B) {
	clk := newFakeClock()
	cfg := DefaultConfig()
	cfg.EnableStackTraces = false
	cfg.LeakThreshold = time.Minute

	d, err := New(WithConfig(cfg), WithClock(clk))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = d.Close() })

	for i := 0; i < 10_000; i++ {
		if d.Alloc(64, 8, types.CategoryEntities, "", "") == nil {
			b.Fatal("alloc failed")
		}
	}
	clk.Advance(2 * time.Minute)

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		benchLeaks = d.CheckForLeaks()
	}
}
