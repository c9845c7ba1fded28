package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/memtools/memkit/memdbg"
	"github.com/memtools/memkit/pkg/types"
)

var (
	demoEntities int
	demoOut      string
)

func init() {
	cmd := newDemoCmd()
	cmd.Flags().IntVar(&demoEntities, "entities", 64, "Entities to spawn in the synthetic world")
	cmd.Flags().StringVar(&demoOut, "out", "", "Directory for CSV/JSON exports")
	rootCmd.AddCommand(cmd)
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a synthetic workload and print its diagnostics",
		Long: `The demo command drives the tracker through a small game-style
workload: entity spawns, per-frame scratch buffers, a handful of forgotten
components, one buffer overrun and one double free. It then prints the
memory, leak and fragmentation reports.

Example:
  memctl demo
  memctl demo --entities 128 --out ./exports
  memctl demo --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
}

func runDemo() error {
	cfg := memdbg.DefaultConfig()
	cfg.EnableAccessTracking = true
	// Short thresholds so the workload ages into leak territory within
	// the run.
	cfg.LeakThreshold = 50 * time.Millisecond
	cfg.StaleThreshold = 25 * time.Millisecond
	cfg.SnapshotInterval = 16

	d, err := memdbg.New(memdbg.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("init tracker: %w", err)
	}
	defer d.Close()

	printVerbose("Spawning %d entities\n", demoEntities)

	d.RegisterPool("frame-arena", 0x10000000, 1<<20, types.CategoryTemporary)

	// One body and one velocity component per entity. Every fourth
	// velocity is forgotten during despawn below.
	bodies := make([][]byte, 0, demoEntities)
	velocities := make([][]byte, 0, demoEntities)
	for i := 0; i < demoEntities; i++ {
		bodies = append(bodies, d.Alloc(64, 16, types.CategoryEntities, "Body", "demo:spawn"))
		velocities = append(velocities, d.Alloc(32, 8, types.CategoryComponents, "Velocity", "demo:spawn"))
	}

	cache := d.Alloc(4096, 64, types.CategoryCache, "AssetCache", "demo:init")
	d.MarkIntentional(memdbg.AddressOf(cache))

	// Frames: a scratch buffer each, plus component reads on half the
	// bodies so the access telemetry has something to classify.
	for frame := 0; frame < 10; frame++ {
		scratch := d.Alloc(1024, 16, types.CategoryTemporary, "FrameScratch", "demo:frame")
		for i := 0; i < len(bodies); i += 2 {
			d.RecordAccess(memdbg.AddressOf(bodies[i]), 64, false)
		}
		d.Free(scratch)
	}

	if err := d.UpdatePoolUsage("frame-arena", 1<<19, []types.Block{
		{Offset: 1 << 19, Size: 1 << 18},
		{Offset: 3 << 18, Size: 1 << 18},
	}); err != nil {
		return fmt.Errorf("update pool: %w", err)
	}

	// Overrun: one byte past the payload, caught when the buffer is
	// freed.
	over := d.Alloc(256, 16, types.CategoryTemporary, "OverrunDemo", "demo:overrun")
	over[:cap(over)][256] = 0xFF
	d.Free(over)

	// Double free.
	dup := d.Alloc(128, 16, types.CategoryTemporary, "DoubleFreeDemo", "demo:dup")
	d.Free(dup)
	d.Free(dup)

	// Despawn, forgetting every fourth velocity.
	for i := range bodies {
		d.Free(bodies[i])
		if i%4 != 0 {
			d.Free(velocities[i])
		}
	}

	time.Sleep(cfg.LeakThreshold + 20*time.Millisecond)
	leaks := d.CheckForLeaks()
	printVerbose("Leak pass found %d candidates\n", len(leaks))

	if jsonOut {
		return printJSON(d.Snapshot())
	}

	printInfo("%s\n", d.MemoryReport())
	printInfo("%s\n", d.LeakReport())
	printInfo("%s\n", d.FragmentationReport())

	if demoOut != "" {
		if err := os.MkdirAll(demoOut, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
		if err := d.ExportCSV(filepath.Join(demoOut, "allocations.csv")); err != nil {
			return err
		}
		if err := d.ExportUsageHistory(filepath.Join(demoOut, "usage.csv")); err != nil {
			return err
		}
		if err := d.ExportJSON(filepath.Join(demoOut, "snapshot.json")); err != nil {
			return err
		}
		printInfo("Exports written to %s\n", demoOut)
	}
	return nil
}
