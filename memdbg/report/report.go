// Package report renders tracker snapshots for humans and machines. Text
// renderers produce the banner-style reports used in logs and consoles;
// CSV and JSON exports feed spreadsheets and downstream tooling.
//
// Every renderer takes a types.TrackerSnapshot, never a live tracker, so
// output is reproducible and rendering can happen far from the allocation
// path. Ordering is deterministic throughout: categories in enum order,
// pools and type names alphabetical, allocations by id, leak candidates by
// severity.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/memtools/memkit/pkg/types"
)

// num groups digits in large byte counts so they stay readable.
var num = message.NewPrinter(language.English)

const lineWidth = 79

// sizeBuckets are the upper bounds of the size-distribution histogram.
var sizeBuckets = []uint64{64, 256, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20}

func banner(b *strings.Builder, title string) {
	b.WriteString(strings.Repeat("=", lineWidth) + "\n")
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", lineWidth) + "\n\n")
}

func section(b *strings.Builder, title string) {
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
}

func bucketLabel(i int) string {
	if i == len(sizeBuckets) {
		return fmt.Sprintf("> %s", byteCount(sizeBuckets[len(sizeBuckets)-1]))
	}
	return fmt.Sprintf("<= %s", byteCount(sizeBuckets[i]))
}

// byteCount renders a byte quantity with a binary unit suffix.
func byteCount(n uint64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return num.Sprintf("%d MiB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return num.Sprintf("%d KiB", n>>10)
	default:
		return num.Sprintf("%d B", n)
	}
}

// Text renders the full tracking report: usage totals, category breakdown,
// size distribution, pool table, leak summary and event tally.
func Text(snap types.TrackerSnapshot) string {
	var b strings.Builder

	banner(&b, "Memory Tracking Report")
	if !snap.Taken.IsZero() {
		b.WriteString(fmt.Sprintf("Generated: %s\n\n", snap.Taken.Format(time.RFC3339)))
	}

	writeUsage(&b, snap)
	writeCategories(&b, snap)
	writeSizeDistribution(&b, snap)
	writeTypeBreakdown(&b, snap)
	writePools(&b, snap)
	writeLeaks(&b, snap)
	writeEvents(&b, snap)

	return b.String()
}

func writeUsage(b *strings.Builder, snap types.TrackerSnapshot) {
	section(b, "USAGE")
	b.WriteString(num.Sprintf("  Current usage:    %d B\n", snap.CurrentUsage))
	b.WriteString(num.Sprintf("  Peak usage:       %d B\n", snap.PeakUsage))
	b.WriteString(num.Sprintf("  Total allocated:  %d B\n", snap.TotalAllocated))
	b.WriteString(num.Sprintf("  Total freed:      %d B\n", snap.TotalFreed))
	b.WriteString(num.Sprintf("  Allocations:      %d\n", snap.AllocationCount))
	b.WriteString(num.Sprintf("  Deallocations:    %d\n", snap.DeallocationCount))
	b.WriteString(num.Sprintf("  Active:           %d\n", len(snap.Active)))
	if snap.SystemRSS > 0 {
		b.WriteString(num.Sprintf("  System RSS:       %d B\n", snap.SystemRSS))
	}
	if len(snap.Pools) > 0 {
		b.WriteString(fmt.Sprintf("  Fragmentation:    %.1f%%\n", snap.Fragmentation*100))
	}
	b.WriteString("\n")
}

func writeCategories(b *strings.Builder, snap types.TrackerSnapshot) {
	if len(snap.CategoryUsage) == 0 {
		return
	}
	section(b, "CATEGORY BREAKDOWN")
	for _, cat := range types.Categories() {
		used := snap.CategoryUsage[cat]
		if used == 0 {
			continue
		}
		pct := 0.0
		if snap.CurrentUsage > 0 {
			pct = float64(used) / float64(snap.CurrentUsage) * 100
		}
		b.WriteString(num.Sprintf("  %-14s %14d B  (%.1f%%)\n", cat, used, pct))
	}
	b.WriteString("\n")
}

func writeSizeDistribution(b *strings.Builder, snap types.TrackerSnapshot) {
	if len(snap.Active) == 0 {
		return
	}
	counts := make([]int, len(sizeBuckets)+1)
	for i := range snap.Active {
		counts[bucketFor(snap.Active[i].Size)]++
	}

	section(b, "SIZE DISTRIBUTION")
	for i, n := range counts {
		if n == 0 {
			continue
		}
		b.WriteString(num.Sprintf("  %-12s %8d\n", bucketLabel(i), n))
	}
	b.WriteString("\n")
}

func bucketFor(size uint64) int {
	for i, limit := range sizeBuckets {
		if size <= limit {
			return i
		}
	}
	return len(sizeBuckets)
}

func writeTypeBreakdown(b *strings.Builder, snap types.TrackerSnapshot) {
	if len(snap.Active) == 0 {
		return
	}
	byType := make(map[string]uint64)
	for i := range snap.Active {
		name := snap.Active[i].TypeName
		if name == "" {
			name = "unknown"
		}
		byType[name] += snap.Active[i].Size
	}
	names := make([]string, 0, len(byType))
	for name := range byType {
		names = append(names, name)
	}
	sort.Strings(names)

	section(b, "TYPE BREAKDOWN")
	for _, name := range names {
		b.WriteString(num.Sprintf("  %-24s %14d B\n", name, byType[name]))
	}
	b.WriteString("\n")
}

func writePools(b *strings.Builder, snap types.TrackerSnapshot) {
	if len(snap.Pools) == 0 {
		return
	}
	section(b, "POOLS")
	b.WriteString(fmt.Sprintf("  %-16s %14s %14s %14s %8s %6s\n",
		"NAME", "TOTAL", "USED", "FREE", "BLOCKS", "FRAG"))
	for i := range snap.Pools {
		p := &snap.Pools[i]
		b.WriteString(num.Sprintf("  %-16s %14d %14d %14d %8d %5.1f%%\n",
			p.Name, p.TotalSize, p.UsedSize, p.FreeSize, p.BlockCount,
			p.FragmentationRatio*100))
	}
	b.WriteString("\n")
}

func writeLeaks(b *strings.Builder, snap types.TrackerSnapshot) {
	section(b, "LEAK CANDIDATES")
	if len(snap.Leaks) == 0 {
		b.WriteString("  none\n\n")
		return
	}

	potential := 0
	var held uint64
	for i := range snap.Leaks {
		if snap.Leaks[i].Potential {
			potential++
		}
		held += snap.Leaks[i].Record.Size
	}
	b.WriteString(num.Sprintf("  Candidates: %d (%d potential, %d B held)\n\n",
		len(snap.Leaks), potential, held))

	// Top candidates only; LeakText carries the full detail.
	show := len(snap.Leaks)
	if show > 5 {
		show = 5
	}
	for _, l := range snap.Leaks[:show] {
		b.WriteString(fmt.Sprintf("  0x%08X [%s/%s] %d bytes, %.0f%%: %s\n",
			l.Record.Addr, l.Band(), l.Record.Category, l.Record.Size,
			l.Confidence*100, l.Analysis))
	}
	if show < len(snap.Leaks) {
		b.WriteString(fmt.Sprintf("  ... %d more\n", len(snap.Leaks)-show))
	}
	b.WriteString("\n")
}

func writeEvents(b *strings.Builder, snap types.TrackerSnapshot) {
	section(b, "SAFETY EVENTS")
	if len(snap.Events) == 0 {
		b.WriteString("  none recorded\n")
		return
	}
	tally := snap.EventTally()
	for _, kind := range []types.EventKind{
		types.EventCorruption,
		types.EventDoubleFree,
		types.EventUseAfterFree,
		types.EventAllocationFailure,
	} {
		if n := tally[kind]; n > 0 {
			b.WriteString(fmt.Sprintf("  %-20s %6d\n", kind, n))
		}
	}

	// The most recent events verbatim, oldest first.
	show := len(snap.Events)
	if show > 10 {
		show = 10
	}
	b.WriteString("\n")
	for _, ev := range snap.Events[len(snap.Events)-show:] {
		b.WriteString("  " + ev.String() + "\n")
	}
}

// LeakText renders the full leak report for the snapshot's candidates.
func LeakText(snap types.TrackerSnapshot) string {
	rep := types.NewLeakReport()
	rep.GeneratedAt = snap.Taken
	for _, l := range snap.Leaks {
		rep.Add(l)
	}
	rep.Finalize()
	return rep.FormatText()
}

// FragmentationText renders the pool fragmentation report.
func FragmentationText(snap types.TrackerSnapshot) string {
	var b strings.Builder

	banner(&b, "Fragmentation Report")
	if len(snap.Pools) == 0 {
		b.WriteString("No pools registered.\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Overall (size-weighted): %.1f%%\n\n", snap.Fragmentation*100))

	b.WriteString(fmt.Sprintf("%-16s %14s %14s %14s %8s %6s %6s\n",
		"POOL", "TOTAL", "USED", "LARGEST FREE", "BLOCKS", "UTIL", "FRAG"))
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	for i := range snap.Pools {
		p := &snap.Pools[i]
		b.WriteString(num.Sprintf("%-16s %14d %14d %14d %8d %5.1f%% %5.1f%%\n",
			p.Name, p.TotalSize, p.UsedSize, p.LargestFreeBlock, p.BlockCount,
			p.Utilization()*100, p.FragmentationRatio*100))
	}
	return b.String()
}
