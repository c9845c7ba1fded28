package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/memtools/memkit/memdbg/report"
	"github.com/memtools/memkit/pkg/types"
)

var (
	reportTail int
)

func init() {
	cmd := newReportCmd()
	cmd.Flags().IntVar(&reportTail, "tail", 10, "Number of trailing points to list")
	rootCmd.AddCommand(cmd)
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <usage.csv>",
		Short: "Render an exported usage history",
		Long: `The report command reads a usage-history CSV written by the tracker
(ExportUsageHistory or memctl demo --out) and summarizes it: span, peak,
growth and the trailing points.

Example:
  memctl report exports/usage.csv
  memctl report exports/usage.csv --tail 25
  memctl report exports/usage.csv --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(args)
		},
	}
}

func runReport(args []string) error {
	path := args[0]
	printVerbose("Reading usage history: %s\n", path)

	points, err := readUsageHistory(path)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("no usage points in %s", path)
	}

	if jsonOut {
		return printJSON(points)
	}

	var peak uint64
	maxActive := 0
	for i := range points {
		if points[i].PeakUsage > peak {
			peak = points[i].PeakUsage
		}
		if points[i].ActiveCount > maxActive {
			maxActive = points[i].ActiveCount
		}
	}
	first, last := points[0], points[len(points)-1]
	growth := int64(last.CurrentUsage) - int64(first.CurrentUsage)

	printInfo("\nUsage History: %s\n", path)
	printInfo("%s\n\n", strings.Repeat("=", 40))
	printInfo("  Points:      %s\n", formatNumber(int64(len(points))))
	printInfo("  Span:        %s (%s to %s)\n",
		last.Timestamp.Sub(first.Timestamp).Round(time.Millisecond),
		first.Timestamp.Format(time.RFC3339),
		last.Timestamp.Format(time.RFC3339))
	printInfo("  Peak usage:  %s\n", formatBytes(int64(peak)))
	printInfo("  Max active:  %s\n", formatNumber(int64(maxActive)))
	printInfo("  Growth:      %+d B\n\n", growth)

	tail := points
	if reportTail > 0 && len(tail) > reportTail {
		tail = tail[len(tail)-reportTail:]
		printInfo("Last %d points:\n", reportTail)
	} else {
		printInfo("Points:\n")
	}
	printInfo("  %-24s %14s %8s %6s\n", "TIMESTAMP", "CURRENT", "ACTIVE", "FRAG")
	for i := range tail {
		pt := &tail[i]
		printInfo("  %-24s %14s %8d %5.1f%%\n",
			pt.Timestamp.Format("2006-01-02 15:04:05.000"),
			formatNumber(int64(pt.CurrentUsage)),
			pt.ActiveCount,
			pt.Fragmentation*100)
	}
	return nil
}

// readUsageHistory parses a CSV in the tracker's usage-timeline format.
func readUsageHistory(path string) ([]types.UsageSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open usage history: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Row length is checked per point for a clearer error.
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if !slices.Equal(rows[0], report.UsageHistoryHeader) {
		return nil, fmt.Errorf("%s is not a usage-history export (header %v)", path, rows[0])
	}

	points := make([]types.UsageSnapshot, 0, len(rows)-1)
	for n, row := range rows[1:] {
		pt, err := parseUsagePoint(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		points = append(points, pt)
	}
	return points, nil
}

func parseUsagePoint(row []string) (types.UsageSnapshot, error) {
	var pt types.UsageSnapshot
	if len(row) != len(report.UsageHistoryHeader) {
		return pt, fmt.Errorf("expected %d fields, got %d", len(report.UsageHistoryHeader), len(row))
	}

	ts, err := time.Parse(time.RFC3339Nano, row[0])
	if err != nil {
		return pt, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}
	pt.Timestamp = ts

	counters := []struct {
		name string
		dst  *uint64
	}{
		{"total_allocated", &pt.TotalAllocated},
		{"total_freed", &pt.TotalFreed},
		{"current_usage", &pt.CurrentUsage},
		{"peak_usage", &pt.PeakUsage},
		{"allocation_count", &pt.AllocationCount},
	}
	for i, c := range counters {
		v, err := strconv.ParseUint(row[i+1], 10, 64)
		if err != nil {
			return pt, fmt.Errorf("bad %s %q: %w", c.name, row[i+1], err)
		}
		*c.dst = v
	}

	active, err := strconv.Atoi(row[6])
	if err != nil {
		return pt, fmt.Errorf("bad active_count %q: %w", row[6], err)
	}
	pt.ActiveCount = active

	frag, err := strconv.ParseFloat(row[7], 64)
	if err != nil {
		return pt, fmt.Errorf("bad fragmentation %q: %w", row[7], err)
	}
	pt.Fragmentation = frag

	rss, err := strconv.ParseUint(row[8], 10, 64)
	if err != nil {
		return pt, fmt.Errorf("bad system_rss %q: %w", row[8], err)
	}
	pt.SystemRSS = rss

	return pt, nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	// Add commas
	var result strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	return result.String()
}
