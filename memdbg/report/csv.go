package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/memtools/memkit/pkg/types"
)

// AllocationHeader is the fixed column order of the active-allocation
// export. Consumers key on these names; do not reorder.
var AllocationHeader = []string{
	"id", "address", "size", "alignment", "category", "type",
	"call_site", "age_seconds", "access_count", "hot",
}

// UsageHistoryHeader is the fixed column order of the usage-timeline
// export.
var UsageHistoryHeader = []string{
	"timestamp", "total_allocated", "total_freed", "current_usage",
	"peak_usage", "allocation_count", "active_count", "fragmentation",
	"system_rss",
}

// CSV writes the active allocations as CSV, one row per live record in id
// order. Ages are relative to the snapshot time.
func CSV(w io.Writer, snap types.TrackerSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AllocationHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range snap.Active {
		rec := &snap.Active[i]
		row := []string{
			strconv.FormatUint(rec.AllocationID, 10),
			fmt.Sprintf("0x%X", rec.Addr),
			strconv.FormatUint(rec.Size, 10),
			strconv.Itoa(rec.Alignment),
			rec.Category.String(),
			rec.TypeName,
			rec.CallSite,
			strconv.FormatFloat(rec.Age(snap.Taken).Seconds(), 'f', 3, 64),
			strconv.FormatUint(rec.AccessCount, 10),
			strconv.FormatBool(rec.Hot),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// UsageHistoryCSV writes the usage timeline as CSV, oldest point first.
func UsageHistoryCSV(w io.Writer, snap types.TrackerSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(UsageHistoryHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range snap.UsageHistory {
		u := &snap.UsageHistory[i]
		row := []string{
			u.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatUint(u.TotalAllocated, 10),
			strconv.FormatUint(u.TotalFreed, 10),
			strconv.FormatUint(u.CurrentUsage, 10),
			strconv.FormatUint(u.PeakUsage, 10),
			strconv.FormatUint(u.AllocationCount, 10),
			strconv.Itoa(u.ActiveCount),
			strconv.FormatFloat(u.Fragmentation, 'f', 4, 64),
			strconv.FormatUint(u.SystemRSS, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
