package memdbg

import "github.com/memtools/memkit/memdbg/report"

// Report rendering over a point-in-time snapshot. Each call snapshots the
// ledger once; callers needing several renderings of the same instant
// should take one Snapshot and use the report package directly.

// MemoryReport renders the full text report of the current state.
func (d *Debugger) MemoryReport() string {
	return report.Text(d.Snapshot())
}

// LeakReport renders the detailed leak report for the last pass.
func (d *Debugger) LeakReport() string {
	return report.LeakText(d.Snapshot())
}

// FragmentationReport renders the pool fragmentation report.
func (d *Debugger) FragmentationReport() string {
	return report.FragmentationText(d.Snapshot())
}

// ExportCSV writes the active allocations to path as CSV.
func (d *Debugger) ExportCSV(path string) error {
	return report.WriteCSV(path, d.Snapshot())
}

// ExportUsageHistory writes the usage timeline to path as CSV.
func (d *Debugger) ExportUsageHistory(path string) error {
	return report.WriteUsageHistory(path, d.Snapshot())
}

// ExportJSON writes the whole snapshot to path as indented JSON.
func (d *Debugger) ExportJSON(path string) error {
	return report.WriteJSON(path, d.Snapshot())
}
