// Package promexport exposes tracker statistics as Prometheus metrics.
//
// The collector takes one snapshot per scrape, so every series in a scrape
// reflects the same instant of the ledger. Register it on any Registerer:
//
//	reg.MustRegister(promexport.New(dbg))
package promexport

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/memtools/memkit/pkg/types"
)

const namespace = "memkit"

// Source provides the snapshot a scrape renders. *memdbg.Debugger
// satisfies it.
type Source interface {
	Snapshot() types.TrackerSnapshot
}

// Collector implements prometheus.Collector over tracker snapshots.
type Collector struct {
	src Source

	currentUsage   *prometheus.Desc
	peakUsage      *prometheus.Desc
	allocatedBytes *prometheus.Desc
	freedBytes     *prometheus.Desc
	allocations    *prometheus.Desc
	deallocations  *prometheus.Desc
	active         *prometheus.Desc
	fragmentation  *prometheus.Desc
	systemRSS      *prometheus.Desc
	events         *prometheus.Desc
	categoryUsage  *prometheus.Desc
	leakCandidates *prometheus.Desc
}

// New returns a collector that renders src's snapshots.
func New(src Source) *Collector {
	name := func(s string) string { return prometheus.BuildFQName(namespace, "", s) }
	return &Collector{
		src: src,
		currentUsage: prometheus.NewDesc(name("current_usage_bytes"),
			"Bytes currently tracked as live.", nil, nil),
		peakUsage: prometheus.NewDesc(name("peak_usage_bytes"),
			"High-water mark of tracked bytes.", nil, nil),
		allocatedBytes: prometheus.NewDesc(name("allocated_bytes_total"),
			"Bytes allocated since tracking started.", nil, nil),
		freedBytes: prometheus.NewDesc(name("freed_bytes_total"),
			"Bytes freed since tracking started.", nil, nil),
		allocations: prometheus.NewDesc(name("allocations_total"),
			"Allocations since tracking started.", nil, nil),
		deallocations: prometheus.NewDesc(name("deallocations_total"),
			"Deallocations since tracking started.", nil, nil),
		active: prometheus.NewDesc(name("active_allocations"),
			"Live tracked allocations.", nil, nil),
		fragmentation: prometheus.NewDesc(name("fragmentation_ratio"),
			"Size-weighted fragmentation across registered pools.", nil, nil),
		systemRSS: prometheus.NewDesc(name("system_rss_bytes"),
			"Resident set size reported by the platform.", nil, nil),
		events: prometheus.NewDesc(name("safety_events"),
			"Safety events retained in the diagnostics ring, by kind.",
			[]string{"kind"}, nil),
		categoryUsage: prometheus.NewDesc(name("category_usage_bytes"),
			"Live bytes per allocation category.",
			[]string{"category"}, nil),
		leakCandidates: prometheus.NewDesc(name("leak_candidates"),
			"Leak candidates from the last detection pass, by confidence band.",
			[]string{"band"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.currentUsage
	ch <- c.peakUsage
	ch <- c.allocatedBytes
	ch <- c.freedBytes
	ch <- c.allocations
	ch <- c.deallocations
	ch <- c.active
	ch <- c.fragmentation
	ch <- c.systemRSS
	ch <- c.events
	ch <- c.categoryUsage
	ch <- c.leakCandidates
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.src.Snapshot()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}

	gauge(c.currentUsage, float64(snap.CurrentUsage))
	gauge(c.peakUsage, float64(snap.PeakUsage))
	counter(c.allocatedBytes, float64(snap.TotalAllocated))
	counter(c.freedBytes, float64(snap.TotalFreed))
	counter(c.allocations, float64(snap.AllocationCount))
	counter(c.deallocations, float64(snap.DeallocationCount))
	gauge(c.active, float64(len(snap.Active)))
	gauge(c.fragmentation, snap.Fragmentation)
	if snap.SystemRSS > 0 {
		gauge(c.systemRSS, float64(snap.SystemRSS))
	}

	tally := snap.EventTally()
	for _, kind := range []types.EventKind{
		types.EventCorruption,
		types.EventDoubleFree,
		types.EventUseAfterFree,
		types.EventAllocationFailure,
	} {
		gauge(c.events, float64(tally[kind]), kind.String())
	}

	// Absent categories produce no series; zero-valued ones would only
	// add noise to the scrape.
	for _, cat := range types.Categories() {
		if used := snap.CategoryUsage[cat]; used > 0 {
			gauge(c.categoryUsage, float64(used), cat.String())
		}
	}

	bands := make(map[types.LeakBand]int, 3)
	for i := range snap.Leaks {
		bands[snap.Leaks[i].Band()]++
	}
	for _, band := range []types.LeakBand{types.BandHigh, types.BandModerate, types.BandLow} {
		gauge(c.leakCandidates, float64(bands[band]), strings.ToLower(band.String()))
	}
}
