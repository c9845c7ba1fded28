package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Leak is one candidate from a leak detection pass: a snapshot of the
// allocation plus the detector's scoring. The detector replaces the whole
// candidate list on every pass, so a Leak is a point-in-time finding.
type Leak struct {
	Record   AllocationRecord `json:"record"`
	Lifetime time.Duration    `json:"lifetime"`

	// Confidence in [0,1] from the access-history heuristic; Potential is
	// true above 0.5.
	Confidence float64 `json:"confidence"`
	Potential  bool    `json:"potential"`

	// SeverityScore ranks candidates for triage: size in bytes times age
	// in (fractional) hours.
	SeverityScore float64 `json:"severity_score"`

	// Analysis is the human-readable reason behind the confidence.
	Analysis string `json:"analysis"`
}

// LeakBand buckets confidence for summary counts.
type LeakBand int

const (
	BandHigh     LeakBand = iota // confidence > 0.8
	BandModerate                 // confidence > 0.5
	BandLow                      // everything else
)

// String implements the Stringer interface for LeakBand
func (b LeakBand) String() string {
	switch b {
	case BandHigh:
		return "HIGH"
	case BandModerate:
		return "MODERATE"
	case BandLow:
		return "LOW"
	default:
		return fmt.Sprintf("BAND_%d", int(b))
	}
}

// Band returns the confidence band for this leak.
func (l *Leak) Band() LeakBand {
	switch {
	case l.Confidence > 0.8:
		return BandHigh
	case l.Confidence > 0.5:
		return BandModerate
	default:
		return BandLow
	}
}

// LeakReport collects the findings of one detection pass.
type LeakReport struct {
	// Metadata
	GeneratedAt time.Time     `json:"generated_at"`
	PassTime    time.Duration `json:"pass_time"`

	// Findings, sorted by severity after Finalize.
	Leaks []Leak `json:"leaks"`

	// Summary statistics
	Summary LeakSummary `json:"summary"`

	// Pre-computed groupings for efficient querying
	ByBand     map[LeakBand][]Leak `json:"-"`
	ByCategory map[Category][]Leak `json:"-"`
}

// LeakSummary provides quick statistics
type LeakSummary struct {
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`

	Potential  int    `json:"potential"`   // confidence > 0.5
	TotalBytes uint64 `json:"total_bytes"` // bytes across all candidates
}

// NewLeakReport creates an empty report
func NewLeakReport() *LeakReport {
	return &LeakReport{
		ByBand:     make(map[LeakBand][]Leak),
		ByCategory: make(map[Category][]Leak),
	}
}

// Add adds a leak to the report and updates indices
func (r *LeakReport) Add(l Leak) {
	r.Leaks = append(r.Leaks, l)

	switch l.Band() {
	case BandHigh:
		r.Summary.High++
	case BandModerate:
		r.Summary.Moderate++
	case BandLow:
		r.Summary.Low++
	}
	if l.Potential {
		r.Summary.Potential++
	}
	r.Summary.TotalBytes += l.Record.Size

	r.ByBand[l.Band()] = append(r.ByBand[l.Band()], l)
	r.ByCategory[l.Record.Category] = append(r.ByCategory[l.Record.Category], l)
}

// Finalize sorts findings by severity (descending) and prepares for output.
func (r *LeakReport) Finalize() {
	sort.SliceStable(r.Leaks, func(i, j int) bool {
		return r.Leaks[i].SeverityScore > r.Leaks[j].SeverityScore
	})
}

// HasLeaks returns true if any candidates were found.
func (r *LeakReport) HasLeaks() bool {
	return len(r.Leaks) > 0
}

// HasPotentialLeaks returns true if any candidate crossed the potential
// threshold.
func (r *LeakReport) HasPotentialLeaks() bool {
	return r.Summary.Potential > 0
}

// -----------------------------------------------------------------------------
// Output Formatters
// -----------------------------------------------------------------------------

// FormatJSON returns the report as formatted JSON (2-space indentation)
func (r *LeakReport) FormatJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatText returns a human-readable leak report.
func (r *LeakReport) FormatText() string {
	var b strings.Builder

	b.WriteString("=" + strings.Repeat("=", 78) + "\n")
	b.WriteString("Memory Leak Report\n")
	b.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	if !r.GeneratedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Generated: %s\n", r.GeneratedAt.Format(time.RFC3339)))
	}
	if r.PassTime > 0 {
		b.WriteString(fmt.Sprintf("Pass time: %v\n", r.PassTime))
	}
	b.WriteString("\n")

	b.WriteString("SUMMARY\n")
	b.WriteString(strings.Repeat("-", 79) + "\n")
	b.WriteString(fmt.Sprintf("  Candidates: %d\n", len(r.Leaks)))
	b.WriteString(fmt.Sprintf("  Potential:  %d\n", r.Summary.Potential))
	b.WriteString(fmt.Sprintf("  High:       %d\n", r.Summary.High))
	b.WriteString(fmt.Sprintf("  Moderate:   %d\n", r.Summary.Moderate))
	b.WriteString(fmt.Sprintf("  Low:        %d\n", r.Summary.Low))
	b.WriteString(fmt.Sprintf("  Bytes held: %d\n\n", r.Summary.TotalBytes))

	if len(r.Leaks) == 0 {
		b.WriteString("No leaks detected.\n")
		return b.String()
	}

	b.WriteString("CANDIDATES\n")
	b.WriteString(strings.Repeat("-", 79) + "\n\n")

	for _, band := range []LeakBand{BandHigh, BandModerate, BandLow} {
		leaks := r.ByBand[band]
		if len(leaks) == 0 {
			continue
		}

		b.WriteString(fmt.Sprintf("%s CONFIDENCE (%d)\n", band, len(leaks)))
		b.WriteString(strings.Repeat("~", 79) + "\n")

		for i, l := range leaks {
			rec := l.Record
			b.WriteString(fmt.Sprintf("\n%d. [%s] %d bytes at 0x%X (id %d)\n",
				i+1, rec.Category, rec.Size, rec.Addr, rec.AllocationID))
			b.WriteString(fmt.Sprintf("   Age:        %v\n", l.Lifetime.Round(time.Second)))
			b.WriteString(fmt.Sprintf("   Confidence: %.0f%%\n", l.Confidence*100))
			b.WriteString(fmt.Sprintf("   Severity:   %.2f\n", l.SeverityScore))
			b.WriteString(fmt.Sprintf("   Analysis:   %s\n", l.Analysis))
			if rec.TypeName != "" {
				b.WriteString(fmt.Sprintf("   Type:       %s\n", rec.TypeName))
			}
			if rec.CallSite != "" {
				b.WriteString(fmt.Sprintf("   Call site:  %s\n", rec.CallSite))
			}
			if rec.StackText != "" {
				b.WriteString("   Stack:\n")
				for _, line := range strings.Split(strings.TrimRight(rec.StackText, "\n"), "\n") {
					b.WriteString("     " + line + "\n")
				}
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatTextCompact returns a compact one-line-per-candidate text format
func (r *LeakReport) FormatTextCompact() string {
	var b strings.Builder

	for _, l := range r.Leaks {
		b.WriteString(fmt.Sprintf("0x%08X [%s/%s] %d bytes, %.0f%%: %s\n",
			l.Record.Addr, l.Band(), l.Record.Category, l.Record.Size,
			l.Confidence*100, l.Analysis))
	}

	if len(r.Leaks) == 0 {
		b.WriteString("No leaks detected.\n")
	}

	return b.String()
}
