// Package types defines the shared data model for the memkit allocation
// tracker: allocation records, pool statistics, leak candidates, usage
// snapshots, diagnostic events, and the category taxonomy.
//
// This package only exposes plain data types and their derived accessors.
// The tracking machinery lives in memdbg; formatting and export live in
// memdbg/report.
//
// Design goals:
//   - Small, copyable records; snapshots are deep copies safe to retain.
//   - Derived metrics (fragmentation, locality, severity) computed by pure
//     methods so they can be tested without a live tracker.
//   - No detection results surfaced as errors; state is queried, not thrown.
//
// This package has no dependencies beyond the standard library.
package types
