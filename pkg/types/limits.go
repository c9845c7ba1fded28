package types

// ============================================================================
// Tracking Bounds Constants
// ============================================================================
// Every retained collection in the tracker is bounded so diagnostics never
// become their own leak. These constants are the shared defaults; most are
// tunable through the tracker configuration.

const (
	// DefaultMaxTrackedAllocations bounds the combined active + historical
	// record count. Oldest freed records are evicted first.
	DefaultMaxTrackedAllocations = 100_000

	// DefaultStackDepth is how many frames a captured allocation stack
	// keeps by default.
	DefaultStackDepth = 8

	// StackDepthMax is the hard cap on configured stack depth.
	StackDepthMax = 32

	// AccessRingDepth bounds the per-allocation ring of access timestamps.
	AccessRingDepth = 100

	// DefaultMaxEvents bounds the diagnostic event ring.
	DefaultMaxEvents = 1024

	// DefaultMaxUsageHistory bounds the usage snapshot timeline.
	DefaultMaxUsageHistory = 1000

	// DefaultMaxRecentFrees bounds the recently-freed ranges consulted by
	// use-after-free detection.
	DefaultMaxRecentFrees = 256

	// HotAccessRate is the accesses-per-second lifetime rate above which
	// an allocation counts as hot.
	HotAccessRate = 10.0

	// CacheFriendlyLocality is the locality score above which an access
	// stream counts as cache friendly.
	CacheFriendlyLocality = 0.7

	// PotentialLeakConfidence is the confidence above which a leak
	// candidate is flagged potential.
	PotentialLeakConfidence = 0.5
)
