package memdbg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/memtools/memkit/pkg/types"
)

// Config controls which detectors run and how much state the debugger
// retains. The zero value is not usable; start from DefaultConfig.
type Config struct {
	// Feature toggles
	EnableAllocationTracking    bool `yaml:"enable_allocation_tracking"`
	EnableLeakDetection         bool `yaml:"enable_leak_detection"`
	EnableCorruptionDetection   bool `yaml:"enable_corruption_detection"`
	EnableAccessTracking        bool `yaml:"enable_access_tracking"`
	EnableStackTraces           bool `yaml:"enable_stack_traces"`
	EnablePoolMonitoring        bool `yaml:"enable_pool_monitoring"`
	EnableFragmentationAnalysis bool `yaml:"enable_fragmentation_analysis"`

	// Detection toggles
	DetectBufferOverrun bool `yaml:"detect_buffer_overrun"`
	DetectUseAfterFree  bool `yaml:"detect_use_after_free"`
	DetectDoubleFree    bool `yaml:"detect_double_free"`

	// HardFail escalates corruption, double-free and use-after-free
	// findings to a panic instead of only recording them.
	HardFail bool `yaml:"hard_fail"`

	// Retention bounds
	MaxTrackedAllocations int `yaml:"max_tracked_allocations"`
	MaxUsageHistory       int `yaml:"max_usage_history"`
	MaxEvents             int `yaml:"max_events"`
	MaxRecentFrees        int `yaml:"max_recent_frees"`
	StackTraceDepth       int `yaml:"stack_trace_depth"`

	// Leak detection tuning
	LeakThreshold     time.Duration `yaml:"leak_threshold"`
	StaleThreshold    time.Duration `yaml:"stale_threshold"`
	LeakCheckInterval time.Duration `yaml:"leak_check_interval"`

	// Cadence of the allocation-path bookkeeping
	SnapshotInterval uint64 `yaml:"snapshot_interval"`

	// Allocations at or above this size always capture a stack, even when
	// EnableStackTraces is off.
	LargeAllocationThreshold uint64 `yaml:"large_allocation_threshold"`

	// MemoryBudget anchors pressure readings. Zero disables pressure
	// grading (always low).
	MemoryBudget uint64 `yaml:"memory_budget"`
}

// DefaultConfig returns the full-tracking configuration: every detector on
// except access tracking, which stays opt-in for its per-access cost.
func DefaultConfig() Config {
	return Config{
		EnableAllocationTracking:    true,
		EnableLeakDetection:         true,
		EnableCorruptionDetection:   true,
		EnableAccessTracking:        false,
		EnableStackTraces:           true,
		EnablePoolMonitoring:        true,
		EnableFragmentationAnalysis: true,

		DetectBufferOverrun: true,
		DetectUseAfterFree:  true,
		DetectDoubleFree:    true,

		MaxTrackedAllocations: types.DefaultMaxTrackedAllocations,
		MaxUsageHistory:       types.DefaultMaxUsageHistory,
		MaxEvents:             types.DefaultMaxEvents,
		MaxRecentFrees:        types.DefaultMaxRecentFrees,
		StackTraceDepth:       types.DefaultStackDepth,

		LeakThreshold:     time.Hour,
		StaleThreshold:    30 * time.Minute,
		LeakCheckInterval: 5 * time.Minute,

		SnapshotInterval:         1000,
		LargeAllocationThreshold: 1 << 20,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. A missing file is not an
// error; the defaults stand.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks bounds and intervals.
func (c *Config) Validate() error {
	if c.MaxTrackedAllocations < 1 {
		return fmt.Errorf("%w: max_tracked_allocations must be positive", ErrBadConfig)
	}
	if c.MaxUsageHistory < 1 || c.MaxEvents < 1 || c.MaxRecentFrees < 1 {
		return fmt.Errorf("%w: retention bounds must be positive", ErrBadConfig)
	}
	if c.StackTraceDepth < 1 || c.StackTraceDepth > types.StackDepthMax {
		return fmt.Errorf("%w: stack_trace_depth must be in [1,%d]", ErrBadConfig, types.StackDepthMax)
	}
	if c.LeakThreshold <= 0 || c.StaleThreshold <= 0 || c.LeakCheckInterval <= 0 {
		return fmt.Errorf("%w: leak thresholds must be positive", ErrBadConfig)
	}
	if c.SnapshotInterval == 0 {
		return fmt.Errorf("%w: snapshot_interval must be positive", ErrBadConfig)
	}
	return nil
}
