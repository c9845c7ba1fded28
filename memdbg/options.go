package memdbg

import "log/slog"

// Option configures a Debugger at construction.
type Option func(*Debugger)

// WithConfig replaces the default configuration. The config is validated
// by New.
func WithConfig(cfg Config) Option {
	return func(d *Debugger) { d.cfg = cfg }
}

// WithBacking replaces the Go-heap backing behind guarded allocations.
func WithBacking(b Backing) Option {
	return func(d *Debugger) { d.backing = b }
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(d *Debugger) { d.clock = c }
}

// WithStackProvider replaces the runtime stack capturer.
func WithStackProvider(p StackTraceProvider) Option {
	return func(d *Debugger) { d.stacks = p }
}

// WithLogger attaches a structured logger for lifecycle messages, detection
// findings and leak-pass summaries. The debugger is silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(d *Debugger) { d.log = l }
}
