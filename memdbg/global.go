package memdbg

import "sync"

// A process-wide default instance for programs that do not want to thread a
// *Debugger through every allocation site. Libraries should still accept an
// explicit instance; the default exists for executables and tests.

var (
	defaultMu  sync.Mutex
	defaultDbg *Debugger
)

// Init installs the process-wide default debugger. Calling Init when a
// default already exists closes the old instance first.
func Init(opts ...Option) (*Debugger, error) {
	d, err := New(opts...)
	if err != nil {
		return nil, err
	}

	defaultMu.Lock()
	old := defaultDbg
	defaultDbg = d
	defaultMu.Unlock()

	if old != nil {
		old.Close()
	}
	return d, nil
}

// Default returns the process-wide debugger, or nil when Init has not run.
func Default() *Debugger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultDbg
}

// Shutdown closes and clears the process-wide debugger. Returns
// ErrNotInitialized when Init never ran.
func Shutdown() error {
	defaultMu.Lock()
	d := defaultDbg
	defaultDbg = nil
	defaultMu.Unlock()

	if d == nil {
		return ErrNotInitialized
	}
	return d.Close()
}
