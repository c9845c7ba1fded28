package memdbg

import "errors"

var (
	// ErrClosed indicates the debugger has been shut down.
	ErrClosed = errors.New("memdbg: debugger closed")

	// ErrBadConfig indicates the configuration failed validation.
	ErrBadConfig = errors.New("memdbg: invalid configuration")

	// ErrUnknownPool indicates a pool name that was never registered.
	ErrUnknownPool = errors.New("memdbg: unknown pool")

	// ErrNotInitialized indicates Default() was called before Init().
	ErrNotInitialized = errors.New("memdbg: global debugger not initialized")
)
