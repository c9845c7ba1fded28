// Package sysmem reads process-level memory figures from the operating
// system, giving tracker snapshots an external reference point next to the
// tracker's own ledger.
package sysmem

import "errors"

// ErrUnsupported is returned on platforms without a resident-size source.
var ErrUnsupported = errors.New("sysmem: not supported on this platform")
