package lmdb

import "github.com/rs/zerolog"

// logger is the package-wide structured logger. It defaults to a no-op so
// the core stays silent unless a caller opts in, matching §1's treatment
// of logging as an external collaborator's concern.
var logger = zerolog.Nop()

// SetLogger installs the logger used for safety-policy decisions, map-size
// expansion events, and lifecycle boundaries. Passing a disabled logger
// (zerolog.Nop()) restores the silent default.
func SetLogger(l zerolog.Logger) {
	logger = l
}
