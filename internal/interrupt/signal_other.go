//go:build !unix

package interrupt

import (
	"os"
	"syscall"
)

// buttonSignals is limited to SIGHUP where user signals do not exist.
//
//nolint:gochecknoglobals // Read-only lookup table.
var buttonSignals = map[string]os.Signal{
	"SIGHUP": syscall.SIGHUP,
}
