//go:build unix

package interrupt

import (
	"os"
	"syscall"
)

// buttonSignals are the signals that may act as the toggle button.
//
//nolint:gochecknoglobals // Read-only lookup table.
var buttonSignals = map[string]os.Signal{
	"SIGUSR1": syscall.SIGUSR1,
	"SIGUSR2": syscall.SIGUSR2,
	"SIGHUP":  syscall.SIGHUP,
}
