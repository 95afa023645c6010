// Package history keeps a journal of good climate samples in SQLite.
//
// Store wraps database/sql with the pure-Go modernc.org/sqlite driver.
// Recorder sits between the dispatcher and the Store: it accepts samples
// without blocking and writes them from its own goroutine.
package history
