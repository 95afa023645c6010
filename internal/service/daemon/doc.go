// Package daemon wires the climate monitor into a running process.
//
// It owns the event queue and its dispatcher, the periodic workers, the
// button edge source, the watchdogs, and the optional history journal,
// gRPC API and stats report. Run blocks until its context ends.
package daemon
