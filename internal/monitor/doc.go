// Package monitor owns the shared climate state and builds the events that
// read and mutate it: sampling, rendering, alarm evaluation, unit toggling
// and threshold updates.
//
// The state type is unexported and is only reachable from closures returned
// by Monitor. Those closures are meant to run on the event queue dispatcher,
// which executes them one at a time; that ordering is the only lock the
// state has. Readers outside the dispatcher go through Status, which itself
// runs on the dispatcher via Call.
package monitor
