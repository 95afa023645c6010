// Package eventqueue implements the single-consumer, multi-producer FIFO of
// deferred operations that serializes every mutation of the monitor state.
//
// Producers call Post from any goroutine, including signal handlers standing
// in for interrupt context. Post never blocks: when the queue is saturated
// the newest event is dropped and ErrResourceExhausted is returned. Exactly
// one goroutine runs DispatchForever, executing events one at a time, to
// completion, in arrival order.
package eventqueue
