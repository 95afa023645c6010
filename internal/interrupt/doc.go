// Package interrupt binds asynchronous edge sources (OS signals, remote
// requests) to a Handler whose whole body is one non-blocking Post.
//
// A Handler holds only a Poster and an opaque event, so code running in the
// edge context has no way to reach monitor state directly.
package interrupt
