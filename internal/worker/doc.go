// Package worker runs periodic producers. A Worker only builds an event and
// posts it; it never touches monitor state itself.
package worker
