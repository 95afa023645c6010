// Package client implements the CLI commands that talk to a running daemon:
// status, toggle and history.
package client
