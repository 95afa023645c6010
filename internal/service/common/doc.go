// Package common holds helpers shared by the CLI commands.
//
// It provides a gRPC client for the monitor API with per-call timeouts and
// detects the local actor (hostname/username) sent with remote toggles.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
