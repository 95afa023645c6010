// Package config defines the daemon settings and provides helpers to load,
// validate, save and watch them in YAML format.
//
// Validate fills the defaults: 1s cadences,
// a 5s watchdog, a 32-event queue and 72°F / 60% alarm thresholds.
package config
