// Package device provides host implementations of the monitor peripherals:
// sensors (simulated, file-backed), character displays (console, file) and
// alarm outputs (log, sysfs-style value file).
package device
