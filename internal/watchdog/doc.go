// Package watchdog provides liveness timers that must be kicked on a bounded
// cadence.
//
// Timer is the platform watchdog contract (Arm, Kick). Watchdog is an
// in-process implementation that invokes a reset action once per missed
// window; Systemd forwards kicks to the service manager via sd_notify so
// systemd can restart a wedged process; Group fans out to several timers.
package watchdog
