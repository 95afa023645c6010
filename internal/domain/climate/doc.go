// Package climate contains the core domain types of the monitor.
//
// It defines the sensor Reading, the display Unit, alarm Thresholds, the
// pure alarm policy Evaluate and the Status snapshot that leaves the
// dispatcher.
package climate
