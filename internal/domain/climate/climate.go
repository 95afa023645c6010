package climate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reading is one sensor sample.
type Reading struct {
	// Primary is the temperature in degrees Fahrenheit.
	Primary float64
	// Secondary is the relative humidity in percent.
	Secondary float64
}

// Unit selects how the temperature is displayed.
type Unit uint8

const (
	// UnitFahrenheit is the default display unit.
	UnitFahrenheit Unit = iota
	// UnitCelsius is the alternate display unit.
	UnitCelsius
)

// errUnknownUnit is returned by ParseUnit for unsupported names.
var errUnknownUnit = errors.New("unknown temperature unit")

// ParseUnit accepts "F", "C", "fahrenheit" and "celsius" in any case.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "fahrenheit":
		return UnitFahrenheit, nil
	case "c", "celsius":
		return UnitCelsius, nil
	default:
		return UnitFahrenheit, fmt.Errorf("%q: %w", s, errUnknownUnit)
	}
}

// Toggle returns the other unit.
func (u Unit) Toggle() Unit {
	if u == UnitCelsius {
		return UnitFahrenheit
	}

	return UnitCelsius
}

// Symbol returns the single-letter unit name shown on the display.
func (u Unit) Symbol() string {
	if u == UnitCelsius {
		return "C"
	}

	return "F"
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	if u == UnitCelsius {
		return "celsius"
	}

	return "fahrenheit"
}

// Convert expresses a Fahrenheit temperature in u.
func (u Unit) Convert(fahrenheit float64) float64 {
	if u == UnitCelsius {
		return FahrenheitToCelsius(fahrenheit)
	}

	return fahrenheit
}

// FahrenheitToCelsius converts °F to °C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// Thresholds are the alarm limits.
type Thresholds struct {
	// Temperature is always expressed in °F, whatever the display unit.
	Temperature float64
	// Humidity is in percent.
	Humidity float64
}

// Evaluate reports whether r breaches t. Both comparisons are strict and there
// is no hysteresis band, so a reading sitting on the limit keeps the alarm off.
func Evaluate(r Reading, t Thresholds) bool {
	return r.Primary > t.Temperature || r.Secondary > t.Humidity
}

// Actor identifies who requested a remote action.
type Actor struct {
	// Hostname is the machine name where the request originated.
	Hostname string
	// Username is the system user who sent the request.
	Username string
}

// String renders the actor as user@host.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// Status is a point-in-time copy of the monitor state.
type Status struct {
	// Reading is the last good sample.
	Reading Reading
	// Unit is the current display unit.
	Unit Unit
	// AlarmActive is the result of the last alarm evaluation.
	AlarmActive bool
	// Thresholds are the limits in effect.
	Thresholds Thresholds
	// SampledAt is when Reading was taken; zero before the first good sample.
	SampledAt time.Time
	// SensorErrors counts failed sensor reads.
	SensorErrors uint64
	// DisplayErrors counts failed display writes.
	DisplayErrors uint64
	// ActuatorErrors counts failed actuator writes.
	ActuatorErrors uint64
}

// Clone returns a copy of the status.
func (s *Status) Clone() *Status {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}
