package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
	"github.com/oshokin/climate-alarm/internal/eventqueue"
	"github.com/oshokin/climate-alarm/internal/logger"
)

// Caller runs a function on the dispatcher and waits for it.
type Caller interface {
	Call(ctx context.Context, fn func()) error
}

// Options configures a Monitor.
type Options struct {
	// Thresholds are the initial alarm limits.
	Thresholds climate.Thresholds
	// Unit is the initial display unit.
	Unit climate.Unit
	// SampleTimeout bounds one sensor read; zero means DefaultSampleTimeout.
	SampleTimeout time.Duration
	// Columns is the display width; zero means DefaultColumns.
	Columns int
}

const (
	// DefaultSampleTimeout bounds one sensor read.
	DefaultSampleTimeout = 500 * time.Millisecond

	// warnEvery throttles repeated peripheral failure warnings.
	warnEvery = 30 * time.Second
)

var (
	// errQueueRequired is returned when no queue is provided.
	errQueueRequired = errors.New("event queue must be provided")
	// errSensorRequired is returned when no sensor is provided.
	errSensorRequired = errors.New("sensor must be provided")
	// errDisplayRequired is returned when no display is provided.
	errDisplayRequired = errors.New("display must be provided")
	// errActuatorRequired is returned when no actuator is provided.
	errActuatorRequired = errors.New("actuator must be provided")
	// errInvalidReading is recorded when a sensor returns NaN or Inf.
	errInvalidReading = errors.New("sensor returned a non-finite value")
)

// sharedState is mutated only by events running on the dispatcher.
type sharedState struct {
	reading     climate.Reading
	sampledAt   time.Time
	unit        climate.Unit
	alarmActive bool
	thresholds  climate.Thresholds

	sensorErrors   uint64
	displayErrors  uint64
	actuatorErrors uint64
	kickErrors     uint64
}

func (s *sharedState) status() *climate.Status {
	return &climate.Status{
		Reading:        s.reading,
		Unit:           s.unit,
		AlarmActive:    s.alarmActive,
		Thresholds:     s.thresholds,
		SampledAt:      s.sampledAt,
		SensorErrors:   s.sensorErrors,
		DisplayErrors:  s.displayErrors,
		ActuatorErrors: s.actuatorErrors,
	}
}

// Monitor builds the events that operate on the shared state.
type Monitor struct {
	queue   Caller
	devices Devices
	state   *sharedState

	sampleTimeout time.Duration
	columns       int

	sensorWarn  *rate.Limiter
	displayWarn *rate.Limiter
	outputWarn  *rate.Limiter
}

// New creates a Monitor. Sensor, Display and Actuator are required.
func New(queue Caller, devices Devices, opts Options) (*Monitor, error) {
	switch {
	case queue == nil:
		return nil, errQueueRequired
	case devices.Sensor == nil:
		return nil, errSensorRequired
	case devices.Display == nil:
		return nil, errDisplayRequired
	case devices.Actuator == nil:
		return nil, errActuatorRequired
	}

	if opts.SampleTimeout <= 0 {
		opts.SampleTimeout = DefaultSampleTimeout
	}

	if opts.Columns <= 0 {
		opts.Columns = DefaultColumns
	}

	return &Monitor{
		queue:   queue,
		devices: devices,
		state: &sharedState{
			unit:       opts.Unit,
			thresholds: opts.Thresholds,
		},
		sampleTimeout: opts.SampleTimeout,
		columns:       opts.Columns,
		sensorWarn:    rate.NewLimiter(rate.Every(warnEvery), 1),
		displayWarn:   rate.NewLimiter(rate.Every(warnEvery), 1),
		outputWarn:    rate.NewLimiter(rate.Every(warnEvery), 1),
	}, nil
}

// SampleEvent reads the sensor and overwrites both readings. A failed or
// timed-out read keeps the previous values and counts a sensor error.
func (m *Monitor) SampleEvent(ctx context.Context) eventqueue.Event {
	return func() {
		readCtx, cancel := context.WithTimeout(ctx, m.sampleTimeout)
		defer cancel()

		r, err := m.devices.Sensor.Read(readCtx)
		if err == nil && !finite(r) {
			err = errInvalidReading
		}

		if err != nil {
			m.state.sensorErrors++

			if m.sensorWarn.Allow() {
				logger.WarnKV(ctx, "Sensor read failed, keeping last reading",
					"error", err,
					"sensor_errors", m.state.sensorErrors,
				)
			}

			return
		}

		now := time.Now()

		m.state.reading = r
		m.state.sampledAt = now

		if m.devices.Recorder != nil {
			m.devices.Recorder.Record(r, now)
		}

		logger.DebugKV(ctx, "Sampled", "temperature_f", r.Primary, "humidity", r.Secondary)
	}
}

// RenderEvent draws the current readings and then kicks the watchdog. The
// kick proves that the dispatcher reached this point; a display failure is
// counted and logged but does not withhold it.
func (m *Monitor) RenderEvent(ctx context.Context) eventqueue.Event {
	return func() {
		first, second := FormatLines(m.state.reading, m.state.unit, m.columns)

		if err := m.draw(first, second); err != nil {
			m.state.displayErrors++

			if m.displayWarn.Allow() {
				logger.WarnKV(ctx, "Display update failed",
					"error", err,
					"display_errors", m.state.displayErrors,
				)
			}
		}

		if m.devices.Kicker == nil {
			return
		}

		if err := m.devices.Kicker.Kick(); err != nil {
			m.state.kickErrors++

			if m.outputWarn.Allow() {
				logger.WarnKV(ctx, "Watchdog kick failed", "error", err, "kick_errors", m.state.kickErrors)
			}
		}
	}
}

func (m *Monitor) draw(first, second string) error {
	d := m.devices.Display

	if err := d.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	if err := d.SetCursor(0, 0); err != nil {
		return fmt.Errorf("cursor row 0: %w", err)
	}

	if err := d.Print(first); err != nil {
		return fmt.Errorf("print row 0: %w", err)
	}

	if err := d.SetCursor(0, 1); err != nil {
		return fmt.Errorf("cursor row 1: %w", err)
	}

	if err := d.Print(second); err != nil {
		return fmt.Errorf("print row 1: %w", err)
	}

	if f, ok := d.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}

	return nil
}

// AlarmEvent evaluates the thresholds and drives the actuator. The output is
// written on every evaluation; only transitions
// are logged.
func (m *Monitor) AlarmEvent(ctx context.Context) eventqueue.Event {
	return func() {
		active := climate.Evaluate(m.state.reading, m.state.thresholds)

		if err := m.devices.Actuator.SetOn(active); err != nil {
			m.state.actuatorErrors++

			if m.outputWarn.Allow() {
				logger.WarnKV(ctx, "Actuator write failed",
					"error", err,
					"actuator_errors", m.state.actuatorErrors,
				)
			}
		}

		if active == m.state.alarmActive {
			return
		}

		m.state.alarmActive = active

		logger.InfoKV(ctx, "Alarm state changed",
			"alarm_active", active,
			"temperature_f", m.state.reading.Primary,
			"humidity", m.state.reading.Secondary,
			"threshold_temperature_f", m.state.thresholds.Temperature,
			"threshold_humidity", m.state.thresholds.Humidity,
		)
	}
}

// ToggleUnitEvent flips the display unit. Two toggles cancel out.
func (m *Monitor) ToggleUnitEvent(ctx context.Context) eventqueue.Event {
	return func() {
		m.state.unit = m.state.unit.Toggle()

		logger.InfoKV(ctx, "Temperature unit changed", "unit", m.state.unit.String())
	}
}

// SetThresholdsEvent replaces the alarm limits; the next alarm event uses them.
func (m *Monitor) SetThresholdsEvent(ctx context.Context, t climate.Thresholds) eventqueue.Event {
	return func() {
		if m.state.thresholds == t {
			return
		}

		m.state.thresholds = t

		logger.InfoKV(ctx, "Alarm thresholds updated",
			"temperature_f", t.Temperature,
			"humidity", t.Humidity,
		)
	}
}

// Status returns a snapshot taken on the dispatcher.
func (m *Monitor) Status(ctx context.Context) (*climate.Status, error) {
	var st *climate.Status

	if err := m.queue.Call(ctx, func() { st = m.state.status() }); err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}

	return st, nil
}

func finite(r climate.Reading) bool {
	for _, v := range []float64{r.Primary, r.Secondary} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
