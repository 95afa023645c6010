package daemon

import (
	"context"
	"fmt"

	"github.com/oshokin/climate-alarm/internal/config"
	"github.com/oshokin/climate-alarm/internal/device"
	"github.com/oshokin/climate-alarm/internal/logger"
	"github.com/oshokin/climate-alarm/internal/monitor"
)

// newDevices builds the sensor, display and actuator selected by cfg.
// Kicker and Recorder are attached by the caller.
func newDevices(ctx context.Context, cfg *config.Config) (monitor.Devices, error) {
	var devices monitor.Devices

	switch cfg.Sensor.Type {
	case config.SensorSimulated:
		devices.Sensor = device.NewSimulatedSensor(cfg.Sensor.Seed, cfg.Sensor.FailureRate)
	case config.SensorFile:
		devices.Sensor = device.NewFileSensor(cfg.Sensor.Path, cfg.Sensor.MaxAge)
	default:
		return devices, fmt.Errorf("sensor %q: %w", cfg.Sensor.Type, errUnsupportedBackend)
	}

	switch cfg.Display.Type {
	case config.DisplayConsole:
		log := logger.FromContext(logger.WithName(ctx, "display"))
		devices.Display = device.NewConsoleDisplay(log, cfg.Display.Columns, cfg.Display.Rows)
	case config.DisplayFile:
		devices.Display = device.NewFileDisplay(cfg.Display.Path, cfg.Display.Columns, cfg.Display.Rows)
	default:
		return devices, fmt.Errorf("display %q: %w", cfg.Display.Type, errUnsupportedBackend)
	}

	switch cfg.Actuator.Type {
	case config.ActuatorLog:
		devices.Actuator = device.NewLogActuator(logger.FromContext(logger.WithName(ctx, "actuator")))
	case config.ActuatorFile:
		devices.Actuator = device.NewFileActuator(cfg.Actuator.Path)
	case config.ActuatorCommand:
		devices.Actuator = device.NewCommandActuator(cfg.Actuator.Command, cfg.Actuator.Timeout)
	default:
		return devices, fmt.Errorf("actuator %q: %w", cfg.Actuator.Type, errUnsupportedBackend)
	}

	return devices, nil
}
