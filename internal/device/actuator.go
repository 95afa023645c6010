package device

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// filePermissions is used for files this package creates.
const filePermissions = 0o644

// LogActuator reports alarm output transitions through the logger.
type LogActuator struct {
	log *zap.SugaredLogger

	mu    sync.Mutex
	on    bool
	known bool
}

// NewLogActuator creates a log-only alarm output.
func NewLogActuator(log *zap.SugaredLogger) *LogActuator {
	return &LogActuator{log: log}
}

// SetOn logs when the output level changes.
func (a *LogActuator) SetOn(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.known && a.on == on {
		return nil
	}

	a.on, a.known = on, true

	if on {
		a.log.Warn("Alarm output ON")
	} else {
		a.log.Info("Alarm output OFF")
	}

	return nil
}

// On returns the last level written.
func (a *LogActuator) On() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.on
}

// FileActuator writes "1" or "0" into a value file, such as a sysfs GPIO
// /sys/class/gpio/gpioN/value that drives the vibration motor.
type FileActuator struct {
	path string
}

// NewFileActuator creates an actuator bound to path.
func NewFileActuator(path string) *FileActuator {
	return &FileActuator{path: filepath.Clean(path)}
}

// SetOn writes the level.
func (a *FileActuator) SetOn(on bool) error {
	value := []byte("0\n")
	if on {
		value = []byte("1\n")
	}

	if err := os.WriteFile(a.path, value, filePermissions); err != nil {
		return fmt.Errorf("write output %s: %w", a.path, err)
	}

	return nil
}
