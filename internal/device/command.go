package device

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// CommandActuator runs an external program on every output transition with
// "1" or "0" appended to its arguments, e.g. `gpioset gpiochip0 17=1`.
type CommandActuator struct {
	argv    []string
	timeout time.Duration

	mu    sync.Mutex
	on    bool
	known bool
}

// NewCommandActuator creates an actuator that runs argv. Each run is killed
// after timeout.
func NewCommandActuator(argv []string, timeout time.Duration) *CommandActuator {
	return &CommandActuator{
		argv:    append([]string(nil), argv...),
		timeout: timeout,
	}
}

// SetOn runs the command when the level changes. A failed run leaves the
// level unknown so the next call retries.
func (a *CommandActuator) SetOn(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.known && a.on == on {
		return nil
	}

	level := "0"
	if on {
		level = "1"
	}

	args := append(append([]string(nil), a.argv[1:]...), level)

	// Args ending in "=" take the level glued on, as gpioset expects.
	if n := len(a.argv); n > 1 && strings.HasSuffix(a.argv[n-1], "=") {
		args = append(append([]string(nil), a.argv[1:n-1]...), a.argv[n-1]+level)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	//nolint:gosec // The command comes from the operator's settings file.
	output, err := exec.CommandContext(ctx, a.argv[0], args...).CombinedOutput()
	if err != nil {
		a.known = false

		return fmt.Errorf("run %s: %w: %s", a.argv[0], err, strings.TrimSpace(string(output)))
	}

	a.on, a.known = on, true

	return nil
}
