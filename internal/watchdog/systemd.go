package watchdog

import (
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/multierr"
)

// Systemd forwards kicks to the service manager watchdog (WatchdogSec=).
// Outside systemd, or when the unit has no watchdog, it is inert.
type Systemd struct {
	// notify sends one sd_notify state line.
	notify func(state string) (bool, error)
	// enabled reports the unit's watchdog interval, zero when disabled.
	enabled func() (time.Duration, error)

	interval time.Duration
	active   bool
}

// NewSystemd creates a timer bound to $NOTIFY_SOCKET and $WATCHDOG_USEC.
func NewSystemd() *Systemd {
	return &Systemd{
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		enabled: func() (time.Duration, error) {
			return daemon.SdWatchdogEnabled(false)
		},
	}
}

// Arm checks whether systemd expects watchdog pings. The interval itself is
// owned by the unit file and must not be more lenient than timeout.
func (s *Systemd) Arm(timeout time.Duration) error {
	if timeout <= 0 {
		return ErrInvalidTimeout
	}

	interval, err := s.enabled()
	if err != nil {
		return fmt.Errorf("query systemd watchdog: %w", err)
	}

	if interval > timeout {
		return fmt.Errorf("systemd WatchdogSec %s exceeds %s: %w", interval, timeout, ErrInvalidTimeout)
	}

	s.interval = interval
	s.active = interval > 0

	return nil
}

// Kick sends WATCHDOG=1 when systemd supervises the process.
func (s *Systemd) Kick() error {
	if !s.active {
		return nil
	}

	if _, err := s.notify(daemon.SdNotifyWatchdog); err != nil {
		return fmt.Errorf("notify systemd watchdog: %w", err)
	}

	return nil
}

// Active reports whether systemd expects pings.
func (s *Systemd) Active() bool {
	return s.active
}

// Interval returns the unit's WatchdogSec, zero when disabled.
func (s *Systemd) Interval() time.Duration {
	return s.interval
}

// Ready tells systemd that startup finished (Type=notify units).
func (s *Systemd) Ready() error {
	if _, err := s.notify(daemon.SdNotifyReady); err != nil {
		return fmt.Errorf("notify systemd ready: %w", err)
	}

	return nil
}

// Stopping tells systemd that shutdown started.
func (s *Systemd) Stopping() error {
	if _, err := s.notify(daemon.SdNotifyStopping); err != nil {
		return fmt.Errorf("notify systemd stopping: %w", err)
	}

	return nil
}

// Group arms and kicks several timers together.
type Group []Timer

// Arm arms every timer and returns the combined errors.
func (g Group) Arm(timeout time.Duration) error {
	var err error

	for _, t := range g {
		err = multierr.Append(err, t.Arm(timeout))
	}

	return err
}

// Kick kicks every timer, even when an earlier one fails.
func (g Group) Kick() error {
	var err error

	for _, t := range g {
		err = multierr.Append(err, t.Kick())
	}

	return err
}
