package watchdog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oshokin/climate-alarm/internal/logger"
)

// Timer is a platform watchdog: once armed, Kick must be called within the
// timeout of the previous kick or the platform resets the process.
type Timer interface {
	Arm(timeout time.Duration) error
	Kick() error
}

// ExpireFunc is invoked when a window passes without a kick. missed is the
// time elapsed since the last kick (or since Arm).
type ExpireFunc func(missed time.Duration)

// ExitCodeWatchdog is the process exit status used by ExitReset.
const ExitCodeWatchdog = 3

var (
	// ErrInvalidTimeout is returned by Arm for a timeout the timer cannot honor.
	ErrInvalidTimeout = errors.New("invalid watchdog timeout")
	// ErrNotArmed is returned by Kick before Arm.
	ErrNotArmed = errors.New("watchdog is not armed")
	// ErrStopped is returned after Stop.
	ErrStopped = errors.New("watchdog is stopped")
)

// Watchdog is a software liveness timer.
type Watchdog struct {
	// onExpire runs outside the lock, once per missed window.
	onExpire ExpireFunc

	mu          sync.Mutex
	timeout     time.Duration
	lastKick    time.Time
	windowStart time.Time
	timer       *time.Timer
	armed       bool
	stopped     bool

	expirations atomic.Uint64
}

// New creates an unarmed watchdog. A nil onExpire only counts expirations.
func New(onExpire ExpireFunc) *Watchdog {
	if onExpire == nil {
		onExpire = func(time.Duration) {}
	}

	return &Watchdog{
		onExpire: onExpire,
	}
}

// Arm starts the first window. Arming an armed watchdog is a no-op, so the
// timeout fixed at startup cannot be changed later.
func (w *Watchdog) Arm(timeout time.Duration) error {
	if timeout <= 0 {
		return ErrInvalidTimeout
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.stopped:
		return ErrStopped
	case w.armed:
		return nil
	}

	now := time.Now()

	w.armed = true
	w.timeout = timeout
	w.lastKick = now
	w.windowStart = now
	w.timer = time.AfterFunc(timeout, w.expire)

	return nil
}

// Kick proves liveness and restarts the window.
func (w *Watchdog) Kick() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.stopped:
		return ErrStopped
	case !w.armed:
		return ErrNotArmed
	}

	now := time.Now()

	w.lastKick = now
	w.windowStart = now
	w.timer.Reset(w.timeout)

	return nil
}

// expire runs on the timer goroutine.
func (w *Watchdog) expire() {
	w.mu.Lock()

	if w.stopped {
		w.mu.Unlock()
		return
	}

	// A kick may have landed between the timer firing and this lock.
	if elapsed := time.Since(w.windowStart); elapsed < w.timeout {
		w.timer.Reset(w.timeout - elapsed)
		w.mu.Unlock()

		return
	}

	missed := time.Since(w.lastKick)

	// The next window starts now, so a dead dispatcher yields one expiry per timeout.
	w.windowStart = time.Now()
	w.timer.Reset(w.timeout)
	w.mu.Unlock()

	w.expirations.Add(1)
	w.onExpire(missed)
}

// Stop disarms the watchdog permanently.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopped = true

	if w.timer != nil {
		w.timer.Stop()
	}
}

// LastKick returns the time of the last kick, or of Arm when never kicked.
func (w *Watchdog) LastKick() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lastKick
}

// Timeout returns the armed timeout, zero before Arm.
func (w *Watchdog) Timeout() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.timeout
}

// Expirations returns how many windows were missed.
func (w *Watchdog) Expirations() uint64 {
	return w.expirations.Load()
}

// ExitReset returns an ExpireFunc that logs the stall and terminates the
// process with ExitCodeWatchdog, leaving the restart to the supervisor.
// exit is usually os.Exit.
func ExitReset(ctx context.Context, exit func(code int)) ExpireFunc {
	return func(missed time.Duration) {
		logger.ErrorKV(ctx, "Watchdog expired, dispatcher presumed hung; resetting",
			"since_last_kick", missed.String(),
			"exit_code", ExitCodeWatchdog,
		)

		//nolint:errcheck // Nothing to do with a sync error on the way out.
		_ = logger.FromContext(ctx).Sync()

		exit(ExitCodeWatchdog)
	}
}
