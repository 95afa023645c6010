package interrupt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
)

// errUnknownSignal is returned by ParseSignal for unsupported names.
var errUnknownSignal = errors.New("unsupported button signal")

// SignalSource delivers OS signals to a Handler. It stands in for the
// hardware button on hosts: `kill -USR1 <pid>` toggles the unit.
type SignalSource struct {
	ch chan os.Signal
}

// NewSignalSource subscribes to sigs immediately, so no delivery between
// construction and Run is lost or handled by the runtime default.
func NewSignalSource(sigs ...os.Signal) *SignalSource {
	s := &SignalSource{
		ch: make(chan os.Signal, 1),
	}

	signal.Notify(s.ch, sigs...)

	return s
}

// Run calls h.Fire for every delivered signal until ctx is canceled, then
// unsubscribes.
func (s *SignalSource) Run(ctx context.Context, h *Handler) error {
	defer signal.Stop(s.ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.ch:
			h.Fire()
		}
	}
}

// Stop unsubscribes without waiting for Run. It is safe to call more than once.
func (s *SignalSource) Stop() {
	signal.Stop(s.ch)
}

// ParseSignal maps a configured name to a signal. "none" yields nil.
func ParseSignal(name string) (os.Signal, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "NONE" {
		return nil, nil //nolint:nilnil // No signal is a valid configuration.
	}

	sig, ok := buttonSignals[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, errUnknownSignal)
	}

	return sig, nil
}
