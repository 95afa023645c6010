package interrupt

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/oshokin/climate-alarm/internal/eventqueue"
)

// Poster is the only capability an edge context gets.
type Poster interface {
	Post(ev eventqueue.Event) error
}

// Option configures a Handler.
type Option func(*Handler)

// WithDebounce ignores edges arriving less than d after the last accepted one.
func WithDebounce(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.debounce = d
		}
	}
}

var (
	// errPosterRequired is returned when no poster is provided.
	errPosterRequired = errors.New("poster must be provided")
	// errEventRequired is returned when no event is provided.
	errEventRequired = errors.New("event must be provided")
)

// Outcome is what happened to one edge.
type Outcome uint8

const (
	// Posted means the event was queued.
	Posted Outcome = iota
	// Debounced means the edge arrived inside the debounce window.
	Debounced
	// Dropped means the queue was full.
	Dropped
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Posted:
		return "posted"
	case Debounced:
		return "debounced"
	default:
		return "dropped"
	}
}

// Handler posts a fixed event every time an edge fires.
type Handler struct {
	poster   Poster
	event    eventqueue.Event
	debounce time.Duration

	// lastAccepted is the UnixNano of the last edge that passed debounce.
	lastAccepted atomic.Int64

	fired   atomic.Uint64
	ignored atomic.Uint64
	dropped atomic.Uint64
}

// NewHandler creates a handler that posts event on every accepted edge.
func NewHandler(poster Poster, event eventqueue.Event, opts ...Option) (*Handler, error) {
	if poster == nil {
		return nil, errPosterRequired
	}

	if event == nil {
		return nil, errEventRequired
	}

	h := &Handler{
		poster: poster,
		event:  event,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// Fire is the handler body. It never blocks, never logs and never allocates
// beyond what Post does: a saturated queue costs the edge, not the caller.
func (h *Handler) Fire() Outcome {
	h.fired.Add(1)

	var last, now int64

	if h.debounce > 0 {
		now = time.Now().UnixNano()
		last = h.lastAccepted.Load()

		if last != 0 && now-last < int64(h.debounce) {
			h.ignored.Add(1)
			return Debounced
		}

		// Two edges racing inside one window: only one wins.
		if !h.lastAccepted.CompareAndSwap(last, now) {
			h.ignored.Add(1)
			return Debounced
		}
	}

	if err := h.poster.Post(h.event); err != nil {
		// A dropped edge does not open a debounce window.
		if h.debounce > 0 {
			h.lastAccepted.CompareAndSwap(now, last)
		}

		h.dropped.Add(1)

		return Dropped
	}

	return Posted
}

// Stats holds handler counters.
type Stats struct {
	Fired   uint64
	Ignored uint64
	Dropped uint64
}

// Stats returns the handler counters.
func (h *Handler) Stats() Stats {
	return Stats{
		Fired:   h.fired.Load(),
		Ignored: h.ignored.Load(),
		Dropped: h.dropped.Load(),
	}
}
