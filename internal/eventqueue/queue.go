package eventqueue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/oshokin/climate-alarm/internal/logger"
)

// Event is a deferred unit of work executed by the dispatcher.
type Event func()

// DefaultCapacity is used when New is called with a non-positive capacity.
const DefaultCapacity = 32

var (
	// ErrResourceExhausted is returned by Post when the queue is full.
	ErrResourceExhausted = errors.New("event queue exhausted")
	// ErrNilEvent is returned by Post for a nil event.
	ErrNilEvent = errors.New("event is nil")
	// ErrAlreadyDispatching is returned when a second consumer is started.
	ErrAlreadyDispatching = errors.New("event queue already has a dispatcher")
)

// Stats is a snapshot of the queue counters.
type Stats struct {
	Posted   uint64
	Dropped  uint64
	Executed uint64
	Panicked uint64
	Pending  int
	Capacity int
}

// Queue is a bounded FIFO of events with exactly one consumer.
type Queue struct {
	// events holds posted events in arrival order.
	events chan Event
	// dispatching guards against a second consumer.
	dispatching atomic.Bool

	posted   atomic.Uint64
	dropped  atomic.Uint64
	executed atomic.Uint64
	panicked atomic.Uint64
}

// New creates a queue that holds up to capacity pending events.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Queue{
		events: make(chan Event, capacity),
	}
}

// Post enqueues ev and returns immediately. It is safe for concurrent use and
// never waits for the dispatcher.
func (q *Queue) Post(ev Event) error {
	if ev == nil {
		return ErrNilEvent
	}

	select {
	case q.events <- ev:
		q.posted.Add(1)

		return nil
	default:
		q.dropped.Add(1)

		return ErrResourceExhausted
	}
}

// DispatchForever drains the queue until ctx is canceled, running each event
// synchronously before taking the next one. It returns nil on cancellation.
// Events still pending at that point are discarded.
func (q *Queue) DispatchForever(ctx context.Context) error {
	if !q.dispatching.CompareAndSwap(false, true) {
		return ErrAlreadyDispatching
	}

	defer q.dispatching.Store(false)

	ctx = logger.WithName(ctx, "dispatcher")

	logger.DebugKV(ctx, "Dispatcher started", "capacity", cap(q.events))

	for {
		// Cancellation wins over pending work so shutdown is prompt.
		if ctx.Err() != nil {
			logger.DebugKV(ctx, "Dispatcher stopped", "pending", len(q.events))
			return nil
		}

		select {
		case <-ctx.Done():
			logger.DebugKV(ctx, "Dispatcher stopped", "pending", len(q.events))
			return nil
		case ev := <-q.events:
			q.run(ctx, ev)
		}
	}
}

// run executes one event, containing a panic so a faulty handler cannot take
// the dispatcher down with it.
func (q *Queue) run(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			q.panicked.Add(1)
			logger.ErrorKV(ctx, "Event panicked", "panic", fmt.Sprint(r))
		}
	}()

	ev()
	q.executed.Add(1)
}

// Call posts fn and waits until the dispatcher has executed it or ctx ends.
// It lets request/response readers observe state from the dispatch context.
// Call must not be used from inside an event: the dispatcher would wait on itself.
func (q *Queue) Call(ctx context.Context, fn func()) error {
	if fn == nil {
		return ErrNilEvent
	}

	done := make(chan struct{})

	err := q.Post(func() {
		defer close(done)

		fn()
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for dispatcher: %w", ctx.Err())
	}
}

// Stats returns the current counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Posted:   q.posted.Load(),
		Dropped:  q.dropped.Load(),
		Executed: q.executed.Load(),
		Panicked: q.panicked.Load(),
		Pending:  len(q.events),
		Capacity: cap(q.events),
	}
}
