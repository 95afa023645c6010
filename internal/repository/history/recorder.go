package history

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
	"github.com/oshokin/climate-alarm/internal/logger"
)

const (
	// DefaultRecorderCapacity is the hand-off buffer size.
	DefaultRecorderCapacity = 64
	// drainTimeout bounds the final flush after Run is canceled.
	drainTimeout = 2 * time.Second
	warnEvery    = 30 * time.Second
)

// Appender persists entries.
type Appender interface {
	Append(ctx context.Context, e Entry) error
}

// Recorder accepts samples from the dispatcher and writes them in the background.
type Recorder struct {
	store   Appender
	entries chan Entry
	limiter *rate.Limiter

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewRecorder creates a recorder. A non-positive capacity uses DefaultRecorderCapacity.
func NewRecorder(store Appender, capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecorderCapacity
	}

	return &Recorder{
		store:   store,
		entries: make(chan Entry, capacity),
		limiter: rate.NewLimiter(rate.Every(warnEvery), 1),
	}
}

// Record hands a sample to the writer. It never blocks; when the buffer
// is full the sample is dropped and counted.
func (r *Recorder) Record(reading climate.Reading, at time.Time) {
	select {
	case r.entries <- Entry{At: at, Reading: reading}:
	default:
		r.dropped.Add(1)
	}
}

// Run writes entries until ctx is canceled, then flushes what is buffered.
func (r *Recorder) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "history")

	for {
		select {
		case e := <-r.entries:
			r.write(ctx, e)
		case <-ctx.Done():
			r.drain(ctx)

			return nil
		}
	}
}

func (r *Recorder) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	for {
		select {
		case e := <-r.entries:
			r.write(ctx, e)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, e Entry) {
	if err := r.store.Append(ctx, e); err != nil {
		failed := r.failed.Add(1)

		if r.limiter.Allow() {
			logger.WarnKV(ctx, "Failed to journal reading", "error", err, "failed_total", failed)
		}

		return
	}

	r.written.Add(1)
}

// RecorderStats is a snapshot of recorder counters.
type RecorderStats struct {
	Written uint64
	Dropped uint64
	Failed  uint64
	Pending int
}

// Stats returns the current counters.
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Written: r.written.Load(),
		Dropped: r.dropped.Load(),
		Failed:  r.failed.Load(),
		Pending: len(r.entries),
	}
}
