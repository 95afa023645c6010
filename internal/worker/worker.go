package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshokin/climate-alarm/internal/eventqueue"
	"github.com/oshokin/climate-alarm/internal/logger"
)

// Poster accepts events for the dispatcher.
type Poster interface {
	Post(ev eventqueue.Event) error
}

// Factory builds the event posted on each tick.
type Factory func() eventqueue.Event

// warnEvery throttles "post failed" warnings under sustained saturation.
const warnEvery = 10 * time.Second

var (
	// errInvalidCadence is returned for a non-positive cadence.
	errInvalidCadence = errors.New("cadence must be positive")
	// errPosterRequired is returned when no poster is provided.
	errPosterRequired = errors.New("poster must be provided")
	// errFactoryRequired is returned when no factory is provided.
	errFactoryRequired = errors.New("event factory must be provided")
)

// Worker posts one event per cadence tick.
type Worker struct {
	name    string
	cadence time.Duration
	poster  Poster
	factory Factory

	// limiter keeps a saturated queue from flooding the log.
	limiter *rate.Limiter

	posted atomic.Uint64
	missed atomic.Uint64
}

// New creates a worker.
func New(name string, cadence time.Duration, poster Poster, factory Factory) (*Worker, error) {
	switch {
	case cadence <= 0:
		return nil, errInvalidCadence
	case poster == nil:
		return nil, errPosterRequired
	case factory == nil:
		return nil, errFactoryRequired
	}

	return &Worker{
		name:    name,
		cadence: cadence,
		poster:  poster,
		factory: factory,
		limiter: rate.NewLimiter(rate.Every(warnEvery), 1),
	}, nil
}

// Run posts immediately and then once per cadence until ctx is canceled.
// A failed post is counted and logged; the next tick proceeds as usual.
func (w *Worker) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, w.name)

	logger.DebugKV(ctx, "Worker started", "cadence", w.cadence.String())

	ticker := time.NewTicker(w.cadence)
	defer ticker.Stop()

	for {
		w.tick(ctx)

		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if err := w.poster.Post(w.factory()); err != nil {
		missed := w.missed.Add(1)

		if w.limiter.Allow() {
			logger.WarnKV(ctx, "Event not posted, skipping this cycle", "error", err, "missed_total", missed)
		}

		return
	}

	w.posted.Add(1)
}

// Name returns the worker name.
func (w *Worker) Name() string {
	return w.name
}

// Posted returns the number of accepted posts.
func (w *Worker) Posted() uint64 {
	return w.posted.Load()
}

// Missed returns the number of cycles lost to a failed post.
func (w *Worker) Missed() uint64 {
	return w.missed.Load()
}
