package daemon

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/oshokin/climate-alarm/internal/config"
	"github.com/oshokin/climate-alarm/internal/logger"
)

// statsSnapshot gathers the runtime counters of every component. Values are
// plain numbers so the map can be logged and sent over the API as is.
func (d *daemon) statsSnapshot() map[string]any {
	q := d.queue.Stats()

	stats := map[string]any{
		"queue_posted":         q.Posted,
		"queue_dropped":        q.Dropped,
		"queue_executed":       q.Executed,
		"queue_panicked":       q.Panicked,
		"queue_pending":        q.Pending,
		"queue_capacity":       q.Capacity,
		"watchdog_expirations": d.software.Expirations(),
	}

	for _, w := range d.workers {
		stats[w.Name()+"_posted"] = w.Posted()
		stats[w.Name()+"_missed"] = w.Missed()
	}

	b := d.button.Stats()
	stats["button_fired"] = b.Fired
	stats["button_ignored"] = b.Ignored
	stats["button_dropped"] = b.Dropped

	if d.recorder != nil {
		h := d.recorder.Stats()
		stats["history_written"] = h.Written
		stats["history_dropped"] = h.Dropped
		stats["history_failed"] = h.Failed
	}

	return stats
}

// report logs the counters and prunes the journal.
func (d *daemon) report(ctx context.Context) {
	stats := d.statsSnapshot()

	kvs := make([]any, 0, 2*len(stats))
	for _, key := range slices.Sorted(maps.Keys(stats)) {
		kvs = append(kvs, key, stats[key])
	}

	logger.InfoKV(ctx, "Runtime stats", kvs...)

	if d.store == nil || d.cfg.History.Retention <= 0 {
		return
	}

	removed, err := d.store.Prune(ctx, time.Now().Add(-d.cfg.History.Retention))
	if err != nil {
		logger.WarnKV(ctx, "Failed to prune history", "error", err)
		return
	}

	if removed > 0 {
		logger.DebugKV(ctx, "History pruned", "removed", removed)
	}
}

// startReport schedules report on cfg.StatsSchedule. The returned function
// stops the scheduler and waits for a running report to finish.
func (d *daemon) startReport(ctx context.Context) (stop func(), err error) {
	if d.cfg.StatsSchedule == config.DisabledSchedule {
		return func() {}, nil
	}

	ctx = logger.WithName(ctx, "stats")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err = c.AddFunc(d.cfg.StatsSchedule, func() { d.report(ctx) }); err != nil {
		return nil, err
	}

	c.Start()

	return func() { <-c.Stop().Done() }, nil
}
