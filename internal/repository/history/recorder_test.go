package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
)

type memoryAppender struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (m *memoryAppender) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.entries = append(m.entries, e)

	return nil
}

func (m *memoryAppender) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// TestRecorder_DropsWhenFull never blocks the caller.
func TestRecorder_DropsWhenFull(t *testing.T) {
	t.Parallel()

	rec := NewRecorder(&memoryAppender{}, 2)

	for range 5 {
		rec.Record(climate.Reading{Primary: 70}, time.Now())
	}

	stats := rec.Stats()
	require.EqualValues(t, 3, stats.Dropped)
	require.Equal(t, 2, stats.Pending)
}

// TestRecorder_RunWritesAndDrains flushes buffered entries on cancel.
func TestRecorder_RunWritesAndDrains(t *testing.T) {
	t.Parallel()

	var (
		store       = &memoryAppender{}
		rec         = NewRecorder(store, 8)
		ctx, cancel = context.WithCancel(context.Background())
	)

	for range 4 {
		rec.Record(climate.Reading{Primary: 70, Secondary: 40}, time.Now())
	}

	cancel()
	require.NoError(t, rec.Run(ctx))

	require.Equal(t, 4, store.len())
	require.EqualValues(t, 4, rec.Stats().Written)
}

// TestRecorder_CountsFailures keeps running after a failed write.
func TestRecorder_CountsFailures(t *testing.T) {
	t.Parallel()

	var (
		store       = &memoryAppender{err: errors.New("disk full")}
		rec         = NewRecorder(store, 8)
		ctx, cancel = context.WithCancel(context.Background())
	)

	rec.Record(climate.Reading{}, time.Now())
	rec.Record(climate.Reading{}, time.Now())

	cancel()
	require.NoError(t, rec.Run(ctx))
	require.EqualValues(t, 2, rec.Stats().Failed)
}

// TestRecorder_WithStore journals through SQLite end to end.
func TestRecorder_WithStore(t *testing.T) {
	t.Parallel()

	var (
		store       = openTestStore(t)
		rec         = NewRecorder(store, 0)
		ctx, cancel = context.WithCancel(context.Background())
		done        = make(chan error, 1)
	)

	go func() { done <- rec.Run(ctx) }()

	rec.Record(climate.Reading{Primary: 75, Secondary: 65}, time.Now())

	require.Eventually(t, func() bool { return rec.Stats().Written == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	entries, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, climate.Reading{Primary: 75, Secondary: 65}, entries[0].Reading)
}
