package interrupt

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/climate-alarm/internal/eventqueue"
)

// countingPoster counts posts and can simulate a saturated queue.
type countingPoster struct {
	mu    sync.Mutex
	posts int
	full  bool
}

func (p *countingPoster) Post(eventqueue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.full {
		return eventqueue.ErrResourceExhausted
	}

	p.posts++

	return nil
}

func (p *countingPoster) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.posts
}

// TestHandler_FirePostsEvent verifies every edge posts the bound event.
func TestHandler_FirePostsEvent(t *testing.T) {
	t.Parallel()

	q := eventqueue.New(4)
	toggled := 0

	h, err := NewHandler(q, func() { toggled++ })
	require.NoError(t, err)

	require.Equal(t, Posted, h.Fire())
	require.Equal(t, Posted, h.Fire())

	require.Equal(t, 2, q.Stats().Pending)
	require.Zero(t, toggled, "the handler must not run the event itself")
	require.Equal(t, Stats{Fired: 2}, h.Stats())
}

// TestHandler_SaturatedQueueDropsEdge ensures a full queue neither blocks nor panics.
func TestHandler_SaturatedQueueDropsEdge(t *testing.T) {
	t.Parallel()

	poster := &countingPoster{full: true}

	h, err := NewHandler(poster, func() {})
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for range 100 {
			if h.Fire() != Dropped {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Fire blocked on a saturated queue")
	}

	require.Equal(t, Stats{Fired: 100, Dropped: 100}, h.Stats())
}

// TestHandler_Debounce ignores edges inside the debounce window.
func TestHandler_Debounce(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		poster := new(countingPoster)

		h, err := NewHandler(poster, func() {}, WithDebounce(200*time.Millisecond))
		require.NoError(t, err)

		require.Equal(t, Posted, h.Fire())
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, Debounced, h.Fire())
		time.Sleep(50 * time.Millisecond)
		h.Fire()
		require.Equal(t, 1, poster.count())

		time.Sleep(200 * time.Millisecond)
		h.Fire()
		require.Equal(t, 2, poster.count())
		require.Equal(t, Stats{Fired: 4, Ignored: 2}, h.Stats())
	})
}

// TestHandler_DroppedEdgeKeepsDebounceOpen posts the next edge once the queue drains.
func TestHandler_DroppedEdgeKeepsDebounceOpen(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		poster := &countingPoster{full: true}

		h, err := NewHandler(poster, func() {}, WithDebounce(time.Hour))
		require.NoError(t, err)

		require.Equal(t, Dropped, h.Fire())

		poster.mu.Lock()
		poster.full = false
		poster.mu.Unlock()

		time.Sleep(time.Millisecond)
		require.Equal(t, Posted, h.Fire())
		require.Equal(t, Debounced, h.Fire())
		require.Equal(t, 1, poster.count())
		require.Equal(t, Stats{Fired: 3, Ignored: 1, Dropped: 1}, h.Stats())
	})
}

// TestNewHandler_Validates rejects missing collaborators.
func TestNewHandler_Validates(t *testing.T) {
	t.Parallel()

	_, err := NewHandler(nil, func() {})
	require.ErrorIs(t, err, errPosterRequired)

	_, err = NewHandler(new(countingPoster), nil)
	require.ErrorIs(t, err, errEventRequired)
}
