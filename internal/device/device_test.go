package device

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
)

// TestSimulatedSensor_StaysInBounds runs the walk long enough to hit the clamps.
func TestSimulatedSensor_StaysInBounds(t *testing.T) {
	t.Parallel()

	s := NewSimulatedSensor(42, 0)

	for range 10_000 {
		r, err := s.Read(context.Background())
		require.NoError(t, err)
		require.GreaterOrEqual(t, r.Primary, simMinTemperature)
		require.LessOrEqual(t, r.Primary, simMaxTemperature)
		require.GreaterOrEqual(t, r.Secondary, 0.0)
		require.LessOrEqual(t, r.Secondary, 100.0)
	}
}

// TestSimulatedSensor_Deterministic yields the same walk for the same seed.
func TestSimulatedSensor_Deterministic(t *testing.T) {
	t.Parallel()

	a, b := NewSimulatedSensor(7, 0.2), NewSimulatedSensor(7, 0.2)

	for range 100 {
		ra, errA := a.Read(context.Background())
		rb, errB := b.Read(context.Background())

		require.Equal(t, ra, rb)
		require.Equal(t, errA == nil, errB == nil)
	}
}

// TestSimulatedSensor_Failures produces ErrTransient at roughly the configured rate.
func TestSimulatedSensor_Failures(t *testing.T) {
	t.Parallel()

	s := NewSimulatedSensor(1, 0.5)
	failures := 0

	for range 1000 {
		if _, err := s.Read(context.Background()); err != nil {
			require.ErrorIs(t, err, ErrTransient)

			failures++
		}
	}

	require.InDelta(t, 500, failures, 100)
}

// TestSimulatedSensor_SetAndCancel pins the walk and honors a canceled context.
func TestSimulatedSensor_SetAndCancel(t *testing.T) {
	t.Parallel()

	s := NewSimulatedSensor(3, 0)
	s.Set(climate.Reading{Primary: 75, Secondary: 65})

	r, err := s.Read(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 75, r.Primary, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// TestParseReading accepts space and comma separators and rejects junk.
func TestParseReading(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"72.5 40\n", "72.5,40", "  72.5\t40  "} {
		r, err := ParseReading(in)
		require.NoError(t, err, in)
		require.Equal(t, climate.Reading{Primary: 72.5, Secondary: 40}, r)
	}

	for _, in := range []string{"", "72.5", "72.5 40 1", "hot 40", "72 wet"} {
		_, err := ParseReading(in)
		require.ErrorIs(t, err, errMalformed, in)
	}
}

// TestFileSensor reads the file and reports stale contents.
func TestFileSensor(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reading")
	require.NoError(t, os.WriteFile(path, []byte("68 40\n"), 0o600))

	s := NewFileSensor(path, time.Minute)

	r, err := s.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, climate.Reading{Primary: 68, Secondary: 40}, r)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	_, err = s.Read(context.Background())
	require.ErrorIs(t, err, ErrStale)

	_, err = NewFileSensor(filepath.Join(t.TempDir(), "missing"), 0).Read(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFrame covers clear, cursor bounds and clipping.
func TestFrame(t *testing.T) {
	t.Parallel()

	f := NewFrame(4, 2)
	f.Print("abcdef")
	require.NoError(t, f.SetCursor(1, 1))
	f.Print("xy")

	require.Equal(t, []string{"abcd", " xy "}, f.Lines())
	require.ErrorIs(t, f.SetCursor(4, 0), ErrCursorOutOfRange)
	require.ErrorIs(t, f.SetCursor(0, 2), ErrCursorOutOfRange)
	require.ErrorIs(t, f.SetCursor(-1, 0), ErrCursorOutOfRange)

	f.Clear()
	require.Equal(t, "    \n    ", f.String())
}

// TestConsoleDisplay_LogsChangedFramesOnly flushes twice with the same frame.
func TestConsoleDisplay_LogsChangedFramesOnly(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	d := NewConsoleDisplay(zap.New(core).Sugar(), 16, 2)

	draw := func(first, second string) {
		require.NoError(t, d.Clear())
		require.NoError(t, d.Print(first))
		require.NoError(t, d.SetCursor(0, 1))
		require.NoError(t, d.Print(second))
		require.NoError(t, d.Flush())
	}

	draw("Temp(F):   72.00", "Humidity:    40%")
	draw("Temp(F):   72.00", "Humidity:    40%")
	draw("Temp(C):   22.22", "Humidity:    40%")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "Temp(F):   72.00", entries[0].ContextMap()["row0"])
	require.Equal(t, "Temp(C):   22.22", entries[1].ContextMap()["row0"])
}

// TestFileDisplay_WritesFrame flushes a frame to disk.
func TestFileDisplay_WritesFrame(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lcd.txt")
	d := NewFileDisplay(path, 16, 2)

	require.NoError(t, d.Print("Temp(F):   72.00"))
	require.NoError(t, d.SetCursor(0, 1))
	require.NoError(t, d.Print("Humidity:    40%"))
	require.NoError(t, d.Flush())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Temp(F):   72.00\nHumidity:    40%\n", string(contents))
}

// TestLogActuator_LogsTransitions ignores repeated levels.
func TestLogActuator_LogsTransitions(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	a := NewLogActuator(zap.New(core).Sugar())

	for _, on := range []bool{false, false, true, true, false} {
		require.NoError(t, a.SetOn(on))
	}

	require.Equal(t, 3, logs.Len())
	require.False(t, a.On())
}

// TestFileActuator writes the GPIO-style level.
func TestFileActuator(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "value")
	a := NewFileActuator(path)

	require.NoError(t, a.SetOn(true))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "1\n", string(contents))

	require.NoError(t, a.SetOn(false))

	contents, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "0\n", string(contents))

	require.Error(t, NewFileActuator(filepath.Join(t.TempDir(), "no", "such", "dir")).SetOn(true))
}

// TestCommandActuator runs the command only on transitions.
func TestCommandActuator(t *testing.T) {
	t.Parallel()

	log := filepath.Join(t.TempDir(), "levels")

	// sh -c SCRIPT NAME LEVEL: the appended level arrives as $1.
	a := NewCommandActuator([]string{"sh", "-c", `printf '%s\n' "$1" >> "` + log + `"`, "sh"}, time.Second)

	for _, on := range []bool{true, true, false, false, true} {
		require.NoError(t, a.SetOn(on))
	}

	contents, err := os.ReadFile(log)
	require.NoError(t, err)
	require.Equal(t, "1\n0\n1\n", string(contents))

	glued := filepath.Join(t.TempDir(), "glued")
	g := NewCommandActuator([]string{"sh", "-c", `printf '%s\n' "$1" >> "` + glued + `"`, "sh", "17="}, time.Second)
	require.NoError(t, g.SetOn(true))

	contents, err = os.ReadFile(glued)
	require.NoError(t, err)
	require.Equal(t, "17=1\n", string(contents))

	failing := NewCommandActuator([]string{"sh", "-c", "exit 3", "sh"}, time.Second)
	require.Error(t, failing.SetOn(true))
	require.Error(t, failing.SetOn(true), "a failed run must be retried")
}
