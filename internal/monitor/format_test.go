package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
)

// TestFormatLines checks both lines are exactly the display width.
func TestFormatLines(t *testing.T) {
	t.Parallel()

	first, second := FormatLines(climate.Reading{Primary: 68.5, Secondary: 41.6}, climate.UnitFahrenheit, 16)
	require.Equal(t, "Temp(F):   68.50", first)
	require.Equal(t, "Humidity:    41%", second)

	_, second = FormatLines(climate.Reading{Secondary: 60.9}, climate.UnitFahrenheit, 16)
	require.Equal(t, "Humidity:    60%", second)

	first, _ = FormatLines(climate.Reading{Primary: 32}, climate.UnitCelsius, 16)
	require.Equal(t, "Temp(C):    0.00", first)

	// Wider displays are padded, narrower ones clipped.
	first, second = FormatLines(climate.Reading{Primary: 70, Secondary: 5}, climate.UnitFahrenheit, 20)
	require.Equal(t, "Temp(F):   70.00    ", first)
	require.Len(t, second, 20)

	first, _ = FormatLines(climate.Reading{Primary: 70}, climate.UnitFahrenheit, 8)
	require.Equal(t, "Temp(F):", first)

	first, _ = FormatLines(climate.Reading{Primary: 70}, climate.UnitFahrenheit, 0)
	require.Len(t, first, DefaultColumns)
}
