package monitor

import (
	"fmt"
	"math"
	"strings"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
)

// DefaultColumns is the width of a 16x2 character LCD.
const DefaultColumns = 16

// FormatLines renders the two display lines, each exactly columns wide:
//
//	Temp(F):   72.00
//	Humidity:    40%
func FormatLines(r climate.Reading, unit climate.Unit, columns int) (string, string) {
	if columns <= 0 {
		columns = DefaultColumns
	}

	first := fmt.Sprintf("Temp(%s):%8.2f", unit.Symbol(), unit.Convert(r.Primary))
	// Truncated, never rounded up: the shown humidity never exceeds the
	// reading the alarm compares.
	second := fmt.Sprintf("Humidity:%6.0f%%", math.Trunc(r.Secondary))

	return fit(first, columns), fit(second, columns)
}

// fit pads or clips s to exactly width runes.
func fit(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}

	return s + strings.Repeat(" ", width-len(runes))
}
