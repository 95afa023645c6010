package monitor

import (
	"context"
	"time"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
)

// Sensor provides readings. Read may fail transiently.
type Sensor interface {
	Read(ctx context.Context) (climate.Reading, error)
}

// Display is a character display addressed by column and row.
type Display interface {
	Clear() error
	SetCursor(col, row int) error
	Print(text string) error
}

// Flusher is implemented by displays that buffer a frame and publish it once
// complete. Flush is called after both rows were printed.
type Flusher interface {
	Flush() error
}

// Actuator is a digital alarm output.
type Actuator interface {
	SetOn(on bool) error
}

// Kicker proves liveness to a watchdog.
type Kicker interface {
	Kick() error
}

// Recorder receives every good sample. Record is called on the dispatcher
// and must not block.
type Recorder interface {
	Record(r climate.Reading, at time.Time)
}

// Devices groups the collaborators of a Monitor. Kicker and Recorder are optional.
type Devices struct {
	Sensor   Sensor
	Display  Display
	Actuator Actuator
	Kicker   Kicker
	Recorder Recorder
}
