package device

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
)

var (
	// ErrTransient marks a sensor failure worth retrying on the next sample.
	ErrTransient = errors.New("transient sensor failure")
	// ErrStale is returned when a file reading is older than allowed.
	ErrStale = errors.New("sensor reading is stale")
	// errMalformed is returned for unparsable reading files.
	errMalformed = errors.New("malformed reading")
)

// SimulatedSensor produces a bounded random walk around a comfortable room
// climate. It is the default backend when no hardware is attached.
type SimulatedSensor struct {
	mu          sync.Mutex
	rng         *rand.Rand
	current     climate.Reading
	failureRate float64
}

// Simulation bounds.
const (
	simBaseTemperature = 70.0
	simBaseHumidity    = 45.0
	simMinTemperature  = 40.0
	simMaxTemperature  = 100.0
	simTemperatureStep = 0.3
	simHumidityStep    = 1.0
)

// NewSimulatedSensor creates a simulated sensor. A zero seed uses the clock.
// failureRate is the probability of an ErrTransient per read.
func NewSimulatedSensor(seed int64, failureRate float64) *SimulatedSensor {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &SimulatedSensor{
		rng:         rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)), //nolint:gosec // Simulation, not crypto.
		current:     climate.Reading{Primary: simBaseTemperature, Secondary: simBaseHumidity},
		failureRate: failureRate,
	}
}

// Read advances the walk one step.
func (s *SimulatedSensor) Read(ctx context.Context) (climate.Reading, error) {
	if err := ctx.Err(); err != nil {
		return climate.Reading{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failureRate > 0 && s.rng.Float64() < s.failureRate {
		return climate.Reading{}, fmt.Errorf("simulated checksum mismatch: %w", ErrTransient)
	}

	s.current.Primary = clamp(s.current.Primary+s.rng.NormFloat64()*simTemperatureStep, simMinTemperature, simMaxTemperature)
	s.current.Secondary = clamp(s.current.Secondary+s.rng.NormFloat64()*simHumidityStep, 0, 100)

	return s.current, nil
}

// Set moves the walk to r; used to drive scenarios by hand.
func (s *SimulatedSensor) Set(r climate.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = r
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// FileSensor reads "<temperature °F> <humidity %>" from a file that an
// external exporter keeps up to date.
type FileSensor struct {
	path   string
	maxAge time.Duration
}

// NewFileSensor creates a file-backed sensor. A positive maxAge rejects
// files whose modification time is older than that.
func NewFileSensor(path string, maxAge time.Duration) *FileSensor {
	return &FileSensor{
		path:   filepath.Clean(path),
		maxAge: maxAge,
	}
}

// Read parses the current file contents.
func (s *FileSensor) Read(ctx context.Context) (climate.Reading, error) {
	if err := ctx.Err(); err != nil {
		return climate.Reading{}, err
	}

	if s.maxAge > 0 {
		info, err := os.Stat(s.path)
		if err != nil {
			return climate.Reading{}, fmt.Errorf("stat readings: %w", err)
		}

		if age := time.Since(info.ModTime()); age > s.maxAge {
			return climate.Reading{}, fmt.Errorf("%s old: %w", age.Truncate(time.Second), ErrStale)
		}
	}

	contents, err := os.ReadFile(s.path)
	if err != nil {
		return climate.Reading{}, fmt.Errorf("read readings: %w", err)
	}

	return ParseReading(string(contents))
}

// ParseReading parses "<temperature> <humidity>" separated by whitespace or a comma.
func ParseReading(s string) (climate.Reading, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 2 {
		return climate.Reading{}, fmt.Errorf("%d fields: %w", len(fields), errMalformed)
	}

	temperature, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return climate.Reading{}, fmt.Errorf("temperature: %w", errMalformed)
	}

	humidity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return climate.Reading{}, fmt.Errorf("humidity: %w", errMalformed)
	}

	return climate.Reading{Primary: temperature, Secondary: humidity}, nil
}
