package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the climate-alarm daemon and its CLI clients.
type Config struct {
	// LogLevel is the minimum level for the global logger.
	LogLevel string `yaml:"log_level"`
	// API configures the gRPC status and control endpoint.
	API API `yaml:"api"`
	// Thresholds are the alarm limits.
	Thresholds Thresholds `yaml:"thresholds"`
	// Cadence holds the periods of the three periodic workers.
	Cadence Cadence `yaml:"cadence"`
	// SampleTimeout bounds a single sensor read inside the dispatcher.
	SampleTimeout time.Duration `yaml:"sample_timeout"`
	// QueueCapacity is the number of events the queue holds before dropping.
	QueueCapacity int `yaml:"queue_capacity"`
	// InitialUnit is the display unit at startup ("F" or "C").
	InitialUnit string `yaml:"initial_unit"`
	// Watchdog configures the liveness timers.
	Watchdog Watchdog `yaml:"watchdog"`
	// Sensor selects and configures the sensor backend.
	Sensor Sensor `yaml:"sensor"`
	// Display selects and configures the display backend.
	Display Display `yaml:"display"`
	// Actuator selects and configures the alarm output.
	Actuator Actuator `yaml:"actuator"`
	// Button configures the unit-toggle edge source.
	Button Button `yaml:"button"`
	// History configures the optional reading journal.
	History History `yaml:"history"`
	// StatsSchedule is a cron spec for the periodic stats report; "-" disables it.
	StatsSchedule string `yaml:"stats_schedule"`
}

// API configures the gRPC endpoint. An empty address disables the server.
type API struct {
	Address string        `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

// Thresholds are the alarm limits: temperature in °F, humidity in percent.
type Thresholds struct {
	Temperature float64 `yaml:"temperature"`
	Humidity    float64 `yaml:"humidity"`
}

// Cadence holds worker periods.
type Cadence struct {
	Sample time.Duration `yaml:"sample"`
	Render time.Duration `yaml:"render"`
	Alarm  time.Duration `yaml:"alarm"`
}

// Watchdog configures the software watchdog and systemd integration.
type Watchdog struct {
	Timeout time.Duration `yaml:"timeout"`
	Systemd bool          `yaml:"systemd"`
}

// Sensor selects the sensor backend.
type Sensor struct {
	// Type is "simulated" or "file".
	Type string `yaml:"type"`
	// Path is the readings file for the "file" backend.
	Path string `yaml:"path"`
	// MaxAge marks a file reading stale when its mtime is older; zero disables.
	MaxAge time.Duration `yaml:"max_age"`
	// Seed drives the simulated random walk.
	Seed int64 `yaml:"seed"`
	// FailureRate is the probability in [0,1) that a simulated read fails.
	FailureRate float64 `yaml:"failure_rate"`
}

// Display selects the display backend.
type Display struct {
	// Type is "console" or "file".
	Type    string `yaml:"type"`
	Path    string `yaml:"path"`
	Columns int    `yaml:"columns"`
	Rows    int    `yaml:"rows"`
}

// Actuator selects the alarm output backend.
type Actuator struct {
	// Type is "log", "file" or "command".
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	// Command is run with "1" or "0" appended on every output transition,
	// e.g. ["gpioset", "gpiochip0", "17="] for the "command" backend.
	Command []string `yaml:"command,omitempty"`
	// Timeout bounds one command run; it must stay below the watchdog timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Button configures the OS signal that acts as the unit-toggle button.
type Button struct {
	// Signal is "SIGUSR1", "SIGUSR2", "SIGHUP" or "none".
	Signal   string        `yaml:"signal"`
	Debounce time.Duration `yaml:"debounce"`
}

// History configures the SQLite reading journal. An empty path disables it.
type History struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

const (
	// DefaultConfigFilename is the default settings filename.
	DefaultConfigFilename = "climate-alarm.yaml"

	// DefaultAPIAddress is the default gRPC address.
	DefaultAPIAddress = "127.0.0.1:50061"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultCadence is the default period of every worker.
	DefaultCadence = time.Second

	// DefaultSampleTimeout bounds one sensor read.
	DefaultSampleTimeout = 500 * time.Millisecond

	// DefaultWatchdogTimeout is the default watchdog timeout.
	DefaultWatchdogTimeout = 5 * time.Second

	// DefaultQueueCapacity is the default number of pending events.
	DefaultQueueCapacity = 32

	// DefaultTemperatureThreshold is the alarm limit in °F.
	DefaultTemperatureThreshold = 72

	// DefaultHumidityThreshold is the alarm limit in percent.
	DefaultHumidityThreshold = 60

	// DefaultButtonSignal is the OS signal used as the toggle button.
	DefaultButtonSignal = "SIGUSR1"

	// DefaultButtonDebounce ignores edges closer together than this.
	DefaultButtonDebounce = 200 * time.Millisecond

	// DefaultHistoryRetention is how long journal rows are kept.
	DefaultHistoryRetention = 24 * time.Hour

	// DefaultStatsSchedule is the cron spec of the stats report.
	DefaultStatsSchedule = "@every 1m"

	// DisabledSchedule turns the stats report off.
	DisabledSchedule = "-"

	// DefaultActuatorTimeout bounds one run of the command actuator.
	DefaultActuatorTimeout = time.Second

	// DefaultDisplayColumns and DefaultDisplayRows describe a 16x2 character LCD.
	DefaultDisplayColumns = 16
	DefaultDisplayRows    = 2

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

// Backend names.
const (
	SensorSimulated = "simulated"
	SensorFile      = "file"
	DisplayConsole  = "console"
	DisplayFile     = "file"
	ActuatorLog     = "log"
	ActuatorFile    = "file"
	ActuatorCommand = "command"
	SignalNone      = "none"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPathRequired is returned when a file backend has no path.
	errPathRequired = errors.New("path must be provided")
	// errUnknownBackend is returned for unsupported backend types.
	errUnknownBackend = errors.New("unknown backend type")
	// errInvalidValue is returned when a numeric setting is out of range.
	errInvalidValue = errors.New("invalid value")
)

// DefaultThresholds returns the factory alarm limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Temperature: DefaultTemperatureThreshold,
		Humidity:    DefaultHumidityThreshold,
	}
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := new(Config)
	cfg.API.Address = DefaultAPIAddress
	cfg.Thresholds = DefaultThresholds()
	cfg.Button.Debounce = DefaultButtonDebounce

	// Validate only fails on bad input; an empty config plus an address is fine.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	// Absent threshold keys keep the defaults; an explicit 0 is a valid limit.
	cfg := Config{Thresholds: DefaultThresholds()}
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks settings and fills defaults for unset fields.
// Thresholds are taken as given: zero is a legal limit, so their defaults
// come from Default and Load instead.
//
//nolint:cyclop,funlen // Flat list of field checks reads better than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.API.Address != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.API.Address); err != nil {
			return fmt.Errorf("invalid api address: %w", err)
		}
	}

	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = DefaultTimeout
	}

	if err := validateThresholds(cfg.Thresholds); err != nil {
		return err
	}

	for _, cadence := range []*time.Duration{&cfg.Cadence.Sample, &cfg.Cadence.Render, &cfg.Cadence.Alarm} {
		if *cadence <= 0 {
			*cadence = DefaultCadence
		}
	}

	if cfg.SampleTimeout <= 0 {
		cfg.SampleTimeout = DefaultSampleTimeout
	}

	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}

	switch strings.ToUpper(cfg.InitialUnit) {
	case "":
		cfg.InitialUnit = "F"
	case "F", "C":
	default:
		return fmt.Errorf("initial unit %q: %w", cfg.InitialUnit, errInvalidValue)
	}

	if cfg.Watchdog.Timeout <= 0 {
		cfg.Watchdog.Timeout = DefaultWatchdogTimeout
	}

	// The render worker kicks the watchdog; a slower cadence would always expire.
	if cfg.Watchdog.Timeout <= cfg.Cadence.Render {
		return fmt.Errorf("watchdog timeout %s must exceed render cadence %s: %w",
			cfg.Watchdog.Timeout, cfg.Cadence.Render, errInvalidValue)
	}

	if err := validateSensor(&cfg.Sensor); err != nil {
		return err
	}

	if err := validateDisplay(&cfg.Display); err != nil {
		return err
	}

	if err := validateActuator(&cfg.Actuator, cfg.Watchdog.Timeout); err != nil {
		return err
	}

	switch strings.ToUpper(cfg.Button.Signal) {
	case "":
		cfg.Button.Signal = DefaultButtonSignal
	case "SIGUSR1", "SIGUSR2", "SIGHUP", strings.ToUpper(SignalNone):
	default:
		return fmt.Errorf("button signal %q: %w", cfg.Button.Signal, errUnknownBackend)
	}

	if cfg.Button.Debounce < 0 {
		return fmt.Errorf("button debounce %s: %w", cfg.Button.Debounce, errInvalidValue)
	}

	if cfg.History.Retention <= 0 {
		cfg.History.Retention = DefaultHistoryRetention
	}

	if cfg.StatsSchedule == "" {
		cfg.StatsSchedule = DefaultStatsSchedule
	}

	if cfg.StatsSchedule != DisabledSchedule {
		if _, err := cron.ParseStandard(cfg.StatsSchedule); err != nil {
			return fmt.Errorf("invalid stats schedule: %w", err)
		}
	}

	return nil
}

func validateThresholds(t Thresholds) error {
	if math.IsNaN(t.Temperature) || math.IsInf(t.Temperature, 0) {
		return fmt.Errorf("temperature threshold %v: %w", t.Temperature, errInvalidValue)
	}

	if t.Humidity < 0 || t.Humidity > 100 || math.IsNaN(t.Humidity) {
		return fmt.Errorf("humidity threshold %v not in [0,100]: %w", t.Humidity, errInvalidValue)
	}

	return nil
}

func validateSensor(s *Sensor) error {
	switch s.Type {
	case "":
		s.Type = SensorSimulated
	case SensorSimulated:
	case SensorFile:
		if s.Path == "" {
			return fmt.Errorf("sensor: %w", errPathRequired)
		}
	default:
		return fmt.Errorf("sensor %q: %w", s.Type, errUnknownBackend)
	}

	if s.FailureRate < 0 || s.FailureRate >= 1 {
		return fmt.Errorf("sensor failure rate %v: %w", s.FailureRate, errInvalidValue)
	}

	return nil
}

func validateDisplay(d *Display) error {
	switch d.Type {
	case "":
		d.Type = DisplayConsole
	case DisplayConsole:
	case DisplayFile:
		if d.Path == "" {
			return fmt.Errorf("display: %w", errPathRequired)
		}
	default:
		return fmt.Errorf("display %q: %w", d.Type, errUnknownBackend)
	}

	if d.Columns <= 0 {
		d.Columns = DefaultDisplayColumns
	}

	if d.Rows <= 0 {
		d.Rows = DefaultDisplayRows
	}

	return nil
}

func validateActuator(a *Actuator, watchdogTimeout time.Duration) error {
	switch a.Type {
	case "":
		a.Type = ActuatorLog
	case ActuatorLog:
	case ActuatorFile:
		if a.Path == "" {
			return fmt.Errorf("actuator: %w", errPathRequired)
		}
	case ActuatorCommand:
		if len(a.Command) == 0 || a.Command[0] == "" {
			return fmt.Errorf("actuator: command: %w", errInvalidValue)
		}

		if a.Timeout <= 0 {
			a.Timeout = DefaultActuatorTimeout
		}

		// The command runs on the dispatcher, between two watchdog kicks.
		if a.Timeout >= watchdogTimeout {
			return fmt.Errorf("actuator timeout %s must stay below watchdog timeout %s: %w",
				a.Timeout, watchdogTimeout, errInvalidValue)
		}
	default:
		return fmt.Errorf("actuator %q: %w", a.Type, errUnknownBackend)
	}

	return nil
}
