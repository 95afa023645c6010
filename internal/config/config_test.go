package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate_FillsDefaults checks that an empty config gets the appliance defaults.
func TestValidate_FillsDefaults(t *testing.T) {
	t.Parallel()

	cfg := new(Config)
	require.NoError(t, Validate(cfg))

	require.Equal(t, DefaultThresholds(), Default().Thresholds)
	require.Equal(t, DefaultCadence, cfg.Cadence.Sample)
	require.Equal(t, DefaultCadence, cfg.Cadence.Render)
	require.Equal(t, DefaultCadence, cfg.Cadence.Alarm)
	require.Equal(t, DefaultWatchdogTimeout, cfg.Watchdog.Timeout)
	require.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
	require.Equal(t, SensorSimulated, cfg.Sensor.Type)
	require.Equal(t, DisplayConsole, cfg.Display.Type)
	require.Equal(t, ActuatorLog, cfg.Actuator.Type)
	require.Equal(t, DefaultButtonSignal, cfg.Button.Signal)
	require.Equal(t, "F", cfg.InitialUnit)
	require.Equal(t, DefaultStatsSchedule, cfg.StatsSchedule)
	require.Empty(t, cfg.API.Address)
}

// TestValidate_Rejects covers the invalid settings Validate must refuse.
func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]*Config{
		"bad api address":        {API: API{Address: "bad:address"}},
		"humidity above 100":     {Thresholds: Thresholds{Humidity: 120}},
		"unknown sensor":         {Sensor: Sensor{Type: "dht11"}},
		"file sensor no path":    {Sensor: Sensor{Type: SensorFile}},
		"failure rate one":       {Sensor: Sensor{FailureRate: 1}},
		"file display no path":   {Display: Display{Type: DisplayFile}},
		"file actuator no path":  {Actuator: Actuator{Type: ActuatorFile}},
		"unknown signal":         {Button: Button{Signal: "SIGKILL"}},
		"command actuator empty": {Actuator: Actuator{Type: ActuatorCommand}},
		"command outlives watchdog": {Actuator: Actuator{
			Type:    ActuatorCommand,
			Command: []string{"true"},
			Timeout: time.Minute,
		}},
		"bad unit":               {InitialUnit: "K"},
		"bad stats schedule":     {StatsSchedule: "every minute"},
		"watchdog below cadence": {Cadence: Cadence{Render: 2 * time.Second}, Watchdog: Watchdog{Timeout: time.Second}},
	}

	for name, cfg := range cases {
		require.Error(t, Validate(cfg), name)
	}

	require.Error(t, Validate(nil))
}

// TestValidate_KeepsZeroThresholds accepts zero as a real limit.
func TestValidate_KeepsZeroThresholds(t *testing.T) {
	t.Parallel()

	cfg := &Config{Thresholds: Thresholds{Temperature: 80, Humidity: 0}}
	require.NoError(t, Validate(cfg))
	require.Equal(t, Thresholds{Temperature: 80, Humidity: 0}, cfg.Thresholds)

	cfg = &Config{Thresholds: Thresholds{Temperature: 0, Humidity: 35}}
	require.NoError(t, Validate(cfg))
	require.Equal(t, Thresholds{Temperature: 0, Humidity: 35}, cfg.Thresholds)
}

// TestLoad_Thresholds fills only the threshold keys missing from the file.
func TestLoad_Thresholds(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		yaml string
		want Thresholds
	}{
		"absent":         {yaml: "log_level: info\n", want: DefaultThresholds()},
		"explicit zero":  {yaml: "thresholds:\n  temperature: 0\n  humidity: 0\n", want: Thresholds{}},
		"humidity only":  {yaml: "thresholds:\n  humidity: 0\n", want: Thresholds{Temperature: DefaultTemperatureThreshold}},
		"temperature 85": {yaml: "thresholds:\n  temperature: 85\n", want: Thresholds{Temperature: 85, Humidity: DefaultHumidityThreshold}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "settings.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), DefaultFilePermissions))

			cfg, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, tc.want, cfg.Thresholds)
		})
	}
}

// TestValidate_DisabledStats accepts the disabled schedule marker.
func TestValidate_DisabledStats(t *testing.T) {
	t.Parallel()

	cfg := &Config{StatsSchedule: DisabledSchedule}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DisabledSchedule, cfg.StatsSchedule)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := Default()
	cfg.Thresholds.Temperature = 80
	cfg.Cadence.Sample = 250 * time.Millisecond
	cfg.Sensor = Sensor{Type: SensorFile, Path: "/run/climate/reading"}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_MissingFile returns a wrapped read error.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestWatch_ReloadsOnWrite verifies that a rewrite of the file reaches onChange.
func TestWatch_ReloadsOnWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, Save(path, Default()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(cfg *Config) {
			changes <- cfg
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	updated := Default()
	updated.Thresholds.Humidity = 45
	require.NoError(t, Save(path, updated))

	select {
	case cfg := <-changes:
		require.InDelta(t, 45, cfg.Thresholds.Humidity, 0)
	case <-time.After(3 * time.Second):
		t.Fatal("settings change was not observed")
	}

	cancel()
	require.NoError(t, <-done)
}
