package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"

	api "github.com/oshokin/climate-alarm/internal/api/grpc/monitor"
	"github.com/oshokin/climate-alarm/internal/config"
	"github.com/oshokin/climate-alarm/internal/domain/climate"
	"github.com/oshokin/climate-alarm/internal/eventqueue"
	"github.com/oshokin/climate-alarm/internal/interrupt"
	"github.com/oshokin/climate-alarm/internal/logger"
	"github.com/oshokin/climate-alarm/internal/monitor"
	"github.com/oshokin/climate-alarm/internal/repository/history"
	"github.com/oshokin/climate-alarm/internal/version"
	"github.com/oshokin/climate-alarm/internal/watchdog"
	"github.com/oshokin/climate-alarm/internal/worker"
)

// Options controls the daemon process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress overrides api.address from the settings file.
	ListenAddress string
	// Exit terminates the process when the software watchdog expires.
	// Defaults to os.Exit.
	Exit func(code int)
}

// errUnsupportedBackend is returned for a device type the daemon cannot build.
var errUnsupportedBackend = errors.New("unsupported backend")

// daemon holds every long-lived component of one process.
type daemon struct {
	cfg        *config.Config
	configPath string

	queue   *eventqueue.Queue
	monitor *monitor.Monitor
	workers []*worker.Worker

	software *watchdog.Watchdog
	systemd  *watchdog.Systemd
	timers   watchdog.Group

	button  *interrupt.Handler
	signals *interrupt.SignalSource

	store    *history.Store
	recorder *history.Recorder

	listener net.Listener
}

// Run loads the settings, starts the monitor and blocks until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	if opts == nil {
		opts = new(Options)
	}

	ctx = logger.WithName(ctx, "climate-alarm")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.SetLevelName(cfg.LogLevel); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	if opts.ListenAddress != "" {
		cfg.API.Address = opts.ListenAddress
	}

	d, err := build(ctx, cfg, opts)
	if err != nil {
		return err
	}

	return d.run(ctx)
}

// build constructs the components without starting any goroutine.
//
//nolint:funlen // Straight-line wiring reads best in one place.
func build(ctx context.Context, cfg *config.Config, opts *Options) (_ *daemon, err error) {
	d := &daemon{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		queue:      eventqueue.New(cfg.QueueCapacity),
		systemd:    watchdog.NewSystemd(),
	}

	defer func() {
		if err != nil {
			d.close()
		}
	}()

	unit, err := climate.ParseUnit(cfg.InitialUnit)
	if err != nil {
		return nil, fmt.Errorf("initial unit: %w", err)
	}

	devices, err := newDevices(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}

	d.software = watchdog.New(watchdog.ExitReset(logger.WithName(ctx, "watchdog"), exit))
	d.timers = watchdog.Group{d.software}

	if cfg.Watchdog.Systemd {
		d.timers = append(d.timers, d.systemd)
	}

	devices.Kicker = d.timers

	if cfg.History.Path != "" {
		if d.store, err = history.Open(ctx, cfg.History.Path); err != nil {
			return nil, err
		}

		d.recorder = history.NewRecorder(d.store, 0)
		devices.Recorder = d.recorder
	}

	d.monitor, err = monitor.New(d.queue, devices, monitor.Options{
		Thresholds:    thresholds(cfg),
		Unit:          unit,
		SampleTimeout: cfg.SampleTimeout,
		Columns:       cfg.Display.Columns,
	})
	if err != nil {
		return nil, fmt.Errorf("create monitor: %w", err)
	}

	if err = d.addWorkers(ctx); err != nil {
		return nil, err
	}

	d.button, err = interrupt.NewHandler(d.queue, d.monitor.ToggleUnitEvent(ctx),
		interrupt.WithDebounce(cfg.Button.Debounce))
	if err != nil {
		return nil, fmt.Errorf("create button handler: %w", err)
	}

	if cfg.API.Address != "" {
		if d.listener, err = listenAPI(ctx, cfg.API.Address); err != nil {
			return nil, err
		}
	}

	// Subscribed last: from here on the button signal no longer has its default action.
	sig, err := interrupt.ParseSignal(cfg.Button.Signal)
	if err != nil {
		return nil, err
	}

	if sig != nil {
		d.signals = interrupt.NewSignalSource(sig)
	}

	return d, nil
}

// addWorkers creates the sample, render and alarm workers.
func (d *daemon) addWorkers(ctx context.Context) error {
	for _, def := range []struct {
		name    string
		cadence time.Duration
		event   eventqueue.Event
	}{
		{name: "sample", cadence: d.cfg.Cadence.Sample, event: d.monitor.SampleEvent(ctx)},
		{name: "render", cadence: d.cfg.Cadence.Render, event: d.monitor.RenderEvent(ctx)},
		{name: "alarm", cadence: d.cfg.Cadence.Alarm, event: d.monitor.AlarmEvent(ctx)},
	} {
		event := def.event

		w, err := worker.New(def.name, def.cadence, d.queue, func() eventqueue.Event { return event })
		if err != nil {
			return fmt.Errorf("create %s worker: %w", def.name, err)
		}

		d.workers = append(d.workers, w)
	}

	return nil
}

// run starts every component, waits for ctx and shuts down in order:
// watchdog first so a stopping dispatcher never looks hung, then the rest.
//
//nolint:funlen // Startup and shutdown are kept side by side.
func (d *daemon) run(ctx context.Context) error {
	defer d.close()

	// Armed before the render worker exists; its first post comes immediately.
	if err := d.timers.Arm(d.cfg.Watchdog.Timeout); err != nil {
		d.software.Stop()

		return fmt.Errorf("arm watchdog: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		runErr error
	)

	spawn := func(name string, fn func(context.Context) error) {
		wg.Go(func() {
			if err := fn(runCtx); err != nil {
				mu.Lock()
				runErr = multierr.Append(runErr, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()

				cancel()
			}
		})
	}

	spawn("dispatcher", d.queue.DispatchForever)

	if d.recorder != nil {
		spawn("history", d.recorder.Run)
	}

	for _, w := range d.workers {
		spawn(w.Name()+" worker", w.Run)
	}

	if d.signals != nil {
		spawn("button", func(ctx context.Context) error { return d.signals.Run(ctx, d.button) })
	}

	if d.listener != nil {
		server := api.NewServer(d.monitor, d.button, d.apiOptions()...)
		listener := d.listener
		d.listener = nil // owned by the gRPC server from now on

		spawn("api", func(ctx context.Context) error { return serveAPI(ctx, listener, server) })
	}

	// Hot reload failures are logged, never fatal.
	spawn("config watch", func(ctx context.Context) error {
		err := config.Watch(ctx, d.configPath, config.DefaultWatchDebounce, func(cfg *config.Config) {
			d.applyConfig(ctx, cfg)
		})
		if err != nil {
			logger.WarnKV(ctx, "Settings hot reload disabled", "error", err)
		}

		return nil
	})

	stopReport, err := d.startReport(runCtx)
	if err != nil {
		d.software.Stop()
		cancel()
		wg.Wait()

		return fmt.Errorf("schedule stats report: %w", err)
	}

	if err = d.systemd.Ready(); err != nil {
		logger.WarnKV(ctx, "Failed to notify systemd", "error", err)
	}

	logger.InfoKV(ctx, "Climate alarm started",
		"version", version.Short(),
		"threshold_temperature_f", d.cfg.Thresholds.Temperature,
		"threshold_humidity", d.cfg.Thresholds.Humidity,
		"watchdog_timeout", d.cfg.Watchdog.Timeout.String(),
		"systemd_watchdog", d.systemd.Active(),
		"history", d.store != nil,
	)

	<-runCtx.Done()

	logger.Info(ctx, "Shutting down")

	d.software.Stop()

	if err = d.systemd.Stopping(); err != nil {
		logger.WarnKV(ctx, "Failed to notify systemd", "error", err)
	}

	stopReport()
	wg.Wait()

	logger.InfoKV(ctx, "Climate alarm stopped", "stats", d.statsSnapshot())

	return runErr
}

func (d *daemon) apiOptions() []api.Option {
	opts := []api.Option{api.WithStats(d.statsSnapshot)}
	if d.store != nil {
		opts = append(opts, api.WithHistory(d.store))
	}

	return opts
}

// applyConfig hot-reloads what can change without a restart: the log level
// and the alarm thresholds. Everything else needs a restart.
func (d *daemon) applyConfig(ctx context.Context, cfg *config.Config) {
	if err := logger.SetLevelName(cfg.LogLevel); err != nil {
		logger.WarnKV(ctx, "Ignoring log level from reloaded settings", "error", err)
	}

	if err := d.queue.Post(d.monitor.SetThresholdsEvent(ctx, thresholds(cfg))); err != nil {
		logger.WarnKV(ctx, "Failed to apply reloaded thresholds", "error", err)
	}
}

// close releases resources that outlive the goroutines.
func (d *daemon) close() {
	if d.signals != nil {
		d.signals.Stop()
	}

	if d.listener != nil {
		_ = d.listener.Close()
	}

	if d.store != nil {
		_ = d.store.Close()
	}
}

func thresholds(cfg *config.Config) climate.Thresholds {
	return climate.Thresholds{
		Temperature: cfg.Thresholds.Temperature,
		Humidity:    cfg.Thresholds.Humidity,
	}
}
