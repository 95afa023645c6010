package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/climate-alarm/internal/config"
	"github.com/oshokin/climate-alarm/internal/domain/climate"
	"github.com/oshokin/climate-alarm/internal/logger"
	"github.com/oshokin/climate-alarm/internal/monitor"
	"github.com/oshokin/climate-alarm/internal/repository/history"
	"github.com/oshokin/climate-alarm/internal/service/common"
)

// Options configures the client commands.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides api.address from the settings when specified.
	ServerAddress string
	// Output receives the command output; defaults to stdout.
	Output io.Writer
}

// retryInterval is the delay between toggle attempts the daemon asked us to repeat.
const retryInterval = 250 * time.Millisecond

// maxToggleAttempts bounds retries of a busy daemon.
const maxToggleAttempts = 8

// connect loads the settings and dials the daemon.
func connect(ctx context.Context, opts *Options) (*common.Client, error) {
	var (
		address = opts.ServerAddress
		timeout = config.DefaultTimeout
	)

	cfg, err := config.Load(opts.ConfigPath)

	switch {
	case err == nil:
		timeout = cfg.API.Timeout

		if address == "" {
			address = cfg.API.Address
		}
	case address != "":
		// An explicit address is enough; settings are optional for clients.
		logger.DebugKV(ctx, "Settings not loaded, using flags", "error", err)
	default:
		return nil, err
	}

	return common.Dial(ctx, address, common.WithCallTimeout(timeout))
}

func output(opts *Options) io.Writer {
	if opts.Output != nil {
		return opts.Output
	}

	return os.Stdout
}

// RunStatus prints the current readings, the display rendering and counters.
func RunStatus(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "status")

	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	st, stats, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}

	return writeStatus(output(opts), st, stats)
}

// writeStatus renders a status report.
func writeStatus(w io.Writer, st *climate.Status, stats map[string]any) error {
	first, second := monitor.FormatLines(st.Reading, st.Unit, monitor.DefaultColumns)

	sampled := "never"
	if !st.SampledAt.IsZero() {
		sampled = st.SampledAt.Local().Format(time.RFC3339)
	}

	alarm := "off"
	if st.AlarmActive {
		alarm = "ON"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Display\t%s\n\t%s\n", first, second)
	_, _ = fmt.Fprintf(tw, "Alarm\t%s\n", alarm)
	_, _ = fmt.Fprintf(tw, "Thresholds\t%.2f°F, %.0f%%\n", st.Thresholds.Temperature, st.Thresholds.Humidity)
	_, _ = fmt.Fprintf(tw, "Sampled at\t%s\n", sampled)
	_, _ = fmt.Fprintf(tw, "Errors\tsensor=%d display=%d actuator=%d\n",
		st.SensorErrors, st.DisplayErrors, st.ActuatorErrors)

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write status: %w", err)
	}

	if len(stats) == 0 {
		return nil
	}

	out, err := yaml.Marshal(map[string]any{"stats": stats})
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	_, err = w.Write(out)

	return err
}

// RunToggle switches the display unit on the daemon, retrying while the
// daemon reports it is busy (full queue or a toggle inside the debounce window).
func RunToggle(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "toggle")

	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		err = client.ToggleUnit(ctx, actor)
		if err == nil {
			break
		}

		if !retryable(err) || attempt >= maxToggleAttempts {
			return err
		}

		logger.DebugKV(ctx, "Daemon busy, retrying toggle", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	_, _ = fmt.Fprintf(output(opts), "Unit toggle requested by %s\n", actor.String())

	return nil
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.ResourceExhausted, codes.Unavailable:
		return true
	default:
		return false
	}
}

// RunHistory prints up to limit journaled samples, newest first.
func RunHistory(ctx context.Context, opts *Options, limit int) error {
	ctx = logger.WithName(ctx, "history")

	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	entries, err := client.GetHistory(ctx, limit)
	if err != nil {
		return err
	}

	return writeHistory(output(opts), entries)
}

// writeHistory renders entries as an aligned table.
func writeHistory(w io.Writer, entries []history.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SAMPLED AT\tTEMP(F)\tHUMIDITY")

	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%.2f\t%.0f%%\n",
			e.At.Local().Format(time.RFC3339), e.Reading.Primary, e.Reading.Secondary)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}

	return nil
}

