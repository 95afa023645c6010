//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	api "github.com/oshokin/climate-alarm/internal/api/grpc/monitor"
	"github.com/oshokin/climate-alarm/internal/config"
	"github.com/oshokin/climate-alarm/internal/domain/climate"
	"github.com/oshokin/climate-alarm/internal/repository/history"
	"github.com/oshokin/climate-alarm/internal/version"
)

// Client wraps the MonitorService client with typed helpers.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn *grpc.ClientConn
	// api is the MonitorService client.
	api *api.MonitorServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when an actor is not provided but is required for the operation.
	errActorRequired = errors.New("actor must be provided")
)

// Dial creates a client for the daemon at address. The connection is lazy
// and uses insecure transport; the API is meant for localhost or a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial monitor: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewMonitorServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetStatus returns the monitor snapshot and the daemon's runtime counters.
func (c *Client) GetStatus(ctx context.Context) (*climate.Status, map[string]any, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetStatus(callCtx)
	if err != nil {
		return nil, nil, fmt.Errorf("get status: %w", err)
	}

	st, stats, err := api.StatusFromStruct(response)
	if err != nil {
		return nil, nil, fmt.Errorf("decode status: %w", err)
	}

	return st, stats, nil
}

// ToggleUnit asks the daemon to switch the display unit.
func (c *Client) ToggleUnit(ctx context.Context, actor *climate.Actor) error {
	if actor == nil {
		return errActorRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.api.ToggleUnit(callCtx, api.ActorToStruct(actor)); err != nil {
		return fmt.Errorf("toggle unit: %w", err)
	}

	return nil
}

// GetHistory returns up to limit journaled samples, newest first.
func (c *Client) GetHistory(ctx context.Context, limit int) ([]history.Entry, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetHistory(callCtx, api.LimitToStruct(limit))
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	entries, err := api.EntriesFromStruct(response)
	if err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	return entries, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
