package monitor

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
	"github.com/oshokin/climate-alarm/internal/eventqueue"
	"github.com/oshokin/climate-alarm/internal/interrupt"
	"github.com/oshokin/climate-alarm/internal/logger"
	"github.com/oshokin/climate-alarm/internal/repository/history"
)

// StatusReader returns a snapshot of the monitor state.
type StatusReader interface {
	Status(ctx context.Context) (*climate.Status, error)
}

// Toggler is an edge source, the same one the button drives.
type Toggler interface {
	Fire() interrupt.Outcome
}

// HistoryReader returns journaled samples, newest first.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Server implements MonitorServiceServer.
type Server struct {
	status  StatusReader
	toggler Toggler
	history HistoryReader
	stats   func() map[string]any
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables GetHistory.
func WithHistory(h HistoryReader) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithStats attaches runtime counters to GetStatus responses.
func WithStats(fn func() map[string]any) Option {
	return func(s *Server) {
		s.stats = fn
	}
}

// NewServer wires the monitor and the toggle edge source into a gRPC handler.
func NewServer(reader StatusReader, toggler Toggler, opts ...Option) *Server {
	s := &Server{
		status:  reader,
		toggler: toggler,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var _ MonitorServiceServer = (*Server)(nil)

// GetStatus returns the current readings, unit, alarm state and counters.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := s.status.Status(ctx)
	if err != nil {
		return nil, toStatusError(err, "unable to read status")
	}

	var extra map[string]any
	if s.stats != nil {
		extra = s.stats()
	}

	response, err := StatusToStruct(st, extra)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode status")
	}

	return response, nil
}

// ToggleUnit fires the unit-toggle edge on behalf of a remote actor.
func (s *Server) ToggleUnit(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	actor := ActorFromStruct(req)
	if actor.Hostname == "" || actor.Username == "" {
		return nil, status.Error(codes.InvalidArgument, "actor hostname and username are required")
	}

	outcome := s.toggler.Fire()

	logger.InfoKV(ctx, "Remote unit toggle", "actor", actor.String(), "outcome", outcome.String())

	switch outcome {
	case interrupt.Dropped:
		return nil, status.Error(codes.ResourceExhausted, "event queue is full")
	case interrupt.Debounced:
		return nil, status.Error(codes.Unavailable, "toggle ignored, try again shortly")
	default:
		return new(emptypb.Empty), nil
	}
}

// GetHistory returns up to "limit" journaled samples, newest first.
func (s *Server) GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.history == nil {
		return nil, status.Error(codes.Unimplemented, "history is disabled")
	}

	limit := limitFromStruct(req)
	if limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}

	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, toStatusError(err, "unable to read history")
	}

	return EntriesToStruct(entries), nil
}

// toStatusError keeps context errors recognizable to the caller.
func toStatusError(err error, message string) error {
	switch {
	case errors.Is(err, eventqueue.ErrResourceExhausted):
		return status.Error(codes.ResourceExhausted, message)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, message)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, message)
	default:
		return status.Error(codes.Internal, message)
	}
}
