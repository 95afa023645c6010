package monitor

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
	"github.com/oshokin/climate-alarm/internal/eventqueue"
	"github.com/oshokin/climate-alarm/internal/interrupt"
	"github.com/oshokin/climate-alarm/internal/repository/history"
)

// fakeMonitor implements StatusReader and Toggler.
type fakeMonitor struct {
	status  *climate.Status
	err     error
	outcome interrupt.Outcome
	fired   int
}

func (f *fakeMonitor) Status(context.Context) (*climate.Status, error) {
	return f.status.Clone(), f.err
}

func (f *fakeMonitor) Fire() interrupt.Outcome {
	f.fired++

	return f.outcome
}

type fakeHistory struct {
	entries []history.Entry
	limit   int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]history.Entry, error) {
	f.limit = limit

	return f.entries, nil
}

func sampleStatus() *climate.Status {
	return &climate.Status{
		Reading:      climate.Reading{Primary: 75, Secondary: 65},
		Unit:         climate.UnitCelsius,
		AlarmActive:  true,
		Thresholds:   climate.Thresholds{Temperature: 72, Humidity: 60},
		SampledAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		SensorErrors: 2,
	}
}

// TestServer_GetStatus encodes the snapshot and the attached counters.
func TestServer_GetStatus(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeMonitor{status: sampleStatus()}, nil,
		WithStats(func() map[string]any { return map[string]any{"queue_dropped": uint64(3)} }))

	response, err := s.GetStatus(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)

	got, stats, err := StatusFromStruct(response)
	require.NoError(t, err)
	require.Equal(t, sampleStatus(), got)
	require.InDelta(t, 3, stats["queue_dropped"], 1e-9)
	require.InDelta(t, climate.FahrenheitToCelsius(75), response.GetFields()[keyTemperature].GetNumberValue(), 1e-9)
}

// TestServer_GetStatus_Errors maps dispatcher failures to status codes.
func TestServer_GetStatus_Errors(t *testing.T) {
	t.Parallel()

	for err, code := range map[error]codes.Code{
		eventqueue.ErrResourceExhausted: codes.ResourceExhausted,
		context.DeadlineExceeded:        codes.DeadlineExceeded,
		errors.New("boom"):              codes.Internal,
	} {
		s := NewServer(&fakeMonitor{err: err}, nil)

		_, got := s.GetStatus(context.Background(), new(emptypb.Empty))
		require.Equal(t, code, status.Code(got), err.Error())
	}
}

// TestServer_ToggleUnit validates the actor and reports the edge outcome.
func TestServer_ToggleUnit(t *testing.T) {
	t.Parallel()

	m := new(fakeMonitor)
	s := NewServer(m, m)

	_, err := s.ToggleUnit(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ToggleUnit(context.Background(), ActorToStruct(&climate.Actor{Hostname: "lab"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Zero(t, m.fired)

	actor := ActorToStruct(&climate.Actor{Hostname: "lab", Username: "ops"})

	_, err = s.ToggleUnit(context.Background(), actor)
	require.NoError(t, err)

	m.outcome = interrupt.Dropped
	_, err = s.ToggleUnit(context.Background(), actor)
	require.Equal(t, codes.ResourceExhausted, status.Code(err))

	m.outcome = interrupt.Debounced
	_, err = s.ToggleUnit(context.Background(), actor)
	require.Equal(t, codes.Unavailable, status.Code(err))
	require.Equal(t, 3, m.fired)
}

// TestServer_GetHistory is unimplemented unless a journal is attached.
func TestServer_GetHistory(t *testing.T) {
	t.Parallel()

	_, err := NewServer(new(fakeMonitor), nil).GetHistory(context.Background(), LimitToStruct(5))
	require.Equal(t, codes.Unimplemented, status.Code(err))

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h := &fakeHistory{entries: []history.Entry{{At: at, Reading: climate.Reading{Primary: 68, Secondary: 40}}}}
	s := NewServer(new(fakeMonitor), nil, WithHistory(h))

	response, err := s.GetHistory(context.Background(), LimitToStruct(5))
	require.NoError(t, err)
	require.Equal(t, 5, h.limit)

	entries, err := EntriesFromStruct(response)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].At.Equal(at))
	require.Equal(t, climate.Reading{Primary: 68, Secondary: 40}, entries[0].Reading)

	_, err = s.GetHistory(context.Background(), LimitToStruct(-1))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServiceDesc_OverTheWire drives every method through a real gRPC stack.
func TestServiceDesc_OverTheWire(t *testing.T) {
	t.Parallel()

	var (
		lis = bufconn.Listen(1 << 20)
		srv = grpc.NewServer()
		m   = &fakeMonitor{status: sampleStatus()}
	)

	RegisterMonitorServiceServer(srv, NewServer(m, m, WithHistory(new(fakeHistory))))

	go func() { _ = srv.Serve(lis) }()

	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	var (
		ctx    = context.Background()
		client = NewMonitorServiceClient(conn)
	)

	response, err := client.GetStatus(ctx)
	require.NoError(t, err)

	got, _, err := StatusFromStruct(response)
	require.NoError(t, err)
	require.True(t, got.AlarmActive)

	require.NoError(t, client.ToggleUnit(ctx, ActorToStruct(&climate.Actor{Hostname: "lab", Username: "ops"})))
	require.Equal(t, 1, m.fired)

	entries, err := client.GetHistory(ctx, LimitToStruct(1))
	require.NoError(t, err)
	require.Empty(t, entries.GetFields()[keyReadings].GetListValue().GetValues())
}
