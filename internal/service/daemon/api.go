package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/climate-alarm/internal/api/grpc/monitor"
	"github.com/oshokin/climate-alarm/internal/logger"
)

// listenAPI binds the gRPC listener so address errors surface before startup completes.
func listenAPI(ctx context.Context, address string) (net.Listener, error) {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	return lis, nil
}

// serveAPI serves MonitorService on lis until ctx is canceled.
func serveAPI(ctx context.Context, lis net.Listener, server *api.Server) error {
	ctx = logger.WithName(ctx, "api")

	grpcServer := grpc.NewServer()
	api.RegisterMonitorServiceServer(grpcServer, server)

	logger.InfoKV(ctx, "Monitor API listening", "listen_address", lis.Addr().String())

	// Closed after GracefulStop finishes so we only return once the server is fully down.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "Monitor API stopped")

	return nil
}
