package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sdwr/cowprofit/internal/logger"
)

// MetadataRequestID is the metadata key carrying the request ID.
const MetadataRequestID = "x-request-id"

// Server hosts the Enhancement gRPC server.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
}

// NewWithAddr creates a server bound to addr.
func NewWithAddr(addr string, e Engine) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return NewWithListener(listener, e), nil
}

// NewWithListener creates a server on an existing listener.
func NewWithListener(listener net.Listener, e Engine) *Server {
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor))
	RegisterEnhancementServer(grpcServer, NewHandler(e))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
	}
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve runs until ctx is cancelled, then stops gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("rpc server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	slog.Default().Info("gRPC server starting", "addr", s.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	}
}

// Close stops the server immediately.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
}

// loggingInterceptor attaches a request ID and logs each call.
func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	requestID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(MetadataRequestID); len(ids) > 0 {
			requestID = ids[0]
		}
	}
	if requestID == "" {
		requestID = logger.GenerateRequestID()
	}
	ctx = logger.WithRequestID(ctx, requestID)
	_ = grpc.SetHeader(ctx, metadata.Pairs(MetadataRequestID, requestID))

	start := time.Now()
	log := logger.FromContext(ctx)
	log.Info("RPC started", "method", info.FullMethod)

	resp, err := handler(ctx, req)

	log.Info("RPC completed",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration_ms", time.Since(start).Milliseconds())
	return resp, err
}
