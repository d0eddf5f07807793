// Package grpc exposes the standard grpc.health.v1 service so orchestrators
// can probe the task store without touching the REST API.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dmitrijs2005/todovault/internal/logging"
)

// ServiceName is the health service name reported for the task store.
const ServiceName = "todovault.TaskStore"

// Probe reports whether the task store currently answers.
type Probe func(ctx context.Context) error

type GRPCServer struct {
	address string
	health  *health.Server
	probe   Probe
	logger  logging.Logger
}

// NewGRPCServer starts in NOT_SERVING. With a non-nil probe every Check
// re-runs it and updates the status, so a store that comes up later flips
// the server to SERVING. Without one the status only changes via SetServing.
func NewGRPCServer(a string, probe Probe, l logging.Logger) *GRPCServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &GRPCServer{
		address: a,
		health:  hs,
		probe:   probe,
		logger:  l.With("module", "grpc_server"),
	}
}

// probingHealth refreshes the stored status from the probe before answering
// Check. Watch and List serve whatever the last Check or SetServing stored.
type probingHealth struct {
	*health.Server
	owner *GRPCServer
}

func (h *probingHealth) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	err := h.owner.probe(ctx)
	if err != nil {
		h.owner.logger.Debug(ctx, "store probe failed", "error", err)
	}
	h.owner.SetServing(err == nil)
	return h.Server.Check(ctx, req)
}

func (s *GRPCServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	if s.probe != nil {
		healthpb.RegisterHealthServer(srv, &probingHealth{Server: s.health, owner: s})
	} else {
		healthpb.RegisterHealthServer(srv, s.health)
	}
	reflection.Register(srv)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
