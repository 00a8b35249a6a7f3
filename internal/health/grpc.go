package health

import (
	"fmt"
	"log"
	"net"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// DetectionService is the health service name that tracks whether
// detection is running. The empty service name reports process health.
const DetectionService = "sounddetector.Detection"

// GRPCServer exposes the standard gRPC health protocol for orchestrators.
type GRPCServer struct {
	server   *grpc.Server
	health   *grpchealth.Server
	listener net.Listener
}

func NewGRPCServer() *GRPCServer {
	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(DetectionService, healthpb.HealthCheckResponse_NOT_SERVING)

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	// Enable gRPC reflection for debugging (grpcurl, etc.)
	reflection.Register(server)

	return &GRPCServer{
		server: server,
		health: hs,
	}
}

// StatusObserver keeps DetectionService in step with the detector status.
// Delivery outcomes say nothing about whether sampling runs, so they are
// ignored.
func (g *GRPCServer) StatusObserver() func(models.StatusMessage) {
	return func(msg models.StatusMessage) {
		switch msg.Kind {
		case models.StatusDetected, models.StatusNoDetection:
			g.health.SetServingStatus(DetectionService, healthpb.HealthCheckResponse_SERVING)
		case models.StatusDisabled, models.StatusSetupFailed:
			g.health.SetServingStatus(DetectionService, healthpb.HealthCheckResponse_NOT_SERVING)
		}
	}
}

// SetDetectionServing follows the loop's enable and disable transitions.
func (g *GRPCServer) SetDetectionServing(enabled bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if enabled {
		st = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus(DetectionService, st)
}

// Start listens on port and serves in the background.
func (g *GRPCServer) Start(port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}
	g.listener = listener

	go func() {
		if err := g.server.Serve(listener); err != nil {
			log.Printf("gRPC health server error: %v", err)
		}
	}()

	log.Printf("gRPC health server listening on port %s", port)
	return nil
}

func (g *GRPCServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}
