// Package grpc exposes the standard gRPC health service for the drive pool.
package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
)

const (
	// ServiceName is the health service name reported next to the overall
	// ("") status.
	ServiceName = "drivepool.DrivePool"

	defaultProbeInterval = 10 * time.Second
	probeTimeout         = 3 * time.Second
)

// Pinger is satisfied by the database handle.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler is the root gRPC transport handler.
//
// It reports SERVING while the database answers pings and NOT_SERVING
// otherwise. A handler instance is created once at startup and shared by the
// gRPC server.
type Handler struct {
	health   *health.Server
	pinger   Pinger
	interval time.Duration

	logger *logger.Logger
}

// NewHandler returns a handler that starts in NOT_SERVING until the first
// successful probe.
func NewHandler(pinger Pinger, logger *logger.Logger) *Handler {
	h := &Handler{
		health:   health.NewServer(),
		pinger:   pinger,
		interval: defaultProbeInterval,
		logger:   logger,
	}
	h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)

	logger.Debug().Msg("gRPC handler created")
	return h
}

// Register attaches the health and reflection services to server.
func (h *Handler) Register(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, h.health)
	reflection.Register(server)
}

// Probe pings the database once and publishes the resulting status.
func (h *Handler) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.pinger.PingContext(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("database ping failed, reporting NOT_SERVING")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.setStatus(status)
	return status
}

// Watch probes on every interval until ctx is done.
func (h *Handler) Watch(ctx context.Context) {
	h.Probe(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Shutdown switches every service to NOT_SERVING and ignores later updates.
func (h *Handler) Shutdown() {
	h.health.Shutdown()
}

func (h *Handler) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}
