package handler

import (
	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/handler/grpc"
	"github.com/MKhiriev/go-drive-pool/internal/handler/http"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/ratelimit"
	"github.com/MKhiriev/go-drive-pool/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
	GRPC *grpc.Handler
}

// NewHandlers builds a transport handler for every configured address. db
// backs the gRPC health status.
func NewHandlers(services *service.Services, limiter ratelimit.Limiter, db grpc.Pinger, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	handlers := &Handlers{}

	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(services, limiter, cfg, logger)
	}
	if cfg.GRPCAddress != "" {
		handlers.GRPC = grpc.NewHandler(db, logger)
	}

	if handlers.HTTP == nil && handlers.GRPC == nil {
		return nil, errNoHandlersAreCreated
	}

	return handlers, nil
}
