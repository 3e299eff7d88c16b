package http

import (
	"net/netip"
	"time"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/ratelimit"
	"github.com/MKhiriev/go-drive-pool/internal/service"
	"github.com/MKhiriev/go-drive-pool/internal/validators"
)

type Handler struct {
	services  *service.Services
	limiter   ratelimit.Limiter
	validator validators.Validator

	requestTimeout time.Duration
	maxUploadSize  int64
	trustedProxies []netip.Prefix

	logger *logger.Logger
}

// NewHandler builds the REST handler. A nil limiter leaves the public share
// endpoints unthrottled.
func NewHandler(services *service.Services, limiter ratelimit.Limiter, cfg config.Server, logger *logger.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring malformed trusted proxies")
		trustedProxies = nil
	}

	logger.Info().Msg("http handler created")
	return &Handler{
		services:       services,
		limiter:        limiter,
		validator:      validators.NewRequestValidator(cfg.MaxUploadSize),
		requestTimeout: cfg.RequestTimeout,
		maxUploadSize:  cfg.MaxUploadSize,
		trustedProxies: trustedProxies,
		logger:         logger,
	}
}
