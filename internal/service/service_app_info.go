package service

import (
	"context"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/models"
)

// appInfoService reports what build is running. A version set through
// configuration overrides the one embedded at link time.
type appInfoService struct {
	info models.VersionResponse

	logger *logger.Logger
}

func NewAppInfoService(cfg config.App, build models.AppBuildInfo, logger *logger.Logger) (AppInfoService, error) {
	info := build.Response()
	if cfg.Version != "" {
		info.Version = cfg.Version
	}
	if info.Version == "" || info.Version == models.NotAvailable {
		return nil, ErrVersionIsNotSpecified
	}

	return &appInfoService{
		info:   info,
		logger: logger,
	}, nil
}

func (s *appInfoService) GetAppVersion(ctx context.Context) string {
	return s.info.Version
}

func (s *appInfoService) GetAppInfo(ctx context.Context) models.VersionResponse {
	return s.info
}
