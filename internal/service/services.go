package service

import (
	"github.com/MKhiriev/go-drive-pool/internal/adapter"
	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/crypto"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/internal/validators"
	"github.com/MKhiriev/go-drive-pool/models"
)

type Services struct {
	AuthService     AuthService
	AppInfoService  AppInfoService
	LedgerService   LedgerService
	BalancerService BalancerService
	VFSService      VFSService
	ShareService    ShareService
	AccountService  AccountService
	FileService     FileService
	StatsService    StatsService
}

// Adapters are the provider clients the services talk to.
type Adapters struct {
	ObjectStore   adapter.ObjectStore
	OAuthProvider adapter.OAuthProvider
}

func NewServices(repositories *store.Repositories, adapters Adapters, cfg config.StructuredConfig,
	build models.AppBuildInfo, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, build, logger)
	if err != nil {
		return nil, err
	}

	hasher := crypto.NewPasswordHasher(0)
	validator := validators.NewRequestValidator(cfg.Server.MaxUploadSize)

	ledger := NewLedgerService(repositories.AccountRepository, logger)
	balancer := NewBalancerService(repositories.AccountRepository, logger)
	vfs := NewVFSService(repositories.EntryRepository, logger)
	accounts := NewAccountService(repositories.AccountRepository, adapters.ObjectStore, adapters.OAuthProvider, cfg.Google, logger)

	files := NewFileService(balancer, ledger, vfs, accounts, repositories.AccountRepository, adapters.ObjectStore, logger)
	shares := NewShareService(repositories.ShareLinkRepository, repositories.EntryRepository, hasher, cfg.App, logger)

	return &Services{
		AuthService:     NewAuthService(repositories.UserRepository, hasher, cfg.App, logger),
		AppInfoService:  appInfo,
		LedgerService:   ledger,
		BalancerService: balancer,
		VFSService:      vfs,
		ShareService:    NewShareValidationService(validator).Wrap(shares),
		AccountService:  accounts,
		FileService:     NewFileValidationService(validator).Wrap(files),
		StatsService:    NewStatsService(ledger, repositories.AccountRepository, repositories.EntryRepository, logger),
	}, nil
}
