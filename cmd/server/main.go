package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-drive-pool/internal/adapter"
	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/crypto"
	"github.com/MKhiriev/go-drive-pool/internal/handler"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/ratelimit"
	"github.com/MKhiriev/go-drive-pool/internal/server"
	"github.com/MKhiriev/go-drive-pool/internal/service"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/internal/workers"
	"github.com/MKhiriev/go-drive-pool/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("go-drive-pool")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if err = logger.SetLevel(cfg.App.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	db, err := store.NewDB(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer db.Close()

	if err = db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	cipher, err := crypto.NewCredentialCipher(cfg.App.CredentialsKey)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating credentials cipher")
	}
	repositories := store.NewRepositories(db, cipher, log)

	objectStore, err := adapter.NewDriveObjectStore(cfg.Google, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating Google Drive client")
	}
	adapters := service.Adapters{
		ObjectStore:   objectStore,
		OAuthProvider: adapter.NewGoogleOAuthProvider(cfg.Google, log),
	}

	build := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	services, err := service.NewServices(repositories, adapters, *cfg, build, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	limiter, closeLimiter, err := ratelimit.New(ctx, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating rate limiter")
	}
	defer func() {
		if err := closeLimiter(); err != nil {
			log.Warn().Err(err).Msg("error closing rate limiter")
		}
	}()

	handlers, err := handler.NewHandlers(services, limiter, db, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	bg := workers.NewWorkers(services, cfg.Workers, log)
	bg.Run(ctx)
	defer bg.Stop()

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Fprintf(os.Stdout, "Build version: %s\n", buildVersion)
	fmt.Fprintf(os.Stdout, "Build date: %s\n", buildDate)
	fmt.Fprintf(os.Stdout, "Build commit: %s\n", buildCommit)
}
