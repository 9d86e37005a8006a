package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/acchub/acchub/internal/config"
	"github.com/acchub/acchub/internal/database"
	"github.com/acchub/acchub/internal/notify"
	"github.com/acchub/acchub/internal/repository"
	"github.com/acchub/acchub/internal/server"
	"github.com/acchub/acchub/internal/service"
	"github.com/acchub/acchub/internal/storage"
	"github.com/acchub/acchub/pkg/logger"
)

func main() {
	cfg, err := config.Load(false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	categoryRepo := repository.NewCategoryRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)

	var snapshotUploader service.SnapshotUploader
	if cfg.S3Configured() {
		uploader, err := storage.NewUploader(storage.Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Bucket:       cfg.S3Bucket,
			UsePathStyle: cfg.S3UsePathStyle,
			Prefix:       cfg.S3Prefix,
		})
		if err != nil {
			log.Fatalf("storage uploader: %v", err)
		}
		snapshotUploader = uploader
	}

	notifier := notify.NewNotifier(cfg.RequestTimeout, logr)

	catalogService := service.NewCatalogService(logr, categoryRepo, accountRepo)
	generationService := service.NewGenerationService(logr, accountRepo, categoryRepo, profileRepo, settingsRepo, activityRepo, notifier, cfg.GenerateDelay)
	promoService := service.NewPromoService(logr, promoRepo, activityRepo)
	accountService := service.NewAccountService(logr, accountRepo, categoryRepo, activityRepo)
	profileService := service.NewProfileService(profileRepo)
	statsService := service.NewStatsService(accountRepo, categoryRepo, historyRepo, profileRepo)
	backupService := service.NewBackupService(logr, categoryRepo, accountRepo, historyRepo, snapshotUploader)

	srv := server.NewServer(cfg.ListenAddr, cfg.AdminUsername, cfg.AdminPassword, logr, server.Deps{
		Catalog:    catalogService,
		Generation: generationService,
		Promos:     promoService,
		Accounts:   accountService,
		Profiles:   profileService,
		Stats:      statsService,
		Backups:    backupService,
		History:    historyRepo,
		Activity:   activityRepo,
		Settings:   settingsRepo,
		APIKeys:    apiKeyRepo,
	})

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("server stopped", "err", err)
	}
}
