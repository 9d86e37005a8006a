package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/acchub/acchub/internal/config"
	"github.com/acchub/acchub/internal/database"
	"github.com/acchub/acchub/internal/discord"
	"github.com/acchub/acchub/internal/notify"
	"github.com/acchub/acchub/internal/repository"
	"github.com/acchub/acchub/internal/service"
	"github.com/acchub/acchub/pkg/logger"
)

func main() {
	cfg, err := config.Load(true)
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

	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatalf("discord session: %v", err)
	}

	categoryRepo := repository.NewCategoryRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	notifier := notify.NewNotifier(cfg.RequestTimeout, logr)

	catalogService := service.NewCatalogService(logr, categoryRepo, accountRepo)
	generationService := service.NewGenerationService(logr, accountRepo, categoryRepo, profileRepo, settingsRepo, activityRepo, notifier, 0)
	promoService := service.NewPromoService(logr, promoRepo, activityRepo)
	profileService := service.NewProfileService(profileRepo)
	statsService := service.NewStatsService(accountRepo, categoryRepo, historyRepo, profileRepo)

	bot := discord.NewBot(cfg, session, logr, catalogService, generationService, promoService, profileService, statsService, settingsRepo)

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("bot stopped", "err", err)
	}
}
