package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"birthdaybot/internal/bot"
	"birthdaybot/internal/config"
	"birthdaybot/internal/model"
	"birthdaybot/internal/repository"
	"birthdaybot/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	birthdayRepo := repository.NewBirthdayRepository(db)
	configRepo := repository.NewConfigRepository(db)

	if err := configRepo.SetIfAbsent(ctx, model.KeyChannelName, cfg.DefaultChannel); err != nil {
		log.Printf("[warn] seed default channel: %v", err)
	}

	birthdaySvc := service.NewBirthdayService(birthdayRepo)
	adminSvc := service.NewAdminService(configRepo)
	channelSvc := service.NewChannelService(configRepo, cfg.DefaultChannel)
	csvSvc := service.NewCSVService(birthdayRepo)

	telegramBot, err := bot.New(cfg.TelegramToken, birthdaySvc, adminSvc, channelSvc, csvSvc, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	dispatchSvc := service.NewDispatchService(birthdayRepo, configRepo, channelSvc, telegramBot)
	telegramBot.SetDispatcher(dispatchSvc)

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleDaily(cfg.AnnounceTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := dispatchSvc.RunDailyCheck(jobCtx, time.Now(), false); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("birthday check: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule birthday check: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("Birthday bot started, daily check at %s.", cfg.AnnounceTime)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
