package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ljmerza/chores/internal/channel"
	"github.com/ljmerza/chores/internal/config"
	"github.com/ljmerza/chores/internal/database"
	"github.com/ljmerza/chores/internal/logging"
	"github.com/ljmerza/chores/internal/scheduler"
	"github.com/ljmerza/chores/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	households := store.NewHouseholdStore(db)
	schedules := store.NewScheduleStore(db)
	chores := store.NewChoreStore(db)
	notifications := store.NewNotificationStore(db)
	records := store.NewDispatchStore(db)

	sinks := []channel.Sink{
		channel.NewEmailSink(cfg.PostmarkToken, cfg.FromEmail),
		channel.NewSMSSink(cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.SMSFromNumber),
		channel.NewPushSink(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubscriber),
		channel.NewHomeAssistantSink(),
	}

	sched := scheduler.New(
		scheduler.Config{
			HorizonDays:     cfg.HorizonDays,
			LeadWindow:      time.Duration(cfg.LeadWindowMinutes) * time.Minute,
			Cooldown:        time.Duration(cfg.CooldownMinutes) * time.Minute,
			QuietHoursStart: cfg.QuietHoursStart,
			QuietHoursEnd:   cfg.QuietHoursEnd,
			FastTick:        cfg.FastTick,
			SlowTick:        cfg.SlowTick,
			ExpireOverdue:   cfg.ExpireOverdue,
			BaseURL:         cfg.BaseURL,
		},
		households, schedules, chores, notifications, records,
		sinks,
		logger.With("component", "scheduler"),
	)

	sched.Start(context.Background())
	logger.Info("scheduler running",
		"db", cfg.DBPath,
		"fast_tick", cfg.FastTick,
		"slow_tick", cfg.SlowTick,
		"horizon_days", cfg.HorizonDays,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	sched.Stop()
}
