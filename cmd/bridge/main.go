package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/finassist/bridge/internal/config"
	"github.com/finassist/bridge/internal/coordinator"
	"github.com/finassist/bridge/internal/entity"
	"github.com/finassist/bridge/internal/financeapi"
	"github.com/finassist/bridge/internal/handler"
	"github.com/finassist/bridge/internal/notify"
	"github.com/finassist/bridge/internal/publish"
	"github.com/finassist/bridge/internal/store"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	client, err := financeapi.NewClient(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create API client: %v", err)
	}

	coord := coordinator.New(client, cfg.API, logger)

	// Optional side channels register as refresh listeners.
	if cfg.Redis.Enabled() {
		snapStore := store.NewSnapshotStore(cfg.Redis, logger)
		defer snapStore.Close()
		coord.AddListener(snapStore.Listener())
		reportMirrorAge(snapStore, logger)
	}
	if cfg.Kafka.Enabled() {
		publisher := publish.NewPublisher(cfg.Kafka, logger)
		defer publisher.Close()
		coord.AddListener(publisher.Listener())
	}
	if cfg.SMTP.Enabled() {
		notifier := notify.NewNotifier(cfg.SMTP, logger)
		coord.AddListener(notifier.Notify)
	}

	// Reject bad configuration before committing to the schedule.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := coord.ValidateInput(ctx); err != nil {
		logger.Fatalf("Upstream validation failed: %v", err)
	}
	if err := coord.Refresh(ctx); err != nil {
		logger.Fatalf("Initial refresh failed: %v", err)
	}

	// Periodic refresh; a still-running cycle skips the next tick.
	interval := cfg.API.RefreshInterval()
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := coord.Refresh(ctx); err != nil {
			logger.Errorf("Scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("Failed to schedule refresh: %v", err)
	}
	scheduler.Start()
	logger.Infof("Refresh scheduled every %s", interval)

	// Setup router
	sensors := entity.NewSensors(coord)
	calendars := entity.NewCalendars(coord, cfg.API)
	h := handler.NewHandler(coord, sensors, calendars, logger)
	r := mux.NewRouter()
	h.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	cronCtx := scheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	<-cronCtx.Done()
}

// reportMirrorAge logs how stale the mirrored snapshot from the previous
// run is, if one exists.
func reportMirrorAge(s *store.SnapshotStore, logger *logrus.Logger) {
	snap, err := s.Load(context.Background())
	if err != nil {
		logger.Warnf("Could not read mirrored snapshot: %v", err)
		return
	}
	if snap == nil {
		return
	}
	logger.Infof("Found mirrored snapshot from previous run, age %s",
		time.Since(snap.LastUpdated).Round(time.Second))
}
