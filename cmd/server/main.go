package main

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"energy_manager/internal/config"
	"energy_manager/internal/db"
	"energy_manager/internal/device"
	"energy_manager/internal/energy"
	"energy_manager/internal/httpapi"
	"energy_manager/internal/logging"
	"energy_manager/internal/publish"
	"energy_manager/internal/simulator"
	"energy_manager/internal/store"
	"energy_manager/internal/store/postgres"
	"energy_manager/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, logFile := logging.Init(cfg.LogPath)
	if logFile != nil {
		defer logFile.Close()
	}

	// Postgres when a DSN is configured, otherwise everything in memory.
	var st store.Store
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("open database", "err", err)
			os.Exit(1)
		}
		defer sqlDB.Close()
		st = postgres.New(sqlDB)
		logger.Info("using postgres store")
	} else {
		st = store.NewMemory()
		logger.Info("using in-memory store")
	}

	engine := simulator.New(st, logger)
	engine.SetTickDuration(cfg.TickPeriod())
	if cfg.TickSeed != 0 {
		seed := uint64(cfg.TickSeed)
		engine.SetRNG(rand.New(rand.NewPCG(seed, seed)))
		logger.Info("simulation rng seeded", "seed", cfg.TickSeed)
	}

	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		pub := publish.NewKafka(brokers, cfg.TelemetryTopic, logger)
		defer pub.Close()
		engine.SetPublisher(pub)
		logger.Info("kafka publishing enabled", "brokers", brokers, "topic", cfg.TelemetryTopic)
	}

	api := &httpapi.API{
		Devices:   device.NewService(st),
		Energy:    energy.NewService(st),
		Telemetry: telemetry.NewService(st, st),
		Engine:    engine,
		Log:       logger,
	}
	router := httpapi.NewRouter(api)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduler: one tick per interval for as long as the server runs.
	go engine.Run(ctx, cfg.TickPeriod())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, router)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr, "tick_interval", cfg.TickPeriod().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
