package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/glucolog/glucolog-api/internal/config"
	"github.com/glucolog/glucolog-api/internal/email"
	"github.com/glucolog/glucolog-api/internal/repository/postgres"
	inventoryService "github.com/glucolog/glucolog-api/internal/service/inventory"
	reminderService "github.com/glucolog/glucolog-api/internal/service/reminder"
	syncService "github.com/glucolog/glucolog-api/internal/service/sync"
	"github.com/glucolog/glucolog-api/internal/store/localstore"
	"github.com/glucolog/glucolog-api/internal/worker"
	"github.com/glucolog/glucolog-api/pkg/logger"
	"github.com/glucolog/glucolog-api/pkg/messaging/redis"
	"github.com/glucolog/glucolog-api/pkg/metrics"
)

// workerEnv is the environment-driven slice of configuration the poller needs
// beyond the shared YAML file.
type workerEnv struct {
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
	HealthAddr   string        `envconfig:"HEALTH_ADDR" default:":8081"`
}

func setupHealthCheck(addr string, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			appLogger.Error(err, "health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	_ = godotenv.Load()

	var env workerEnv
	if err := envconfig.Process("worker", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to process environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(nil)
	appMetrics := metrics.New("glucolog_worker")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	store, err := localstore.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: time.Second,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	userRepo := postgres.NewUserRepository(db)
	recordRepo := postgres.NewGlucoseRecordRepository(db)
	alertRepo := postgres.NewAlertRepository(db)

	syncSvc := syncService.NewService(store, userRepo, recordRepo, alertRepo, appLogger, appMetrics)
	reminderSvc := reminderService.NewService(store, appLogger, appMetrics)
	inventorySvc := inventoryService.NewService(store, syncSvc, appLogger)

	emailSvc := email.NewSMTPService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	pollInterval := env.PollInterval
	if cfg.Worker.PollIntervalSeconds > 0 {
		pollInterval = cfg.Worker.PollInterval()
	}

	poller := worker.NewPoller(
		reminderSvc,
		inventorySvc,
		userRepo,
		broker,
		emailSvc,
		worker.PollerConfig{PollInterval: pollInterval},
		appLogger,
		appMetrics,
	)

	setupHealthCheck(env.HealthAddr, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("shutting down...")
		cancel()
	}()

	poller.Start(ctx)
}
