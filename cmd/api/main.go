package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/glucolog/glucolog-api/internal/config"
	"github.com/glucolog/glucolog-api/internal/email"
	"github.com/glucolog/glucolog-api/internal/handler"
	alertHandler "github.com/glucolog/glucolog-api/internal/handler/alert"
	authHandler "github.com/glucolog/glucolog-api/internal/handler/auth"
	inventoryHandler "github.com/glucolog/glucolog-api/internal/handler/inventory"
	recordHandler "github.com/glucolog/glucolog-api/internal/handler/record"
	reminderHandler "github.com/glucolog/glucolog-api/internal/handler/reminder"
	syncHandler "github.com/glucolog/glucolog-api/internal/handler/syncdata"
	userHandler "github.com/glucolog/glucolog-api/internal/handler/user"
	"github.com/glucolog/glucolog-api/internal/middleware"
	"github.com/glucolog/glucolog-api/internal/repository/postgres"
	"github.com/glucolog/glucolog-api/internal/router"
	inventoryService "github.com/glucolog/glucolog-api/internal/service/inventory"
	recordService "github.com/glucolog/glucolog-api/internal/service/record"
	reminderService "github.com/glucolog/glucolog-api/internal/service/reminder"
	syncService "github.com/glucolog/glucolog-api/internal/service/sync"
	userService "github.com/glucolog/glucolog-api/internal/service/user"
	"github.com/glucolog/glucolog-api/internal/store/localstore"
	"github.com/glucolog/glucolog-api/pkg/auth"
	"github.com/glucolog/glucolog-api/pkg/logger"
	"github.com/glucolog/glucolog-api/pkg/metrics"
	"github.com/glucolog/glucolog-api/pkg/security"
	"github.com/glucolog/glucolog-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(nil)
	appMetrics := metrics.New("glucolog")

	if err := validator.RegisterCustom(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validations")
	}

	// Remote store
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Local store
	store, err := localstore.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	recordRepo := postgres.NewGlucoseRecordRepository(db)
	alertRepo := postgres.NewAlertRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	// Services
	syncSvc := syncService.NewService(store, userRepo, recordRepo, alertRepo, appLogger, appMetrics)
	reminderSvc := reminderService.NewService(store, appLogger, appMetrics)
	inventorySvc := inventoryService.NewService(store, syncSvc, appLogger)
	recordSvc := recordService.NewService(syncSvc, reminderSvc, inventorySvc, appLogger)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	emailSvc := email.NewSMTPService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	userSvc := userService.NewService(
		userRepo, paymentRepo, syncSvc, jwtSvc,
		security.NewBcryptHasher(0), emailSvc, appLogger,
	)

	// Fold a legacy-only data set into the primary key before serving.
	if migrated, err := syncSvc.MigrateLegacy(); err != nil {
		appLogger.Error(err, "legacy migration failed")
	} else if migrated {
		appLogger.Info("legacy data migrated to primary store")
	}

	authMiddleware := middleware.NewAuthMiddleware(userSvc)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(userSvc),
		userHandler.NewHandler(userSvc),
		recordHandler.NewHandler(recordSvc),
		inventoryHandler.NewHandler(inventorySvc),
		reminderHandler.NewHandler(reminderSvc, recordSvc),
		alertHandler.NewHandler(syncSvc),
		syncHandler.NewHandler(syncSvc),
		handler.NewHandler(db),
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.Server.RateLimit),
			RateBurst:     cfg.Server.RateBurst,
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "glucolog_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
