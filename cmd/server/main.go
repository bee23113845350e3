package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/survey-service/internal/cache"
	"github.com/SAP-F-2025/survey-service/internal/config"
	"github.com/SAP-F-2025/survey-service/internal/handlers"
	"github.com/SAP-F-2025/survey-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/survey-service/internal/services"
	"github.com/SAP-F-2025/survey-service/internal/utils"
	"github.com/SAP-F-2025/survey-service/internal/validator"
	"github.com/SAP-F-2025/survey-service/pkg"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := utils.NewLogger(stdout, cfg.LogLevel, cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Postgres ---
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	repo := postgres.NewRepository(db)
	defer repo.Close()
	logger.Info("Connected to database")

	// --- Redis (optional) ---
	var cacheService cache.CacheService
	rdb, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", "error", err)
	} else {
		defer rdb.Close()
		cacheService = cache.NewRedisCache(rdb, logger)
		logger.Info("Connected to redis")
	}

	// --- Events ---
	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(repo, cacheService, publisher, logger, validator.New(), cfg.SurveyCacheTTL)
	handlerManager := handlers.NewHandlerManager(serviceManager, handlers.RouterConfig{
		AllowedOrigins:  cfg.Origins(),
		OptionsDir:      cfg.OptionsDir,
		AnswerRateLimit: cfg.AnswerRateLimit,
		AnswerRateBurst: cfg.AnswerRateBurst,
	}, utils.NewSlogLogger(logger))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlerManager.NewRouter(),
	}

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		handlerManager.AnswerLimiter().Cleanup(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
