package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/iliyamo/intervention-decision-service/internal/assign"
	"github.com/iliyamo/intervention-decision-service/internal/config"
	"github.com/iliyamo/intervention-decision-service/internal/database"
	"github.com/iliyamo/intervention-decision-service/internal/handler"
	"github.com/iliyamo/intervention-decision-service/internal/logger"
	"github.com/iliyamo/intervention-decision-service/internal/middleware"
	"github.com/iliyamo/intervention-decision-service/internal/policy"
	"github.com/iliyamo/intervention-decision-service/internal/queue"
	"github.com/iliyamo/intervention-decision-service/internal/router"
	"github.com/iliyamo/intervention-decision-service/internal/service"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func seedSource(cfg config.Config) policy.SeedSource {
	if cfg.PolicySeed != nil {
		return policy.NewSequentialSeeds(*cfg.PolicySeed)
	}
	return policy.CryptoSeeds{}
}

func serve(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, dialect, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		return err
	}

	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Warn("redis unavailable; rate limiting and lookup cache disabled", "error", err)
	} else {
		defer rdb.Close()
	}

	var pub service.EventPublisher = service.NopPublisher{}
	if cfg.QueueEnabled {
		pub = &service.AMQPPublisher{URL: cfg.RabbitURL, Log: log.With("component", "publisher")}
		consumer := &queue.AuditConsumer{URL: cfg.RabbitURL, LogPath: cfg.AuditLogPath, Log: log.With("component", "audit-consumer")}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", "error", err)
			}
		}()
	}

	engine := assign.NewEngine(policy.RandomPolicy{}, seedSource(cfg))
	decisions := service.NewDecisionService(db, engine, cfg.ActionsPerDay, pub, log.With("component", "decisions"))
	h := handler.NewStudyHandler(
		service.NewRegistrationService(decisions.Users, log.With("component", "registration")),
		decisions,
		service.NewUploadService(db, cfg.ActionsPerDay, log.With("component", "upload")),
		log,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log.With("component", "http")))
	router.RegisterRoutes(e, db)
	router.RegisterStudy(e, h, router.StudyDeps{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.With("component", "ratelimit")),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "db", string(dialect), "actions_per_day", cfg.ActionsPerDay)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
