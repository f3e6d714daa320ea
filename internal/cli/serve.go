package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/ledgerpane/ledgerpane/internal/auth"
	"github.com/ledgerpane/ledgerpane/internal/config"
	"github.com/ledgerpane/ledgerpane/internal/handlers"
	"github.com/ledgerpane/ledgerpane/internal/logging"
	"github.com/ledgerpane/ledgerpane/internal/messaging/nats"
	"github.com/ledgerpane/ledgerpane/internal/models"
	"github.com/ledgerpane/ledgerpane/internal/repository"
	"github.com/ledgerpane/ledgerpane/internal/server"
	"github.com/ledgerpane/ledgerpane/internal/stats"
	"github.com/ledgerpane/ledgerpane/internal/stream"
	"github.com/ledgerpane/ledgerpane/internal/timeutil"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feed service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	connString := cfg.Database.Postgres.ConnString()

	logger.Info("running database migrations")
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		return fmt.Errorf("initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	repo, err := repository.NewPostgresRepository(cmd.Context(), connString)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()

	broker := stream.NewBroker(cfg.Feed.LiveBufferSize, logger)

	var statsClient *stats.Client
	if cfg.Redis.Enabled {
		statsClient, err = stats.NewClient(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer statsClient.Close()

		sc := statsClient
		broker.OnEvent = func(e models.Event) {
			go func() {
				occurred, ok := timeutil.ParseTimestamp(e.OccurredAt)
				if !ok {
					occurred = time.Now()
				}
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := sc.RecordEvent(ctx, e.TenantID, e.ID, occurred); err != nil {
					logger.Warn("failed to record event stats",
						logging.EventID(e.ID), logging.Error(err))
				}
			}()
		}
	}

	if cfg.NATS.Enabled {
		natsCfg := nats.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.MaxReconnects = cfg.NATS.MaxReconnects
		natsCfg.ReconnectWait = cfg.NATS.ReconnectWait

		bus, err := nats.NewClient(natsCfg)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer bus.Drain()

		if err := broker.Start(bus); err != nil {
			return fmt.Errorf("subscribe to events: %w", err)
		}
		defer broker.Stop()
	}

	var mw *auth.Middleware
	if cfg.Auth.JWTSecret != "" {
		mw = auth.NewMiddleware(auth.NewVerifier(cfg.Auth.JWTSecret))
	} else {
		logger.Warn("auth.jwt_secret not set, API is unauthenticated")
	}

	var statsReader handlers.StatsReader
	if statsClient != nil {
		statsReader = statsClient
	}

	h := handlers.NewHandler(repo, broker, statsReader, handlers.PageLimits{
		Default: cfg.Feed.DefaultPageSize,
		Max:     cfg.Feed.MaxPageSize,
	}, logger)

	router := server.NewRouter(server.RouterConfig{
		Handler:        h,
		AuthMiddleware: mw,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// No WriteTimeout: the SSE stream endpoint holds connections open.
	}

	go func() {
		logger.Info("feed service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", logging.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ReadTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
