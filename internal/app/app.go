package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shotme/tonight/internal/config"
	"github.com/shotme/tonight/internal/postgres"
	"github.com/shotme/tonight/internal/queue"
	"github.com/shotme/tonight/internal/redis"
	postgresrepo "github.com/shotme/tonight/internal/repository/postgres"
	redisrepo "github.com/shotme/tonight/internal/repository/redis"
	"github.com/shotme/tonight/internal/service"
	"github.com/shotme/tonight/internal/service/presence"
	httpgin "github.com/shotme/tonight/internal/transport/http/gin"
	"github.com/shotme/tonight/internal/window"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	broker     *queue.Publisher
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Broker fan-out is optional; without AMQP_URL the service runs with
	// redis pub/sub only.
	var broker *queue.Publisher
	if cfg.Broker.AMQPURL != "" {
		broker, err = queue.NewPublisher(cfg.Broker.AMQPURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize broker: %w", err)
		}
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewFeedPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, broker, logger, service.Config{
		Presence: presence.Config{
			Window: window.Policy{Pre: cfg.Window.Pre, Post: cfg.Window.Post},
		},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, logger, httpgin.RouterConfig{
		JWTSecret: cfg.Auth.JWTSecret,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		broker: broker,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := a.httpServer.Shutdown(ctx)
		a.broker.Close()
		return err
	})

	return g.Wait()
}
