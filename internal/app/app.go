package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/auth"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/config"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/event"
	handler "github.com/hamadazam9636-png/ECOMMERCE-APP/internal/handler/http"
	pgrepo "github.com/hamadazam9636-png/ECOMMERCE-APP/internal/repository/postgres"
	redisrepo "github.com/hamadazam9636-png/ECOMMERCE-APP/internal/repository/redis"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/service"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/database"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/health"
	pkgkafka "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/kafka"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/middleware"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/tracing"
)

// ServiceName identifies this service in logs, metrics and traces.
const ServiceName = "storefront"

// slowQueryThreshold is the duration above which store calls are logged.
const slowQueryThreshold = 200 * time.Millisecond

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	database.SetSlowQueryLogging(slowQueryThreshold, logger)

	// Initialize Redis client (carts).
	rdb, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize PostgreSQL pool (wishlists) and bring the schema up to date.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, pgrepo.Migrations(), logger); err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("connected to PostgreSQL", slog.String("host", cfg.PostgresHost))

	database.RegisterPoolMetrics(pool, rdb, ServiceName)

	// Initialize Kafka producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	cartTTL := cfg.CartTTLDuration()
	cartRepo := redisrepo.NewCartRepository(rdb, cartTTL)
	wishlistRepo := pgrepo.NewWishlistRepository(pool)
	events := event.NewProducer(producer, logger)
	cartService := service.NewCartService(cartRepo, events, logger, cartTTL)
	wishlistService := service.NewWishlistService(wishlistRepo, events, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", cartRepo.Ping)
	healthHandler.Register("postgres", pool.Ping)
	healthHandler.Register("kafka", producer.Ping)

	// HTTP router.
	router := handler.NewRouter(cartService, wishlistService, healthHandler, identityConfig(cfg, logger), logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		pool:           pool,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// identityConfig verifies bearer tokens when a secret is configured and
// trusts the gateway's X-User-ID header otherwise.
func identityConfig(cfg *config.Config, logger *slog.Logger) middleware.IdentityConfig {
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, trusting X-User-ID header")
		return middleware.IdentityConfig{TrustUserHeader: true}
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 0)
	return middleware.IdentityConfig{Validate: jwtManager.TokenValidator()}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.Shutdown()
		return err
	}

	a.Shutdown()
	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	// Close Redis client.
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
}
