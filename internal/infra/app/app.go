package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/infra/config"
	"github.com/dkosarev/admincore/internal/infra/database"
	kafkainfra "github.com/dkosarev/admincore/internal/infra/kafka"
	"github.com/dkosarev/admincore/internal/infra/logger"
	"github.com/dkosarev/admincore/internal/infra/notify"
	redisinfra "github.com/dkosarev/admincore/internal/infra/redis"
	"github.com/dkosarev/admincore/internal/infra/security"
	"github.com/dkosarev/admincore/internal/infra/telemetry"
	postgresrepo "github.com/dkosarev/admincore/internal/repository/postgres"
	redisrepo "github.com/dkosarev/admincore/internal/repository/redis"
	"github.com/dkosarev/admincore/internal/transport/http/routes"
	"github.com/dkosarev/admincore/internal/usecase"
)

// Application holds the wired service graph and its lifecycle handles.
type Application struct {
	cfg     *config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	pool    *pgxpool.Pool
	redis   *redisinfra.Client
	tracing *telemetry.TracerProvider
	events  io.Closer
}

// New builds the full application from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracing *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracing, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	tokens, err := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	if cfg.Argon2.Memory > 0 {
		argonCfg := security.Argon2Config{
			Memory:      cfg.Argon2.Memory,
			Iterations:  cfg.Argon2.Iterations,
			Parallelism: cfg.Argon2.Parallelism,
			SaltLength:  cfg.Argon2.SaltLength,
			KeyLength:   cfg.Argon2.KeyLength,
		}
		if err := security.ConfigureArgon2(argonCfg); err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("configure argon2: %w", err)
		}
	}

	repos := postgresrepo.NewRepositories(pool)

	revocations := redisrepo.NewRevocationStore(redisClient.Client(), cfg.Redis.BlacklistPrefix)
	bypass := redisrepo.NewBypassStore(redisClient.Client(), cfg.Redis.WhitelistKey)
	online := redisrepo.NewOnlineStore(redisClient.Client(), cfg.Redis.OnlinePrefix)
	resetCodes := redisrepo.NewResetCodeStore(redisClient.Client(), cfg.Redis.ResetCodePrefix)
	rateLimits := redisrepo.NewRateLimitStore(redisClient.Client(), "ratelimit")

	var events port.EventPublisher
	var eventsCloser io.Closer
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := kafkainfra.NewPublisher(cfg.Kafka, log)
		if err != nil {
			log.Warn("kafka unavailable, using stub publisher", zap.Error(err))
			stub := kafkainfra.NewStubPublisher(log)
			events, eventsCloser = stub, stub
		} else {
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
			events, eventsCloser = publisher, publisher
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		stub := kafkainfra.NewStubPublisher(log)
		events, eventsCloser = stub, stub
	}

	validator := security.DefaultPasswordValidator()
	notifier := notify.NewLoggingNotifier(log)

	authService := usecase.NewAuthService(repos.Users, repos.Permissions, revocations, bypass, online, tokens, events, routes.PublicPaths, log)
	scopeService := usecase.NewScopeService(repos.Users)
	userService := usecase.NewUserService(repos.Users, scopeService, validator, events, log)
	roleService := usecase.NewRoleService(repos.Roles, events, log)
	permissionService := usecase.NewPermissionService(repos.Permissions)
	unitService := usecase.NewUnitService(repos.Units, repos.Users)
	bypassService := usecase.NewBypassService(bypass)
	sessionService := usecase.NewSessionService(online, revocations, tokens, events, log)
	resetService := usecase.NewPasswordResetService(repos.Users, resetCodes, notifier, userService, log)

	engine, err := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimits,
		Metrics:     prometheus.DefaultRegisterer,
		Database:    pool,
		Cache:       redisClient.Client(),
		Services: routes.ServiceSet{
			Auth:          authService,
			Users:         userService,
			Roles:         roleService,
			Permissions:   permissionService,
			Units:         unitService,
			Bypass:        bypassService,
			Sessions:      sessionService,
			PasswordReset: resetService,
		},
	})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("register routes: %w", err)
	}

	return &Application{
		cfg:     cfg,
		engine:  engine,
		logger:  log,
		pool:    pool,
		redis:   redisClient,
		tracing: tracing,
		events:  eventsCloser,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.events != nil {
			_ = a.events.Close()
		}
	}()
	defer func() {
		if a.tracing != nil {
			_ = a.tracing.Shutdown(context.Background())
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting admin API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
