package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/time/rate"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/config"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/worker"
	"github.com/vasapolrittideah/scanner-auth/shared/auth"
	"github.com/vasapolrittideah/scanner-auth/shared/discovery"
	"github.com/vasapolrittideah/scanner-auth/shared/logger"
	"github.com/vasapolrittideah/scanner-auth/shared/mailer"
	"github.com/vasapolrittideah/scanner-auth/shared/middleware"
	"github.com/vasapolrittideah/scanner-auth/shared/provider"
	"github.com/vasapolrittideah/scanner-auth/shared/utilities"
	"github.com/vasapolrittideah/scanner-auth/shared/validation"
)

const startupTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logger.New("", "info")
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mongo client")
	}
	if err := mongoClient.Ping(startCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	db := mongoClient.Database(cfg.Mongo.Database)

	healthChecks := map[string]handler.HealthCheck{
		"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
	}

	var stateRepo repository.OAuthStateRepository
	var redisClient *redis.Client
	switch cfg.StateStore.Driver {
	case config.StateStoreRedis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(startCtx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		stateRepo = repository.NewOAuthStateRedisRepository(redisClient, cfg.StateStore.TTL)
	default:
		stateRepo = repository.NewOAuthStateMongoRepository(startCtx, log, db, cfg.StateStore.TTL)
	}

	userRepo := repository.NewUserMongoRepository(startCtx, log, db)
	identityRepo := repository.NewIdentityMongoRepository(startCtx, log, db)
	sessionRepo := repository.NewSessionMongoRepository(startCtx, log, db)

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer)
	providerClient := provider.NewClient(&http.Client{Timeout: cfg.HTTP.OAuthClientTimeout})

	sender := newMailSender(cfg, log)

	usecases := handler.Usecases{
		Auth:          usecase.NewAuthUsecase(identityRepo, sessionRepo, userRepo, jwtAuth, cfg, log),
		OAuth:         usecase.NewOAuthUsecase(stateRepo, providerClient, cfg, log),
		PasswordReset: usecase.NewPasswordResetUsecase(userRepo, jwtAuth, sender, cfg, log),
		User:          usecase.NewUserUsecase(userRepo, identityRepo, sessionRepo, log),
		Org:           usecase.NewEntityUsecase("org", repository.NewOrgMongoRepository(startCtx, log, db)),
		OrgType:       usecase.NewEntityUsecase("orgtype", repository.NewOrgTypeMongoRepository(startCtx, log, db)),
		Group:         usecase.NewEntityUsecase("group", repository.NewGroupMongoRepository(startCtx, log, db)),
		Privilege:     usecase.NewEntityUsecase("privilege", repository.NewPrivilegeMongoRepository(startCtx, log, db)),
	}

	if !usecase.GitHubProviderConfig(cfg.GitHub).Configured() {
		log.Info().Msg("github oauth is not configured")
	} else {
		log.Warn().Msg("github oauth exchange runs without state or pkce verification")
	}

	validator, err := validation.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create validator")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	reaper, err := worker.NewStateReaper(cfg.StateStore.ReapSchedule, stateRepo, m, log)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.StateStore.ReapSchedule).Msg("invalid reap schedule")
	}
	reaper.Start()

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.RateLimit.IdleTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup()
			case <-stopCleanup:
				return
			}
		}
	}()

	router := handler.NewRouter(usecases, handler.RouterOptions{
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		TrustedProxies:    cfg.HTTP.TrustedProxies,
		RateLimiter:       limiter,
		JWTAuth:           jwtAuth,
		AccessTokenSecret: cfg.Token.AccessTokenSecret,
		HealthChecks:      healthChecks,
	}, validator, m, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	healthServer := utilities.NewHealthServer(cfg.ServiceName)
	healthLis, err := net.Listen("tcp", cfg.HTTP.HealthAddress)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.HTTP.HealthAddress).Msg("failed to listen for health checks")
	}
	go func() {
		if err := healthServer.Serve(healthLis); err != nil {
			log.Error().Err(err).Msg("health server stopped")
		}
	}()

	var registrar *discovery.ConsulRegistrar
	if cfg.Consul.Enabled() {
		registrar, err = discovery.NewConsulRegistrar(cfg.Consul, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create consul registrar")
		}
		if err := registrar.Register(discovery.Registration{
			Name:          cfg.ServiceName,
			Address:       cfg.HTTP.Address,
			HealthAddress: cfg.HTTP.HealthAddress,
		}); err != nil {
			log.Fatal().Err(err).Msg("failed to register with consul")
		}
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Address).Msg("auth service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down auth service")

	if registrar != nil {
		if err := registrar.Deregister(); err != nil {
			log.Warn().Err(err).Msg("failed to deregister from consul")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}

	healthServer.Shutdown()
	reaper.Stop()
	close(stopCleanup)

	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := mongoClient.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("failed to disconnect from mongo")
	}

	log.Info().Msg("auth service stopped")
}

func newMailSender(cfg *config.AuthServiceConfig, log *zerolog.Logger) mailer.Sender {
	if !cfg.SMTP.Enabled() {
		log.Warn().Msg("SMTP_HOST is not set, outgoing mail is logged instead of sent")
		return mailer.NewLogSender(log)
	}

	m, err := mailer.NewMailer(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mailer")
	}
	return m
}
