package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ktrudeau/giftnest-backend/api/routes"
	"github.com/ktrudeau/giftnest-backend/internal/auth"
	"github.com/ktrudeau/giftnest-backend/internal/gifts"
	"github.com/ktrudeau/giftnest-backend/internal/localcache"
	"github.com/ktrudeau/giftnest-backend/internal/occasions"
	"github.com/ktrudeau/giftnest-backend/internal/orders"
	"github.com/ktrudeau/giftnest-backend/internal/recipients"
	"github.com/ktrudeau/giftnest-backend/internal/recommendations"
	"github.com/ktrudeau/giftnest-backend/internal/selection"
	"github.com/ktrudeau/giftnest-backend/internal/users"
	"github.com/ktrudeau/giftnest-backend/pkg/auth/session"
	"github.com/ktrudeau/giftnest-backend/pkg/config"
	"github.com/ktrudeau/giftnest-backend/pkg/db"
	"github.com/ktrudeau/giftnest-backend/pkg/instance"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
	"github.com/ktrudeau/giftnest-backend/pkg/metrics"
	"github.com/ktrudeau/giftnest-backend/pkg/migrate"
	"github.com/ktrudeau/giftnest-backend/pkg/oracle"
	"github.com/ktrudeau/giftnest-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	selectionMetrics := metrics.NewSelectionMetrics(registry)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	recipientRepo := recipients.NewRepository(dbClient.DB())
	recipientService, err := recipients.NewService(recipients.ServiceParams{
		RecipientRepo: recipientRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create recipient service", err)
		os.Exit(1)
	}

	occasionService, err := occasions.NewService(occasions.ServiceParams{
		OccasionRepo:  occasions.NewRepository(dbClient.DB()),
		RecipientRepo: recipientRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create occasion service", err)
		os.Exit(1)
	}

	giftService, err := gifts.NewService(gifts.ServiceParams{
		GiftRepo: gifts.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gift service", err)
		os.Exit(1)
	}

	orderEmitter, err := orders.NewEmitter(orders.EmitterParams{
		DB:      dbClient.DB(),
		Raw:     dbClient,
		Logger:  logg,
		Metrics: selectionMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order emitter", err)
		os.Exit(1)
	}

	adminOrders, err := orders.NewAdminService(orders.AdminServiceParams{
		DB: dbClient.DB(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin order service", err)
		os.Exit(1)
	}

	oracleClient, err := oracle.NewClient(cfg.Oracle.APIKey,
		oracle.WithBaseURL(cfg.Oracle.BaseURL),
		oracle.WithMaxAttempts(cfg.Oracle.MaxAttempts),
		oracle.WithHTTPClient(&http.Client{Timeout: cfg.Oracle.Timeout}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create oracle client", err)
		os.Exit(1)
	}

	recommendationStash, err := localcache.OpenShared(context.Background(), cfg.LocalCache.Dir, "recommendations", logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open recommendation stash", err)
		os.Exit(1)
	}

	recommendationService, err := recommendations.NewService(recommendations.ServiceParams{
		Oracle:     oracleClient,
		Cache:      redisClient,
		Local:      recommendationStash,
		Recipients: recipientService,
		Occasions:  occasionService,
		Gifts:      giftService,
		Logger:     logg,
		CacheTTL:   cfg.Oracle.CacheTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create recommendation service", err)
		os.Exit(1)
	}

	// With the remote store disabled the engine runs local-only and every
	// selection stays queued for a later sync.
	var remote selection.RemoteStore
	if cfg.FeatureFlags.RemoteEnabled {
		remote = giftService
	}
	selectionManager, err := selection.NewManager(selection.ManagerParams{
		CacheDir:   cfg.LocalCache.Dir,
		Remote:     remote,
		Orders:     orderEmitter,
		Recipients: recipientService,
		Occasions:  occasionService,
		Logger:     logg,
		Metrics:    selectionMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create selection manager", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Sessions:        sessionManager,
			AuthService:     authService,
			RegisterService: registerService,
			Recipients:      recipientService,
			Occasions:       occasionService,
			Recommendations: recommendationService,
			Selections:      selectionManager,
			AdminOrders:     adminOrders,
			MetricsGatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
