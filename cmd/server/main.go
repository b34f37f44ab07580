// Package main runs the scanpay API server: QR interpretation, the audited
// transaction store, beneficiary mappings and payout reconciliation.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scanpay/internal/config"
	"scanpay/internal/handlers"
	"scanpay/internal/logger"
	"scanpay/internal/metrics"
	"scanpay/internal/middleware"
	"scanpay/internal/repositories"
	"scanpay/internal/repositories/cache"
	"scanpay/internal/routes"
	"scanpay/internal/services/notification"
	"scanpay/internal/services/payout"
	"scanpay/internal/services/qr"
	"scanpay/internal/services/reconcile"
	"scanpay/internal/utils/httpclient"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	cacheTTL       = 10 * time.Minute
	beneficiaryTTL = time.Hour
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log := logger.NewZapLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	db, err := repositories.InitDB(cfg)
	if err != nil {
		log.Error("database unavailable", map[string]any{"error": err})
		os.Exit(1)
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn("failed to close database", map[string]any{"error": err})
		}
	}()
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("database handle unavailable", map[string]any{"error": err})
		os.Exit(1)
	}

	rdb, err := repositories.InitRedis(ctx, repositories.NewRedisConfig(cfg))
	if err != nil {
		log.Error("redis unavailable", map[string]any{"error": err})
		os.Exit(1)
	}
	cacheService := cache.NewCacheService(rdb, cacheTTL)
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.Warn("failed to close redis", map[string]any{"error": err})
		}
	}()

	txRepo := repositories.NewTransactionRepository(db)
	benRepo := repositories.NewBeneficiaryRepository(db)
	resolver := repositories.NewBeneficiaryResolver(benRepo, cacheService, beneficiaryTTL, log)

	payoutClient := payout.NewHTTPClient(httpclient.New("payout", cfg.PayoutAPIURL, cfg.HTTPTimeout,
		httpclient.WithHeader("X-Api-Key", cfg.PayoutAPIKey),
		httpclient.WithMetrics(rec),
	))

	var publisher notification.Publisher
	if cfg.PubNubPublishKey != "" {
		publisher = notification.NewPubNubPublisher(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubUserID)
	} else {
		log.Warn("PUBNUB_PUBLISH_KEY not set, merchant notifications disabled", nil)
	}
	notifier := notification.NewService(publisher, log)

	reconciler := reconcile.New(txRepo, payoutClient, resolver, notifier, log, rec)
	if cfg.ReconcileInterval > 0 {
		go reconciler.Start(ctx, cfg.ReconcileInterval, reconcile.DefaultBatchSize)
		log.Info("periodic reconciliation enabled", map[string]any{"interval": cfg.ReconcileInterval.String()})
	}

	h := routes.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": sqlDB.PingContext,
			"redis":    cacheService.HealthCheck,
		}),
		QR:             handlers.NewQRHandler(qr.NewService(log, rec)),
		Transactions:   handlers.NewTransactionHandler(txRepo, notifier, log),
		Beneficiaries:  handlers.NewBeneficiaryHandler(benRepo, resolver, payoutClient, log),
		Reconciliation: handlers.NewReconciliationHandler(reconciler, log),
		Metrics:        adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	}

	app := fiber.New(fiber.Config{AppName: "scanpay"})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, h, middleware.NewAuthMiddleware(cfg.JWTSecret, log))

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn("shutdown did not finish cleanly", map[string]any{"error": err})
		}
	}()

	log.Info("server starting", map[string]any{"port": cfg.Port, "env": cfg.Environment})
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", map[string]any{"error": err})
	}
}
