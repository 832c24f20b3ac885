package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appbilling "github.com/backoffice/backend/internal/application/billing"
	infraactivity "github.com/backoffice/backend/internal/infrastructure/activity"
	"github.com/backoffice/backend/internal/infrastructure/cache"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/backoffice/backend/internal/infrastructure/logger"
	"github.com/backoffice/backend/internal/infrastructure/notification"
	"github.com/backoffice/backend/internal/infrastructure/payment"
	"github.com/backoffice/backend/internal/infrastructure/persistence"
	"github.com/backoffice/backend/internal/infrastructure/webhook"
	"github.com/backoffice/backend/internal/interfaces/http/handler"
	"github.com/backoffice/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting back office backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	paymentRepo := persistence.NewGormGatewayPaymentRepository(db.DB, log)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB, log)
	subscriptionRepo := persistence.NewGormPlanSubscriptionRepository(db.DB, log)
	providerRepo := persistence.NewGormProviderRepository(db.DB, log)
	customerRepo := persistence.NewGormCustomerRepository(db.DB, log)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB, log)

	// Replay store: Redis in production, in-memory fallback elsewhere
	replayFactory := cache.NewReplayStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	replayStore, err := replayFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create replay store", zap.Error(err))
	}
	defer func() {
		if err := replayStore.Close(); err != nil {
			log.Error("Error closing replay store", zap.Error(err))
		}
	}()

	// Async activity recorder
	recorder := infraactivity.NewGormRecorder(db.DB, log, cfg.Activity.BufferSize, cfg.Activity.FlushTimeout)
	defer recorder.Close()

	// Payment gateway client
	gatewayClient, err := payment.NewClient(&payment.Config{
		AccessToken: cfg.Gateway.AccessToken,
		BaseURL:     cfg.Gateway.BaseURL,
		Timeout:     cfg.Gateway.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create gateway client", zap.Error(err))
	}

	reconciler := appbilling.NewReconcileService(
		paymentRepo,
		invoiceRepo,
		subscriptionRepo,
		recorder,
		notification.NewLogNotifier(providerRepo, customerRepo, invoiceRepo, log),
		log,
		cfg.Webhook.ReconcileTimeout,
	)

	verifier := webhook.ForEnvironment(cfg.App.Env, cfg.Webhook.Secret)
	if _, allowAll := verifier.(webhook.AllowAllVerifier); allowAll {
		log.Warn("Webhook signature verification disabled, configure webhook.secret before exposing this service")
	}

	webhookHandler := handler.NewWebhookHandler(
		verifier,
		replayStore,
		gatewayClient,
		reconciler,
		cfg.Webhook,
		log,
	)
	systemHandler := handler.NewSystemHandler(db.DB, categoryRepo)

	engine := router.NewEngine(cfg, log)
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	r := router.NewRouter(engine)
	r.Register(webhookHandler).Register(systemHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
