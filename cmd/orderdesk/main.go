package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/orderdesk/internal/application/datasync"
	appidentity "github.com/erp/orderdesk/internal/application/identity"
	"github.com/erp/orderdesk/internal/application/orderdraft"
	"github.com/erp/orderdesk/internal/domain/shared/valueobject"
	"github.com/erp/orderdesk/internal/infrastructure/cache"
	"github.com/erp/orderdesk/internal/infrastructure/config"
	"github.com/erp/orderdesk/internal/infrastructure/logger"
	"github.com/erp/orderdesk/internal/infrastructure/metrics"
	"github.com/erp/orderdesk/internal/infrastructure/persistence"
	"github.com/erp/orderdesk/internal/infrastructure/remote"
	"github.com/erp/orderdesk/internal/infrastructure/sampledata"
	"github.com/erp/orderdesk/internal/infrastructure/telemetry"
	"github.com/erp/orderdesk/internal/interfaces/http/handler"
	"github.com/erp/orderdesk/internal/interfaces/http/middleware"
	"github.com/erp/orderdesk/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	log.Info("Starting order desk",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("remote", cfg.Remote.BaseURL),
	)

	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log.Named("telemetry"))
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	tp.Install()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Client store: session tokens and, with cache.driver=sqlite, cached resources
	db, err := persistence.OpenSQLite(cfg.Store.Path, log)
	if err != nil {
		log.Fatal("Failed to open client store", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if tp.IsEnabled() {
		if err := telemetry.InstrumentDB(db, tp.Provider()); err != nil {
			log.Fatal("Failed to instrument client store", zap.Error(err))
		}
	}
	store, err := persistence.NewClientStore(db)
	if err != nil {
		log.Fatal("Failed to prepare client store", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	syncMetrics := metrics.NewSyncMetrics(reg)

	resourceCache, err := cache.NewFactory(cfg.Cache, cfg.Redis,
		cache.WithClientStore(store),
		cache.WithLogger(log),
	).Create()
	if err != nil {
		log.Fatal("Failed to create resource cache", zap.Error(err))
	}

	// The session service and the remote client reference each other:
	// the client reads tokens from the session, login goes through the client.
	var sessions *appidentity.SessionService
	client, err := remote.NewClient(remote.ClientConfig{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: cfg.Remote.Timeout,
		Retry: remote.RetryConfig{
			MaxRetries: cfg.Remote.MaxRetries,
			RetryDelay: cfg.Remote.RetryDelay,
		},
		RateLimitRPS:   cfg.Remote.RateLimitRPS,
		RateLimitBurst: cfg.Remote.RateLimitBurst,
	},
		remote.WithTokenSource(func(ctx context.Context) string { return sessions.Token(ctx) }),
		remote.WithUnauthorizedHandler(func(ctx context.Context) { sessions.HandleUnauthorized(ctx) }),
		remote.WithObserver(syncMetrics),
		remote.WithTracerProvider(tp.Provider()),
		remote.WithClientLogger(log.Named("remote")),
	)
	if err != nil {
		log.Fatal("Failed to create remote client", zap.Error(err))
	}
	api := remote.NewAPI(client, cfg.Remote.OrgID)

	sessions = appidentity.NewSessionService(api, persistence.NewSessionStore(store), log.Named("session"))
	if err := sessions.Restore(context.Background()); err != nil {
		log.Warn("Failed to restore session", zap.Error(err))
	}

	syncService := datasync.NewService(api, resourceCache,
		datasync.WithSamples(sampledata.Default(cfg.Remote.OrgID, time.Now())),
		datasync.WithMockTemplateID(cfg.Sync.MockDocumentTemplateID),
		datasync.WithMetrics(syncMetrics),
		datasync.WithLogger(log.Named("sync")),
	)

	draft, err := newDraft(cfg, api, log)
	if err != nil {
		log.Fatal("Invalid draft configuration", zap.Error(err))
	}

	engine := newEngine(cfg, log, reg, tp.Provider())

	base := handler.NewBaseHandler(cfg.Remote.LoginRedirect)
	system := handler.NewSystemHandler(cfg.App.Name, version, syncService)
	engine.GET("/health", system.Health)
	if cfg.HTTP.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(metrics.Handler(reg)))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	systemGroup := router.NewDomainGroup("system", "/system")
	systemGroup.GET("/info", system.GetSystemInfo)
	r.Register(systemGroup)
	for _, g := range router.Routes(router.Handlers{
		Draft: handler.NewDraftHandler(base, draft, syncService),
		Sync:  handler.NewSyncHandler(base, syncService, cfg.Sync.OrderPageSize, cfg.Sync.TemplatePageSize),
		Auth:  handler.NewAuthHandler(base, sessions),
	}) {
		r.Register(g)
	}
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

func newDraft(cfg *config.Config, api *remote.API, log *zap.Logger) (*orderdraft.Draft, error) {
	rates, err := cfg.Draft.ExchangeRateTable()
	if err != nil {
		return nil, err
	}
	currency, err := valueobject.ParseCurrency(cfg.Draft.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	return orderdraft.New(orderdraft.Config{
		OrgID:           cfg.Remote.OrgID,
		DefaultCurrency: currency,
		ExchangeRates:   rates,
	}, api, orderdraft.WithLogger(log.Named("draft"))), nil
}

func newEngine(cfg *config.Config, log *zap.Logger, reg prometheus.Registerer, provider trace.TracerProvider) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.App.Name,
		Enabled:     cfg.Telemetry.Enabled,
		Provider:    provider,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxUploadSize))
	if cfg.HTTP.MetricsEnabled {
		engine.Use(middleware.HTTPMetrics(reg))
	}
	return engine
}
