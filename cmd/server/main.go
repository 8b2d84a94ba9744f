package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoPolymarket/polyagent/internal/clob"
	"github.com/GoPolymarket/polyagent/internal/config"
	"github.com/GoPolymarket/polyagent/internal/handler"
	"github.com/GoPolymarket/polyagent/internal/middleware"
	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
	"github.com/GoPolymarket/polyagent/internal/repository"
	"github.com/GoPolymarket/polyagent/internal/service"
	"github.com/GoPolymarket/polyagent/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// Daily usage persistence: Redis when configured, memory otherwise.
	var usageStore service.UsageStore
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(&cfg.Redis)
		if err == nil {
			logger.Info("connected to redis", "addr", cfg.Redis.Addr)
			usageStore = repository.NewRedisUsageRepo(redisClient)
		} else {
			logger.Error("redis unavailable, daily limits fall back to memory", "error", err)
		}
	}
	if usageStore == nil {
		usageStore = service.NewMemoryUsageStore()
	}

	// Audit persistence: Postgres when configured, file-only otherwise.
	var auditRepo service.AuditRepo
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg.Database.DSN)
		if err == nil {
			logger.Info("connected to postgres")
			auditRepo = repository.NewPostgresAuditRepo(db)
		} else {
			logger.Error("postgres unavailable, audit logs will be file-only", "error", err)
		}
	}
	auditSvc, err := service.NewAuditService(cfg.Audit.Dir, auditRepo)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	// Core services.
	clobClient := clob.NewClient(cfg.CLOB.BaseURL)
	validator := service.NewValidator(&cfg.Trading)
	metadata := service.NewMetadataResolver(clobClient, time.Duration(cfg.Metadata.TTLSeconds)*time.Second)
	riskEngine := service.NewRiskEngine(usageStore, &cfg.Trading)
	session := service.NewSession(cfg.HasPrivateKey(), service.NewLiveHandshake(cfg, clobClient))
	gatewaySvc := service.NewGatewayService(validator, metadata, riskEngine, session, cfg.Trading.DryRun)

	if cfg.Trading.DryRun {
		logger.Warn("dry-run mode enabled, no orders will reach the exchange")
	}

	// User fill stream needs pre-provisioned L2 credentials.
	var userStream *stream.UserStream
	if cfg.Stream.Enabled && cfg.HasL2Creds() {
		userStream = stream.NewUserStream(cfg.CLOB.WSURL, cfg.Creds.APIKey, cfg.Creds.APISecret, cfg.Creds.APIPassphrase)
		userStream.Start()
	} else if cfg.Stream.Enabled {
		logger.Warn("fill stream disabled: requires configured api credentials")
	}

	idempotencyStore := middleware.NewInMemIdempotencyStore(time.Hour)

	orderHandler := handler.NewOrderHandler(gatewaySvc)
	marketHandler := handler.NewMarketHandler(gatewaySvc)
	accountHandler := handler.NewAccountHandler(gatewaySvc, userStream)
	auditHandler := handler.NewAuditHandler(auditSvc)

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(auditSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"service":       "polyagent",
			"dry_run":       gatewaySvc.DryRun(),
			"panic_active":  gatewaySvc.PanicActive(),
			"session_state": gatewaySvc.SessionState(),
		})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg))
	v1.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))
	v1.Use(middleware.RateLimitMiddleware(cfg.Server.RateLimitQPS))
	v1.Use(middleware.IdempotencyMiddleware(idempotencyStore))
	{
		v1.POST("/orders", orderHandler.PlaceOrder)
		v1.GET("/orders", orderHandler.ListOrders)
		v1.DELETE("/orders", orderHandler.CancelAll)
		v1.POST("/orders/cancel", orderHandler.CancelBatch)
		v1.GET("/orders/:id", orderHandler.GetOrder)
		v1.DELETE("/orders/:id", orderHandler.CancelOrder)
		v1.DELETE("/panic", orderHandler.Panic)

		v1.GET("/markets/:token_id/params", marketHandler.Params)

		v1.GET("/balance-allowance", accountHandler.Balance)
		v1.GET("/fills", accountHandler.Fills)
		v1.POST("/auth/reset", accountHandler.ResetAuth)

		v1.GET("/audit", auditHandler.List)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("polyagent started", "port", cfg.Server.Port, "dry_run", cfg.Trading.DryRun)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	if userStream != nil {
		userStream.Stop()
	}
	auditSvc.Close()
}
