package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simonexlue/tradelens/internal/ai"
	"github.com/simonexlue/tradelens/internal/auth"
	"github.com/simonexlue/tradelens/internal/cache"
	"github.com/simonexlue/tradelens/internal/config"
	cronrunner "github.com/simonexlue/tradelens/internal/cron"
	"github.com/simonexlue/tradelens/internal/db"
	"github.com/simonexlue/tradelens/internal/handler"
	"github.com/simonexlue/tradelens/internal/logger"
	gormrepository "github.com/simonexlue/tradelens/internal/repository/gorm"
	"github.com/simonexlue/tradelens/internal/service"
	"github.com/simonexlue/tradelens/internal/storage"
)

func main() {
	cfgPath := os.Getenv("TL_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("TL_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var keyCache cache.Store
	if strings.EqualFold(cfg.Cache.Backend, "redis") {
		keyCache = cache.NewRedisStore(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
	} else {
		keyCache = cache.NewMemoryStore()
	}
	verifier := auth.NewSupabaseVerifier(cfg.Auth, keyCache)

	objectStore, err := storage.NewS3Store(ctx, cfg.S3)
	if err != nil {
		logger.Fatal("s3 setup failed", zap.Error(err))
	}
	analyzer := ai.NewClient(cfg.AI)

	store := gormrepository.New(dbConn.Gorm)
	tradeSvc := service.NewTradeService(store, objectStore, logger)
	querySvc := service.NewTradeQueryService(store, cfg.Listing)
	calendarSvc := service.NewCalendarService(store)
	statsSvc := service.NewStatsService(store)
	importSvc := service.NewImportService(store, logger)
	imageSvc := service.NewImageService(store, objectStore, cfg.S3, cfg.Upload, logger)
	analysisSvc := service.NewAnalysisService(store, objectStore, analyzer, analyzer.Model(), logger)
	reconcileSvc := service.NewReconcileService(store, objectStore, logger)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)

	engine.Use(auth.Middleware(verifier))

	tradeHandler := &handler.TradeHandler{
		Trades:   tradeSvc,
		Query:    querySvc,
		Calendar: calendarSvc,
		Stats:    statsSvc,
		Importer: importSvc,
		Images:   imageSvc,
		Analyses: analysisSvc,
	}
	tradeHandler.Register(engine)
	imageHandler := &handler.ImageHandler{Images: imageSvc}
	imageHandler.Register(engine)
	accountHandler := &handler.AccountHandler{Accounts: service.NewAccountService(store)}
	accountHandler.Register(engine)

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err := cronRunner.Add(cfg.Cron.Reconcile, func(ctx context.Context) {
			if err := reconcileSvc.Run(ctx); err != nil {
				logger.Warn("reconcile sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register reconcile failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(origin), "/")] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[strings.TrimRight(origin, "/")]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
