package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/smartmechanic/internal/api/gemini"
	"github.com/langchou/smartmechanic/internal/api/handlers"
	"github.com/langchou/smartmechanic/internal/config"
	"github.com/langchou/smartmechanic/internal/metrics"
	"github.com/langchou/smartmechanic/internal/middleware"
	"github.com/langchou/smartmechanic/internal/repository"
	"github.com/langchou/smartmechanic/internal/service"
	"github.com/langchou/smartmechanic/internal/storage"
	"github.com/langchou/smartmechanic/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting Smart Mechanic",
		zap.String("port", cfg.ServerPort),
		zap.String("storage", cfg.StorageBackend),
	)

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 打开存储
	kv, err := openKV(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer kv.Close()
	store := storage.New(kv, logger.Named("storage"))

	// 指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 创建 Gemini 客户端（未配置密钥时诊断接口返回 503）
	var diagnoser service.Diagnoser
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger.Named("gemini"))
		if err != nil {
			logger.Fatal("Failed to create Gemini client", zap.Error(err))
		}
		diagnoser = client
		logger.Info("Gemini client ready", zap.String("model", client.Model()))
	} else {
		logger.Warn("GEMINI_API_KEY not set, diagnosis and chat are disabled")
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger.Named("ws"))
	go wsHub.Run(ctx)
	m.RegisterClientGauge(reg, wsHub.ClientCount)

	// 创建会话服务
	session := service.NewSessionService(
		logger.Named("session"),
		store,
		diagnoser,
		wsHub,
		m,
		service.Options{
			GiftRefreshInterval: cfg.GiftRefreshInterval,
			BcryptCost:          cfg.BcryptCost,
		},
	)
	if err := session.Start(ctx); err != nil {
		logger.Fatal("Failed to start session service", zap.Error(err))
	}
	wsHub.SetInitDataProvider(session.InitData)

	// AI 接口限流
	limiter := middleware.NewRateLimiter(cfg.AIRateLimit, time.Minute, cfg.AIRateBurst, m)
	go limiter.Cleanup(ctx.Done())

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.Metrics(m))

	// 注册路由
	handler := handlers.NewHandler(logger.Named("http"), session, wsHub)
	handler.RegisterRoutes(router, limiter.Middleware())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 停止服务
	session.Stop()
	cancel()

	logger.Info("Server exited")
}

// openKV 按配置打开存储后端
func openKV(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.KV, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// 执行数据库迁移
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database migrated successfully")
		return repository.NewKVRepository(db, cfg.DeviceID), nil
	case config.BackendRedis:
		return storage.NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "sm:"+cfg.DeviceID+":")
	case config.BackendMemory:
		logger.Warn("Using in-memory storage, state is lost on restart")
		return storage.NewMemoryKV(), nil
	default:
		return storage.NewSQLiteKV(ctx, cfg.SQLitePath)
	}
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
