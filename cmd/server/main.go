package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bitfantasy/banyan/internal/clock"
	"github.com/bitfantasy/banyan/internal/config"
	"github.com/bitfantasy/banyan/internal/entity"
	"github.com/bitfantasy/banyan/internal/handler"
	"github.com/bitfantasy/banyan/internal/middleware"
	"github.com/bitfantasy/banyan/internal/repository"
	"github.com/bitfantasy/banyan/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// .env 仅本地开发用，不存在时忽略
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting banyan service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 初始化对象存储，不可用时报价单归档被跳过
	minioClient, err := initMinIO(cfg.MinIO)
	if err != nil {
		zapLogger.Warn("MinIO unavailable, price sheet archiving disabled", zap.Error(err))
		minioClient = nil
	}

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, minioClient, cfg, clock.Default(), zapLogger)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initMinIO(cfg config.MinIOConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is not configured")
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 报价单
		quotations := v1.Group("/quotations")
		{
			quotations.POST("/configure-project", h.Quotation.ConfigureProject)
			quotations.GET("/:id", h.Quotation.Get)
			quotations.GET("/by-project/:projectId", h.Quotation.GetByProject)
			quotations.GET("/:id/workers", h.Quotation.Workers)
			quotations.POST("/:id/deal", h.Quotation.Deal)
			quotations.PUT("/:id/discount", h.Quotation.ApplyDiscount)
		}
		v1.GET("/worker-prices", h.Quotation.WorkerPrices)

		// 领料台账
		fulfillments := v1.Group("/fulfillments")
		{
			fulfillments.POST("", h.Fulfillment.Create)
			fulfillments.GET("", h.Fulfillment.List)
			fulfillments.GET("/:id", h.Fulfillment.Get)
			fulfillments.PUT("/:id", h.Fulfillment.Update)
			fulfillments.DELETE("/:id", h.Fulfillment.Delete)
			fulfillments.GET("/remaining/:detailId", h.Fulfillment.Remaining)
		}

		// 供应商报价单
		priceSheets := v1.Group("/price-sheets")
		{
			priceSheets.POST("/validate", h.PriceSheet.Validate)
			priceSheets.POST("/upload", h.PriceSheet.Upload)
			priceSheets.POST("/error-workbook", h.PriceSheet.ErrorWorkbook)
			priceSheets.GET("/template", h.PriceSheet.Template)
			priceSheets.GET("", h.PriceSheet.ListByMonth)
			priceSheets.GET("/:id", h.PriceSheet.Get)
			priceSheets.DELETE("/:id", h.PriceSheet.Delete)
		}

		// 库存
		inventory := v1.Group("/inventory")
		{
			inventory.POST("/import", h.Inventory.Import)
			inventory.GET("/history/:materialId", h.Inventory.History)
		}

		// 物料与出库价
		materials := v1.Group("/materials")
		{
			materials.GET("", h.Material.List)
			materials.POST("", h.Material.Create)
			materials.GET("/:id", h.Material.Get)
			materials.POST("/:id/export-prices", h.Material.AddExportPrice)
			materials.GET("/:id/export-prices", h.Material.PriceHistory)
			materials.GET("/:id/export-prices/latest", h.Material.LatestPrice)
		}
	}
}
