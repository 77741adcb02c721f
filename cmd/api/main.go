package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comment-tree-go/internal/api/handler"
	"comment-tree-go/internal/api/router"
	"comment-tree-go/internal/config"
	"comment-tree-go/internal/infra/database"
	infraES "comment-tree-go/internal/infra/elasticsearch"
	infraKafka "comment-tree-go/internal/infra/kafka"
	infraMinio "comment-tree-go/internal/infra/minio"
	infraRedis "comment-tree-go/internal/infra/redis"
	"comment-tree-go/internal/position"
	"comment-tree-go/internal/repository"
	"comment-tree-go/internal/service"
	"comment-tree-go/pkg/logger"

	_ "comment-tree-go/api/openapi"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title Comment Tree API
// @version 1.0
// @description 基于物化路径的帖子评论树服务
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host 127.0.0.1:8000
// @BasePath /api/v1

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// 加载配置文件
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 初始化日志系统
	if err := logger.Init(
		cfg.Log.Level,
		cfg.Log.Format,
		cfg.Log.Output,
		cfg.Log.FilePath,
	); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Open(&cfg.Database, cfg.App.Mode == gin.DebugMode)
	if err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	// 初始化Redis（评论数缓存；redis 作用域锁依赖它）
	var (
		counts service.CountCache
		rdb    redis.UniversalClient
	)
	if client, err := infraRedis.NewClient(&cfg.Redis); err != nil {
		if cfg.Comment.LockBackend == "redis" {
			logger.Fatal("Failed to init redis", zap.Error(err))
		}
		logger.Warn("Redis init failed, count cache disabled", zap.Error(err))
	} else {
		defer client.Close()
		rdb = client
		counts = infraRedis.NewCountCache(client)
	}

	locker, err := position.NewLocker(cfg.Comment.LockBackend, cfg.Comment.LockTimeoutDuration(), rdb)
	if err != nil {
		logger.Fatal("Failed to init scope locker", zap.Error(err))
	}

	// 初始化Kafka生产者
	producer := infraKafka.NewEventProducer(&cfg.Kafka)
	defer producer.Close()

	// 初始化 Elasticsearch（可选，失败则搜索降级到 DB）
	var index service.CommentIndex
	if es, err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Warn("Elasticsearch init failed, search will fallback to DB", zap.Error(err))
	} else {
		commentIndex := infraES.NewCommentIndex(es, cfg.Elasticsearch.CommentsIndex())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := commentIndex.EnsureIndex(ctx); err != nil {
			logger.Warn("Elasticsearch index init failed", zap.Error(err))
		}
		cancel()
		index = commentIndex
	}

	// 初始化MinIO（可选，失败则导出接口不可用）
	var exportService *service.ExportService
	commentRepo := repository.NewCommentRepository(db)
	if mc, err := infraMinio.Init(&cfg.MinIO); err != nil {
		logger.Warn("MinIO init failed, export disabled", zap.Error(err))
	} else {
		exportService = service.NewExportService(commentRepo, infraMinio.NewExportStore(mc, cfg.MinIO.ExportBucket))
	}

	// 初始化依赖（Repository -> Service -> Handler）
	allocator := position.NewAllocator(db, locker)
	commentService := service.NewCommentService(commentRepo, allocator, cfg.Comment, producer, counts)
	searchService := service.NewSearchService(commentRepo, index)

	commentHandler := handler.NewCommentHandler(commentService, exportService)
	searchHandler := handler.NewSearchHandler(searchService)

	r := router.New(cfg.App.Mode)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s API", cfg.App.Name),
			"version": cfg.App.Version,
			"mode":    cfg.App.Mode,
			"docs":    "/swagger/index.html",
		})
	})

	// Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册业务路由
	router.Setup(r, commentHandler, searchHandler)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
		zap.String("lock_backend", locker.Name()),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
