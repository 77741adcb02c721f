package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comment-tree-go/internal/config"
	infraES "comment-tree-go/internal/infra/elasticsearch"
	infraKafka "comment-tree-go/internal/infra/kafka"
	"comment-tree-go/internal/service"
	"comment-tree-go/pkg/logger"

	"go.uber.org/zap"
)

// 评论索引 worker：消费评论事件，同步到 Elasticsearch
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	es, err := infraES.Init(&cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to init elasticsearch", zap.Error(err))
	}

	index := infraES.NewCommentIndex(es, cfg.Elasticsearch.CommentsIndex())
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := index.EnsureIndex(initCtx); err != nil {
		initCancel()
		logger.Fatal("Failed to ensure comments index", zap.Error(err))
	}
	initCancel()

	indexer := service.NewIndexerService(index)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("Comment index worker started",
		zap.String("topic", cfg.Kafka.CommentEventsTopic()),
		zap.String("group", cfg.Kafka.GroupID),
		zap.Strings("brokers", cfg.Kafka.Brokers),
	)

	infraKafka.StartCommentEventConsumer(
		ctx,
		cfg.Kafka.Brokers,
		cfg.Kafka.CommentEventsTopic(),
		cfg.Kafka.GroupID,
		indexer.HandleEvent,
	)
}
