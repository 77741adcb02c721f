package elasticsearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"comment-tree-go/internal/config"
	"comment-tree-go/pkg/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// NewClient 创建 Elasticsearch 客户端（不做连通性检查）
func NewClient(hosts []string, transport http.RoundTripper) (*elasticsearch.Client, error) {
	addrs := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		if h != "" && !strings.HasPrefix(h, "http") {
			h = "http://" + h
		}
		if h != "" {
			addrs = append(addrs, h)
		}
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("elasticsearch hosts is empty")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     addrs,
		Transport:     transport,
		RetryOnStatus: []int{502, 503, 504},
		MaxRetries:    3,
		RetryBackoff:  func(i int) time.Duration { return time.Duration(i) * time.Second },
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return es, nil
}

// Init 初始化 Elasticsearch 客户端
func Init(cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	es, err := NewClient(cfg.Hosts, nil)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to ping elasticsearch: %w", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("elasticsearch ping failed: %s", resp.String())
	}

	logger.Info("Elasticsearch connected", zap.Strings("hosts", cfg.Hosts))
	return es, nil
}
