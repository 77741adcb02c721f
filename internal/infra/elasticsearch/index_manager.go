package elasticsearch

import (
	"context"
	"fmt"
	"strings"

	"comment-tree-go/pkg/logger"

	"go.uber.org/zap"
)

// CommentsIndexMapping 返回 comments 索引的 mapping（含 IK 中文分词）
// path 用 keyword 才能做前缀查询删除子树
func CommentsIndexMapping() string {
	return `{
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0,
			"analysis": {
				"analyzer": {
					"ik_max_word_analyzer": {
						"type": "custom",
						"tokenizer": "ik_max_word",
						"filter": ["lowercase"]
					}
				}
			}
		},
		"mappings": {
			"properties": {
				"id": {"type": "long"},
				"post_id": {"type": "long"},
				"parent_id": {"type": "long"},
				"depth": {"type": "integer"},
				"path": {"type": "keyword"},
				"content": {
					"type": "text",
					"analyzer": "ik_max_word",
					"search_analyzer": "ik_smart"
				},
				"created_at": {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
			}
		}
	}`
}

// EnsureIndex 确保 comments 索引存在，不存在则创建
func (c *CommentIndex) EnsureIndex(ctx context.Context) error {
	resp, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode == 200 {
		logger.Info("Elasticsearch comments index already exists", zap.String("index", c.index))
		return nil
	}

	resp, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(CommentsIndexMapping())),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("create index failed: %s", resp.String())
	}

	logger.Info("Elasticsearch comments index created", zap.String("index", c.index))
	return nil
}
