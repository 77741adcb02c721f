package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"comment-tree-go/internal/model"
	"comment-tree-go/internal/pathcodec"
	"comment-tree-go/pkg/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// ESCommentDoc ES 评论文档结构
type ESCommentDoc struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"post_id"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	Depth     int    `json:"depth"`
	Path      string `json:"path"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func commentToESDoc(c *model.Comment) *ESCommentDoc {
	return &ESCommentDoc{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Depth:     c.Depth,
		Path:      c.Path,
		Content:   c.Content,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// CommentIndex comments 索引的读写
type CommentIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewCommentIndex(es *elasticsearch.Client, index string) *CommentIndex {
	return &CommentIndex{es: es, index: index}
}

// IndexComment 同步单条评论到 ES
func (c *CommentIndex) IndexComment(ctx context.Context, comment *model.Comment) error {
	body, err := json.Marshal(commentToESDoc(comment))
	if err != nil {
		return err
	}

	resp, err := c.es.Index(
		c.index,
		bytes.NewReader(body),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(strconv.FormatInt(comment.ID, 10)),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index document failed: %s", resp.String())
	}

	logger.Debug("Comment synced to ES", zap.Int64("comment_id", comment.ID))
	return nil
}

// DeleteSubtree 按路径前缀删除子树文档
func (c *CommentIndex) DeleteSubtree(ctx context.Context, postID int64, path string) (int64, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"post_id": postID}},
				},
				"should": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"path": path}},
					map[string]interface{}{"prefix": map[string]interface{}{"path": pathcodec.DescendantPrefix(path)}},
				},
				"minimum_should_match": 1,
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return 0, err
	}

	resp, err := c.es.DeleteByQuery(
		[]string{c.index},
		bytes.NewReader(body),
		c.es.DeleteByQuery.WithContext(ctx),
		c.es.DeleteByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return 0, fmt.Errorf("delete by query failed: %s", resp.String())
	}

	var result struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}

	logger.Debug("Comment subtree removed from ES",
		zap.Int64("post_id", postID),
		zap.String("path", path),
		zap.Int64("deleted", result.Deleted),
	)
	return result.Deleted, nil
}

// Search 帖子内全文搜索，返回命中的评论 ID（按相关度）与总数
func (c *CommentIndex) Search(ctx context.Context, postID int64, q string, from, size int) ([]int64, int64, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"post_id": postID}},
				},
				"must": []interface{}{
					map[string]interface{}{"match": map[string]interface{}{"content": q}},
				},
			},
		},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
		"sort": []interface{}{
			map[string]interface{}{"_score": map[string]string{"order": "desc"}},
			map[string]interface{}{"path": map[string]string{"order": "asc"}},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, 0, fmt.Errorf("ES search error: %s", resp.String())
	}

	var esResp struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID int64 `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&esResp); err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, esResp.Hits.Total.Value, nil
}
