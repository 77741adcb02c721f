package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: comments
  port: 9000
database:
  host: db
  port: 5432
  user: u
  password: p
  dbname: d
  sslmode: disable
kafka:
  brokers: ["k1:9092", "k2:9092"]
comment:
  lock_backend: redis
  lock_timeout: 500
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "comments", cfg.App.Name)
	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "comment-events", cfg.Kafka.CommentEventsTopic())
	assert.Equal(t, "comments", cfg.Elasticsearch.CommentsIndex())

	// 默认值
	assert.Equal(t, 50, cfg.Comment.MaxDepth)
	assert.Equal(t, 10, cfg.Comment.DefaultPageSize)
	assert.Equal(t, 100, cfg.Comment.MaxPageSize)
	assert.Equal(t, "redis", cfg.Comment.LockBackend)
	assert.Equal(t, 500*time.Millisecond, cfg.Comment.LockTimeoutDuration())
	assert.Equal(t, 30*time.Second, cfg.Comment.CountCacheDuration())
	assert.Equal(t, "comment-exports", cfg.MinIO.ExportBucket)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidCommentConfig(t *testing.T) {
	tests := map[string]string{
		"depth too large": "comment:\n  max_depth: 51\n",
		"unknown backend": "comment:\n  lock_backend: zookeeper\n",
		"page sizes":      "comment:\n  default_page_size: 50\n  max_page_size: 20\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
