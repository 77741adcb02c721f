// Package testutil 测试辅助：基于临时 sqlite 文件的 gorm 实例
package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"comment-tree-go/internal/model"
	"comment-tree-go/internal/pathcodec"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB 创建已迁移的 sqlite 数据库。
// 单连接：sqlite 同一时刻只允许一个写事务，多连接会出现 database is locked。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "comments.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&model.Comment{}))
	return db
}

// Seed 直接写入一组路径，深度和父节点由路径推导
func Seed(t testing.TB, db *gorm.DB, postID int64, paths ...string) []model.Comment {
	t.Helper()

	byPath := make(map[string]int64)
	var existing []model.Comment
	require.NoError(t, db.Where("post_id = ?", postID).Find(&existing).Error)
	for _, c := range existing {
		byPath[c.Path] = c.ID
	}

	out := make([]model.Comment, 0, len(paths))
	for _, p := range paths {
		c := model.Comment{PostID: postID, Path: p, Content: "seed " + p}
		if i := strings.LastIndex(p, pathcodec.Separator); i >= 0 {
			parentID, ok := byPath[p[:i]]
			require.True(t, ok, "parent of %s must be seeded first", p)
			c.ParentID = &parentID
			c.Depth = pathcodec.Depth(p)
		}
		require.NoError(t, db.Create(&c).Error)
		byPath[p] = c.ID
		out = append(out, c)
	}
	return out
}
