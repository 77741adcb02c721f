package database

import (
	"fmt"
	"time"

	"comment-tree-go/internal/config"
	"comment-tree-go/internal/model"
	"comment-tree-go/internal/pathcodec"
	"comment-tree-go/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open 连接 PostgreSQL 并配置连接池
func Open(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.DBName),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return db, nil
}

// AutoMigrate 自动迁移评论表结构
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Comment{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	// path 的字典序必须按字节比较，否则分页顺序与先序遍历不一致
	if db.Dialector.Name() == "postgres" {
		stmt := fmt.Sprintf(`ALTER TABLE comments ALTER COLUMN path TYPE varchar(%d) COLLATE "C"`, pathcodec.MaxPathLen)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to set path collation: %w", err)
		}
	}

	logger.Info("Database auto migration completed")
	return nil
}

// Close 关闭连接池
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	logger.Info("Database connection closed")
	return sqlDB.Close()
}
