package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Comment       CommentConfig       `mapstructure:"comment"`
	Log           LogConfig           `mapstructure:"log"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Mode    string `mapstructure:"mode"`
	Port    int    `mapstructure:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
}

// DSN 返回PostgreSQL连接字符串
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr 返回Redis地址
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	ExportBucket string `mapstructure:"export_bucket"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"`
	GroupID string            `mapstructure:"group_id"`
}

// CommentEventsTopic 评论事件 topic
func (k *KafkaConfig) CommentEventsTopic() string {
	if t := k.Topics["comment_events"]; t != "" {
		return t
	}
	return "comment-events"
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Hosts []string          `mapstructure:"hosts"`
	Index map[string]string `mapstructure:"index"`
}

// CommentsIndex 评论索引名
func (e *ElasticsearchConfig) CommentsIndex() string {
	if name := e.Index["comments"]; name != "" {
		return name
	}
	return "comments"
}

// CommentConfig 评论树配置
type CommentConfig struct {
	MaxDepth        int    `mapstructure:"max_depth"`
	DefaultPageSize int    `mapstructure:"default_page_size"`
	MaxPageSize     int    `mapstructure:"max_page_size"`
	LockBackend     string `mapstructure:"lock_backend"`    // local | advisory | redis
	LockTimeout     int    `mapstructure:"lock_timeout"`    // 毫秒
	CountCacheTTL   int    `mapstructure:"count_cache_ttl"` // 秒
}

// LockTimeoutDuration 返回作用域锁的等待上限
func (c *CommentConfig) LockTimeoutDuration() time.Duration {
	return time.Duration(c.LockTimeout) * time.Millisecond
}

// CountCacheDuration 返回评论数缓存时长
func (c *CommentConfig) CountCacheDuration() time.Duration {
	return time.Duration(c.CountCacheTTL) * time.Second
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖，例如 COMMENT_LOCK_BACKEND=redis
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Comment.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.port", 8000)
	v.SetDefault("comment.max_depth", 50)
	v.SetDefault("comment.default_page_size", 10)
	v.SetDefault("comment.max_page_size", 100)
	v.SetDefault("comment.lock_backend", "local")
	v.SetDefault("comment.lock_timeout", 3000)
	v.SetDefault("comment.count_cache_ttl", 30)
	v.SetDefault("minio.export_bucket", "comment-exports")
	v.SetDefault("kafka.group_id", "comment-indexer")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}

// Validate 校验评论树配置
func (c *CommentConfig) Validate() error {
	if c.MaxDepth < 0 || c.MaxDepth > 50 {
		return fmt.Errorf("comment.max_depth must be in [0, 50], got %d", c.MaxDepth)
	}
	if c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid page size config: default=%d max=%d", c.DefaultPageSize, c.MaxPageSize)
	}
	switch c.LockBackend {
	case "local", "advisory", "redis":
	default:
		return fmt.Errorf("unknown comment.lock_backend %q", c.LockBackend)
	}
	return nil
}
