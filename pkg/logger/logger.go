package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 全局日志实例，Init 之前为 Nop
var Logger = zap.NewNop()

// Init 初始化日志系统
// output: stdout | file | both
func Init(level, format, output, filePath string) error {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if format == "json" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder // 彩色输出
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	var syncers []zapcore.WriteSyncer
	if output == "stdout" || output == "both" || output == "" {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}
	if output == "file" || output == "both" {
		if filePath == "" {
			return fmt.Errorf("log file path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		syncers = append(syncers, zapcore.AddSync(file))
	}
	if len(syncers) == 0 {
		return fmt.Errorf("unknown log output %q", output)
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), zapLevel)
	Logger = zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.DPanicLevel),
	)

	return nil
}

// Sync 刷新日志缓冲区
func Sync() {
	_ = Logger.Sync()
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

// Fatal 致命错误日志（会退出程序）
func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}
