package middleware

import (
	"strconv"
	"time"

	"comment-tree-go/internal/metrics"
	"comment-tree-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// Logger Gin日志中间件，同时记录请求指标
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		duration := time.Since(start)

		// 未匹配路由时 FullPath 为空，避免把任意路径作为标签
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(duration.Seconds())

		logger.Info("HTTP Request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.String("ip", c.ClientIP()),
			zap.Duration("duration", duration),
			zap.Int("body_size", c.Writer.Size()),
		)

		for _, e := range c.Errors {
			logger.Error("Request Error",
				zap.String("request_id", requestID),
				zap.String("error", e.Error()),
				zap.Any("type", e.Type),
			)
		}
	}
}
