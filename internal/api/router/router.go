package router

import (
	"net/http"

	"comment-tree-go/internal/api/handler"
	"comment-tree-go/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New 创建带基础中间件的 gin 引擎
func New(mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(middleware.Logger(), middleware.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Setup 注册所有业务路由
func Setup(
	r *gin.Engine,
	commentHandler *handler.CommentHandler,
	searchHandler *handler.SearchHandler,
) {
	v1 := r.Group("/api/v1")

	// --- 评论模块 ---
	comments := v1.Group("/comments")
	{
		comments.POST("", commentHandler.Create)
		comments.GET("", commentHandler.List)
		comments.GET("/count", commentHandler.Count)
		comments.GET("/search", searchHandler.SearchComments)
		comments.POST("/export", commentHandler.Export)
		comments.DELETE("/:id", commentHandler.Delete)
	}
}
