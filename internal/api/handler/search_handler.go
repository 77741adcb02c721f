package handler

import (
	"comment-tree-go/internal/api/dto"
	"comment-tree-go/internal/api/response"
	"comment-tree-go/internal/service"
	"comment-tree-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SearchHandler struct {
	searchService *service.SearchService
}

func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchComments 搜索帖子内评论
// @Summary 搜索评论
// @Description 按关键词搜索帖子内评论，ES 不可用时降级为数据库查询
// @Tags 搜索
// @Produce json
// @Param post_id query int true "帖子ID"
// @Param q query string true "搜索关键词"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=dto.CommentSearchData} "搜索成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Router /comments/search [get]
func (h *SearchHandler) SearchComments(c *gin.Context) {
	var req dto.CommentSearchQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.searchService.SearchComments(c.Request.Context(), &req)
	if err != nil {
		logger.Error("Search comments failed", zap.Error(err))
		response.InternalError(c, "搜索失败")
		return
	}

	response.OK(c, "搜索成功", data)
}
