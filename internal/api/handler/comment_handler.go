package handler

import (
	"errors"
	"strconv"

	"comment-tree-go/internal/api/dto"
	"comment-tree-go/internal/api/response"
	"comment-tree-go/internal/position"
	"comment-tree-go/internal/service"
	"comment-tree-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	commentService *service.CommentService
	exportService  *service.ExportService
}

// NewCommentHandler exportService 为 nil 时导出接口返回 503
func NewCommentHandler(commentService *service.CommentService, exportService *service.ExportService) *CommentHandler {
	return &CommentHandler{commentService: commentService, exportService: exportService}
}

// Create 发表评论或回复
// @Summary 发表评论
// @Description parent_id 为空时发表根评论，否则回复指定评论
// @Tags 评论
// @Accept json
// @Produce json
// @Param body body dto.CommentCreateRequest true "评论内容"
// @Success 201 {object} response.Response{data=dto.CommentInfo} "发表成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 404 {object} response.ErrorResponse "父评论不存在"
// @Failure 409 {object} response.ErrorResponse "兄弟序号耗尽"
// @Failure 422 {object} response.ErrorResponse "超过最大回复深度"
// @Router /comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	var req dto.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	info, err := h.commentService.Create(c.Request.Context(), &req)
	if err != nil {
		handleCommentError(c, err)
		return
	}

	response.Created(c, "发表评论成功", info)
}

// List 按先序顺序游标分页
// @Summary 评论列表
// @Description 按物化路径升序（先序深度优先）返回评论，last_path 为上一页最后一条的 path
// @Tags 评论
// @Produce json
// @Param post_id query int true "帖子ID"
// @Param last_path query string false "游标"
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=dto.CommentPage} "获取成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Router /comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	var q dto.CommentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	page, err := h.commentService.List(c.Request.Context(), q.PostID, q.LastPath, q.Size)
	if err != nil {
		handleCommentError(c, err)
		return
	}

	response.OK(c, "获取评论列表成功", page)
}

// Count 帖子评论总数
// @Summary 评论数
// @Tags 评论
// @Produce json
// @Param post_id query int true "帖子ID"
// @Success 200 {object} response.Response{data=dto.CommentCountData} "获取成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Router /comments/count [get]
func (h *CommentHandler) Count(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Query("post_id"), 10, 64)
	if err != nil || postID < 1 {
		response.BadRequest(c, "无效的帖子ID")
		return
	}

	count, err := h.commentService.Count(c.Request.Context(), postID)
	if err != nil {
		handleCommentError(c, err)
		return
	}

	response.OK(c, "获取评论数成功", dto.CommentCountData{PostID: postID, Count: count})
}

// Delete 删除评论及其全部回复
// @Summary 删除评论子树
// @Tags 评论
// @Produce json
// @Param id path int true "评论ID"
// @Success 200 {object} response.Response{data=dto.CommentDeleteData} "删除成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 404 {object} response.ErrorResponse "评论不存在"
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "无效的评论ID")
		return
	}

	deleted, err := h.commentService.DeleteSubtree(c.Request.Context(), commentID)
	if err != nil {
		handleCommentError(c, err)
		return
	}

	response.OK(c, "删除评论成功", dto.CommentDeleteData{Deleted: deleted})
}

// Export 导出帖子评论为 JSONL
// @Summary 导出评论
// @Description 按先序顺序导出帖子全部评论到对象存储，返回预签名下载地址
// @Tags 评论
// @Produce json
// @Param post_id query int true "帖子ID"
// @Success 200 {object} response.Response{data=dto.CommentExportData} "导出成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 503 {object} response.ErrorResponse "对象存储未启用"
// @Router /comments/export [post]
func (h *CommentHandler) Export(c *gin.Context) {
	if h.exportService == nil {
		response.ServiceUnavailable(c, "对象存储未启用")
		return
	}

	postID, err := strconv.ParseInt(c.Query("post_id"), 10, 64)
	if err != nil || postID < 1 {
		response.BadRequest(c, "无效的帖子ID")
		return
	}

	data, err := h.exportService.ExportPost(c.Request.Context(), postID)
	if err != nil {
		handleCommentError(c, err)
		return
	}

	response.OK(c, "导出评论成功", data)
}

func parseIDParam(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func handleCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrDepthExceeded):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, service.ErrCapacityExceeded):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidCursor):
		response.BadRequest(c, err.Error())
	case errors.Is(err, position.ErrLockTimeout):
		logger.Warn("Comment scope lock timeout", zap.Error(err))
		response.ServiceUnavailable(c, "评论写入繁忙，请稍后重试")
	default:
		logger.Error("Comment operation failed", zap.Error(err))
		response.InternalError(c, "操作失败，请稍后重试")
	}
}
