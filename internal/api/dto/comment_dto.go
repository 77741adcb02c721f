package dto

import "time"

// CommentCreateRequest 发表评论请求
type CommentCreateRequest struct {
	PostID   int64  `json:"post_id" binding:"required,min=1"`
	Content  string `json:"content" binding:"required,min=1,max=5000"`
	ParentID *int64 `json:"parent_id"`
}

// CommentListQuery 游标分页参数
type CommentListQuery struct {
	PostID   int64  `form:"post_id" binding:"required,min=1"`
	LastPath string `form:"last_path"`
	Size     int    `form:"size"`
}

// CommentSearchQuery 评论搜索参数
type CommentSearchQuery struct {
	PostID   int64  `form:"post_id" binding:"required,min=1"`
	Q        string `form:"q" binding:"required,min=1,max=100"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// CommentInfo 评论信息
type CommentInfo struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"post_id"`
	ParentID    *int64    `json:"parent_id"`
	Depth       int       `json:"depth"`
	Path        string    `json:"path"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommentPage 游标分页结果
type CommentPage struct {
	Comments   []CommentInfo `json:"comments"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
	Size       int           `json:"size"`
}

// CommentCountData 评论数
type CommentCountData struct {
	PostID int64 `json:"post_id"`
	Count  int64 `json:"count"`
}

// CommentDeleteData 子树删除结果
type CommentDeleteData struct {
	Deleted int64 `json:"deleted"`
}

// CommentSearchData 搜索结果
type CommentSearchData struct {
	Comments   []CommentInfo `json:"comments"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int64         `json:"total_pages"`
	Source     string        `json:"source"` // es | db
}

// CommentExportData 导出结果
type CommentExportData struct {
	Bucket   string `json:"bucket"`
	Object   string `json:"object"`
	Count    int64  `json:"count"`
	URL      string `json:"url"`
	ExpireAt int64  `json:"expire_at"`
}
