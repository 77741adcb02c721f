package model

import "time"

// Comment 评论模型
//
// 不保存 Parent/Replies 关联，父子关系只通过 ParentID 与 Path 显式查询。
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;comment:评论ID" json:"id"`
	PostID    int64     `gorm:"not null;uniqueIndex:idx_comments_post_path,priority:1;index:idx_comments_post_depth_path,priority:1;comment:所属帖子ID" json:"post_id"`
	ParentID  *int64    `gorm:"index:idx_comments_parent_id;comment:父评论ID" json:"parent_id"`
	Depth     int       `gorm:"not null;index:idx_comments_post_depth_path,priority:2;comment:深度，根为0" json:"depth"`
	Content   string    `gorm:"type:text;not null;comment:评论内容" json:"content"`
	Path      string    `gorm:"type:varchar(305);not null;uniqueIndex:idx_comments_post_path,priority:2;index:idx_comments_post_depth_path,priority:3;comment:物化路径" json:"path"`
	CreatedAt time.Time `gorm:"autoCreateTime;comment:评论时间" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}
