package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"comment-tree-go/internal/config"
	"comment-tree-go/internal/model"
	"comment-tree-go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventCommentCreated = "comment_created"
	EventSubtreeDeleted = "subtree_deleted"
)

// CommentEvent 评论变更事件消息体
type CommentEvent struct {
	Type      string    `json:"type"`
	CommentID int64     `json:"comment_id"`
	PostID    int64     `json:"post_id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Depth     int       `json:"depth"`
	Path      string    `json:"path"`
	Content   string    `json:"content,omitempty"`
	Deleted   int64     `json:"deleted,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentCreatedEvent 新评论事件
func NewCommentCreatedEvent(c *model.Comment) *CommentEvent {
	return &CommentEvent{
		Type:      EventCommentCreated,
		CommentID: c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Depth:     c.Depth,
		Path:      c.Path,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

// NewSubtreeDeletedEvent 子树删除事件
func NewSubtreeDeletedEvent(target *model.Comment, deleted int64) *CommentEvent {
	return &CommentEvent{
		Type:      EventSubtreeDeleted,
		CommentID: target.ID,
		PostID:    target.PostID,
		ParentID:  target.ParentID,
		Depth:     target.Depth,
		Path:      target.Path,
		Deleted:   deleted,
		CreatedAt: time.Now(),
	}
}

// messageWriter kafka.Writer 的最小子集，便于替换
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventProducer 评论事件生产者
type EventProducer struct {
	writer messageWriter
	topic  string
}

// NewEventProducer 初始化 Kafka 生产者
func NewEventProducer(cfg *config.KafkaConfig) *EventProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.CommentEventsTopic()),
	)

	return &EventProducer{writer: writer, topic: cfg.CommentEventsTopic()}
}

// PublishCommentEvent 发送评论事件，同一帖子的事件落在同一分区以保证顺序
func (p *EventProducer) PublishCommentEvent(ctx context.Context, event *CommentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal comment event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(fmt.Sprintf("post-%d", event.PostID)),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send comment event: %w", err)
	}

	logger.Debug("Comment event sent",
		zap.String("type", event.Type),
		zap.Int64("comment_id", event.CommentID),
		zap.String("topic", p.topic),
	)

	return nil
}

// Close 关闭生产者
func (p *EventProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return p.writer.Close()
}
