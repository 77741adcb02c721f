package service

import (
	"context"
	"testing"

	infraKafka "comment-tree-go/internal/infra/kafka"
	"comment-tree-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndexWriter struct {
	indexed []*model.Comment
	deleted []string
}

func (f *fakeIndexWriter) IndexComment(_ context.Context, c *model.Comment) error {
	f.indexed = append(f.indexed, c)
	return nil
}

func (f *fakeIndexWriter) DeleteSubtree(_ context.Context, postID int64, path string) (int64, error) {
	f.deleted = append(f.deleted, path)
	return 1, nil
}

func TestIndexerService_HandleEvent(t *testing.T) {
	w := &fakeIndexWriter{}
	svc := NewIndexerService(w)
	ctx := context.Background()

	created := infraKafka.NewCommentCreatedEvent(&model.Comment{ID: 3, PostID: 1, Path: "00001", Content: "hi"})
	require.NoError(t, svc.HandleEvent(ctx, created))
	require.Len(t, w.indexed, 1)
	assert.Equal(t, int64(3), w.indexed[0].ID)
	assert.Equal(t, "hi", w.indexed[0].Content)

	deleted := infraKafka.NewSubtreeDeletedEvent(&model.Comment{ID: 3, PostID: 1, Path: "00001"}, 4)
	require.NoError(t, svc.HandleEvent(ctx, deleted))
	assert.Equal(t, []string{"00001"}, w.deleted)

	require.NoError(t, svc.HandleEvent(ctx, &infraKafka.CommentEvent{Type: "unknown"}))
}
