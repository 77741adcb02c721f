package kafka

import (
	"context"
	"errors"
	"testing"

	"comment-tree-go/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishCommentEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &EventProducer{writer: w, topic: "comment-events"}

	parent := int64(3)
	c := &model.Comment{ID: 9, PostID: 42, ParentID: &parent, Depth: 1, Path: "00001/00002", Content: "hi"}
	require.NoError(t, p.PublishCommentEvent(context.Background(), NewCommentCreatedEvent(c)))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "comment-events", w.msgs[0].Topic)
	assert.Equal(t, "post-42", string(w.msgs[0].Key))

	event, err := DecodeCommentEvent(w.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, EventCommentCreated, event.Type)
	assert.Equal(t, int64(9), event.CommentID)
	assert.Equal(t, "00001/00002", event.Path)
	assert.Equal(t, &parent, event.ParentID)
}

func TestPublishCommentEvent_WriteError(t *testing.T) {
	p := &EventProducer{writer: &fakeWriter{err: errors.New("broker down")}, topic: "t"}
	err := p.PublishCommentEvent(context.Background(), NewSubtreeDeletedEvent(&model.Comment{ID: 1, PostID: 1, Path: "00001"}, 3))
	assert.ErrorContains(t, err, "broker down")
}

func TestDecodeCommentEvent_Invalid(t *testing.T) {
	_, err := DecodeCommentEvent([]byte("{not json"))
	assert.Error(t, err)
}
