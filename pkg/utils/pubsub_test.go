package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	topic := NewTopic[string]()
	first := topic.Subscribe()
	second := topic.Subscribe()
	assert.Equal(t, 2, topic.NumSubscribers())

	assert.Equal(t, 2, topic.Publish("hello"))
	assert.Equal(t, "hello", <-first.Recv())
	assert.Equal(t, "hello", <-second.Recv())

	second.Done()
	assert.Equal(t, 1, topic.NumSubscribers())
	assert.Equal(t, 1, topic.Publish("again"))
	assert.Equal(t, "again", <-first.Recv())
}

func TestTopicSlowSubscriber(t *testing.T) {
	topic := NewBufferedTopic[int](2)
	slow := topic.Subscribe()

	assert.Equal(t, 1, topic.Publish(1))
	assert.Equal(t, 1, topic.Publish(2))
	// Buffer is full, so this one is dropped instead of blocking
	assert.Equal(t, 0, topic.Publish(3))

	require.Len(t, slow.Recv(), 2)
	assert.Equal(t, 1, <-slow.Recv())
	assert.Equal(t, 2, <-slow.Recv())
}

func TestSession(t *testing.T) {
	session := NewSession(context.Background())
	assert.False(t, session.IsDone())
	assert.False(t, session.Started().IsZero())

	session.Cancel()
	<-session.Ctx().Done()
	assert.True(t, session.IsDone())
	assert.Error(t, session.Ctx().Err())
}
