package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicAndWildcard(t *testing.T) {
	hub := NewHub()

	emp, cleanupEmp := hub.Subscribe("emp-1")
	defer cleanupEmp()
	other, cleanupOther := hub.Subscribe("emp-2")
	defer cleanupOther()
	admin, cleanupAdmin := hub.Subscribe(AllTopics)
	defer cleanupAdmin()

	hub.Publish("emp-1", Event{Event: "notification", Data: "hello"})

	require.Len(t, emp, 1)
	got := <-emp
	assert.Equal(t, "emp-1", got.Topic)
	assert.Equal(t, "hello", got.Data)

	require.Len(t, admin, 1)
	assert.Equal(t, "emp-1", (<-admin).Topic)

	assert.Len(t, other, 0)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("emp-1")
	defer cleanup()

	for i := 0; i < hub.bufferSize+5; i++ {
		hub.Publish("emp-1", Event{Event: "notification"})
	}

	assert.Len(t, ch, hub.bufferSize)
}

func TestHub_Cleanup(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("emp-1")
	_, cleanup2 := hub.Subscribe("emp-1")

	assert.Equal(t, 2, hub.SubscriberCount("emp-1"))
	assert.Equal(t, 2, hub.TotalSubscribers())

	cleanup()
	cleanup()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 1, hub.SubscriberCount("emp-1"))

	cleanup2()
	assert.Equal(t, 0, hub.TotalSubscribers())
}
