package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, s *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-s.C():
		require.True(t, ok, "subscription closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestSubscribeReplaysLatest(t *testing.T) {
	topic := NewTopic[int]("numbers")
	_, ok := topic.Latest()
	assert.False(t, ok)

	topic.Publish(1)
	topic.Publish(2)

	s := topic.Subscribe()
	defer s.Close()
	assert.Equal(t, 2, recv(t, s))

	topic.Publish(3)
	assert.Equal(t, 3, recv(t, s))

	v, ok := topic.Latest()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestSlowSubscriberKeepsOrderAndDoesNotBlock(t *testing.T) {
	topic := NewTopic[int]("numbers")
	slow := topic.Subscribe()
	fast := topic.Subscribe()
	defer slow.Close()
	defer fast.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			topic.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked by an idle subscriber")
	}

	for i := 0; i < 1000; i++ {
		require.Equal(t, i, recv(t, fast))
	}
	for i := 0; i < 1000; i++ {
		require.Equal(t, i, recv(t, slow))
	}
}

func TestConcurrentPublishersTotalOrderPerSubscriber(t *testing.T) {
	topic := NewTopic[int]("numbers")
	a := topic.Subscribe()
	b := topic.Subscribe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				topic.Publish(w*1000 + i)
			}
		}(w)
	}
	wg.Wait()

	for i := 0; i < 400; i++ {
		require.Equal(t, recv(t, a), recv(t, b))
	}
}

func TestCloseDetaches(t *testing.T) {
	topic := NewTopic[string]("alerts")
	s := topic.Subscribe()
	assert.Equal(t, 1, topic.Subscribers())

	s.Close()
	s.Close()
	assert.Equal(t, 0, topic.Subscribers())

	topic.Publish("ignored")
	select {
	case _, ok := <-s.C():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	assert.Equal(t, "alerts", topic.Name())
}
