// Package pubsub fans published values out to independent subscribers.
//
// Publish never blocks: every subscriber owns an unbounded queue drained by
// its own goroutine, so a slow consumer cannot stall the publisher and every
// consumer observes every value in publication order.
package pubsub

import "sync"

// Topic is a named stream that remembers its latest value.
type Topic[T any] struct {
	name string

	mu     sync.Mutex
	latest T
	has    bool
	subs   map[*Subscription[T]]struct{}
}

// NewTopic creates an empty topic.
func NewTopic[T any](name string) *Topic[T] {
	return &Topic[T]{name: name, subs: make(map[*Subscription[T]]struct{})}
}

// Name returns the topic name.
func (t *Topic[T]) Name() string { return t.name }

// Publish records v as the latest value and enqueues it for every subscriber.
// Values must be treated as read-only by consumers since they are shared.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = v
	t.has = true
	for s := range t.subs {
		s.push(v)
	}
}

// Latest returns the most recently published value.
func (t *Topic[T]) Latest() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest, t.has
}

// Subscribers returns the number of open subscriptions.
func (t *Topic[T]) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Subscribe registers a new consumer. If a value was published before, it is
// delivered first.
func (t *Topic[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{
		topic:  t,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan T),
	}
	t.mu.Lock()
	if t.has {
		s.queue = append(s.queue, t.latest)
	}
	t.subs[s] = struct{}{}
	t.mu.Unlock()

	go s.pump()
	return s
}

func (t *Topic[T]) remove(s *Subscription[T]) {
	t.mu.Lock()
	delete(t.subs, s)
	t.mu.Unlock()
}

// Subscription is one consumer's ordered view of a Topic.
type Subscription[T any] struct {
	topic *Topic[T]

	mu     sync.Mutex
	queue  []T
	notify chan struct{}

	once sync.Once
	done chan struct{}
	out  chan T
}

// C delivers values in publication order. It is closed after Close.
func (s *Subscription[T]) C() <-chan T { return s.out }

// Close detaches the subscription. Pending values are discarded.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.topic.remove(s)
		close(s.done)
	})
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if len(s.queue) == 0 {
		return zero, false
	}
	v := s.queue[0]
	s.queue[0] = zero
	s.queue = s.queue[1:]
	return v, true
}

func (s *Subscription[T]) pump() {
	defer close(s.out)
	for {
		v, ok := s.pop()
		if !ok {
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return
			}
		}
		select {
		case s.out <- v:
		case <-s.done:
			return
		}
	}
}
