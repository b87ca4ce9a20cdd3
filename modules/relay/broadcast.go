package relay

import (
	"context"
	"sync"

	domain "github.com/example/room-relay/domain/relay"
)

// DefaultCapacity is the per-subscriber queue length used when none is configured.
const DefaultCapacity = 100

// Broadcaster fans every published message out to all current subscribers.
// Each subscriber owns a bounded queue; when it is full the oldest queued
// message is discarded so publishers never block.
type Broadcaster struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	capacity int
}

// NewBroadcaster creates a Broadcaster whose subscribers buffer up to capacity messages.
func NewBroadcaster(capacity int) *Broadcaster {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Broadcaster{
		subs:     make(map[*Subscription]struct{}),
		capacity: capacity,
	}
}

// Subscribe registers a new subscriber. Only messages published after
// Subscribe returns are delivered to it.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{
		owner:  b,
		queue:  make([]domain.Message, 0, b.capacity),
		notify: make(chan struct{}, 1),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish enqueues msg for every subscriber and returns how many received it.
// Holding the lock across all queues keeps publish order identical for every subscriber.
func (b *Broadcaster) Publish(msg domain.Message) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		sub.push(msg, b.capacity)
	}
	return len(b.subs)
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// Subscription is one consumer's view of a Broadcaster.
type Subscription struct {
	owner  *Broadcaster
	mu     sync.Mutex
	queue  []domain.Message
	lagged uint64
	closed bool
	notify chan struct{}
}

func (s *Subscription) push(msg domain.Message, capacity int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) >= capacity {
		s.queue = append(s.queue[:0], s.queue[1:]...)
		s.lagged++
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Recv blocks until the next message is available.
//
// If messages were dropped since the previous call, Recv returns a *LagError
// first; the next call resumes with the oldest retained message. It returns
// ErrSubscriptionClosed after Close and ctx.Err() once ctx is done, even
// when messages are still queued.
func (s *Subscription) Recv(ctx context.Context) (domain.Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Message{}, err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return domain.Message{}, ErrSubscriptionClosed
		}
		if s.lagged > 0 {
			skipped := s.lagged
			s.lagged = 0
			s.mu.Unlock()
			return domain.Message{}, &LagError{Skipped: skipped}
		}
		if len(s.queue) > 0 {
			msg := s.queue[0]
			s.queue[0] = domain.Message{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return msg, nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.Message{}, ctx.Err()
		case <-s.notify:
		}
	}
}

// Close detaches the subscription and wakes a blocked Recv. It is safe to call more than once.
func (s *Subscription) Close() {
	s.owner.remove(s)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}
