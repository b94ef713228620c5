package eventbus

import (
	"sync"

	"github.com/routex/fleetlive/core/logger"
)

// Handler receives each published event.
type Handler[T any] func(T)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct{ id uint64 }

// Bus fans events of type T out to callback subscribers. Delivery is
// synchronous and in subscription order; every subscriber of one Publish
// call sees the same value. A handler that unsubscribes itself or others
// mid-publish does not disturb delivery to the rest, and a panicking
// handler is isolated and logged rather than aborting the fan-out.
type Bus[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[T]
	log    logger.Logger
}

type subscriber[T any] struct {
	id uint64
	fn Handler[T]
}

// New creates a Bus. log may be nil.
func New[T any](log logger.Logger) *Bus[T] {
	return &Bus[T]{log: log}
}

// Subscribe registers fn and returns its handle.
func (b *Bus[T]) Subscribe(fn Handler[T]) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs = append(b.subs, subscriber[T]{id: b.nextID, fn: fn})
	return Subscription{id: b.nextID}
}

// Unsubscribe removes the handler for sub. Unknown handles are ignored.
func (b *Bus[T]) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == sub.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of live subscribers.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish invokes every subscriber registered at the time of the call
// with e. The subscriber list is snapshotted first, so concurrent or
// reentrant Subscribe/Unsubscribe calls take effect from the next
// Publish onward.
func (b *Bus[T]) Publish(e T) {
	b.mu.Lock()
	subs := make([]subscriber[T], len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, e)
	}
}

func (b *Bus[T]) deliver(s subscriber[T], e T) {
	defer func() {
		if r := recover(); r != nil && b.log != nil {
			b.log.Errorf("subscriber %d panicked: %v", s.id, r)
		}
	}()
	s.fn(e)
}
