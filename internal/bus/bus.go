// Package bus provides the in-process publish/subscribe transport that
// decouples the generation pipeline from live client connections.
//
// Delivery is at-most-once to currently connected subscribers: publishing
// never blocks, a full subscriber buffer drops the event, and there is no
// replay. The persisted job record, not the bus, is the source of truth;
// consumers must be able to rebuild their view from it alone.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// subscriberBuffer is sized so a briefly slow consumer survives a burst of
// block deltas without losing the slide-level events behind them.
const subscriberBuffer = 256

type subscriber struct {
	ch      chan domain.StreamEvent
	dropped atomic.Uint64
}

// Bus fans events out per channel (channel = generation id). Channels are
// created lazily on first subscribe or publish and released when the last
// subscriber leaves, so idle jobs cost nothing.
type Bus struct {
	mu       sync.RWMutex
	channels map[string]map[uint64]*subscriber
	nextID   uint64
	closed   bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{channels: make(map[string]map[uint64]*subscriber)}
}

// Publish delivers event to every current subscriber of channel without
// blocking. Subscribers that cannot keep up lose the event.
func (b *Bus) Publish(channel string, event domain.StreamEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.channels[channel] {
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscribe registers a new consumer for channel. The returned cancel
// function is idempotent, releases the subscription and closes the event
// channel; callers must invoke it on disconnect so channel state does not
// accumulate.
func (b *Bus) Subscribe(channel string) (<-chan domain.StreamEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{ch: make(chan domain.StreamEvent, subscriberBuffer)}
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	b.nextID++
	id := b.nextID
	subs, ok := b.channels[channel]
	if !ok {
		subs = make(map[uint64]*subscriber)
		b.channels[channel] = subs
	}
	subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.channels[channel]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(b.channels, channel)
				}
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// SubscriberCount reports the live subscribers on a channel.
func (b *Bus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.channels {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	b.channels = make(map[string]map[uint64]*subscriber)
}

var _ domain.EventPublisher = (*Bus)(nil)
