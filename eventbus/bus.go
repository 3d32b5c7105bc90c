// Package eventbus is BTPC's in-process publish/subscribe layer,
// fanning transaction, UTXO, mempool, chain, mining and node lifecycle
// events out to observers (a UI or other watcher), per spec.md §4.10.
//
// No package in the teacher repo implements this: kaspad pushes state
// changes directly to RPC subscribers rather than through a named event
// bus. This is built fresh on the standard library (sync, channels):
// the fire-and-forget, bounded-queue, drop-oldest-on-overflow semantics
// spec.md requires don't need (and a generic pub/sub dependency would
// only add unused surface over) a channel-per-subscriber fan-out.
package eventbus

import (
	"sync"

	"github.com/Shion-Kamoto/BTPC-sub008/logger"
)

// DefaultQueueDepth is the bounded per-subscriber queue size used when
// Subscribe is called without an explicit depth.
const DefaultQueueDepth = 256

// Bus fans events out to subscribers. Emission is fire-and-forget from
// the producer's perspective: Publish never blocks on a slow
// subscriber. A subscriber's queue drops the oldest buffered event when
// full rather than applying backpressure to the producer, per
// spec.md §4.10 ("slow subscribers do not block consensus").
type Bus struct {
	mu   sync.RWMutex
	subs map[EventName][]*subscription
}

type subscription struct {
	ch     chan Event
	closed chan struct{}
}

// Event is a single delivered event: its name plus its typed payload.
type Event struct {
	Name    EventName
	Payload interface{}
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{subs: make(map[EventName][]*subscription)}
}

// Subscribe registers a new subscriber for name with a bounded queue of
// depth slots, returning a receive-only channel of delivered events and
// an unsubscribe function. Per spec.md §4.10, event emission order is
// preserved per event type per producer; there is no cross-type global
// order, so each EventName gets its own independent fan-out list.
func (b *Bus) Subscribe(name EventName, depth int) (<-chan Event, func()) {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	sub := &subscription{ch: make(chan Event, depth), closed: make(chan struct{})}

	b.mu.Lock()
	b.subs[name] = append(b.subs[name], sub)
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[name]
		for i, s := range list {
			if s == sub {
				b.subs[name] = append(list[:i], list[i+1:]...)
				close(sub.closed)
				return
			}
		}
	}
	return sub.ch, unsubscribe
}

// Publish delivers an event to every subscriber of name. If a
// subscriber's queue is full, the oldest queued event for that
// subscriber is dropped to make room -- Publish itself never blocks.
func (b *Bus) Publish(name EventName, payload interface{}) {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.subs[name]...)
	b.mu.RUnlock()

	event := Event{Name: name, Payload: payload}
	for _, sub := range subs {
		select {
		case sub.ch <- event:
		case <-sub.closed:
		default:
			// Queue full: drop the oldest buffered event, then retry
			// once. If a concurrent consumer already drained it, the
			// retry still succeeds or the queue is simply no longer
			// full.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- event:
			default:
				logger.EventBusLog.Warnf("dropped event %s for a slow subscriber", name)
			}
		}
	}
}

// SubscriberCount returns how many live subscribers are registered for
// name, mainly for tests and diagnostics.
func (b *Bus) SubscriberCount(name EventName) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}
