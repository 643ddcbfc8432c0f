package services

import (
	"sync"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// subscriberBuffer is the number of snapshots a slow subscriber may lag.
const subscriberBuffer = 16

// stateBroadcaster fans SyncState snapshots out to subscribers.
// New subscribers receive the latest snapshot first. When a subscriber's
// buffer is full its oldest snapshot is dropped, so the latest always arrives.
type stateBroadcaster struct {
	mu     sync.Mutex
	latest domain.SyncState
	subs   map[chan domain.SyncState]struct{}
	closed bool
}

func newStateBroadcaster(initial domain.SyncState) *stateBroadcaster {
	return &stateBroadcaster{
		latest: initial,
		subs:   make(map[chan domain.SyncState]struct{}),
	}
}

// subscribe registers a subscriber. The cancel func is idempotent.
func (b *stateBroadcaster) subscribe() (<-chan domain.SyncState, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.SyncState, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	ch <- b.latest
	b.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

// publish records state as latest and delivers it to every subscriber.
func (b *stateBroadcaster) publish(state domain.SyncState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.latest = state
	for ch := range b.subs {
		for {
			select {
			case ch <- state:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// close ends every subscription. Further publishes are ignored.
func (b *stateBroadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// count returns the number of active subscribers.
func (b *stateBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
