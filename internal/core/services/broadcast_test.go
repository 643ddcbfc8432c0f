package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

func TestStateBroadcaster_ReplayOnSubscribe(t *testing.T) {
	b := newStateBroadcaster(domain.SyncState{PendingRecords: 3})

	ch, cancel := b.subscribe()
	defer cancel()

	s := <-ch
	assert.Equal(t, 3, s.PendingRecords)
}

func TestStateBroadcaster_LateSubscriberGetsLatest(t *testing.T) {
	b := newStateBroadcaster(domain.SyncState{})
	b.publish(domain.SyncState{PendingRecords: 1})
	b.publish(domain.SyncState{PendingRecords: 2})

	ch, cancel := b.subscribe()
	defer cancel()

	s := <-ch
	assert.Equal(t, 2, s.PendingRecords)
	assert.Len(t, ch, 0)
}

func TestStateBroadcaster_SlowSubscriberKeepsLatest(t *testing.T) {
	b := newStateBroadcaster(domain.SyncState{})
	ch, cancel := b.subscribe()
	defer cancel()

	for i := 1; i <= subscriberBuffer*3; i++ {
		b.publish(domain.SyncState{PendingRecords: i})
	}

	require.Len(t, ch, subscriberBuffer)
	var last domain.SyncState
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, subscriberBuffer*3, last.PendingRecords)
}

func TestStateBroadcaster_MultipleSubscribers(t *testing.T) {
	b := newStateBroadcaster(domain.SyncState{})
	ch1, cancel1 := b.subscribe()
	ch2, cancel2 := b.subscribe()
	defer cancel1()
	defer cancel2()
	<-ch1
	<-ch2

	b.publish(domain.SyncState{IsSyncing: true})

	assert.True(t, (<-ch1).IsSyncing)
	assert.True(t, (<-ch2).IsSyncing)
	assert.Equal(t, 2, b.count())
}

func TestStateBroadcaster_CancelRemovesSubscriber(t *testing.T) {
	b := newStateBroadcaster(domain.SyncState{})
	ch, cancel := b.subscribe()
	<-ch

	cancel()
	cancel()
	assert.Equal(t, 0, b.count())

	b.publish(domain.SyncState{PendingRecords: 5})
	_, open := <-ch
	assert.False(t, open)
}

func TestStateBroadcaster_Close(t *testing.T) {
	b := newStateBroadcaster(domain.SyncState{})
	ch, cancel := b.subscribe()
	<-ch

	b.close()
	b.close()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	late, _ := b.subscribe()
	_, open = <-late
	assert.False(t, open)

	b.publish(domain.SyncState{PendingRecords: 1})
}
