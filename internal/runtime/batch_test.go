package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchSink collects posted batches; safe for the timer goroutine.
type batchSink struct {
	mu      sync.Mutex
	batches []*Batch
}

func (s *batchSink) post(b *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, b)
}

func (s *batchSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *batchSink) last() *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		return nil
	}
	return s.batches[len(s.batches)-1]
}

// newManualBatcher arms a timer that never fires so tests drive flushes.
func newManualBatcher(limit int) (*Batcher, *batchSink) {
	sink := &batchSink{}
	return NewBatcher(time.Hour, limit, sink.post, nil), sink
}

func deckStatsB(deckID string, buffered int) *Broadcast {
	return NewDeckStatsBroadcast(DeckStats{ID: deckID, Buffered: buffered})
}

func TestBatcherFlushPostsWholeQueueAsOneBatch(t *testing.T) {
	b, sink := newManualBatcher(10)

	b.Enqueue(notificationN(1))
	b.Enqueue(notificationN(2))
	b.Enqueue(NewResponse(Request{RequestType: RequestLog}))

	b.flush()

	require.Equal(t, 1, sink.count())
	batch := sink.last()
	assert.Equal(t, MessageTypeBatch, batch.MessageType)
	require.Len(t, batch.Messages, 3)
	assert.Equal(t, "n1", batch.Messages[0].(*Broadcast).Notification.ID)
	assert.Equal(t, "n2", batch.Messages[1].(*Broadcast).Notification.ID)
}

func TestBatcherWindowTimerFlushes(t *testing.T) {
	sink := &batchSink{}
	b := NewBatcher(10*time.Millisecond, 10, sink.post, nil)

	b.Enqueue(notificationN(1))

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Len(t, sink.last().Messages, 1)
}

func TestBatcherOverloadCollapsesToSnapshotHint(t *testing.T) {
	limit := 3
	b, sink := newManualBatcher(limit)

	// limit+1 notifications within one open window collapse to one hint.
	for i := 1; i <= limit+1; i++ {
		b.Enqueue(notificationN(i))
	}

	assert.True(t, b.SnapshotHinted())

	b.flush()
	batch := sink.last()
	require.NotNil(t, batch)
	require.Len(t, batch.Messages, 1)
	hint := batch.Messages[0].(*Broadcast)
	assert.Equal(t, BroadcastSnapshotHint, hint.BroadcastType)
}

func TestBatcherSuppressionUntilSnapshotTaken(t *testing.T) {
	b, sink := newManualBatcher(1)

	b.Enqueue(notificationN(1))
	b.Enqueue(notificationN(2)) // collapses
	b.flush()

	// While hinted, notifications are dropped entirely.
	b.Enqueue(notificationN(3))
	b.flush()
	assert.Equal(t, 1, sink.count())

	// Non-notification traffic still flows while hinted.
	b.Enqueue(deckStatsB("d1", 0))
	b.flush()
	assert.Equal(t, 2, sink.count())

	b.SnapshotTaken()
	assert.False(t, b.SnapshotHinted())

	b.Enqueue(notificationN(4))
	b.flush()
	require.Equal(t, 3, sink.count())
	assert.Equal(t, "n4", sink.last().Messages[0].(*Broadcast).Notification.ID)
}

func TestBatcherOverloadKeepsNonNotificationMessages(t *testing.T) {
	b, sink := newManualBatcher(1)

	resp := NewResponse(Request{RequestType: RequestLog})
	b.Enqueue(resp)
	b.Enqueue(notificationN(1))
	b.Enqueue(notificationN(2)) // collapses the notifications only

	b.flush()
	batch := sink.last()
	require.Len(t, batch.Messages, 2)
	assert.Same(t, resp, batch.Messages[0])
	assert.Equal(t, BroadcastSnapshotHint, batch.Messages[1].(*Broadcast).BroadcastType)
}

func TestBatcherDeckStatsDedup(t *testing.T) {
	b, sink := newManualBatcher(10)

	b.Enqueue(deckStatsB("d1", 1))
	b.Enqueue(deckStatsB("d2", 5))
	b.Enqueue(deckStatsB("d1", 2))

	b.flush()
	batch := sink.last()
	require.Len(t, batch.Messages, 2)

	first := batch.Messages[0].(*Broadcast)
	second := batch.Messages[1].(*Broadcast)
	assert.Equal(t, "d2", first.Stats.ID)
	assert.Equal(t, "d1", second.Stats.ID)
	assert.Equal(t, 2, second.Stats.Buffered, "only the most recent d1 stats survive")
}

func TestBatcherTeardownCancelsTimerAndDropsQueue(t *testing.T) {
	sink := &batchSink{}
	b := NewBatcher(10*time.Millisecond, 10, sink.post, nil)

	b.Enqueue(notificationN(1))
	b.Teardown()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, sink.count(), "no post may occur after teardown")

	// Nothing is accepted after teardown either.
	b.Enqueue(notificationN(2))
	b.flush()
	assert.Equal(t, 0, sink.count())
}

func TestBatcherEmptyFlushDoesNotPost(t *testing.T) {
	b, sink := newManualBatcher(10)
	b.flush()
	assert.Equal(t, 0, sink.count())
}
