package runtime

import "time"

// Batching defaults. Config.BatchInterval and Config.BatchNotifications
// override them per session.
const (
	DefaultBatchInterval      = 100 * time.Millisecond
	DefaultBatchNotifications = 150
)

// Batcher coalesces outbound messages into time-boxed batches. The first
// enqueue opens a window and arms a timer; when the timer fires the whole
// queue is posted as one Batch and the window closes. Per-message order is
// preserved inside a batch and batches are FIFO.
//
// Overload policy: once more notification broadcasts are queued in the open
// window than the configured limit, the queued notifications collapse into
// a single snapshot-hint and all further notifications are suppressed until
// a snapshot is taken.
//
// The batcher is owned by the session's event loop. The timer callback is
// handed to the schedule func so it can be marshalled back onto the loop.
type Batcher struct {
	interval time.Duration
	limit    int
	post     func(*Batch)
	schedule func(func())

	queue          []Message
	open           bool
	timer          *time.Timer
	snapshotHinted bool
	closed         bool
}

// NewBatcher creates a batcher that posts flushed batches through post.
// schedule marshals the timer expiry back onto the owning event loop; pass
// a func that invokes its argument directly for single-threaded use.
func NewBatcher(interval time.Duration, limit int, post func(*Batch), schedule func(func())) *Batcher {
	if interval <= 0 {
		interval = DefaultBatchInterval
	}
	if limit <= 0 {
		limit = DefaultBatchNotifications
	}
	if schedule == nil {
		schedule = func(f func()) { f() }
	}
	return &Batcher{
		interval: interval,
		limit:    limit,
		post:     post,
		schedule: schedule,
	}
}

// SnapshotHinted reports whether notification broadcasts are currently
// suppressed pending a snapshot.
func (b *Batcher) SnapshotHinted() bool {
	return b.snapshotHinted
}

// SnapshotTaken clears the overload suppression. Called when a snapshot is
// built, since the snapshot recovers the viewer's state without the
// suppressed notifications.
func (b *Batcher) SnapshotTaken() {
	b.snapshotHinted = false
}

// Enqueue adds a message to the open batch window, opening one if needed.
func (b *Batcher) Enqueue(m Message) {
	if b.closed {
		return
	}

	if bc, ok := m.(*Broadcast); ok {
		switch bc.BroadcastType {
		case BroadcastNotification:
			if b.snapshotHinted {
				return
			}
			if b.queuedNotifications() >= b.limit {
				b.collapseToSnapshotHint()
				return
			}
		case BroadcastDeckStats:
			if bc.Stats != nil {
				b.dropStaleDeckStats(bc.Stats.ID)
			}
		}
	}

	b.append(m)
}

func (b *Batcher) append(m Message) {
	if !b.open {
		b.open = true
		b.queue = []Message{m}
		b.timer = time.AfterFunc(b.interval, func() {
			b.schedule(b.flush)
		})
		return
	}
	b.queue = append(b.queue, m)
}

func (b *Batcher) queuedNotifications() int {
	count := 0
	for _, m := range b.queue {
		if bc, ok := m.(*Broadcast); ok && bc.BroadcastType == BroadcastNotification {
			count++
		}
	}
	return count
}

// collapseToSnapshotHint drops every queued notification, replaces them
// with one snapshot-hint and starts suppressing.
func (b *Batcher) collapseToSnapshotHint() {
	kept := b.queue[:0]
	for _, m := range b.queue {
		if bc, ok := m.(*Broadcast); ok && bc.BroadcastType == BroadcastNotification {
			continue
		}
		kept = append(kept, m)
	}
	b.queue = kept
	b.snapshotHinted = true
	b.append(NewSnapshotHintBroadcast())
}

// dropStaleDeckStats removes any queued deck-stats broadcast for the same
// deck so only the most recent stats reach the viewer.
func (b *Batcher) dropStaleDeckStats(deckID string) {
	kept := b.queue[:0]
	for _, m := range b.queue {
		if bc, ok := m.(*Broadcast); ok && bc.BroadcastType == BroadcastDeckStats && bc.Stats != nil && bc.Stats.ID == deckID {
			continue
		}
		kept = append(kept, m)
	}
	b.queue = kept
}

// flush posts the queued messages as one batch and closes the window.
func (b *Batcher) flush() {
	if b.closed || !b.open {
		return
	}
	queue := b.queue
	b.queue = nil
	b.open = false
	b.timer = nil

	if len(queue) == 0 {
		return
	}
	b.post(NewBatch(queue))
}

// Teardown cancels any armed timer and discards the pending queue without
// flushing it. The batcher accepts nothing afterwards.
func (b *Batcher) Teardown() {
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.queue = nil
	b.open = false
}
