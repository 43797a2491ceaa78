package runtime

import (
	"time"

	"github.com/calvarezmx/rxjs-spy/internal/runtime/ids"
)

// SnapshotPayload is an immutable point-in-time projection of the whole
// registry, keyed by id and stamped with the logical tick at capture so a
// consumer can correlate it with the live notification sequence. Ownership
// transfers wholly to the requester; it is never mutated after
// construction.
type SnapshotPayload struct {
	ID            string                           `json:"id"`
	Tick          uint64                           `json:"tick"`
	Timestamp     int64                            `json:"timestamp"`
	Observables   map[string]*ObservableRecord     `json:"observables"`
	Subscribers   map[string]*SubscriberRecord     `json:"subscribers"`
	Subscriptions map[string]*SubscriptionSnapshot `json:"subscriptions"`
}

// SubscriptionSnapshot is a subscription record frozen together with its
// graph links at capture time.
type SubscriptionSnapshot struct {
	SubscriptionRecord
	Graph *Graph `json:"graph"`
}

// Snapshot walks the registry and produces the immutable projection. All
// records are deep-copied so the snapshot stays coherent while new
// notifications keep mutating the registry.
func (r *Registry) Snapshot(tick uint64) *SnapshotPayload {
	snapshot := &SnapshotPayload{
		ID:            ids.CreateULID(),
		Tick:          tick,
		Timestamp:     time.Now().UnixMilli(),
		Observables:   make(map[string]*ObservableRecord, len(r.observables)),
		Subscribers:   make(map[string]*SubscriberRecord, len(r.subscribers)),
		Subscriptions: make(map[string]*SubscriptionSnapshot, len(r.subscriptions)),
	}

	for id, observable := range r.observables {
		copied := *observable
		copied.Subscriptions = append([]string(nil), observable.Subscriptions...)
		snapshot.Observables[id] = &copied
	}

	for id, subscriber := range r.subscribers {
		copied := *subscriber
		copied.Subscriptions = append([]string(nil), subscriber.Subscriptions...)
		copied.Values = append([]ValueEntry(nil), subscriber.Values...)
		snapshot.Subscribers[id] = &copied
	}

	for id, subscription := range r.subscriptions {
		copied := *subscription
		snapshot.Subscriptions[id] = &SubscriptionSnapshot{
			SubscriptionRecord: copied,
			Graph:              r.graph.GraphOf(id),
		}
	}

	return snapshot
}
