package runtime

// DefaultValueHistoryLimit bounds per-subscriber value history when the
// config does not override it.
const DefaultValueHistoryLimit = 32

// ObservableRecord tracks one observable for the life of the session. It is
// created on first subscribe and only ever gains subscription ids.
type ObservableRecord struct {
	ID            string   `json:"id"`
	Path          string   `json:"path"`
	Tag           *string  `json:"tag"`
	Type          string   `json:"type"`
	Subscriptions []string `json:"subscriptions"`
}

// ValueEntry is one emitted value with the tick and timestamp it arrived at.
type ValueEntry struct {
	Tick      uint64 `json:"tick"`
	Timestamp int64  `json:"timestamp"`
	Value     string `json:"value"`
}

// SubscriberRecord tracks one subscriber and its bounded value history.
// ValuesFlushed marks that older values were truncated.
type SubscriberRecord struct {
	ID            string       `json:"id"`
	Subscriptions []string     `json:"subscriptions"`
	Values        []ValueEntry `json:"values"`
	ValuesFlushed bool         `json:"valuesFlushed"`
	Tick          uint64       `json:"tick"`
}

// SubscriptionRecord tracks the live link between one observable and one
// subscriber. Lifecycle timestamps are filled in as events arrive; graph
// links live in the GraphRegistry keyed by this record's id.
type SubscriptionRecord struct {
	ID                   string  `json:"id"`
	Observable           string  `json:"observable"`
	Subscriber           string  `json:"subscriber"`
	SubscribeTimestamp   int64   `json:"subscribeTimestamp"`
	UnsubscribeTimestamp int64   `json:"unsubscribeTimestamp,omitempty"`
	CompleteTimestamp    int64   `json:"completeTimestamp,omitempty"`
	Error                *string `json:"error"`
	ErrorTimestamp       int64   `json:"errorTimestamp,omitempty"`
	NextCount            uint64  `json:"nextCount"`
	NextTimestamp        int64   `json:"nextTimestamp,omitempty"`
	Tick                 uint64  `json:"tick"`
	StackTrace           any     `json:"stackTrace"`
}

// Registry is the session's live bookkeeping of observables, subscribers and
// subscriptions. It is owned by the session's event loop; all mutation goes
// through Apply.
type Registry struct {
	collab            Collaborators
	valueHistoryLimit int

	observables   map[string]*ObservableRecord
	subscribers   map[string]*SubscriberRecord
	subscriptions map[string]*SubscriptionRecord

	graph *GraphRegistry
}

// NewRegistry creates an empty registry. A valueHistoryLimit of zero or less
// falls back to DefaultValueHistoryLimit.
func NewRegistry(collab Collaborators, valueHistoryLimit int) *Registry {
	if valueHistoryLimit <= 0 {
		valueHistoryLimit = DefaultValueHistoryLimit
	}
	return &Registry{
		collab:            collab.complete(),
		valueHistoryLimit: valueHistoryLimit,
		observables:       make(map[string]*ObservableRecord),
		subscribers:       make(map[string]*SubscriberRecord),
		subscriptions:     make(map[string]*SubscriptionRecord),
		graph:             NewGraphRegistry(),
	}
}

// Graph exposes the registry's graph links.
func (r *Registry) Graph() *GraphRegistry {
	return r.graph
}

// IdentifyRef resolves the three ids of a subscription reference.
func (r *Registry) IdentifyRef(ref SubscriptionRef) (observableID, subscriberID, subscriptionID string) {
	return r.collab.Identify(ref.Observable), r.collab.Identify(ref.Subscriber), r.collab.Identify(ref.Subscription)
}

// Observable returns the record for an observable id, or nil.
func (r *Registry) Observable(id string) *ObservableRecord {
	return r.observables[id]
}

// Subscriber returns the record for a subscriber id, or nil.
func (r *Registry) Subscriber(id string) *SubscriberRecord {
	return r.subscribers[id]
}

// Subscription returns the record for a subscription id, or nil.
func (r *Registry) Subscription(id string) *SubscriptionRecord {
	return r.subscriptions[id]
}

// Apply folds one lifecycle event into the records. Record updates are
// synchronous with notification receipt; only wire delivery is deferred.
func (r *Registry) Apply(ev Event, tick uint64, timestamp int64) *SubscriptionRecord {
	observableID, subscriberID, subscriptionID := r.IdentifyRef(ev.Ref)

	switch {
	case ev.Phase == PhaseBefore && ev.Kind == KindSubscribe:
		r.recordSubscribe(ev, observableID, subscriberID, subscriptionID, tick, timestamp)
	case ev.Phase == PhaseBefore && ev.Kind == KindNext:
		r.recordNext(ev, subscriberID, subscriptionID, tick, timestamp)
	case ev.Phase == PhaseBefore && ev.Kind == KindError:
		r.recordError(ev, subscriptionID, tick, timestamp)
	case ev.Phase == PhaseBefore && ev.Kind == KindComplete:
		r.recordComplete(subscriptionID, tick, timestamp)
	case ev.Phase == PhaseAfter && ev.Kind == KindUnsubscribe:
		r.recordUnsubscribe(subscriptionID, tick, timestamp)
	}

	return r.subscriptions[subscriptionID]
}

func (r *Registry) recordSubscribe(ev Event, observableID, subscriberID, subscriptionID string, tick uint64, timestamp int64) {
	observable := r.observables[observableID]
	if observable == nil {
		observable = &ObservableRecord{
			ID:   observableID,
			Path: r.collab.InferPath(ev.Ref.Observable),
			Type: r.collab.InferType(ev.Ref.Observable),
		}
		r.observables[observableID] = observable
	}

	subscriber := r.subscribers[subscriberID]
	if subscriber == nil {
		subscriber = &SubscriberRecord{ID: subscriberID}
		r.subscribers[subscriberID] = subscriber
	}
	subscriber.Tick = tick

	subscription := r.subscriptions[subscriptionID]
	if subscription == nil {
		// Stack traces are captured by the stack-trace plugin, not here.
		subscription = &SubscriptionRecord{
			ID:                 subscriptionID,
			Observable:         observableID,
			Subscriber:         subscriberID,
			SubscribeTimestamp: timestamp,
		}
		r.subscriptions[subscriptionID] = subscription
		observable.Subscriptions = append(observable.Subscriptions, subscriptionID)
		subscriber.Subscriptions = append(subscriber.Subscriptions, subscriptionID)
	}
	subscription.Tick = tick
}

func (r *Registry) recordNext(ev Event, subscriberID, subscriptionID string, tick uint64, timestamp int64) {
	serialized := r.collab.Serialize(ev.Value)

	if subscriber := r.subscribers[subscriberID]; subscriber != nil {
		subscriber.Values = append(subscriber.Values, ValueEntry{
			Tick:      tick,
			Timestamp: timestamp,
			Value:     serialized,
		})
		if len(subscriber.Values) > r.valueHistoryLimit {
			subscriber.Values = subscriber.Values[len(subscriber.Values)-r.valueHistoryLimit:]
			subscriber.ValuesFlushed = true
		}
		subscriber.Tick = tick
	}

	if subscription := r.subscriptions[subscriptionID]; subscription != nil {
		subscription.NextCount++
		subscription.NextTimestamp = timestamp
		subscription.Tick = tick
	}
}

func (r *Registry) recordError(ev Event, subscriptionID string, tick uint64, timestamp int64) {
	subscription := r.subscriptions[subscriptionID]
	if subscription == nil {
		return
	}
	serialized := r.collab.Serialize(ev.Value)
	subscription.Error = &serialized
	subscription.ErrorTimestamp = timestamp
	subscription.Tick = tick
}

func (r *Registry) recordComplete(subscriptionID string, tick uint64, timestamp int64) {
	subscription := r.subscriptions[subscriptionID]
	if subscription == nil {
		return
	}
	subscription.CompleteTimestamp = timestamp
	subscription.Tick = tick
}

func (r *Registry) recordUnsubscribe(subscriptionID string, tick uint64, timestamp int64) {
	subscription := r.subscriptions[subscriptionID]
	if subscription == nil {
		return
	}
	subscription.UnsubscribeTimestamp = timestamp
	subscription.Tick = tick
	r.graph.Unlink(subscriptionID)
}

// Tag sets the user label on an observable record.
func (r *Registry) Tag(observableID, tag string) {
	if observable := r.observables[observableID]; observable != nil {
		observable.Tag = &tag
	}
}
