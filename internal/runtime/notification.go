package runtime

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/calvarezmx/rxjs-spy/internal/runtime/ids"
	"github.com/calvarezmx/rxjs-spy/internal/runtime/jsoncodec"
)

// Lifecycle phases. Every event is reported either before or after the
// underlying call runs.
const (
	PhaseBefore = "before"
	PhaseAfter  = "after"
)

// Lifecycle kinds.
const (
	KindSubscribe   = "subscribe"
	KindUnsubscribe = "unsubscribe"
	KindNext        = "next"
	KindError       = "error"
	KindComplete    = "complete"
)

// SubscriptionRef points at the three objects involved in one lifecycle
// call. The values are opaque to the hub; identity comes from the identity
// provider.
type SubscriptionRef struct {
	Observable   any
	Subscriber   any
	Subscription any
}

// Event is one raw lifecycle call delivered by the notification source.
// Value carries the emitted value for next events and the error for error
// events; it is nil otherwise.
type Event struct {
	Phase string
	Kind  string
	Ref   SubscriptionRef
	Value any
}

// Type returns the wire notification type, "<phase>-<kind>".
func (e Event) Type() string {
	return e.Phase + "-" + e.Kind
}

// Collaborators are the external capabilities the hub consumes but does not
// implement: identity, path/type inference, stack traces, and cycle-safe
// value serialization.
type Collaborators struct {
	// Identify assigns a stable id per object, idempotent per object.
	Identify func(obj any) string

	// InferPath returns the structural label of an observable.
	InferPath func(observable any) string

	// InferType returns the operator/class name of an observable.
	InferType func(observable any) string

	// GetStackTrace returns an opaque stack trace for a subscription, or nil.
	GetStackTrace func(ref SubscriptionRef) any

	// Serialize renders an arbitrary value to a cycle-safe string.
	Serialize func(value any) string
}

// DefaultCollaborators returns a usable set of collaborators: ULID-based
// identity, reflection-based type inference, no stack traces, and JSON
// serialization with a fmt fallback for unserializable values.
func DefaultCollaborators() Collaborators {
	return Collaborators{
		Identify:      NewIdentityProvider(),
		InferPath:     func(observable any) string { return "" },
		InferType:     InferTypeName,
		GetStackTrace: func(ref SubscriptionRef) any { return nil },
		Serialize:     SerializeValue,
	}
}

// complete fills unset collaborator funcs with defaults so callers may
// override only what they need.
func (c Collaborators) complete() Collaborators {
	defaults := DefaultCollaborators()
	if c.Identify == nil {
		c.Identify = defaults.Identify
	}
	if c.InferPath == nil {
		c.InferPath = defaults.InferPath
	}
	if c.InferType == nil {
		c.InferType = defaults.InferType
	}
	if c.GetStackTrace == nil {
		c.GetStackTrace = defaults.GetStackTrace
	}
	if c.Serialize == nil {
		c.Serialize = defaults.Serialize
	}
	return c
}

// NewIdentityProvider returns an identify func that assigns each distinct
// object a fresh ULID on first sight and the same id thereafter. Keys must
// be comparable; pointers are the expected case.
func NewIdentityProvider() func(obj any) string {
	var mu sync.Mutex
	known := make(map[any]string)
	return func(obj any) string {
		mu.Lock()
		defer mu.Unlock()
		if id, ok := known[obj]; ok {
			return id
		}
		id := ids.CreateULID()
		known[obj] = id
		return id
	}
}

// InferTypeName derives a type label from the object's Go type.
func InferTypeName(observable any) string {
	if observable == nil {
		return ""
	}
	t := reflect.TypeOf(observable)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// SerializeValue renders a value as JSON, falling back to fmt for values
// the codec rejects (cycles, channels, funcs).
func SerializeValue(value any) string {
	data, err := jsoncodec.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
