package runtime

import (
	loggingpkg "github.com/calvarezmx/rxjs-spy/internal/runtime/logging"
)

// LogPlugin logs every notification through the session logger.
type LogPlugin struct {
	logger loggingpkg.ServiceLogger
}

// NewLogPlugin creates a log plugin.
func NewLogPlugin(logger loggingpkg.ServiceLogger) *LogPlugin {
	return &LogPlugin{logger: logger}
}

func (p *LogPlugin) Name() string { return PluginKindLog }

func (p *LogPlugin) Observe(n NotificationContext) {
	p.logger.Debug("Notification", loggingpkg.LogFields{
		"type":         n.Event.Type(),
		"observable":   n.ObservableID,
		"subscriber":   n.SubscriberID,
		"subscription": n.SubscriptionID,
		"tick":         n.Tick,
	})
}

func (p *LogPlugin) Teardown() {}

// PausePlugin owns one Deck and gates notification broadcasts through it.
type PausePlugin struct {
	deck *Deck
}

// NewPausePlugin creates a pause plugin whose deck reports through the
// given callbacks.
func NewPausePlugin(pluginID string, onRelease func(*Broadcast), onStats func(DeckStats)) *PausePlugin {
	return &PausePlugin{deck: NewDeck(pluginID, onRelease, onStats)}
}

func (p *PausePlugin) Name() string { return PluginKindPause }

// Deck exposes the plugin's pause controller.
func (p *PausePlugin) Deck() *Deck {
	return p.deck
}

// Admit gates one notification broadcast through the deck.
func (p *PausePlugin) Admit(b *Broadcast) bool {
	return p.deck.Admit(b)
}

// HandleCommand forwards a viewer command to the deck.
func (p *PausePlugin) HandleCommand(command string) string {
	return p.deck.HandleCommand(command)
}

func (p *PausePlugin) Teardown() {
	p.deck.Teardown()
}

// SnapshotPlugin captures the registry on demand. Taking a snapshot also
// clears the batcher's overload suppression via the onSnapshot callback.
type SnapshotPlugin struct {
	registry   *Registry
	tick       func() uint64
	onSnapshot func()
}

// NewSnapshotPlugin creates a snapshot plugin. tick supplies the session's
// current logical clock; onSnapshot runs after every capture.
func NewSnapshotPlugin(registry *Registry, tick func() uint64, onSnapshot func()) *SnapshotPlugin {
	return &SnapshotPlugin{registry: registry, tick: tick, onSnapshot: onSnapshot}
}

func (p *SnapshotPlugin) Name() string { return PluginKindSnapshot }

// Snapshot builds the immutable projection at the current tick.
func (p *SnapshotPlugin) Snapshot() *SnapshotPayload {
	snapshot := p.registry.Snapshot(p.tick())
	if p.onSnapshot != nil {
		p.onSnapshot()
	}
	return snapshot
}

func (p *SnapshotPlugin) Teardown() {}

// GraphPlugin infers the structural links between subscriptions. A
// subscribe arriving while another subscription's subscribe call is on the
// stack links the inner one as a source; a subscribe arriving while a next
// call is on the stack links it as a flat (flattening operator output).
type GraphPlugin struct {
	graph *GraphRegistry
	stack []graphStackEntry
}

type graphStackEntry struct {
	kind           string
	subscriptionID string
}

// NewGraphPlugin creates a graph plugin writing into the registry's graph.
func NewGraphPlugin(graph *GraphRegistry) *GraphPlugin {
	return &GraphPlugin{graph: graph}
}

func (p *GraphPlugin) Name() string { return PluginKindGraph }

func (p *GraphPlugin) Observe(n NotificationContext) {
	switch {
	case n.Event.Phase == PhaseBefore && n.Event.Kind == KindSubscribe:
		p.graph.Track(n.SubscriptionID)
		if top := p.top(); top != nil {
			kind := LinkSource
			if top.kind == KindNext {
				kind = LinkFlat
			}
			p.graph.Link(top.subscriptionID, n.SubscriptionID, kind)
		}
		p.push(KindSubscribe, n.SubscriptionID)

	case n.Event.Phase == PhaseAfter && n.Event.Kind == KindSubscribe:
		p.pop(KindSubscribe, n.SubscriptionID)

	case n.Event.Phase == PhaseBefore && n.Event.Kind == KindNext:
		p.push(KindNext, n.SubscriptionID)

	case n.Event.Phase == PhaseAfter && n.Event.Kind == KindNext:
		p.pop(KindNext, n.SubscriptionID)

	default:
		// Sources that never report after-next would otherwise leak stack
		// entries; any later terminal event for the same subscription pops
		// its stale next entry.
		p.pop(KindNext, n.SubscriptionID)
	}
}

func (p *GraphPlugin) top() *graphStackEntry {
	if len(p.stack) == 0 {
		return nil
	}
	return &p.stack[len(p.stack)-1]
}

func (p *GraphPlugin) push(kind, subscriptionID string) {
	p.stack = append(p.stack, graphStackEntry{kind: kind, subscriptionID: subscriptionID})
}

// pop removes the topmost matching entry; entries pushed above it are
// assumed already popped or stale and are dropped with it.
func (p *GraphPlugin) pop(kind, subscriptionID string) {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].kind == kind && p.stack[i].subscriptionID == subscriptionID {
			p.stack = p.stack[:i]
			return
		}
	}
}

func (p *GraphPlugin) Teardown() {
	p.stack = nil
}

// StackTracePlugin records the externally supplied opaque stack trace on
// each subscription record at before-subscribe. The trace is a foreign,
// versionless blob passed through unmodified.
type StackTracePlugin struct {
	registry      *Registry
	getStackTrace func(ref SubscriptionRef) any
}

// NewStackTracePlugin creates a stack-trace plugin using the given
// provider.
func NewStackTracePlugin(registry *Registry, getStackTrace func(ref SubscriptionRef) any) *StackTracePlugin {
	return &StackTracePlugin{registry: registry, getStackTrace: getStackTrace}
}

func (p *StackTracePlugin) Name() string { return PluginKindStackTrace }

func (p *StackTracePlugin) Observe(n NotificationContext) {
	if n.Event.Phase != PhaseBefore || n.Event.Kind != KindSubscribe {
		return
	}
	if p.getStackTrace == nil {
		return
	}
	if record := p.registry.Subscription(n.SubscriptionID); record != nil {
		record.StackTrace = p.getStackTrace(n.Event.Ref)
	}
}

func (p *StackTracePlugin) Teardown() {}
