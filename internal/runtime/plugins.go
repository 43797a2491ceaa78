package runtime

import (
	"github.com/calvarezmx/rxjs-spy/internal/runtime/ids"
	loggingpkg "github.com/calvarezmx/rxjs-spy/internal/runtime/logging"
)

// Plugin kind names.
const (
	PluginKindLog        = "log"
	PluginKindPause      = "pause"
	PluginKindSnapshot   = "snapshot"
	PluginKindGraph      = "graph"
	PluginKindStackTrace = "stack-trace"
)

// Plugin is one independent observer of the notification pipeline. Optional
// capabilities (observing notifications, handling commands, providing
// snapshots, gating delivery) are expressed as further interfaces rather
// than a class hierarchy.
type Plugin interface {
	// Name returns the plugin kind.
	Name() string

	// Teardown releases the plugin's resources. Called at most once.
	Teardown()
}

// NotificationContext hands an observer one lifecycle event with its
// resolved ids and session clock.
type NotificationContext struct {
	Event          Event
	ObservableID   string
	SubscriberID   string
	SubscriptionID string
	Tick           uint64
	Timestamp      int64
}

// NotificationObserver is implemented by plugins that watch the pipeline.
type NotificationObserver interface {
	Observe(n NotificationContext)
}

// Commander is implemented by plugins that accept viewer commands. A
// non-empty return is a response-level error string.
type Commander interface {
	HandleCommand(command string) string
}

// SnapshotProvider is implemented by the plugin that can capture the
// registry.
type SnapshotProvider interface {
	Snapshot() *SnapshotPayload
}

// DeliveryGate is implemented by plugins that may withhold notification
// broadcasts from the wire.
type DeliveryGate interface {
	Admit(b *Broadcast) bool
}

// PluginRecord binds a plugin id and session correlation id to a live
// plugin instance and its teardown procedure.
type PluginRecord struct {
	PluginID string
	SpyID    string
	Plugin   Plugin
}

// PluginHost owns the plugin map for one session. It is mutated only from
// the session's event loop.
type PluginHost struct {
	logger  loggingpkg.ServiceLogger
	records map[string]*PluginRecord
	order   []string
}

// NewPluginHost creates an empty host.
func NewPluginHost(logger loggingpkg.ServiceLogger) *PluginHost {
	return &PluginHost{
		logger:  logger,
		records: make(map[string]*PluginRecord),
	}
}

// Attach registers a plugin under the requested id, generating an id when
// the request leaves it empty, and returns the id used. Attaching over an
// existing id tears the old plugin down first.
func (h *PluginHost) Attach(spyID, pluginID string, p Plugin) string {
	if pluginID == "" {
		pluginID = ids.CreateULID()
	}
	if _, exists := h.records[pluginID]; exists {
		h.Teardown(pluginID)
	}
	h.records[pluginID] = &PluginRecord{PluginID: pluginID, SpyID: spyID, Plugin: p}
	h.order = append(h.order, pluginID)
	h.logger.Debug("Plugin attached", loggingpkg.LogFields{
		"plugin_id": pluginID,
		"kind":      p.Name(),
	})
	return pluginID
}

// Get returns the record for a plugin id, or nil.
func (h *PluginHost) Get(pluginID string) *PluginRecord {
	return h.records[pluginID]
}

// Teardown tears one plugin down and removes its record. Absent ids are a
// silent no-op, so tearing the same id down twice is safe.
func (h *PluginHost) Teardown(pluginID string) {
	record, ok := h.records[pluginID]
	if !ok {
		return
	}
	delete(h.records, pluginID)
	for i, id := range h.order {
		if id == pluginID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	record.Plugin.Teardown()
	h.logger.Debug("Plugin torn down", loggingpkg.LogFields{
		"plugin_id": pluginID,
		"kind":      record.Plugin.Name(),
	})
}

// TeardownAll tears every plugin down in attach order.
func (h *PluginHost) TeardownAll() {
	for _, id := range append([]string(nil), h.order...) {
		h.Teardown(id)
	}
}

// Each visits records in attach order.
func (h *PluginHost) Each(visit func(record *PluginRecord)) {
	for _, id := range h.order {
		if record, ok := h.records[id]; ok {
			visit(record)
		}
	}
}

// Notify fans one notification context out to every observing plugin.
func (h *PluginHost) Notify(n NotificationContext) {
	h.Each(func(record *PluginRecord) {
		if observer, ok := record.Plugin.(NotificationObserver); ok {
			observer.Observe(n)
		}
	})
}

// Admit routes a notification broadcast through every gating plugin in
// attach order. The first gate that withholds it stops the walk.
func (h *PluginHost) Admit(b *Broadcast) bool {
	admitted := true
	h.Each(func(record *PluginRecord) {
		if !admitted {
			return
		}
		if gate, ok := record.Plugin.(DeliveryGate); ok {
			admitted = gate.Admit(b)
		}
	})
	return admitted
}

// FindSnapshotProvider returns the first attached snapshot-capable plugin,
// or nil if none is attached.
func (h *PluginHost) FindSnapshotProvider() SnapshotProvider {
	var found SnapshotProvider
	h.Each(func(record *PluginRecord) {
		if found != nil {
			return
		}
		if provider, ok := record.Plugin.(SnapshotProvider); ok {
			found = provider
		}
	})
	return found
}
