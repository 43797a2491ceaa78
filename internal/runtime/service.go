package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/calvarezmx/rxjs-spy/internal/runtime/config"
	errorspkg "github.com/calvarezmx/rxjs-spy/internal/runtime/errors"
	"github.com/calvarezmx/rxjs-spy/internal/runtime/ids"
	"github.com/calvarezmx/rxjs-spy/internal/runtime/jsoncodec"
	loggingpkg "github.com/calvarezmx/rxjs-spy/internal/runtime/logging"
	"github.com/calvarezmx/rxjs-spy/transport"
)

const tracerName = "github.com/calvarezmx/rxjs-spy"

// SessionDependencies holds the optional collaborators a Session can use.
// Leave fields nil/zero for the defaults.
type SessionDependencies struct {
	// Connection overrides building one from the config's ConnectionSystem.
	Connection transport.Connection

	// Collaborators with nil funcs fall back to the defaults.
	Collaborators Collaborators

	// Registerer receives the Prometheus collectors when metrics are
	// enabled. Nil means the default registerer.
	Registerer prometheus.Registerer

	// DisableDefaultPlugins skips auto-attaching the snapshot, graph and
	// stack-trace plugins.
	DisableDefaultPlugins bool
}

// Session is one instrumentation hub: it folds lifecycle events into the
// registry, fans them out to plugins, gates them through pause decks and
// batches them onto the connection, while serving inbound viewer requests.
//
// All state is owned by a single event loop; Notify and the connection
// callback marshal onto it, so graph mutation and batching never race.
// Sessions never share mutable state with each other.
type Session struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	conn     transport.Connection
	registry *Registry
	host     *PluginHost
	batcher  *Batcher
	collab   Collaborators
	metrics  *HubMetrics

	tracer  trace.Tracer
	tracing bool

	spyID string
	tick  uint64

	loop            chan func()
	done            chan struct{}
	closeOnce       sync.Once
	cancelSubscribe func()
}

// NewSession constructs and starts a session. The connection comes from
// deps.Connection or is built from the config's ConnectionSystem via the
// transport registry.
func NewSession(ctx context.Context, conf *configpkg.Config, log loggingpkg.ServiceLogger, deps SessionDependencies) (*Session, error) {
	if conf == nil {
		return nil, errorspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errorspkg.ErrLoggerRequired
	}

	log.Info("Creating instrumentation session", loggingpkg.LogFields{
		"connection_system": conf.ConnectionSystem,
		"config":            conf,
	})

	conn := deps.Connection
	if conn == nil {
		if conf.ConnectionSystem == "" {
			return nil, errorspkg.ErrConnectionRequired
		}
		built, err := transport.Build(ctx, conf, loggingpkg.NewWatermillAdapter(log))
		if err != nil {
			return nil, err
		}
		conn = built
	}

	collab := deps.Collaborators.complete()

	s := &Session{
		Conf:     conf,
		Logger:   log,
		conn:     conn,
		registry: NewRegistry(collab, conf.ValueHistoryLimit),
		host:     NewPluginHost(log),
		collab:   collab,
		metrics:  NewHubMetrics(deps.Registerer),
		tracer:   otel.Tracer(tracerName),
		tracing:  conf.TracingEnabled,
		spyID:    ids.CreateULID(),
		loop:     make(chan func(), 256),
		done:     make(chan struct{}),
	}
	s.batcher = NewBatcher(conf.BatchInterval, conf.BatchNotifications, s.postBatch, s.schedule)

	if conf.MetricsEnabled {
		if err := s.metrics.Register(); err != nil {
			return nil, err
		}
	}

	if !deps.DisableDefaultPlugins {
		s.attachDefaultPlugins()
	}

	go s.run()

	cancel, err := conn.Subscribe(func(payload []byte) {
		s.schedule(func() { s.handleInbound(payload) })
	})
	if err != nil {
		close(s.done)
		return nil, err
	}
	s.cancelSubscribe = cancel

	return s, nil
}

// attachDefaultPlugins wires the plugins every session carries unless
// explicitly disabled: snapshot (so snapshot requests can be served), graph
// tracking, and stack-trace capture. Runs before the loop starts.
func (s *Session) attachDefaultPlugins() {
	_, _ = s.createPlugin(s.spyID, "", PluginKindSnapshot)
	_, _ = s.createPlugin(s.spyID, "", PluginKindGraph)
	_, _ = s.createPlugin(s.spyID, "", PluginKindStackTrace)
}

func (s *Session) run() {
	for {
		select {
		case f := <-s.loop:
			f()
		case <-s.done:
			return
		}
	}
}

// schedule marshals f onto the session's event loop. After close it is
// dropped.
func (s *Session) schedule(f func()) {
	select {
	case s.loop <- f:
	case <-s.done:
	}
}

// call runs f on the event loop and waits for it to finish.
func (s *Session) call(f func()) {
	finished := make(chan struct{})
	s.schedule(func() {
		f()
		close(finished)
	})
	select {
	case <-finished:
	case <-s.done:
	}
}

// SpyID returns the session correlation id.
func (s *Session) SpyID() string {
	return s.spyID
}

// Metrics exposes the session's metrics collector.
func (s *Session) Metrics() *HubMetrics {
	return s.metrics
}

// Host exposes the plugin host. Mutations must go through requests or
// happen before any notifications flow.
func (s *Session) Host() *PluginHost {
	return s.host
}

// Notify feeds one lifecycle event into the session. Safe to call from any
// goroutine; processing happens on the session's event loop.
func (s *Session) Notify(ev Event) {
	s.schedule(func() { s.notify(ev) })
}

func (s *Session) notify(ev Event) {
	s.tick++
	observableID, subscriberID, subscriptionID := s.registry.IdentifyRef(ev.Ref)
	n := NotificationContext{
		Event:          ev,
		ObservableID:   observableID,
		SubscriberID:   subscriberID,
		SubscriptionID: subscriptionID,
		Tick:           s.tick,
		Timestamp:      time.Now().UnixMilli(),
	}

	s.registry.Apply(ev, n.Tick, n.Timestamp)
	s.host.Notify(n)
	s.metrics.RecordNotification(ev.Type())

	broadcast := NewNotificationBroadcast(s.toNotification(n))
	if s.batcher.SnapshotHinted() {
		s.metrics.RecordSuppressed()
		return
	}
	if s.host.Admit(broadcast) {
		s.batcher.Enqueue(broadcast)
	}
	s.updatePausedGauge()
}

// toNotification projects one event into its wire payload using the current
// registry state.
func (s *Session) toNotification(n NotificationContext) *NotificationPayload {
	payload := &NotificationPayload{
		ID:         ids.CreateULID(),
		Observable: ObservableDescriptor{ID: n.ObservableID},
		Subscriber: SubscriberDescriptor{ID: n.SubscriberID},
		Subscription: SubscriptionDescriptor{
			ID:    n.SubscriptionID,
			Graph: s.registry.Graph().GraphOf(n.SubscriptionID),
		},
		Tick:      n.Tick,
		Timestamp: n.Timestamp,
		Type:      n.Event.Type(),
	}

	if observable := s.registry.Observable(n.ObservableID); observable != nil {
		payload.Observable.Path = observable.Path
		payload.Observable.Tag = observable.Tag
		payload.Observable.Type = observable.Type
	}
	if subscription := s.registry.Subscription(n.SubscriptionID); subscription != nil {
		payload.Subscription.Error = subscription.Error
		payload.Subscription.StackTrace = subscription.StackTrace
	}
	if n.Event.Kind == KindNext || n.Event.Kind == KindError {
		value := s.collab.Serialize(n.Event.Value)
		payload.Value = &value
	}
	return payload
}

// releaseBroadcast re-enqueues a broadcast a deck has released.
func (s *Session) releaseBroadcast(b *Broadcast) {
	s.batcher.Enqueue(b)
}

// publishDeckStats relays updated deck stats toward the viewer.
func (s *Session) publishDeckStats(stats DeckStats) {
	s.batcher.Enqueue(NewDeckStatsBroadcast(stats))
}

func (s *Session) updatePausedGauge() {
	var paused int64
	s.host.Each(func(record *PluginRecord) {
		if p, ok := record.Plugin.(*PausePlugin); ok && p.Deck().Paused() {
			paused++
		}
	})
	s.metrics.SetDecksPaused(paused)
}

// postBatch serializes one batch and posts it to the connection.
func (s *Session) postBatch(b *Batch) {
	payload, err := jsoncodec.Marshal(b)
	if err != nil {
		s.Logger.Error("Failed to marshal batch", err, loggingpkg.LogFields{
			"messages": len(b.Messages),
		})
		return
	}
	if err := s.conn.Post(payload); err != nil {
		s.Logger.Error("Failed to post batch", err, loggingpkg.LogFields{
			"messages": len(b.Messages),
		})
		return
	}
	s.metrics.RecordBatchPosted(len(b.Messages))
}

// handleInbound decodes one raw inbound payload and serves it. Responses
// flow back through the batcher like any other outbound message.
func (s *Session) handleInbound(payload []byte) {
	var req Request
	if err := jsoncodec.Unmarshal(payload, &req); err != nil {
		s.Logger.Error("Failed to decode inbound request", err, loggingpkg.LogFields{
			"payload_size": len(payload),
		})
		return
	}
	if resp := s.handleRequest(req); resp != nil {
		s.batcher.Enqueue(resp)
	}
}

// HandleRequest serves one already-decoded request synchronously on the
// event loop and returns the response.
func (s *Session) HandleRequest(req Request) *Response {
	var resp *Response
	s.call(func() { resp = s.handleRequest(req) })
	return resp
}

func (s *Session) handleRequest(req Request) *Response {
	if s.tracing {
		_, span := s.tracer.Start(context.Background(), "rxspy.request",
			trace.WithAttributes(
				attribute.String("request.type", req.RequestType),
				attribute.String("request.plugin_id", req.PluginID),
			))
		defer span.End()
	}

	resp := NewResponse(req)

	switch req.RequestType {
	case RequestLog:
		resp.PluginID, _ = s.createPlugin(req.SpyID, req.PluginID, PluginKindLog)

	case RequestLogTeardown:
		s.host.Teardown(req.PluginID)

	case RequestPause:
		resp.PluginID, _ = s.createPlugin(req.SpyID, req.PluginID, PluginKindPause)

	case RequestPauseCommand:
		s.dispatchCommand(req, resp)
		s.updatePausedGauge()

	case RequestPauseTeardown:
		s.host.Teardown(req.PluginID)
		s.updatePausedGauge()

	case RequestSnapshot:
		provider := s.host.FindSnapshotProvider()
		if provider == nil {
			resp.Error = errorNoSnapshotPlugin
			break
		}
		resp.Snapshot = provider.Snapshot()

	default:
		resp.Error = errorUnexpectedRequest
	}

	return resp
}

// dispatchCommand routes a pause-command. Unknown plugin ids are a
// deliberate silent no-op; only explicit unsupported commands error.
func (s *Session) dispatchCommand(req Request, resp *Response) {
	record := s.host.Get(req.PluginID)
	if record == nil {
		return
	}
	if req.Command == "inspect" {
		resp.Error = errorNotImplemented
		return
	}
	commander, ok := record.Plugin.(Commander)
	if !ok {
		resp.Error = errorUnexpectedCommand
		return
	}
	if errStr := commander.HandleCommand(req.Command); errStr != "" {
		resp.Error = errStr
	}
}

// createPlugin instantiates one of the known plugin kinds and attaches it.
// Runs on the event loop. An empty pluginID generates one.
func (s *Session) createPlugin(spyID, pluginID, kind string) (string, error) {
	if spyID == "" {
		spyID = s.spyID
	}
	var plugin Plugin
	switch kind {
	case PluginKindLog:
		plugin = NewLogPlugin(s.Logger)
	case PluginKindPause:
		if pluginID == "" {
			pluginID = ids.CreateULID()
		}
		plugin = NewPausePlugin(pluginID, s.releaseBroadcast, s.publishDeckStats)
	case PluginKindSnapshot:
		plugin = NewSnapshotPlugin(s.registry, func() uint64 { return s.tick }, func() {
			s.batcher.SnapshotTaken()
			s.metrics.RecordSnapshot()
		})
	case PluginKindGraph:
		plugin = NewGraphPlugin(s.registry.Graph())
	case PluginKindStackTrace:
		plugin = NewStackTracePlugin(s.registry, s.collab.GetStackTrace)
	default:
		return "", errorspkg.ErrPluginKindUnknown
	}
	return s.host.Attach(spyID, pluginID, plugin), nil
}

// CreatePlugin instantiates and attaches a plugin kind programmatically,
// outside the request protocol. Returns the plugin id for later commands
// and teardown.
func (s *Session) CreatePlugin(kind, pluginID string) (string, error) {
	select {
	case <-s.done:
		return "", errorspkg.ErrSessionClosed
	default:
	}
	var id string
	var err error
	s.call(func() { id, err = s.createPlugin(s.spyID, pluginID, kind) })
	return id, err
}

// TeardownPlugin tears a plugin down programmatically. Unknown ids are a
// no-op, matching the request protocol's leniency.
func (s *Session) TeardownPlugin(pluginID string) error {
	if pluginID == "" {
		return errorspkg.ErrPluginIDRequired
	}
	s.call(func() {
		s.host.Teardown(pluginID)
		s.updatePausedGauge()
	})
	return nil
}

// Snapshot builds a snapshot through the attached snapshot plugin. Returns
// nil if no snapshot plugin is attached or the session is closed.
func (s *Session) Snapshot() *SnapshotPayload {
	var snapshot *SnapshotPayload
	s.call(func() {
		if provider := s.host.FindSnapshotProvider(); provider != nil {
			snapshot = provider.Snapshot()
		}
	})
	return snapshot
}

// Tick returns the session's current logical clock.
func (s *Session) Tick() uint64 {
	var tick uint64
	s.call(func() { tick = s.tick })
	return tick
}

// Close tears the session down: every plugin is torn down, the armed batch
// timer is cancelled and its pending queue dropped unsent, and the
// connection is disconnected. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.call(func() {
			s.host.TeardownAll()
			s.batcher.Teardown()
		})
		if s.cancelSubscribe != nil {
			s.cancelSubscribe()
		}
		close(s.done)
		err = s.conn.Disconnect()
		s.Logger.Info("Session closed", loggingpkg.LogFields{"spy_id": s.spyID})
	})
	return err
}
