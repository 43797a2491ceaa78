package rxjsspy

import (
	runtimepkg "github.com/calvarezmx/rxjs-spy/internal/runtime"
	configpkg "github.com/calvarezmx/rxjs-spy/internal/runtime/config"
	errspkg "github.com/calvarezmx/rxjs-spy/internal/runtime/errors"
	idspkg "github.com/calvarezmx/rxjs-spy/internal/runtime/ids"
	jsoncodec "github.com/calvarezmx/rxjs-spy/internal/runtime/jsoncodec"
	loggingpkg "github.com/calvarezmx/rxjs-spy/internal/runtime/logging"
	newtransport "github.com/calvarezmx/rxjs-spy/transport"
)

type (
	Config              = configpkg.Config
	Session             = runtimepkg.Session
	SessionDependencies = runtimepkg.SessionDependencies

	// Notification pipeline
	Event           = runtimepkg.Event
	SubscriptionRef = runtimepkg.SubscriptionRef
	Collaborators   = runtimepkg.Collaborators

	// Records & snapshots
	ObservableRecord     = runtimepkg.ObservableRecord
	SubscriberRecord     = runtimepkg.SubscriberRecord
	SubscriptionRecord   = runtimepkg.SubscriptionRecord
	ValueEntry           = runtimepkg.ValueEntry
	SnapshotPayload      = runtimepkg.SnapshotPayload
	SubscriptionSnapshot = runtimepkg.SubscriptionSnapshot
	Graph                = runtimepkg.Graph

	// Plugins
	Plugin               = runtimepkg.Plugin
	PluginRecord         = runtimepkg.PluginRecord
	NotificationContext  = runtimepkg.NotificationContext
	NotificationObserver = runtimepkg.NotificationObserver
	Commander            = runtimepkg.Commander
	SnapshotProvider     = runtimepkg.SnapshotProvider
	DeliveryGate         = runtimepkg.DeliveryGate
	Deck                 = runtimepkg.Deck
	DeckStats            = runtimepkg.DeckStats

	// Wire protocol
	Batch               = runtimepkg.Batch
	Broadcast           = runtimepkg.Broadcast
	Request             = runtimepkg.Request
	Response            = runtimepkg.Response
	NotificationPayload = runtimepkg.NotificationPayload

	// Metrics
	HubMetrics         = runtimepkg.HubMetrics
	HubMetricsSnapshot = runtimepkg.HubMetricsSnapshot

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	// Modular transport types
	Connection            = newtransport.Connection
	TransportBuilder      = newtransport.Builder
	TransportConfig       = newtransport.Config
	TransportRegistry     = newtransport.Registry
	TransportCapabilities = newtransport.Capabilities
)

// Notification event phases and kinds.
const (
	PhaseBefore = runtimepkg.PhaseBefore
	PhaseAfter  = runtimepkg.PhaseAfter

	KindSubscribe   = runtimepkg.KindSubscribe
	KindUnsubscribe = runtimepkg.KindUnsubscribe
	KindNext        = runtimepkg.KindNext
	KindError       = runtimepkg.KindError
	KindComplete    = runtimepkg.KindComplete
)

// Plugin kinds accepted by Session.CreatePlugin.
const (
	PluginKindLog        = runtimepkg.PluginKindLog
	PluginKindPause      = runtimepkg.PluginKindPause
	PluginKindSnapshot   = runtimepkg.PluginKindSnapshot
	PluginKindGraph      = runtimepkg.PluginKindGraph
	PluginKindStackTrace = runtimepkg.PluginKindStackTrace
)

var (
	NewSession     = runtimepkg.NewSession
	ValidateConfig = configpkg.ValidateConfig

	DefaultCollaborators = runtimepkg.DefaultCollaborators
	NewIdentityProvider  = runtimepkg.NewIdentityProvider
	InferTypeName        = runtimepkg.InferTypeName
	SerializeValue       = runtimepkg.SerializeValue
	NewHubMetrics        = runtimepkg.NewHubMetrics

	// Modular transport registry
	// Import individual connections via: _ "github.com/calvarezmx/rxjs-spy/transport/channel"
	DefaultTransportRegistry = newtransport.DefaultRegistry
	RegisterTransport        = newtransport.Register
	BuildTransport           = newtransport.Build

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrConnectionRequired = errspkg.ErrConnectionRequired
	ErrLoggerRequired     = errspkg.ErrLoggerRequired
	ErrConfigRequired     = errspkg.ErrConfigRequired
	ErrSessionClosed      = errspkg.ErrSessionClosed
	ErrPluginKindUnknown  = errspkg.ErrPluginKindUnknown
	ErrPluginIDRequired   = errspkg.ErrPluginIDRequired

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NewNopServiceLogger       = loggingpkg.NewNopServiceLogger

	CreateULID = idspkg.CreateULID
)
