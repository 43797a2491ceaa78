package runtime

// Wire message discriminators.
const (
	MessageTypeBatch     = "batch"
	MessageTypeBroadcast = "broadcast"
	MessageTypeResponse  = "response"
)

// Broadcast kinds.
const (
	BroadcastNotification = "notification"
	BroadcastDeckStats    = "deck-stats"
	BroadcastSnapshotHint = "snapshot-hint"
)

// Inbound request kinds.
const (
	RequestLog           = "log"
	RequestLogTeardown   = "log-teardown"
	RequestPause         = "pause"
	RequestPauseCommand  = "pause-command"
	RequestPauseTeardown = "pause-teardown"
	RequestSnapshot      = "snapshot"
)

// Response error strings. These are part of the wire contract and must not
// be reworded.
const (
	errorNotImplemented    = "Not implemented."
	errorUnexpectedCommand = "Unexpected command."
	errorUnexpectedRequest = "Unexpected request."
	errorNoSnapshotPlugin  = "Cannot find snapshot plugin."
)

// Message is any wire unit that can appear inside a Batch.
type Message interface {
	wireMessage()
}

// Batch groups messages accumulated during one batch window into a single
// wire send.
type Batch struct {
	MessageType string    `json:"messageType"`
	Messages    []Message `json:"messages"`
}

// NewBatch wraps the given messages in a batch envelope.
func NewBatch(messages []Message) *Batch {
	return &Batch{MessageType: MessageTypeBatch, Messages: messages}
}

// Broadcast is an unsolicited outbound message: a notification, the latest
// stats for a deck, or a hint that the viewer should request a snapshot.
type Broadcast struct {
	MessageType   string               `json:"messageType"`
	BroadcastType string               `json:"broadcastType"`
	Notification  *NotificationPayload `json:"notification,omitempty"`
	Stats         *DeckStats           `json:"stats,omitempty"`
}

func (*Broadcast) wireMessage() {}

// NewNotificationBroadcast wraps a notification payload for the wire.
func NewNotificationBroadcast(payload *NotificationPayload) *Broadcast {
	return &Broadcast{
		MessageType:   MessageTypeBroadcast,
		BroadcastType: BroadcastNotification,
		Notification:  payload,
	}
}

// NewDeckStatsBroadcast wraps deck stats for the wire.
func NewDeckStatsBroadcast(stats DeckStats) *Broadcast {
	return &Broadcast{
		MessageType:   MessageTypeBroadcast,
		BroadcastType: BroadcastDeckStats,
		Stats:         &stats,
	}
}

// NewSnapshotHintBroadcast signals that notifications are being suppressed
// and the viewer should request a fresh snapshot.
func NewSnapshotHintBroadcast() *Broadcast {
	return &Broadcast{
		MessageType:   MessageTypeBroadcast,
		BroadcastType: BroadcastSnapshotHint,
	}
}

// Request is an inbound control message from the viewer.
type Request struct {
	RequestType string `json:"requestType"`
	PostID      string `json:"postId"`
	SpyID       string `json:"spyId"`
	PluginID    string `json:"pluginId,omitempty"`
	Command     string `json:"command,omitempty"`
}

// Response answers one inbound request. Protocol failures travel in the
// Error field; they are never Go errors.
type Response struct {
	MessageType string           `json:"messageType"`
	Request     Request          `json:"request"`
	Error       string           `json:"error,omitempty"`
	PluginID    string           `json:"pluginId,omitempty"`
	Snapshot    *SnapshotPayload `json:"snapshot,omitempty"`
}

func (*Response) wireMessage() {}

// NewResponse creates a response echoing the originating request.
func NewResponse(req Request) *Response {
	return &Response{MessageType: MessageTypeResponse, Request: req}
}

// NotificationPayload is the wire projection of one lifecycle event.
type NotificationPayload struct {
	ID           string                 `json:"id"`
	Observable   ObservableDescriptor   `json:"observable"`
	Subscriber   SubscriberDescriptor   `json:"subscriber"`
	Subscription SubscriptionDescriptor `json:"subscription"`
	Tick         uint64                 `json:"tick"`
	Timestamp    int64                  `json:"timestamp"`
	Type         string                 `json:"type"`
	Value        *string                `json:"value,omitempty"`
}

// ObservableDescriptor identifies the observable side of a notification.
type ObservableDescriptor struct {
	ID   string  `json:"id"`
	Path string  `json:"path"`
	Tag  *string `json:"tag"`
	Type string  `json:"type"`
}

// SubscriberDescriptor identifies the subscriber side of a notification.
type SubscriberDescriptor struct {
	ID string `json:"id"`
}

// SubscriptionDescriptor identifies the subscription a notification belongs
// to, with its current graph links and error state.
type SubscriptionDescriptor struct {
	Error      *string `json:"error"`
	Graph      *Graph  `json:"graph"`
	ID         string  `json:"id"`
	StackTrace any     `json:"stackTrace"`
}

// Graph is the wire projection of one subscription's structural links.
// Sink points upward toward the consumer; sources and flats point downward
// toward producers.
type Graph struct {
	Flats          []string `json:"flats"`
	FlatsFlushed   bool     `json:"flatsFlushed"`
	RootSink       *string  `json:"rootSink"`
	Sink           *string  `json:"sink"`
	Sources        []string `json:"sources"`
	SourcesFlushed bool     `json:"sourcesFlushed"`
}
