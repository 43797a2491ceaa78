package transport

// Capabilities describes the delivery features of a connection backend. The
// session consults these to decide whether batches may need to be resized or
// re-requested via snapshots.
type Capabilities struct {
	// Name is the human-readable name of the backend.
	Name string

	// Version is the backend/driver version.
	Version string

	// SupportsOrdering indicates the backend preserves message ordering.
	// Batches rely on FIFO delivery; an unordered backend forces the viewer
	// to reorder by notification id.
	SupportsOrdering bool

	// SupportsAck indicates the backend supports explicit acknowledgment.
	SupportsAck bool

	// SupportsNack indicates the backend supports negative acknowledgment.
	SupportsNack bool

	// Bidirectional indicates the backend carries inbound viewer requests on
	// the same link. One-way backends can only stream broadcasts.
	Bidirectional bool

	// Persistent indicates posted messages survive a viewer that attaches
	// late (broker-backed transports).
	Persistent bool

	// MaxMessageSize is the maximum payload size in bytes (0 = unlimited/unknown).
	MaxMessageSize int64
}

// SupportsReliableDelivery returns true if the backend supports at-least-once
// delivery semantics (ack + nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// Predefined capability sets for the built-in backends.
var (
	// ChannelCapabilities for the in-memory Go channel backend.
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
		Bidirectional:    true,
	}

	// WebSocketCapabilities for the direct browser/devtools link.
	WebSocketCapabilities = Capabilities{
		Name:             "websocket",
		SupportsOrdering: true,
		Bidirectional:    true,
	}

	// NATSCapabilities for the NATS Core backend.
	NATSCapabilities = Capabilities{
		Name:           "nats",
		Bidirectional:  true,
		MaxMessageSize: 1048576, // Default 1MB
	}

	// KafkaCapabilities for the Apache Kafka backend.
	KafkaCapabilities = Capabilities{
		Name:             "kafka",
		SupportsOrdering: true,
		SupportsAck:      true,
		Bidirectional:    true,
		Persistent:       true,
		MaxMessageSize:   1048576, // Default 1MB
	}

	// RabbitMQCapabilities for the RabbitMQ/AMQP backend.
	RabbitMQCapabilities = Capabilities{
		Name:             "rabbitmq",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
		Bidirectional:    true,
		Persistent:       true,
	}

	// AWSCapabilities for the AWS SNS/SQS backend.
	AWSCapabilities = Capabilities{
		Name:             "aws",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
		Bidirectional:    true,
		Persistent:       true,
		MaxMessageSize:   262144, // 256KB
	}
)

// GetCapabilities returns the capabilities for a backend by name.
// Uses the registry to look up capabilities registered by each backend package.
// Returns a zero Capabilities struct if the backend is unknown.
func GetCapabilities(name string) Capabilities {
	return DefaultRegistry.GetCapabilities(name)
}
