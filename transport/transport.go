// Package transport defines the connection contract between an
// instrumentation session and its remote viewer. Each connection backend
// (channel, websocket, nats, kafka, rabbitmq, aws) lives in its own
// sub-package and registers itself with the transport registry.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
)

// Connection is the opaque transport a session posts wire messages through.
// The session never inspects transport internals: payloads are already
// serialized JSON on the way out and raw bytes on the way in.
type Connection interface {
	// Subscribe registers the callback invoked for every inbound payload and
	// starts consuming. The returned cancel function stops delivery without
	// disconnecting.
	Subscribe(onPost func(payload []byte)) (cancel func(), err error)

	// Post delivers one opaque payload to the remote endpoint.
	Post(payload []byte) error

	// Disconnect tears the connection down. Safe to call more than once.
	Disconnect() error
}

// Builder is the function signature for creating a connection from config.
// Each backend package provides a Builder that can be registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Connection, error)

// Config provides the configuration values needed by connection backends.
// This interface allows backends to access only the config they need without
// depending on the full config package.
type Config interface {
	// GetConnectionSystem returns the backend type name.
	GetConnectionSystem() string

	// GetOutTopic and GetInTopic name the outbound and inbound channels for
	// topic-based backends.
	GetOutTopic() string
	GetInTopic() string

	// WebSocket
	GetWebSocketURL() string

	// NATS
	GetNATSURL() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string

	// RabbitMQ
	GetRabbitMQURL() string

	// AWS
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// CapabilitiesProvider is implemented by backends that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
