package transport

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// PubSubConnection adapts a Watermill publisher/subscriber pair into a
// Connection. Outbound payloads are published to the out topic; inbound viewer
// requests are consumed from the in topic. All broker-backed connection
// backends (channel, nats, kafka, rabbitmq, aws) are built on this adapter.
type PubSubConnection struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	outTopic   string
	inTopic    string

	mu           sync.Mutex
	cancel       context.CancelFunc
	subscribed   bool
	disconnected bool
}

// NewPubSubConnection wraps the supplied publisher/subscriber pair. The pair
// is owned by the connection afterwards: Disconnect closes both.
func NewPubSubConnection(pub message.Publisher, sub message.Subscriber, outTopic, inTopic string) *PubSubConnection {
	return &PubSubConnection{
		publisher:  pub,
		subscriber: sub,
		outTopic:   outTopic,
		inTopic:    inTopic,
	}
}

// Post publishes one payload to the out topic.
func (c *PubSubConnection) Post(payload []byte) error {
	c.mu.Lock()
	if c.disconnected {
		c.mu.Unlock()
		return ErrDisconnected
	}
	c.mu.Unlock()

	msg := message.NewMessage(watermill.NewUUID(), payload)
	return c.publisher.Publish(c.outTopic, msg)
}

// Subscribe starts consuming the in topic and invokes onPost for every
// payload in arrival order. Only one active subscription is supported.
func (c *PubSubConnection) Subscribe(onPost func(payload []byte)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disconnected {
		return nil, ErrDisconnected
	}
	if c.subscribed {
		return nil, ErrAlreadySubscribed
	}

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := c.subscriber.Subscribe(ctx, c.inTopic)
	if err != nil {
		cancel()
		return nil, err
	}

	c.cancel = cancel
	c.subscribed = true

	go func() {
		for msg := range messages {
			onPost(msg.Payload)
			msg.Ack()
		}
	}()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		c.subscribed = false
	}, nil
}

// Disconnect cancels the inbound subscription and closes the underlying
// publisher and subscriber. Safe to call more than once.
func (c *PubSubConnection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disconnected {
		return nil
	}
	c.disconnected = true

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	pubErr := c.publisher.Close()
	subErr := c.subscriber.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}
