// Package websocket provides a WebSocket connection backend for linking a
// session directly to a browser devtools panel. Unlike the broker-backed
// backends it is a single persistent socket, so out/in topics do not apply.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gorilla/websocket"

	"github.com/calvarezmx/rxjs-spy/transport"
)

// TransportName is the name used to register this backend.
const TransportName = "websocket"

const (
	writeTimeout     = 10 * time.Second
	handshakeTimeout = 45 * time.Second
)

// Dialer allows overriding the websocket dialer for testing.
var Dialer = func(ctx context.Context, url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	return conn, err
}

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.WebSocketCapabilities)
}

// Build dials the configured WebSocket URL and wraps the socket as a
// connection.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Connection, error) {
	url := cfg.GetWebSocketURL()

	conn, err := Dialer(ctx, url)
	if err != nil {
		logger.Error("Failed to dial WebSocket", err, watermill.LogFields{"url": url})
		return nil, err
	}
	logger.Info("WebSocket connected", watermill.LogFields{"url": url})

	return &wsConnection{conn: conn, logger: logger}, nil
}

// Capabilities returns the capabilities of this backend.
func Capabilities() transport.Capabilities {
	return transport.WebSocketCapabilities
}

// wsConnection adapts a single websocket to the transport.Connection
// contract. Writes are serialized with a mutex because gorilla/websocket
// allows at most one concurrent writer.
type wsConnection struct {
	conn   *websocket.Conn
	logger watermill.LoggerAdapter

	writeMu sync.Mutex

	mu           sync.Mutex
	subscribed   bool
	disconnected bool
	done         chan struct{}
}

func (c *wsConnection) Subscribe(onPost func(payload []byte)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disconnected {
		return nil, transport.ErrDisconnected
	}
	if c.subscribed {
		return nil, transport.ErrAlreadySubscribed
	}
	c.subscribed = true
	done := make(chan struct{})
	c.done = done

	go c.readLoop(onPost, done)

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.done == done {
			close(done)
			c.done = nil
			c.subscribed = false
		}
	}
	return cancel, nil
}

func (c *wsConnection) readLoop(onPost func(payload []byte), done chan struct{}) {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				c.logger.Debug("WebSocket read loop stopped", watermill.LogFields{"err": err.Error()})
			}
			return
		}
		select {
		case <-done:
			return
		default:
		}
		onPost(payload)
	}
}

func (c *wsConnection) Post(payload []byte) error {
	c.mu.Lock()
	if c.disconnected {
		c.mu.Unlock()
		return transport.ErrDisconnected
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsConnection) Disconnect() error {
	c.mu.Lock()
	if c.disconnected {
		c.mu.Unlock()
		return nil
	}
	c.disconnected = true
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	deadline := time.Now().Add(writeTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.writeMu.Unlock()

	return c.conn.Close()
}
