package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
)

// defaultHeartbeatInterval is how often Connection sends a heartbeat frame
// on the reserved "phoenix" topic.
const defaultHeartbeatInterval = 25 * time.Second

// onMessageFunc is invoked by Connection's listen loop for every inbound
// Message, after it has been decoded off the wire.
type onMessageFunc func(Message)

// logOversizedFrameBytes is the size above which a frame that fails to
// decode is logged with its humanized size, so operators can tell at a
// glance whether a decode failure came from a plausible frame or a
// runaway payload.
const logOversizedFrameBytes = 64 * 1024

// Connection owns one physical WebSocket: an unbounded outbound queue, a
// single cancellation gate, and three cooperating goroutines (listen,
// send, heartbeat).
type Connection struct {
	conn  *websocket.Conn
	queue *messageQueue

	ctx    context.Context
	cancel context.CancelFunc

	listenDone    chan error
	heartbeatDone chan error
}

// dialWebsocket performs the actual WebSocket handshake; it is a package
// variable so tests can substitute a fast, counting stub instead of
// dialing a real (or deliberately unreachable) address.
var dialWebsocket = websocket.DefaultDialer.Dial

// newConnection dials url, splits the resulting WebSocket into the three
// cooperating loops described in spec.md §4.1, and returns once all three
// are running.
func newConnection(parent context.Context, url string, onMessage onMessageFunc, heartbeatInterval time.Duration) (*Connection, error) {
	if heartbeatInterval <= 0 {
		heartbeatInterval = defaultHeartbeatInterval
	}

	conn, _, err := dialWebsocket(url, nil)
	if err != nil {
		return nil, &ConnectionError{Cause: err}
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Connection{
		conn:          conn,
		queue:         newMessageQueue(),
		ctx:           ctx,
		cancel:        cancel,
		listenDone:    make(chan error, 1),
		heartbeatDone: make(chan error, 1),
	}

	go c.listenLoop(onMessage)
	go c.sendLoop()
	go c.heartbeatLoop(heartbeatInterval)

	return c, nil
}

// Send enqueues message on the outbound queue. It never blocks.
func (c *Connection) Send(message Message) error {
	if !c.queue.push(message) {
		return ErrChannelSend
	}
	return nil
}

// Close fires the cancellation gate, unblocks the listen loop by closing
// the socket, and awaits the listen and heartbeat tasks, aggregating any
// errors they return.
func (c *Connection) Close() error {
	c.cancel()
	c.queue.shutdown()
	_ = c.conn.Close()

	var errs []error
	if err := <-c.listenDone; err != nil {
		errs = append(errs, err)
	}
	if err := <-c.heartbeatDone; err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return &MultipleTaskErrors{Errors: errs}
	}
	return nil
}

// listenLoop reads frames off the socket; text frames decode to Message
// and are handed to onMessage. Close and binary frames are ignored.
// Decode errors are fatal and surface via Close.
func (c *Connection) listenLoop(onMessage onMessageFunc) {
	for {
		select {
		case <-c.ctx.Done():
			c.listenDone <- nil
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
				c.listenDone <- nil
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.listenDone <- nil
				} else {
					c.listenDone <- &ConnectionError{Cause: err}
					c.cancel()
				}
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			if len(data) > logOversizedFrameBytes {
				log.Printf("[realtime] decode error on %s frame: %v", humanize.Bytes(uint64(len(data))), err)
			} else {
				log.Printf("[realtime] decode error: %v", err)
			}
			c.listenDone <- &SerializationError{Cause: err}
			c.cancel()
			return
		}

		onMessage(msg)
	}
}

// sendLoop dequeues Messages, serializes them, and writes them to the
// socket in strict enqueue order. A closed queue cancels the gate and
// exits cleanly; a send error is fatal.
func (c *Connection) sendLoop() {
	for msg := range c.queue.out {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("[realtime] serialize error: %v", err)
			c.cancel()
			return
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[realtime] write error: %v", err)
			c.cancel()
			return
		}
	}
	c.cancel()
}

// heartbeatLoop enqueues a heartbeat Message on every tick of interval.
// Go's time.Ticker does not fire an immediate first tick (unlike the
// tokio interval this loop is modeled on, whose first tick must be
// explicitly discarded), so the default heartbeat cadence needs no extra
// priming step.
func (c *Connection) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !c.queue.push(heartbeatMessage()) {
				c.heartbeatDone <- nil
				return
			}
		case <-c.ctx.Done():
			c.heartbeatDone <- nil
			return
		}
	}
}
