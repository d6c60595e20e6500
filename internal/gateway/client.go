package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	helloTimeout       = 15 * time.Second
)

// Client maintains the persistent Gateway subscription: dial, hello,
// identify, heartbeat, dispatch decode, reconnect. Channel name updates for
// the watched channel are handed to the onName callback; everything else on
// the wire is ignored.
type Client struct {
	url       string
	token     string
	channelID string
	onName    func(name string)

	writeMu sync.Mutex // serialises conn writes (identify, heartbeat)

	// awaitingAck is set when a heartbeat goes out and cleared by the ack.
	// A heartbeat coming due while the previous one is still unacked means
	// the connection is a zombie and gets torn down.
	awaitingAck atomic.Bool

	reconnectBase time.Duration
	reconnectMax  time.Duration
}

func NewClient(url, token, channelID string, onName func(name string)) *Client {
	return &Client{
		url:           url,
		token:         token,
		channelID:     channelID,
		onName:        onName,
		reconnectBase: reconnectBaseDelay,
		reconnectMax:  reconnectMaxDelay,
	}
}

// Run connects and processes frames until ctx is cancelled, redialing with
// bounded exponential backoff after every disconnect. The backoff resets
// once a session gets past the hello handshake.
func (c *Client) Run(ctx context.Context) {
	delay := c.reconnectBase
	for {
		if ctx.Err() != nil {
			return
		}

		helloed, err := c.runSession(ctx)
		if ctx.Err() != nil {
			log.Println("Gateway client stopped")
			return
		}
		if helloed {
			delay = c.reconnectBase
		}
		log.Printf("[WS] session ended: %v (reconnecting in %v)", err, delay)

		select {
		case <-ctx.Done():
			log.Println("Gateway client stopped")
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, c.reconnectMax)
	}
}

// runSession runs one connection from dial to disconnect. It reports whether
// the hello handshake completed, so Run knows when to reset its backoff.
func (c *Client) runSession(ctx context.Context) (helloed bool, err error) {
	log.Println("[WS] Connecting to Gateway...")
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Close the socket on cancellation so blocked reads return.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	interval, err := c.awaitHello(conn)
	if err != nil {
		return false, err
	}
	log.Printf("[WS] Connected, heartbeat interval %s", interval)

	identify, err := identifyFrame(c.token)
	if err != nil {
		return true, fmt.Errorf("building identify: %w", err)
	}
	if err := c.writeFrame(conn, identify); err != nil {
		return true, fmt.Errorf("sending identify: %w", err)
	}
	log.Println("[WS] Sent identify")

	c.awaitingAck.Store(false)
	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go c.heartbeatLoop(hbCtx, conn, interval)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		c.handleFrame(data)
	}
}

// awaitHello reads the first frame of a session, which must be an op 10
// hello carrying the heartbeat interval. Anything else is a protocol error
// fatal to this session.
func (c *Client) awaitHello(conn *websocket.Conn) (time.Duration, error) {
	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("reading hello: %w", err)
	}
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return 0, fmt.Errorf("decoding hello: %w", err)
	}
	if frame.Op != OpHello {
		return 0, fmt.Errorf("expected hello (op %d) as first frame, got op %d", OpHello, frame.Op)
	}
	var hello HelloData
	if err := json.Unmarshal(frame.Data, &hello); err != nil {
		return 0, fmt.Errorf("decoding hello payload: %w", err)
	}
	if hello.HeartbeatInterval <= 0 {
		return 0, fmt.Errorf("hello carried invalid heartbeat interval %d", hello.HeartbeatInterval)
	}
	return time.Duration(hello.HeartbeatInterval) * time.Millisecond, nil
}

// heartbeatLoop sends an op 1 frame every interval for the life of the
// session. The first heartbeat goes out one full interval after identify.
func (c *Client) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.awaitingAck.Load() {
				log.Println("[WS] heartbeat ack missed, closing connection")
				conn.Close()
				return
			}
			c.awaitingAck.Store(true)
			if err := c.writeFrame(conn, heartbeatFrame()); err != nil {
				log.Printf("[WS] heartbeat write error: %v", err)
				return
			}
		}
	}
}

// handleFrame decodes one inbound frame. Decode errors on individual frames
// are logged and skipped; they never tear down the session.
func (c *Client) handleFrame(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Printf("[WS] frame decode error: %v", err)
		return
	}

	switch frame.Op {
	case OpHeartbeatAck:
		c.awaitingAck.Store(false)
	case OpDispatch:
		if frame.Type != EventChannelUpdate {
			return
		}
		var channel ChannelData
		if err := json.Unmarshal(frame.Data, &channel); err != nil {
			log.Printf("[WS] %s decode error: %v", EventChannelUpdate, err)
			return
		}
		if channel.ID != c.channelID {
			return
		}
		log.Printf("[WS] Channel update: %q", channel.Name)
		c.onName(channel.Name)
	}
}

func (c *Client) writeFrame(conn *websocket.Conn, frame Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(frame)
}
