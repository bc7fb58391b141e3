package ws

import (
	"errors"
	"sync"
	"time"

	"ride-relay/internal/mylogger"
	"ride-relay/internal/relay-service/core/ports"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrEgressFull   = errors.New("egress buffer full")
)

// Client is one accepted websocket connection. It implements ports.Conn:
// Send only enqueues, and the write pump does the actual I/O.
type Client struct {
	conn   *websocket.Conn
	dis    ports.IDispatcher
	log    mylogger.Logger
	egress chan []byte
	done   chan struct{}
	once   sync.Once

	// onGone runs once after the read pump has exited.
	onGone func(*Client)
}

var _ ports.Conn = (*Client)(nil)

func NewClient(conn *websocket.Conn, dis ports.IDispatcher, log mylogger.Logger, buffer int) *Client {
	return &Client{
		conn:   conn,
		dis:    dis,
		log:    log,
		egress: make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.egress <- payload:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrEgressFull
	}
}

// Close asks the write pump to flush, send a close frame and drop the socket.
// It does not wait for that to happen.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
	})
	return nil
}

// ReadMessage feeds every frame to the dispatcher until the socket fails,
// then reports the disconnect.
func (c *Client) ReadMessage() {
	log := c.log.Action("read_message")
	defer func() {
		c.Close()
		c.dis.HandleDisconnect(c)
		if c.onGone != nil {
			c.onGone(c)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Debug("connection lost", "error", err.Error())
			}
			return
		}
		c.dis.HandleMessage(c, payload)
	}
}

// WriteMessage drains the egress queue onto the socket and keeps the peer
// alive with pings. It owns closing the underlying connection.
func (c *Client) WriteMessage() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-c.egress:
			if err := c.write(payload); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *Client) write(payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// flush writes whatever is already queued, stopping at the first error.
func (c *Client) flush() {
	for {
		select {
		case payload := <-c.egress:
			if err := c.write(payload); err != nil {
				return
			}
		default:
			return
		}
	}
}
