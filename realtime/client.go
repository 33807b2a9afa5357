package realtime

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// tuning parameters
var (
	writeWait      = 10 * time.Second    // time allowed to write a message to the peer
	pongWait       = 20 * time.Second    // time allowed to read the next pong message from the peer
	pingInterval   = (pongWait * 9) / 10 // send pings to peer with this period
	maxMessageSize = 64 * 1024           // max inbound message size (64KB)
	sendBufSize    = 256                 // per-connection outbound buffer size
	sendTimeout    = 2 * time.Second     // timeout for enqueuing outbound messages
)

// InboundHandler routes one event read off a client's socket.
type InboundHandler func(userID uint, ev Event)

// Client is one member's live socket. A member holds at most one; a
// newer connection replaces the old.
type Client struct {
	userID uint
	conn   *websocket.Conn
	hub    *Hub
	egress chan Event

	once   sync.Once
	closed chan struct{}
	log    *zap.Logger
}

func newClient(userID uint, conn *websocket.Conn, h *Hub) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		hub:    h,
		egress: make(chan Event, sendBufSize),
		closed: make(chan struct{}),
		log:    h.log.With(zap.Uint("user_id", userID)),
	}
}

func (c *Client) ReadLoop(handler InboundHandler) {
	defer func() {
		c.hub.unregister <- c
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				c.log.Debug("client disconnected")
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.log.Debug("client timed out")
				return
			}
			c.log.Warn("read error", zap.Error(err))
			return
		}

		handler(c.userID, ev)
	}
}

func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.log.Warn("write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Send enqueues the event, giving up after sendTimeout so a stalled
// socket cannot block the caller. False means it was not accepted.
func (c *Client) Send(ev Event) bool {
	select {
	case <-c.closed:
		return false
	case c.egress <- ev:
		return true
	case <-time.After(sendTimeout):
		c.log.Warn("egress full, dropping client")
		select {
		case c.hub.unregister <- c:
		default:
		}
		return false
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
	})
}
