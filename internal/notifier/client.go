package notifier

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// controlMessage is what a client sends to manage its topic
// membership. Anything that does not parse into this shape, or names
// a showId of zero, is ignored without closing the connection.
type controlMessage struct {
	Action string `json:"action"`
	ShowID uint64 `json:"showId"`
}

const (
	actionJoinShow  = "join-show"
	actionLeaveShow = "leave-show"
)

// Client is a single WebSocket connection registered with a Hub.
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	sendDone chan struct{}
	shows    map[uint64]bool // guarded by hub.mu
}

// NewClient wraps an upgraded connection.  Call Start to begin the
// read and write pumps.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:       uuid.NewString(),
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.cfg.SendBuffer),
		sendDone: make(chan struct{}),
		shows:    make(map[uint64]bool),
	}
}

// ID returns the connection identifier used in logs.
func (c *Client) ID() string { return c.id }

// Start launches the write pump and runs the read pump on the calling
// goroutine.  It returns once the connection is gone and the client
// has been removed from the hub.
func (c *Client) Start() {
	go c.writePump()
	c.readPump()
}

func (c *Client) closeSend() {
	select {
	case <-c.sendDone:
	default:
		close(c.sendDone)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.forget(c)
		c.conn.Close()
	}()

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("notifier: client %s read error: %v", c.id, err)
			}
			return
		}
		c.handleControl(data)
	}
}

func (c *Client) handleControl(data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.ShowID == 0 {
		log.Printf("notifier: client %s sent malformed control message", c.id)
		return
	}
	switch msg.Action {
	case actionJoinShow:
		c.hub.Join(c, msg.ShowID)
	case actionLeaveShow:
		c.hub.Leave(c, msg.ShowID)
	default:
		log.Printf("notifier: client %s sent unknown action %q", c.id, msg.Action)
	}
}

func (c *Client) writePump() {
	cfg := c.hub.cfg
	pingPeriod := cfg.PongTimeout * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.sendDone:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-c.hub.done:
			return
		}
	}
}
