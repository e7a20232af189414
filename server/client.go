package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/hub"
)

// WebSocket timeout constants following Gorilla best practices
// See: https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffered updates per client before the connection is considered dead
	sendBufferSize = 64
)

// Client is one WebSocket subscriber. It satisfies hub.Conn: the hub hands
// updates to Send, the write pump drains them to the socket.
type Client struct {
	server    *Server
	conn      *websocket.Conn
	send      chan *hub.Update
	handle    *hub.Handle
	ownerID   string
	closeOnce sync.Once
	closed    chan struct{}
}

// Send queues an update for the write pump. It never blocks the hub: a full
// buffer or a closed client reports an error, which makes the hub drop the
// handle.
func (c *Client) Send(update *hub.Update) error {
	select {
	case <-c.closed:
		return errors.New("client closed")
	default:
	}

	select {
	case c.send <- update:
		return nil
	default:
		return errors.Newf("client %s send buffer full", c.ownerID)
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// handleWebSocket upgrades /ws?owner_id=... and attaches the client to the hub
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id query parameter is required")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("WebSocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		server:  s,
		conn:    conn,
		send:    make(chan *hub.Update, sendBufferSize),
		ownerID: ownerID,
		closed:  make(chan struct{}),
	}
	client.handle = s.hub.Attach(ownerID, client)

	s.logger.Infow("WebSocket client connected", "owner_id", ownerID)

	go client.writePump()
	go client.readPump()
}

// readPump consumes messages from the peer. Inbound payloads are ignored,
// the read loop exists to detect disconnects and answer pings.
func (c *Client) readPump() {
	defer func() {
		c.server.hub.Detach(c.handle)
		c.close()
		c.server.logger.Infow("WebSocket client disconnected", "owner_id", c.ownerID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Debugw("WebSocket read error", "owner_id", c.ownerID, "error", err)
			}
			return
		}
	}
}

// writePump drains queued updates to the socket and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case update := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(update); err != nil {
				c.server.logger.Debugw("WebSocket write failed", "owner_id", c.ownerID, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
