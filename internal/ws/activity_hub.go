package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clgportal/backend_v1/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// ActivityHub fans out freshly written activity-log entries to connected
// admin dashboards.
type ActivityHub struct {
	register   chan *activityClient
	unregister chan *activityClient
	broadcast  chan []byte
	clients    map[*activityClient]struct{}
}

func NewActivityHub() *ActivityHub {
	return &ActivityHub{
		register:   make(chan *activityClient),
		unregister: make(chan *activityClient),
		broadcast:  make(chan []byte, 256),
		clients:    make(map[*activityClient]struct{}),
	}
}

func (h *ActivityHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				client.conn.Close()
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					delete(h.clients, client)
					close(client.send)
					client.conn.Close()
				}
			}
		}
	}
}

// Broadcast pushes one activity entry to every connected client.
func (h *ActivityHub) Broadcast(entry models.ActivityLog) {
	if h == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("ws: failed to marshal activity entry: %v", err)
		return
	}
	h.broadcast <- data
}

type activityClient struct {
	hub  *ActivityHub
	conn *websocket.Conn
	send chan []byte
}

func newActivityClient(hub *ActivityHub, conn *websocket.Conn) *activityClient {
	return &activityClient{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

func (c *activityClient) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *activityClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
