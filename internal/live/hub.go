// Package live streams unit updates to editors over websockets. Every
// browser tab editing a unit subscribes to it and receives each applied
// update as it is saved.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message is the JSON envelope written to subscribers.
type Message struct {
	Type    string `json:"type"`
	UnitID  int64  `json:"unit_id"`
	Payload any    `json:"payload"`
}

type outbound struct {
	unitID int64
	data   []byte
}

// Client is one websocket connection subscribed to a single unit.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	unitID int64
	send   chan []byte
}

// Hub tracks subscribers per unit and fans messages out to them.
type Hub struct {
	units      map[int64]map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		units:      make(map[int64]map[*Client]bool),
		broadcast:  make(chan outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "live").Logger(),
	}
}

// Run is the hub loop. It returns when ctx is cancelled, closing every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, set := range h.units {
				for c := range set {
					close(c.send)
				}
			}
			h.units = map[int64]map[*Client]bool{}
			return

		case c := <-h.register:
			set := h.units[c.unitID]
			if set == nil {
				set = make(map[*Client]bool)
				h.units[c.unitID] = set
			}
			set[c] = true
			h.log.Debug().Int64("unit", c.unitID).Int("subscribers", len(set)).Msg("subscriber registered")

		case c := <-h.unregister:
			h.drop(c)

		case m := <-h.broadcast:
			for c := range h.units[m.unitID] {
				select {
				case c.send <- m.data:
				default:
					// slow client
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	set := h.units[c.unitID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.units, c.unitID)
	}
}

// Publish queues msg for every subscriber of unitID. It never blocks the
// caller for long: if the hub is backed up the message is dropped.
func (h *Hub) Publish(unitID int64, msgType string, payload any) {
	data, err := json.Marshal(Message{Type: msgType, UnitID: unitID, Payload: payload})
	if err != nil {
		h.log.Error().Err(err).Int64("unit", unitID).Msg("encode live message")
		return
	}
	select {
	case h.broadcast <- outbound{unitID: unitID, data: data}:
	case <-h.done:
	case <-time.After(100 * time.Millisecond):
		h.log.Warn().Int64("unit", unitID).Str("type", msgType).Msg("live hub busy, message dropped")
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Serve upgrades r and subscribes the connection to unitID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, unitID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade")
		return
	}
	c := &Client{hub: h, conn: conn, unitID: unitID, send: make(chan []byte, 256)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// readPump only watches for the close; editors do not send over the socket.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Int64("unit", c.unitID).Msg("websocket read")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
