// internal/spectate/hub.go
package spectate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/feng-mou-mou/Railof1914/service/internal/game"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	clientBuffer = 64
	hubBuffer    = 256
	writeTimeout = 5 * time.Second
)

// client is one connected spectator.
type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub fans game events out to every connected spectator. A client whose
// buffer is full is dropped.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	count      chan chan int
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, hubBuffer),
		count:      make(chan chan int),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return nil
		case c := <-h.register:
			h.clients[c] = true
			log.Debugf("spectate: client %s connected (%d total)", c.id, len(h.clients))
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				log.Debugf("spectate: client %s disconnected", c.id)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					log.Warnf("spectate: client %s too slow, dropping", c.id)
					delete(h.clients, c)
					close(c.send)
				}
			}
		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

// Broadcast queues ev for every client. It never blocks: when the hub queue is
// full the event is dropped.
func (h *Hub) Broadcast(ev game.GameEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("spectate: failed to encode event %s: %v", ev.Type, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Warnf("spectate: hub queue full, dropping event %s", ev.Type)
	}
}

// Clients returns the number of connected spectators.
func (h *Hub) Clients(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-ctx.Done():
		return 0
	}
}

// writer drains c.send onto the socket.
func (c *client) writer(ctx context.Context) {
	for msg := range c.send {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.conn.Write(wctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			log.Debugf("spectate: write to %s failed: %v", c.id, err)
			return
		}
	}
	c.conn.Close(websocket.StatusNormalClosure, "")
}
