package realtime

import (
	"log"
	"sync"
)

// Hub owns every admitted realtime connection and fans bus events out into
// tenant rooms. A client belongs to exactly one room for its whole lifetime;
// membership is in-memory only and lost on restart, so clients re-authenticate
// when they reconnect. Safe for concurrent use.
type Hub struct {
	rooms      map[string]map[string]*Client // tenant -> client ID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	mu         sync.RWMutex
}

// roomMessage carries the pre-encoded frames for one bus event: one
// addressed to the originating device's channel and one to the wildcard.
type roomMessage struct {
	room   string
	frames [][]byte
}

// NewHub allocates and initialises a Hub. Call Run() in a goroutine to start
// the event loop.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan roomMessage, 256),
	}
}

// Run is the hub's main event loop. It must be executed in a dedicated
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.Room]
			if !ok {
				room = make(map[string]*Client)
				h.rooms[client.Room] = room
			}
			room[client.ID] = client
			h.mu.Unlock()
			log.Printf("realtime: client %s joined room %s", client.ID, client.Room)

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.Room]; ok {
				if _, ok := room[client.ID]; ok {
					delete(room, client.ID)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("realtime: client %s left room %s", client.ID, client.Room)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.rooms[msg.room] {
				for _, frame := range msg.frames {
					select {
					case client.send <- frame:
					default:
						// Slow consumer: drop the frame to avoid blocking
						// delivery to the rest of the room.
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Route validates a raw bus payload and delivers it to every connection in
// the tenant's room, addressed once by device id and once on the wildcard
// channel. Malformed payloads are dropped and logged; one bad event never
// stalls ingestion.
func (h *Hub) Route(tenant string, payload []byte) {
	device, err := deviceID(payload)
	if err != nil {
		log.Printf("realtime: dropping event for tenant %s: %v", tenant, err)
		return
	}

	deviceFrame, err := encodeFrame(device, payload)
	if err != nil {
		log.Printf("realtime: failed to encode frame for device %s: %v", device, err)
		return
	}
	wildcardFrame, err := encodeFrame(WildcardChannel, payload)
	if err != nil {
		log.Printf("realtime: failed to encode wildcard frame: %v", err)
		return
	}

	h.broadcast <- roomMessage{room: tenant, frames: [][]byte{deviceFrame, wildcardFrame}}
}

// Register enqueues a new client for admission into its room.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister enqueues a client for removal from its room.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// RoomSize reports how many clients are currently in the tenant's room.
func (h *Hub) RoomSize(tenant string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tenant])
}
