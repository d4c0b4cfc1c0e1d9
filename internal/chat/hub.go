package chat

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/giladwin/chat/internal/models"
	"github.com/giladwin/chat/internal/policy"
)

// Directory is the slice of the room directory the engine depends on: the
// shared persisted membership and history, mutated only through these
// operations.
type Directory interface {
	Get(ctx context.Context, name string) (*models.Room, error)
	AddMember(ctx context.Context, name, username string) error
	RemoveMember(ctx context.Context, name, username string) error
	AppendMessage(ctx context.Context, name string, msg *models.Message) error
}

// Hub routes admitted connections to per-room channel groups, creating each
// group's goroutine on first use. There is no global lock around room
// activity; the hub mutex only guards the group registry.
type Hub struct {
	mu     sync.Mutex
	groups map[string]*roomGroup

	directory Directory
	filter    *policy.Filter
	quit      chan struct{}
}

func NewHub(directory Directory, filter *policy.Filter) *Hub {
	log.Println("[HUB] initializing hub")
	return &Hub{
		groups:    make(map[string]*roomGroup),
		directory: directory,
		filter:    filter,
		quit:      make(chan struct{}),
	}
}

// Admit hands a verified connection to its room's group and starts the
// connection's pumps.
func (h *Hub) Admit(conn *websocket.Conn, roomName, username string) {
	g := h.group(roomName)
	c := &Client{
		conn:     conn,
		room:     g,
		username: username,
		send:     make(chan []byte, 256),
	}

	// Join before starting the pumps so no inbound event can outrun the
	// membership registration.
	g.join <- c

	go c.writePump()
	go c.readPump()
}

func (h *Hub) group(name string) *roomGroup {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[name]
	if !ok {
		g = newRoomGroup(name, h)
		h.groups[name] = g
		go g.run()
	}
	return g
}

// Shutdown stops every room group and closes all live connections.
func (h *Hub) Shutdown() {
	log.Println("[HUB] shutting down all room groups")
	close(h.quit)
}
