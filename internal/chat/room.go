package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/giladwin/chat/internal/models"
)

const directoryTimeout = 5 * time.Second

// roomGroup owns every live connection of one room. A single goroutine per
// group serializes membership changes and message fan-out for that room;
// groups never share state, so activity in one room cannot stall another.
type roomGroup struct {
	name string
	hub  *Hub

	join    chan *Client
	leave   chan *Client
	ready   chan *Client
	inbound chan inboundMessage

	clients map[*Client]struct{}
}

type inboundMessage struct {
	from *Client
	text string
}

func newRoomGroup(name string, hub *Hub) *roomGroup {
	return &roomGroup{
		name:    name,
		hub:     hub,
		join:    make(chan *Client),
		leave:   make(chan *Client),
		ready:   make(chan *Client),
		inbound: make(chan inboundMessage, 64),
		clients: make(map[*Client]struct{}),
	}
}

func (g *roomGroup) run() {
	log.Printf("[HUB] room group %q started", g.name)
	for {
		select {
		case <-g.hub.quit:
			for c := range g.clients {
				close(c.send)
				c.conn.Close()
			}
			log.Printf("[HUB] room group %q stopped", g.name)
			return
		case c := <-g.join:
			g.handleJoin(c)
		case c := <-g.leave:
			g.handleLeave(c)
		case c := <-g.ready:
			g.handleReady(c)
		case m := <-g.inbound:
			g.handleMessage(m)
		}
	}
}

func (g *roomGroup) handleJoin(c *Client) {
	g.clients[c] = struct{}{}
	log.Printf("[HUB] %s joined room %q (live connections: %d)", c.username, g.name, len(g.clients))

	// Public join notice goes to everyone already in the room. System
	// notices are ephemeral and never written to the room's history.
	notice := models.NewSystemMessage(fmt.Sprintf("%s has joined the room", c.username))
	g.broadcastExcept(c, chatMessagePayload(notice))

	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	if err := g.hub.directory.AddMember(ctx, g.name, c.username); err != nil {
		log.Printf("[HUB] add member %s to %q: %v", c.username, g.name, err)
		return
	}
	g.broadcastPresence(ctx)
}

func (g *roomGroup) handleLeave(c *Client) {
	if _, ok := g.clients[c]; !ok {
		return
	}
	delete(g.clients, c)
	close(c.send)
	log.Printf("[HUB] %s left room %q (live connections: %d)", c.username, g.name, len(g.clients))

	notice := models.NewSystemMessage(fmt.Sprintf("%s has left the room", c.username))
	g.broadcast(chatMessagePayload(notice))

	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	if err := g.hub.directory.RemoveMember(ctx, g.name, c.username); err != nil {
		log.Printf("[HUB] remove member %s from %q: %v", c.username, g.name, err)
		return
	}
	g.broadcastPresence(ctx)
}

// handleReady delivers the private welcome notice. The client signals
// readiness once its listener is attached, so the welcome can never race
// the handshake.
func (g *roomGroup) handleReady(c *Client) {
	if _, ok := g.clients[c]; !ok || c.welcomed {
		return
	}
	c.welcomed = true
	welcome := models.NewSystemMessage(fmt.Sprintf("welcome to room %s, %s", g.name, c.username))
	g.send(c, chatMessagePayload(welcome))
}

func (g *roomGroup) handleMessage(m inboundMessage) {
	if _, ok := g.clients[m.from]; !ok {
		return
	}

	if g.hub.filter.Contains(m.text) {
		notice := models.NewSystemMessage(fmt.Sprintf("%s, your message contains bad words, please think about a nicer message", m.from.username))
		g.send(m.from, chatMessagePayload(notice))
		return
	}

	msg := models.NewMessage(m.text, m.from.username)

	// Delivery first, durability second: a failed append never unwinds a
	// broadcast that members have already seen.
	g.broadcast(chatMessagePayload(msg))

	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	if err := g.hub.directory.AppendMessage(ctx, g.name, msg); err != nil {
		log.Printf("[HUB] persist message in %q: %v", g.name, err)
	}
}

// broadcastPresence pushes the room's full current member list to every
// live connection.
func (g *roomGroup) broadcastPresence(ctx context.Context) {
	room, err := g.hub.directory.Get(ctx, g.name)
	if err != nil {
		log.Printf("[HUB] load room %q for presence event: %v", g.name, err)
		return
	}
	g.broadcast(marshalEvent(EventUsersInRoom, usersInRoom{Name: room.Name, Users: room.Users}))
}

func (g *roomGroup) broadcast(payload []byte) {
	g.broadcastExcept(nil, payload)
}

func (g *roomGroup) broadcastExcept(skip *Client, payload []byte) {
	if payload == nil {
		return
	}
	for c := range g.clients {
		if c == skip {
			continue
		}
		g.send(c, payload)
	}
}

func (g *roomGroup) send(c *Client, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Printf("[HUB] send buffer full for %s in %q, evicting slow consumer", c.username, g.name)
		go func() { g.leave <- c }()
	}
}
