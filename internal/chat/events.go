package chat

import (
	"encoding/json"
	"log"

	"github.com/giladwin/chat/internal/models"
)

// Wire event names shared with the browser client.
const (
	// server -> client
	EventChatMessage = "chat-message"
	EventUsersInRoom = "users-in-room"

	// client -> server
	EventUserMessage = "user-message"
	EventReady       = "ready"
)

// envelope frames every socket payload in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// usersInRoom is the presence event payload: the room's full current member
// list, rebroadcast after every membership change.
type usersInRoom struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

func marshalEvent(event string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("[CHAT] marshal %s payload: %v", event, err)
		return nil
	}
	payload, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		log.Printf("[CHAT] marshal %s envelope: %v", event, err)
		return nil
	}
	return payload
}

func chatMessagePayload(msg *models.Message) []byte {
	return marshalEvent(EventChatMessage, msg)
}
