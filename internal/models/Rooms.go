package models

// Room is the durable record of a chat room: its unique name and the
// de-duplicated list of usernames currently joined.
type Room struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

// RoomSummary is one entry of the room listing; Users carries the count of
// distinct current members.
type RoomSummary struct {
	Name  string `json:"name"`
	Users int    `json:"users"`
}
