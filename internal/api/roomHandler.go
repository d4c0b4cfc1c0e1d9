package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/giladwin/chat/internal/chaterr"
	"github.com/giladwin/chat/internal/middleware"
	"github.com/giladwin/chat/internal/rooms"
)

type createRoomRequest struct {
	RoomName string `json:"room_name"`
}

func CreateRoomHandler(svc *rooms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("[ROOMS] decode error: %v", err)
			writeError(w, chaterr.New(chaterr.KindValidation, "no room name provided"))
			return
		}

		log.Printf("[ROOMS] user %q is creating room %q", middleware.Username(r.Context()), payload.RoomName)

		if err := svc.Create(r.Context(), payload.RoomName); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{
			Message: fmt.Sprintf("room '%s' was created", payload.RoomName),
		})
	}
}

func ListRoomsHandler(svc *rooms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func GetRoomHandler(svc *rooms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := svc.Get(r.Context(), r.PathValue("room_name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, room)
	}
}

func RoomMessagesHandler(svc *rooms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := svc.History(r.Context(), r.PathValue("room_name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	}
}
