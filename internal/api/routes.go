package api

import (
	"net/http"

	"github.com/giladwin/chat/internal/auth"
	"github.com/giladwin/chat/internal/chat"
	"github.com/giladwin/chat/internal/middleware"
	"github.com/giladwin/chat/internal/rooms"
	"github.com/giladwin/chat/internal/users"
)

// NewRouter wires every HTTP path and the socket endpoint. Signup, signin
// and the socket handshake authenticate themselves; everything else sits
// behind the token-header middleware.
func NewRouter(usersSvc *users.Service, roomsSvc *rooms.Service, authority *auth.Authority, hub *chat.Hub) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /status", StatusHandler)
	mux.HandleFunc("POST /signup", SignupHandler(usersSvc))
	mux.HandleFunc("POST /signin", SigninHandler(usersSvc))

	authed := middleware.Authenticate(authority)
	mux.Handle("POST /room", authed(CreateRoomHandler(roomsSvc)))
	mux.Handle("GET /rooms", authed(ListRoomsHandler(roomsSvc)))
	mux.Handle("GET /room/{room_name}", authed(GetRoomHandler(roomsSvc)))
	mux.Handle("GET /room/{room_name}/messages", authed(RoomMessagesHandler(roomsSvc)))

	// The gatekeeper validates handshakes itself: socket failures are
	// silent drops, not 401 payloads.
	mux.Handle("/ws", chat.ServeWS(hub, authority, roomsSvc))

	return middleware.Trace(mux)
}
