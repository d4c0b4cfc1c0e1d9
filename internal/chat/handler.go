package chat

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/giladwin/chat/internal/auth"
	"github.com/giladwin/chat/internal/chaterr"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS is the connection gatekeeper. It walks each handshake through
// token verification and room lookup before admitting the connection to the
// hub. Failed validation drops the handshake without any payload, so a probe
// learns nothing about token or room validity.
func ServeWS(hub *Hub, authority *auth.Authority, directory Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		username, err := authority.Verify(query.Get("token"))
		if err != nil {
			log.Printf("[WS] unauthorized connection attempt from %s", r.RemoteAddr)
			return
		}

		roomName := query.Get("room_name")
		if roomName == "" {
			log.Printf("[WS] %s supplied no room name, cannot register", username)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if _, err := directory.Get(ctx, roomName); err != nil {
			if chaterr.KindOf(err) == chaterr.KindNotFound {
				log.Printf("[WS] room %q does not exist, dropping %s", roomName, username)
			} else {
				log.Printf("[WS] room lookup for %q failed: %v", roomName, err)
			}
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WS] upgrade error: %v", err)
			return
		}

		log.Printf("[WS] new connection: %s -> %q", username, roomName)
		hub.Admit(conn, roomName, username)
	}
}
