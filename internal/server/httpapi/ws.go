package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// native app clients, not browsers
		return true
	},
}

// handleWebSocket upgrades the connection and registers it with the
// notification hub under the authenticated user. An optional `topics`
// query parameter (comma separated) subscribes the connection to
// broadcast topics, e.g. content update channels.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := s.hub.NewClient(uuid.NewString(), userID, conn)
	s.hub.Register(client)
	for _, topic := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if topic = strings.TrimSpace(topic); topic != "" {
			s.hub.Subscribe(client, topic)
		}
	}

	go client.WritePump()
	client.ReadPump()
}
