package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"classtask-client/internal/authority"
	"classtask-client/internal/domain"
)

// WSHandler pushes authority events to connected clients. Each connection is
// addressed by userId; events carrying another user's ID are not forwarded.
type WSHandler struct {
	service  *authority.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *authority.Service) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and streams events until the client leaves.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.service.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	// Reader only watches for the peer going away; clients never send.
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if !eventForUser(event, userID) {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}

// eventForUser filters per-user events; events without an addressee fan out
// to everyone.
func eventForUser(event authority.Event, userID string) bool {
	switch payload := event.Payload.(type) {
	case domain.PointsUpdate:
		return payload.UserID == userID
	case domain.GradeNotice:
		return payload.UserID == userID
	case domain.TaskUpdate:
		return payload.UserID == "" || payload.UserID == userID
	case json.RawMessage, nil:
		return true
	default:
		return true
	}
}
