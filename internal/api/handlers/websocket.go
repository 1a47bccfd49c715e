package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dom/study-buddy/internal/api/middleware"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/service"
	"github.com/dom/study-buddy/internal/websocket"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is open on every other route as well
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
	log         *slog.Logger
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		log:         sl.OrDiscard(log),
	}
}

// Handle upgrades the connection for the user behind the token given in the
// "token" query parameter or the Authorization header.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r, "handlers.websocket.Handle")

	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}
	if token == "" {
		respondError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	identity := h.authService.Resolve(r.Context(), token)
	if identity == nil {
		respondError(w, r, http.StatusUnauthorized, "Invalid or expired session")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", sl.Err(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, identity.UserID)
	h.hub.Register(client)

	msg, err := websocket.NewMessage(websocket.MessageTypeConnected, websocket.ConnectedPayload{
		UserID:   identity.UserID.String(),
		Username: identity.Username,
	})
	if err == nil {
		client.Send(msg)
	}

	go client.WritePump()
	go client.ReadPump()
}
