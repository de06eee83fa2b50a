package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/clasharena/esp-manager/live"
	"github.com/clasharena/esp-manager/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict Origin to the deployed frontend host.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub     *live.Hub
	lobbies services.LobbyService
}

func NewWebSocketHandler(hub *live.Hub, lobbies services.LobbyService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, lobbies: lobbies}
}

// ServeWS обрабатывает GET /ws/lobbies/{lobbyID}: подписка на обновления
// таблицы результатов конкретного лобби.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	lobbyID := chi.URLParam(r, "lobbyID")
	if _, err := h.lobbies.GetLobby(r.Context(), lobbyID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту HTTP-ошибкой.
		slog.Warn("websocket upgrade failed",
			slog.String("lobby_id", lobbyID), slog.Any("error", err))
		return
	}

	h.hub.Attach(conn, lobbyID)
}
