package handler

import (
	"careconnect/internal/pkg/logger"
	"careconnect/internal/service"
	internalWS "careconnect/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ChatSocketHandler serves the live chat socket of a session. Questions come
// in as {"question": "..."}; every finished turn of the session goes out as
// a CHAT_TURN_COMPLETED envelope.
type ChatSocketHandler struct {
	sessions service.ISessionService
	chat     service.IChatService
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewChatSocketHandler(sessions service.ISessionService, chat service.IChatService, hub *internalWS.Hub, log logger.ILogger) *ChatSocketHandler {
	return &ChatSocketHandler{
		sessions: sessions,
		chat:     chat,
		hub:      hub,
		logger:   log,
	}
}

func (h *ChatSocketHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/chat/:id", h.ServeWs)
}

func (h *ChatSocketHandler) ServeWs(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	if _, err := h.sessions.Get(c.UserContext(), id); err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sessionID := id.String()
	asker := internalWS.ChatAsker{Chat: h.chat}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ChatSocketHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID, asker)
		h.logger.Info("ChatSocketHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}
