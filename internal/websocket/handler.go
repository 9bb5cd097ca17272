package websocket

import (
	"context"

	"careconnect/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ChatAsker adapts the chat service to socket clients.
type ChatAsker struct {
	Chat service.IChatService
}

func (a ChatAsker) Ask(ctx context.Context, sessionID string, question string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return err
	}
	_, err = a.Chat.Ask(ctx, id, question)
	return err
}

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string, asker Asker) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 256), asker: asker}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump()
}
