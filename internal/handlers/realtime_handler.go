package handlers

import (
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	realtime "github.com/nicolasdagostino/a615-sub000/internal/websocket"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Upgrade runs after AuthRequired. It rejects plain HTTP requests and
// unknown topics before the connection is upgraded.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return errorResponse(c, fiber.StatusUpgradeRequired, "WebSocket upgrade required")
	}

	topics := requestedTopics(c.Query("topic"))
	for _, topic := range topics {
		if !realtime.ValidTopic(topic) {
			return errorResponse(c, fiber.StatusBadRequest, "Unknown topic "+topic)
		}
	}
	c.Locals("topics", topics)
	return c.Next()
}

func (h *RealtimeHandler) Serve(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	topics, _ := conn.Locals("topics").([]string)
	client := realtime.NewClient(h.hub, conn, userID)

	h.hub.Register(client, topics...)
	go client.WritePump()
	client.ReadPump()
}

// requestedTopics splits ?topic=a,b into trimmed non-empty topics.
func requestedTopics(raw string) []string {
	var topics []string
	for _, part := range strings.Split(raw, ",") {
		if topic := strings.TrimSpace(part); topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}
