package realtime

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/nicolasdagostino/a615-sub000/internal/logger"
)

var topicPattern = regexp.MustCompile(`^(wod:\d{4}-\d{2}-\d{2}|session:[1-9]\d*)$`)

// ValidTopic accepts wod:<YYYY-MM-DD> and session:<id>.
func ValidTopic(topic string) bool {
	return topicPattern.MatchString(topic)
}

type Message struct {
	Type      string `json:"type"`
	Topic     string `json:"topic,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
}

type subscription struct {
	client *Client
	topic  string
	add    bool
}

type directMessage struct {
	client  *Client
	payload []byte
}

type Hub struct {
	clients    map[*Client]struct{}
	topics     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	direct     chan directMessage
	broadcast  chan *Message
	done       chan struct{}
	logger     logger.Logger
	now        func() time.Time
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	topics map[string]struct{}
	send   chan []byte
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		topics:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		direct:     make(chan directMessage, 16),
		broadcast:  make(chan *Message, 64),
		done:       make(chan struct{}),
		logger:     log,
		now:        time.Now,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		topics: make(map[string]struct{}),
		send:   make(chan []byte, 32),
	}
}

// Run owns all subscription state until ctx is cancelled, then closes every
// client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			for topic := range client.topics {
				h.add(client, topic)
			}
		case client := <-h.unregister:
			h.drop(client)
		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; !ok {
				continue
			}
			if sub.add {
				sub.client.topics[sub.topic] = struct{}{}
				h.add(sub.client, sub.topic)
			} else {
				h.remove(sub.client, sub.topic)
				delete(sub.client.topics, sub.topic)
			}
		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				h.sendTo(msg.client, msg.payload)
			}
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Register adds the client under the topics it was created with.
func (h *Hub) Register(client *Client, topics ...string) {
	for _, topic := range topics {
		client.topics[topic] = struct{}{}
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify queues a message for every subscriber of topic. It never blocks;
// messages are dropped when the queue is full.
func (h *Hub) Notify(topic, messageType string, payload any) {
	message := &Message{
		Type:      messageType,
		Topic:     topic,
		Payload:   payload,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warnw("realtime hub queue full, dropping message", "topic", topic, "type", messageType)
	}
}

func (h *Hub) add(client *Client, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		set = make(map[*Client]struct{})
		h.topics[topic] = set
	}
	set[client] = struct{}{}
}

func (h *Hub) remove(client *Client, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.topics, topic)
	}
}

// drop removes the client from every topic and closes its send channel once.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	for topic := range client.topics {
		h.remove(client, topic)
	}
	delete(h.clients, client)
	close(client.send)
}

func (h *Hub) sendTo(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.logger.Warnw("realtime client too slow, disconnecting", "user_id", client.userID)
		h.drop(client)
	}
}

func (h *Hub) deliver(message *Message) {
	encoded, err := json.Marshal(message)
	if err != nil {
		h.logger.Errorw("realtime hub encode message", "topic", message.Topic, "err", err)
		return
	}

	for client := range h.topics[message.Topic] {
		h.sendTo(client, encoded)
	}
}

type incoming struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// ReadPump handles subscribe, unsubscribe and ping frames until the
// connection closes.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handle(payload)
	}
}

func (c *Client) handle(payload []byte) {
	var in incoming
	if err := json.Unmarshal(payload, &in); err != nil {
		c.reply("error", "", "invalid message payload")
		return
	}

	switch in.Type {
	case "ping":
		c.reply("pong", "", nil)
	case "subscribe", "unsubscribe":
		if !ValidTopic(in.Topic) {
			c.reply("error", in.Topic, "invalid topic")
			return
		}
		select {
		case c.hub.subscribe <- subscription{client: c, topic: in.Topic, add: in.Type == "subscribe"}:
		case <-c.hub.done:
			return
		}
		c.reply(in.Type+"d", in.Topic, nil)
	default:
		c.reply("error", "", "unsupported message type")
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// reply goes through the hub so it never races with the hub closing the
// client's send channel.
func (c *Client) reply(messageType, topic string, payload any) {
	encoded, err := json.Marshal(Message{
		Type:      messageType,
		Topic:     topic,
		Payload:   payload,
		Timestamp: c.hub.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	select {
	case c.hub.direct <- directMessage{client: c, payload: encoded}:
	case <-c.hub.done:
	}
}
