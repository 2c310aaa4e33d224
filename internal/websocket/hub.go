package chatws

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/subbu1904/CoinTrackBack/internal/services"
)

type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *delivery
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type sender interface {
	SendMessage(
		ctx context.Context,
		actorID int64,
		conversationID int64,
		content string,
	) (*services.ChatDelivery, error)
}

type Message struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

type delivery struct {
	message    *Message
	recipients []string
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *delivery, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast fans a stored message out to the sender and every recipient the
// chat service resolved from the participant list.
func (h *Hub) Broadcast(chatDelivery *services.ChatDelivery) {
	if chatDelivery == nil || chatDelivery.Message == nil {
		return
	}

	recipients := make([]string, 0, len(chatDelivery.RecipientIDs))
	for _, id := range chatDelivery.RecipientIDs {
		recipients = append(recipients, strconv.FormatInt(id, 10))
	}

	h.broadcast <- &delivery{
		message: &Message{
			Type:           "message",
			ConversationID: strconv.FormatInt(chatDelivery.Message.ConversationID, 10),
			SenderID:       strconv.FormatInt(chatDelivery.Message.SenderID, 10),
			Content:        chatDelivery.Message.Content,
			Timestamp:      services.FormatChatTimestamp(chatDelivery.Message.CreatedAt),
		},
		recipients: recipients,
	}
}

func (h *Hub) deliver(d *delivery) {
	encoded, err := json.Marshal(d.message)
	if err != nil {
		log.Printf("chat hub encode message: %v", err)
		return
	}

	h.sendToUser(d.message.SenderID, encoded)
	for _, recipient := range d.recipients {
		if recipient != d.message.SenderID {
			h.sendToUser(recipient, encoded)
		}
	}
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func (c *Client) ReadPump(service sender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	actorID, err := strconv.ParseInt(c.userID, 10, 64)
	if err != nil {
		writeError(c, "invalid user")
		return
	}

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string `json:"type"`
			ConversationID string `json:"conversation_id"`
			Content        string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			writeError(c, "unsupported message type")
			continue
		}

		conversationID, err := strconv.ParseInt(incoming.ConversationID, 10, 64)
		if err != nil || conversationID <= 0 {
			writeError(c, "invalid conversation id")
			continue
		}

		chatDelivery, err := service.SendMessage(
			context.Background(),
			actorID,
			conversationID,
			incoming.Content,
		)
		if err != nil {
			writeError(c, "failed to send message")
			continue
		}

		c.hub.Broadcast(chatDelivery)
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

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Message{
		Type:      "error",
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		client.hub.Unregister(client)
	}
}
