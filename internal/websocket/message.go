package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// Client to Server
	MessageTypePing MessageType = "ping"

	// Server to Client
	MessageTypeConnected         MessageType = "connected"
	MessageTypePong              MessageType = "pong"
	MessageTypeFlashcardsCreated MessageType = "flashcards_created"
	MessageTypeError             MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Message{
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Server to Client payloads

type ConnectedPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type FlashcardsCreatedPayload struct {
	FlashcardIDs []string `json:"flashcard_ids"`
	Subject      string   `json:"subject"`
	Count        int      `json:"count"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
