package message

import (
	"encoding/json"
	"errors"
	"time"
)

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	// ErrDuplicateMessage is returned when the provider message id is already recorded.
	ErrDuplicateMessage = errors.New("message already recorded")
)

// Message is one inbound or outbound communication unit.
type Message struct {
	ID                string          `json:"id"`
	ConversationID    string          `json:"conversation_id"`
	WhatsAppMessageID string          `json:"whatsapp_message_id,omitempty"`
	Content           string          `json:"content"`
	MessageType       string          `json:"message_type"`
	Direction         string          `json:"direction"`
	FromMe            bool            `json:"from_me"`
	Status            string          `json:"status"`
	RawPayload        json.RawMessage `json:"raw_payload,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Inbound reports whether the message came from the contact.
func (m Message) Inbound() bool {
	return m.Direction == DirectionInbound
}

// RecordInput is the input for Record.
type RecordInput struct {
	ConversationID    string
	WhatsAppMessageID string
	Content           string
	MessageType       string
	Direction         string
	FromMe            bool
	Status            string
	RawPayload        json.RawMessage
	Metadata          map[string]any
}

// RecordResult is the stored message with the conversation counters after the update.
type RecordResult struct {
	Message       Message `json:"message"`
	TotalMessages int32   `json:"total_messages"`
	UnreadCount   int32   `json:"unread_count"`
}

// StatusChange is the payload of a message_status event.
type StatusChange struct {
	MessageID         string `json:"message_id"`
	WhatsAppMessageID string `json:"whatsapp_message_id"`
	Status            string `json:"status"`
}
