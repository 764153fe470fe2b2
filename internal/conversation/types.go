// Package conversation manages the per-contact message threads and their aggregates.
package conversation

import (
	"errors"
	"time"
)

// Conversation statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Conversation is a thread of messages with exactly one contact.
type Conversation struct {
	ID                 string     `json:"id"`
	ContactID          string     `json:"contact_id"`
	ExternalID         string     `json:"external_id"`
	Status             string     `json:"status"`
	TotalMessages      int32      `json:"total_messages"`
	UnreadCount        int32      `json:"unread_count"`
	LastMessagePreview string     `json:"last_message_preview,omitempty"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	AssistantID        string     `json:"assistant_id,omitempty"`
	ThreadID           string     `json:"thread_id,omitempty"`
	AIEnabled          bool       `json:"ai_enabled"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ListItem is a conversation joined with its contact for the admin list.
type ListItem struct {
	Conversation
	ContactPhone string `json:"contact_phone"`
	ContactName  string `json:"contact_name,omitempty"`
}

// ListRequest filters the admin conversation list. Empty Status lists all.
type ListRequest struct {
	Status string
	Limit  int32
	Offset int32
}

// AssistantRequest assigns an AI assistant to a conversation.
type AssistantRequest struct {
	AssistantID string `json:"assistant_id"`
	ThreadID    string `json:"thread_id"`
	Enabled     bool   `json:"enabled"`
}
