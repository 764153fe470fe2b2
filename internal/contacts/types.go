package contacts

import (
	"errors"
	"time"
)

var ErrContactNotFound = errors.New("contact not found")

// Contact is a unique external messaging identity addressed by phone number.
type Contact struct {
	ID          string     `json:"id"`
	PhoneNumber string     `json:"phone_number"`
	JID         string     `json:"jid,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ResolveInput identifies the sender of a provider message.
type ResolveInput struct {
	Phone    string
	JID      string
	PushName string
}

// ListRequest filters the admin contact list.
type ListRequest struct {
	Query  string
	Limit  int32
	Offset int32
}

// UpdateRequest carries optional admin edits. Nil fields are left unchanged.
type UpdateRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
