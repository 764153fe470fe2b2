// Package outbound sends operator-written text to a contact and records it as an outbound message.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bbdeals/wacrm/internal/contacts"
	"github.com/bbdeals/wacrm/internal/conversation"
	"github.com/bbdeals/wacrm/internal/message"
	"github.com/bbdeals/wacrm/internal/whatsapp"
)

var (
	ErrEmptyText = errors.New("message text is required")
	// ErrSendFailed wraps provider failures. The message stays recorded with status error.
	ErrSendFailed = errors.New("provider send failed")
)

// Sender delivers text through the messaging provider.
type Sender interface {
	SendText(ctx context.Context, to, text string) (whatsapp.SendResult, error)
}

type conversationGetter interface {
	Get(ctx context.Context, conversationID string) (conversation.Conversation, error)
}

type contactGetter interface {
	GetByID(ctx context.Context, contactID string) (contacts.Contact, error)
}

type messageWriter interface {
	Record(ctx context.Context, input message.RecordInput) (message.RecordResult, error)
	AttachProviderID(ctx context.Context, messageID, providerID string, metadata map[string]any) (message.Message, error)
	AdvanceStatus(ctx context.Context, messageID, from, to string) (message.Message, bool, error)
}

// Service records then sends outbound messages.
type Service struct {
	conversations conversationGetter
	contacts      contactGetter
	messages      messageWriter
	sender        Sender
	logger        *slog.Logger
}

func NewService(log *slog.Logger, conversations *conversation.Service, contactSvc *contacts.Service, messages *message.DBService, sender Sender) *Service {
	return newService(log, conversations, contactSvc, messages, sender)
}

func newService(log *slog.Logger, conversations conversationGetter, contactSvc contactGetter, messages messageWriter, sender Sender) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		conversations: conversations,
		contacts:      contactSvc,
		messages:      messages,
		sender:        sender,
		logger:        log.With(slog.String("service", "outbound")),
	}
}

// SendText records the message as pending before calling the provider, so the webhook echo
// of the same text is absorbed by outbound deduplication. The status only advances from pending
// to sent or error, so a receipt that arrived first is kept.
func (s *Service) SendText(ctx context.Context, conversationID, text string) (message.Message, error) {
	if strings.TrimSpace(text) == "" {
		return message.Message{}, ErrEmptyText
	}
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return message.Message{}, err
	}
	contact, err := s.contacts.GetByID(ctx, conv.ContactID)
	if err != nil {
		return message.Message{}, fmt.Errorf("load contact: %w", err)
	}

	recorded, err := s.messages.Record(ctx, message.RecordInput{
		ConversationID: conv.ID,
		Content:        text,
		MessageType:    whatsapp.TypeText,
		Direction:      message.DirectionOutbound,
		FromMe:         true,
		Status:         whatsapp.StatusPending,
		Metadata:       map[string]any{"source": "api"},
	})
	if err != nil {
		return message.Message{}, fmt.Errorf("record outbound message: %w", err)
	}
	msg := recorded.Message

	result, sendErr := s.sender.SendText(ctx, contact.PhoneNumber, text)
	if sendErr != nil {
		s.logger.Error("provider send failed",
			slog.String("message_id", msg.ID),
			slog.String("conversation_id", conv.ID),
			slog.Any("error", sendErr),
		)
		if updated, _, err := s.messages.AdvanceStatus(ctx, msg.ID, whatsapp.StatusPending, whatsapp.StatusError); err == nil {
			msg = updated
		}
		return msg, fmt.Errorf("%w: %w", ErrSendFailed, sendErr)
	}

	if result.ProviderMessageID != "" {
		updated, err := s.messages.AttachProviderID(ctx, msg.ID, result.ProviderMessageID, map[string]any{"sent_via": "api"})
		switch {
		case err == nil:
			msg = updated
		case errors.Is(err, message.ErrDuplicateMessage):
			s.logger.Warn("provider id already recorded", slog.String("whatsapp_message_id", result.ProviderMessageID))
		default:
			return msg, fmt.Errorf("attach provider id: %w", err)
		}
	}
	// A delivery receipt may already have moved the message past pending.
	updated, _, err := s.messages.AdvanceStatus(ctx, msg.ID, whatsapp.StatusPending, whatsapp.StatusSent)
	if err != nil {
		return msg, fmt.Errorf("mark message sent: %w", err)
	}
	return updated, nil
}
