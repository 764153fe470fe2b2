// Package webhook turns provider webhook events into persisted contact, conversation and message state.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bbdeals/wacrm/internal/aigateway"
	"github.com/bbdeals/wacrm/internal/contacts"
	"github.com/bbdeals/wacrm/internal/conversation"
	"github.com/bbdeals/wacrm/internal/message"
	"github.com/bbdeals/wacrm/internal/whatsapp"
)

// Skip and update markers returned to the provider.
const (
	SkippedNoMessage        = "no_message"
	SkippedInvalidRemoteJID = "invalid_remote_jid"
	SkippedDuplicate        = "duplicate"
	UpdatedWhatsAppIDAdded  = "whatsapp_id_added"
)

const (
	defaultDedupWindow    = 30 * time.Second
	defaultTriggerTimeout = 10 * time.Second
)

// ErrInvalidPayload wraps payloads whose shape cannot be decoded.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// ContactResolver resolves or creates the contact behind a remote identity.
type ContactResolver interface {
	ResolveByPhone(ctx context.Context, in contacts.ResolveInput) (contacts.Contact, error)
}

// ConversationResolver resolves or creates the contact's active conversation.
type ConversationResolver interface {
	ResolveActive(ctx context.Context, contactID, phone string) (conversation.Conversation, error)
}

// MessageStore persists messages and their delivery status.
type MessageStore interface {
	GetByProviderID(ctx context.Context, providerID string) (message.Message, error)
	FindOutboundDuplicate(ctx context.Context, conversationID, content string, at time.Time, window time.Duration) (message.Message, bool, error)
	AttachProviderID(ctx context.Context, messageID, providerID string, metadata map[string]any) (message.Message, error)
	Record(ctx context.Context, input message.RecordInput) (message.RecordResult, error)
	UpdateStatusByProviderID(ctx context.Context, providerID, status string) (bool, error)
}

// AITrigger notifies the AI processor about a message that mentions the bot.
type AITrigger interface {
	Trigger(ctx context.Context, req aigateway.TriggerRequest) error
}

// Options tunes the reconciler.
type Options struct {
	MentionMarker  string
	DedupWindow    time.Duration
	TriggerTimeout time.Duration
}

// UpsertResult describes what a messages.upsert delivery did.
type UpsertResult struct {
	Skipped        string `json:"skipped,omitempty"`
	Updated        string `json:"updated,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	ContactID      string `json:"contact_id,omitempty"`
	AITriggered    bool   `json:"ai_triggered,omitempty"`
}

// StatusResult counts the outcome of a messages.update delivery.
type StatusResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Reconciler applies webhook events to the store.
type Reconciler struct {
	contacts      ContactResolver
	conversations ConversationResolver
	messages      MessageStore
	ai            AITrigger
	opts          Options
	logger        *slog.Logger
	now           func() time.Time
	pending       sync.WaitGroup
}

// NewReconciler creates a reconciler. ai may be nil to disable triggering.
func NewReconciler(log *slog.Logger, contactResolver ContactResolver, conversationResolver ConversationResolver, messages MessageStore, ai AITrigger, opts Options) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = defaultDedupWindow
	}
	if opts.TriggerTimeout <= 0 {
		opts.TriggerTimeout = defaultTriggerTimeout
	}
	opts.MentionMarker = strings.TrimSpace(opts.MentionMarker)
	return &Reconciler{
		contacts:      contactResolver,
		conversations: conversationResolver,
		messages:      messages,
		ai:            ai,
		opts:          opts,
		logger:        log.With(slog.String("service", "webhook")),
		now:           time.Now,
	}
}

// Upsert ingests the first message of a messages.upsert payload.
func (r *Reconciler) Upsert(ctx context.Context, data json.RawMessage) (UpsertResult, error) {
	batch, err := whatsapp.ParseUpsert(data)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	msg, ok := batch.First()
	if !ok || msg.Message == nil {
		return UpsertResult{Skipped: SkippedNoMessage}, nil
	}
	if len(batch.Messages) > 1 {
		r.logger.Warn("upsert batch has more than one message, processing the first",
			slog.Int("count", len(batch.Messages)))
	}

	phone := whatsapp.NormalizePhone(msg.Key.RemoteJID)
	if phone == "" {
		r.logger.Warn("upsert skipped: remote jid has no phone", slog.String("remote_jid", msg.Key.RemoteJID))
		return UpsertResult{Skipped: SkippedInvalidRemoteJID}, nil
	}
	providerID := strings.TrimSpace(msg.Key.ID)
	if providerID != "" {
		existing, err := r.messages.GetByProviderID(ctx, providerID)
		switch {
		case err == nil && msg.Key.FromMe && !existing.Inbound():
			// The send call already stored the provider id; this is its echo.
			now := r.now()
			return r.confirmOutbound(ctx, UpsertResult{ConversationID: existing.ConversationID}, existing, providerID,
				msg.Key.RemoteJID, msg.MessageTimestamp.Time(now), now)
		case err == nil:
			return UpsertResult{Skipped: SkippedDuplicate, MessageID: existing.ID, ConversationID: existing.ConversationID}, nil
		case !errors.Is(err, message.ErrMessageNotFound):
			return UpsertResult{}, fmt.Errorf("lookup provider message: %w", err)
		}
	}

	content, messageType := whatsapp.ExtractContent(msg.Message)
	now := r.now()
	sentAt := msg.MessageTimestamp.Time(now)

	resolve := contacts.ResolveInput{Phone: phone, JID: msg.Key.RemoteJID}
	if !msg.Key.FromMe {
		resolve.PushName = msg.PushName
	}
	contact, err := r.contacts.ResolveByPhone(ctx, resolve)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("resolve contact: %w", err)
	}
	conv, err := r.conversations.ResolveActive(ctx, contact.ID, contact.PhoneNumber)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("resolve conversation: %w", err)
	}
	result := UpsertResult{ContactID: contact.ID, ConversationID: conv.ID}

	if msg.Key.FromMe {
		dup, found, err := r.messages.FindOutboundDuplicate(ctx, conv.ID, content, sentAt, r.opts.DedupWindow)
		if err != nil {
			return UpsertResult{}, err
		}
		if found {
			return r.confirmOutbound(ctx, result, dup, providerID, msg.Key.RemoteJID, sentAt, now)
		}
	}

	direction, status := message.DirectionInbound, whatsapp.StatusDelivered
	if msg.Key.FromMe {
		direction, status = message.DirectionOutbound, whatsapp.StatusSent
	}
	mediaKind, _, hasMedia := msg.Message.MediaAttachment()
	metadata := map[string]any{"has_media": hasMedia, "media_type": nil}
	if hasMedia {
		metadata["media_type"] = mediaKind
	}
	recorded, err := r.messages.Record(ctx, message.RecordInput{
		ConversationID:    conv.ID,
		WhatsAppMessageID: providerID,
		Content:           content,
		MessageType:       messageType,
		Direction:         direction,
		FromMe:            msg.Key.FromMe,
		Status:            status,
		RawPayload:        msg.Raw,
		Metadata:          metadata,
	})
	if err != nil {
		if errors.Is(err, message.ErrDuplicateMessage) {
			result.Skipped = SkippedDuplicate
			return result, nil
		}
		return UpsertResult{}, fmt.Errorf("record message: %w", err)
	}
	result.MessageID = recorded.Message.ID
	r.logger.Info("message recorded",
		slog.String("message_id", recorded.Message.ID),
		slog.String("conversation_id", conv.ID),
		slog.String("direction", direction),
		slog.String("type", messageType),
		slog.Int("total_messages", int(recorded.TotalMessages)),
		slog.Int("unread_count", int(recorded.UnreadCount)),
	)

	if direction == message.DirectionInbound && r.ai != nil && whatsapp.ContainsMention(content, r.opts.MentionMarker) {
		r.triggerAsync(ctx, conv, contact.ID, content)
		result.AITriggered = true
	}
	return result, nil
}

// confirmOutbound treats the delivery as the provider's echo of a message already recorded by a send call.
func (r *Reconciler) confirmOutbound(ctx context.Context, result UpsertResult, dup message.Message, providerID, remoteJID string, sentAt, now time.Time) (UpsertResult, error) {
	updated, err := r.messages.AttachProviderID(ctx, dup.ID, providerID, map[string]any{
		"whatsapp_timestamp":   sentAt.Unix(),
		"remote_jid":           remoteJID,
		"webhook_confirmed_at": now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		if errors.Is(err, message.ErrDuplicateMessage) {
			result.Skipped = SkippedDuplicate
			return result, nil
		}
		return UpsertResult{}, fmt.Errorf("attach provider id: %w", err)
	}
	r.logger.Info("outbound message confirmed",
		slog.String("message_id", updated.ID),
		slog.String("whatsapp_message_id", providerID),
	)
	result.Updated = UpdatedWhatsAppIDAdded
	result.MessageID = updated.ID
	return result, nil
}

func (r *Reconciler) triggerAsync(ctx context.Context, conv conversation.Conversation, contactID, content string) {
	req := aigateway.TriggerRequest{ChatID: conv.ID, Message: content, UserID: contactID}
	log := r.logger.With(
		slog.String("conversation_id", conv.ID),
		slog.String("assistant_id", conv.AssistantID),
		slog.Bool("ai_enabled", conv.AIEnabled),
	)
	detached := context.WithoutCancel(ctx)
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		triggerCtx, cancel := context.WithTimeout(detached, r.opts.TriggerTimeout)
		defer cancel()
		if err := r.ai.Trigger(triggerCtx, req); err != nil {
			if errors.Is(err, aigateway.ErrNotConfigured) {
				log.Debug("ai trigger skipped: gateway not configured")
				return
			}
			log.Warn("ai trigger failed", slog.Any("error", err))
			return
		}
		log.Info("ai trigger sent")
	}()
}

// Wait blocks until in-flight AI triggers finish.
func (r *Reconciler) Wait() {
	r.pending.Wait()
}

// UpdateStatuses applies every record of a messages.update payload.
// Records that cannot be applied are logged and counted; they never fail the delivery.
func (r *Reconciler) UpdateStatuses(ctx context.Context, data json.RawMessage) (StatusResult, error) {
	records, _, err := whatsapp.ParseStatusUpdates(data)
	if err != nil {
		return StatusResult{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	var result StatusResult
	for _, rec := range records {
		result.Processed++
		if rec.Err != nil {
			r.logger.Warn("status record undecodable", slog.Any("error", rec.Err))
			result.Skipped++
			continue
		}
		providerID := strings.TrimSpace(rec.Update.Key.ID)
		if providerID == "" || rec.Update.Update.Status == nil {
			result.Skipped++
			continue
		}
		status := whatsapp.StatusName(*rec.Update.Update.Status)
		ok, err := r.messages.UpdateStatusByProviderID(ctx, providerID, status)
		if err != nil {
			r.logger.Error("status update failed",
				slog.String("whatsapp_message_id", providerID),
				slog.String("status", status),
				slog.Any("error", err),
			)
			result.Failed++
			continue
		}
		if !ok {
			r.logger.Debug("status for unknown message", slog.String("whatsapp_message_id", providerID))
			result.Skipped++
			continue
		}
		result.Updated++
	}
	return result, nil
}
