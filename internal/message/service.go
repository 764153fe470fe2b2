// Package message persists messages and keeps conversation aggregates in step with them.
package message

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/bbdeals/wacrm/internal/db"
	"github.com/bbdeals/wacrm/internal/db/sqlc"
	"github.com/bbdeals/wacrm/internal/message/event"
)

const previewLimit = 200

type queries interface {
	CreateMessage(ctx context.Context, arg sqlc.CreateMessageParams) (sqlc.Message, error)
	RecordConversationMessage(ctx context.Context, arg sqlc.RecordConversationMessageParams) (sqlc.Conversation, error)
	FindOutboundDuplicate(ctx context.Context, arg sqlc.FindOutboundDuplicateParams) (sqlc.Message, error)
	GetMessageByID(ctx context.Context, id pgtype.UUID) (sqlc.Message, error)
	GetMessageByProviderID(ctx context.Context, whatsappMessageID pgtype.Text) (sqlc.Message, error)
	AttachMessageProviderID(ctx context.Context, arg sqlc.AttachMessageProviderIDParams) (sqlc.Message, error)
	AdvanceMessageStatus(ctx context.Context, arg sqlc.AdvanceMessageStatusParams) (sqlc.Message, error)
	UpdateMessageStatusByProviderID(ctx context.Context, arg sqlc.UpdateMessageStatusByProviderIDParams) (int64, error)
	ListMessagesByConversation(ctx context.Context, arg sqlc.ListMessagesByConversationParams) ([]sqlc.Message, error)
}

type txFunc func(ctx context.Context, fn func(q queries) error) error

// DBService persists messages and publishes their events.
type DBService struct {
	queries   queries
	inTx      txFunc
	logger    *slog.Logger
	publisher event.Publisher
}

// NewService creates a message service. The optional publisher receives events after commit.
func NewService(log *slog.Logger, pool dbpkg.TxBeginner, qs *sqlc.Queries, publishers ...event.Publisher) *DBService {
	inTx := func(ctx context.Context, fn func(q queries) error) error {
		return dbpkg.InTx(ctx, pool, qs, func(tx *sqlc.Queries) error { return fn(tx) })
	}
	var publisher event.Publisher
	if len(publishers) > 0 {
		publisher = publishers[0]
	}
	return newService(log, qs, inTx, publisher)
}

func newService(log *slog.Logger, q queries, inTx txFunc, publisher event.Publisher) *DBService {
	if log == nil {
		log = slog.Default()
	}
	return &DBService{
		queries:   q,
		inTx:      inTx,
		logger:    log.With(slog.String("service", "message")),
		publisher: publisher,
	}
}

// Record inserts the message and bumps the conversation aggregates in one transaction:
// total_messages+1, unread_count+1 for inbound, preview and last_message_at.
func (s *DBService) Record(ctx context.Context, input RecordInput) (RecordResult, error) {
	pgConvID, err := dbpkg.ParseUUID(input.ConversationID)
	if err != nil {
		return RecordResult{}, fmt.Errorf("invalid conversation id: %w", err)
	}
	if input.Direction != DirectionInbound && input.Direction != DirectionOutbound {
		return RecordResult{}, fmt.Errorf("invalid direction: %q", input.Direction)
	}
	raw, err := mergePayload(input.RawPayload, input.Metadata)
	if err != nil {
		return RecordResult{}, fmt.Errorf("encode raw payload: %w", err)
	}

	var result RecordResult
	err = s.inTx(ctx, func(q queries) error {
		row, err := q.CreateMessage(ctx, sqlc.CreateMessageParams{
			ConversationID:    pgConvID,
			WhatsappMessageID: dbpkg.ToPgText(input.WhatsAppMessageID),
			Content:           input.Content,
			MessageType:       input.MessageType,
			Direction:         input.Direction,
			FromMe:            input.FromMe,
			Status:            input.Status,
			RawPayload:        raw,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err) {
				return ErrDuplicateMessage
			}
			return fmt.Errorf("insert message: %w", err)
		}
		conv, err := q.RecordConversationMessage(ctx, sqlc.RecordConversationMessageParams{
			Inbound: input.Direction == DirectionInbound,
			Preview: dbpkg.ToPgText(preview(input.Content)),
			ID:      pgConvID,
		})
		if err != nil {
			return fmt.Errorf("update conversation aggregates: %w", err)
		}
		result = RecordResult{
			Message:       toMessage(row),
			TotalMessages: conv.TotalMessages,
			UnreadCount:   conv.UnreadCount,
		}
		return nil
	})
	if err != nil {
		return RecordResult{}, err
	}
	s.publish(event.TypeMessageCreated, result.Message.ConversationID, result.Message)
	return result, nil
}

// GetByProviderID returns the message carrying a provider message id.
func (s *DBService) GetByProviderID(ctx context.Context, providerID string) (Message, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return Message{}, ErrMessageNotFound
	}
	row, err := s.queries.GetMessageByProviderID(ctx, dbpkg.ToPgText(providerID))
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return Message{}, ErrMessageNotFound
		}
		return Message{}, err
	}
	return toMessage(row), nil
}

// FindOutboundDuplicate looks for an outbound message in the conversation with identical content,
// no provider id yet, and a creation time within ±window of at.
func (s *DBService) FindOutboundDuplicate(ctx context.Context, conversationID, content string, at time.Time, window time.Duration) (Message, bool, error) {
	pgConvID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return Message{}, false, fmt.Errorf("invalid conversation id: %w", err)
	}
	if window < 0 {
		window = -window
	}
	row, err := s.queries.FindOutboundDuplicate(ctx, sqlc.FindOutboundDuplicateParams{
		ConversationID: pgConvID,
		Content:        content,
		WindowStart:    dbpkg.ToPgTime(at.Add(-window)),
		WindowEnd:      dbpkg.ToPgTime(at.Add(window)),
	})
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return Message{}, false, nil
		}
		return Message{}, false, fmt.Errorf("find outbound duplicate: %w", err)
	}
	return toMessage(row), true, nil
}

// AttachProviderID sets the provider message id and merges metadata into the raw payload.
func (s *DBService) AttachProviderID(ctx context.Context, messageID, providerID string, metadata map[string]any) (Message, error) {
	pgID, err := dbpkg.ParseUUID(messageID)
	if err != nil {
		return Message{}, ErrMessageNotFound
	}
	meta, err := json.Marshal(nonNilMap(metadata))
	if err != nil {
		return Message{}, fmt.Errorf("marshal metadata: %w", err)
	}
	row, err := s.queries.AttachMessageProviderID(ctx, sqlc.AttachMessageProviderIDParams{
		WhatsappMessageID: dbpkg.ToPgText(providerID),
		Metadata:          meta,
		ID:                pgID,
	})
	if err != nil {
		switch {
		case dbpkg.IsNotFound(err):
			return Message{}, ErrMessageNotFound
		case dbpkg.IsUniqueViolation(err):
			return Message{}, ErrDuplicateMessage
		}
		return Message{}, fmt.Errorf("attach provider id: %w", err)
	}
	return toMessage(row), nil
}

// UpdateStatusByProviderID sets the delivery status of the message with the provider id.
// Repeating the same update is harmless. It reports false when no message matches.
func (s *DBService) UpdateStatusByProviderID(ctx context.Context, providerID, status string) (bool, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return false, nil
	}
	n, err := s.queries.UpdateMessageStatusByProviderID(ctx, sqlc.UpdateMessageStatusByProviderIDParams{
		Status:            status,
		WhatsappMessageID: dbpkg.ToPgText(providerID),
	})
	if err != nil {
		return false, fmt.Errorf("update message status: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if s.publisher != nil {
		if row, err := s.queries.GetMessageByProviderID(ctx, dbpkg.ToPgText(providerID)); err == nil {
			msg := toMessage(row)
			s.publish(event.TypeMessageStatus, msg.ConversationID, StatusChange{
				MessageID:         msg.ID,
				WhatsAppMessageID: providerID,
				Status:            status,
			})
		}
	}
	return true, nil
}

// AdvanceStatus moves a message from one status to another. When the message has already left
// from (a webhook status update won the race), it is returned unchanged with advanced=false.
func (s *DBService) AdvanceStatus(ctx context.Context, messageID, from, to string) (Message, bool, error) {
	pgID, err := dbpkg.ParseUUID(messageID)
	if err != nil {
		return Message{}, false, ErrMessageNotFound
	}
	row, err := s.queries.AdvanceMessageStatus(ctx, sqlc.AdvanceMessageStatusParams{Status: to, ID: pgID, FromStatus: from})
	if err != nil {
		if !dbpkg.IsNotFound(err) {
			return Message{}, false, err
		}
		current, getErr := s.queries.GetMessageByID(ctx, pgID)
		if getErr != nil {
			if dbpkg.IsNotFound(getErr) {
				return Message{}, false, ErrMessageNotFound
			}
			return Message{}, false, getErr
		}
		s.logger.Debug("status transition skipped",
			slog.String("message_id", messageID),
			slog.String("from", from),
			slog.String("current", current.Status),
		)
		return toMessage(current), false, nil
	}
	msg := toMessage(row)
	s.publish(event.TypeMessageStatus, msg.ConversationID, StatusChange{
		MessageID:         msg.ID,
		WhatsAppMessageID: msg.WhatsAppMessageID,
		Status:            to,
	})
	return msg, true, nil
}

// ListByConversation returns up to limit messages older than before, newest first.
func (s *DBService) ListByConversation(ctx context.Context, conversationID string, before *time.Time, limit int32) ([]Message, error) {
	pgConvID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var pgBefore pgtype.Timestamptz
	if before != nil {
		pgBefore = dbpkg.ToPgTime(*before)
	}
	rows, err := s.queries.ListMessagesByConversation(ctx, sqlc.ListMessagesByConversationParams{
		ConversationID: pgConvID,
		Before:         pgBefore,
		MaxCount:       limit,
	})
	if err != nil {
		return nil, err
	}
	items := make([]Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, toMessage(row))
	}
	return items, nil
}

func (s *DBService) publish(eventType event.Type, conversationID string, data any) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("marshal message event failed", slog.Any("error", err))
		return
	}
	s.publisher.Publish(event.Event{
		Type:           eventType,
		ConversationID: conversationID,
		Data:           payload,
	})
}

func toMessage(row sqlc.Message) Message {
	return Message{
		ID:                dbpkg.UUIDToString(row.ID),
		ConversationID:    dbpkg.UUIDToString(row.ConversationID),
		WhatsAppMessageID: dbpkg.TextToString(row.WhatsappMessageID),
		Content:           row.Content,
		MessageType:       row.MessageType,
		Direction:         row.Direction,
		FromMe:            row.FromMe,
		Status:            row.Status,
		RawPayload:        row.RawPayload,
		CreatedAt:         dbpkg.TimeFromPg(row.CreatedAt),
		UpdatedAt:         dbpkg.TimeFromPg(row.UpdatedAt),
	}
}

// mergePayload overlays metadata keys onto the raw provider object.
func mergePayload(raw json.RawMessage, metadata map[string]any) ([]byte, error) {
	obj := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &obj); err != nil {
			obj = map[string]any{"raw": string(raw)}
		}
	}
	if obj == nil {
		obj = map[string]any{}
	}
	maps.Copy(obj, metadata)
	return json.Marshal(obj)
}

func preview(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= previewLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLimit])
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
