package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/bbdeals/wacrm/internal/db"
	"github.com/bbdeals/wacrm/internal/db/sqlc"
	"github.com/bbdeals/wacrm/internal/whatsapp"
)

type queries interface {
	GetConversationByID(ctx context.Context, id pgtype.UUID) (sqlc.Conversation, error)
	GetActiveConversationByContact(ctx context.Context, contactID pgtype.UUID) (sqlc.Conversation, error)
	CreateConversation(ctx context.Context, arg sqlc.CreateConversationParams) (sqlc.Conversation, error)
	ListConversations(ctx context.Context, arg sqlc.ListConversationsParams) ([]sqlc.ListConversationsRow, error)
	MarkConversationRead(ctx context.Context, id pgtype.UUID) (sqlc.Conversation, error)
	UpdateConversationAssistant(ctx context.Context, arg sqlc.UpdateConversationAssistantParams) (sqlc.Conversation, error)
	UpdateConversationStatus(ctx context.Context, arg sqlc.UpdateConversationStatusParams) (sqlc.Conversation, error)
	ArchiveInactiveConversations(ctx context.Context, before pgtype.Timestamptz) (int64, error)
}

// Service manages conversation lifecycle and AI assignment.
type Service struct {
	queries queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a conversation service.
func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	return newService(log, queries)
}

func newService(log *slog.Logger, q queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: q,
		logger:  log.With(slog.String("service", "conversation")),
		now:     time.Now,
	}
}

// ResolveActive returns the contact's active conversation, creating one with zero counters when none exists.
// The partial unique index on active conversations turns a concurrent create into a re-read.
func (s *Service) ResolveActive(ctx context.Context, contactID, phone string) (Conversation, error) {
	pgContactID, err := dbpkg.ParseUUID(contactID)
	if err != nil {
		return Conversation{}, fmt.Errorf("invalid contact id: %w", err)
	}
	row, err := s.queries.GetActiveConversationByContact(ctx, pgContactID)
	if err == nil {
		return toConversation(row), nil
	}
	if !dbpkg.IsNotFound(err) {
		return Conversation{}, fmt.Errorf("get active conversation: %w", err)
	}

	row, err = s.queries.CreateConversation(ctx, sqlc.CreateConversationParams{
		ContactID:  pgContactID,
		ExternalID: s.externalID(phone),
	})
	if err == nil {
		s.logger.Info("conversation created",
			slog.String("conversation_id", dbpkg.UUIDToString(row.ID)),
			slog.String("contact_id", contactID),
		)
		return toConversation(row), nil
	}
	if !dbpkg.IsUniqueViolation(err) {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	row, err = s.queries.GetActiveConversationByContact(ctx, pgContactID)
	if err != nil {
		return Conversation{}, fmt.Errorf("re-read conversation after conflict: %w", err)
	}
	return toConversation(row), nil
}

func (s *Service) externalID(phone string) string {
	return fmt.Sprintf("wa_%s_%d", whatsapp.PhoneDigits(strings.TrimSpace(phone)), s.now().Unix())
}

// Get returns a conversation by ID.
func (s *Service) Get(ctx context.Context, conversationID string) (Conversation, error) {
	pgID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return Conversation{}, ErrConversationNotFound
	}
	row, err := s.queries.GetConversationByID(ctx, pgID)
	return s.mapResult(row, err)
}

// List returns conversations ordered by most recent message.
func (s *Service) List(ctx context.Context, req ListRequest) ([]ListItem, error) {
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := max(req.Offset, 0)
	rows, err := s.queries.ListConversations(ctx, sqlc.ListConversationsParams{
		Status:   dbpkg.ToPgText(req.Status),
		MaxCount: limit,
		Skip:     offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ListItem{
			Conversation: toConversation(sqlc.Conversation{
				ID:                 row.ID,
				ContactID:          row.ContactID,
				ExternalID:         row.ExternalID,
				Status:             row.Status,
				TotalMessages:      row.TotalMessages,
				UnreadCount:        row.UnreadCount,
				LastMessagePreview: row.LastMessagePreview,
				LastMessageAt:      row.LastMessageAt,
				AssistantID:        row.AssistantID,
				ThreadID:           row.ThreadID,
				AiEnabled:          row.AiEnabled,
				CreatedAt:          row.CreatedAt,
				UpdatedAt:          row.UpdatedAt,
			}),
			ContactPhone: row.ContactPhone,
			ContactName:  dbpkg.TextToString(row.ContactName),
		})
	}
	return items, nil
}

// MarkRead resets the unread counter.
func (s *Service) MarkRead(ctx context.Context, conversationID string) (Conversation, error) {
	pgID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return Conversation{}, ErrConversationNotFound
	}
	row, err := s.queries.MarkConversationRead(ctx, pgID)
	return s.mapResult(row, err)
}

// AssignAssistant sets the AI assistant fields.
func (s *Service) AssignAssistant(ctx context.Context, conversationID string, req AssistantRequest) (Conversation, error) {
	pgID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return Conversation{}, ErrConversationNotFound
	}
	assistantID := strings.TrimSpace(req.AssistantID)
	if req.Enabled && assistantID == "" {
		return Conversation{}, fmt.Errorf("assistant_id is required when enabling AI")
	}
	row, err := s.queries.UpdateConversationAssistant(ctx, sqlc.UpdateConversationAssistantParams{
		AssistantID: dbpkg.ToPgText(assistantID),
		ThreadID:    dbpkg.ToPgText(req.ThreadID),
		AiEnabled:   req.Enabled,
		ID:          pgID,
	})
	return s.mapResult(row, err)
}

// Archive moves a conversation out of the active slot so the next message opens a new one.
func (s *Service) Archive(ctx context.Context, conversationID string) (Conversation, error) {
	pgID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return Conversation{}, ErrConversationNotFound
	}
	row, err := s.queries.UpdateConversationStatus(ctx, sqlc.UpdateConversationStatusParams{
		Status: StatusArchived,
		ID:     pgID,
	})
	return s.mapResult(row, err)
}

// ArchiveInactive archives active conversations whose last activity is older than olderThan.
func (s *Service) ArchiveInactive(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("archive threshold must be positive")
	}
	before := s.now().Add(-olderThan)
	n, err := s.queries.ArchiveInactiveConversations(ctx, dbpkg.ToPgTime(before))
	if err != nil {
		return 0, fmt.Errorf("archive inactive conversations: %w", err)
	}
	return n, nil
}

func (s *Service) mapResult(row sqlc.Conversation, err error) (Conversation, error) {
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return Conversation{}, ErrConversationNotFound
		}
		return Conversation{}, err
	}
	return toConversation(row), nil
}

func toConversation(row sqlc.Conversation) Conversation {
	return Conversation{
		ID:                 dbpkg.UUIDToString(row.ID),
		ContactID:          dbpkg.UUIDToString(row.ContactID),
		ExternalID:         row.ExternalID,
		Status:             row.Status,
		TotalMessages:      row.TotalMessages,
		UnreadCount:        row.UnreadCount,
		LastMessagePreview: dbpkg.TextToString(row.LastMessagePreview),
		LastMessageAt:      dbpkg.TimePtrFromPg(row.LastMessageAt),
		AssistantID:        dbpkg.TextToString(row.AssistantID),
		ThreadID:           dbpkg.TextToString(row.ThreadID),
		AIEnabled:          row.AiEnabled,
		CreatedAt:          dbpkg.TimeFromPg(row.CreatedAt),
		UpdatedAt:          dbpkg.TimeFromPg(row.UpdatedAt),
	}
}
