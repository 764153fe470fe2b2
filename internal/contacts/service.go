// Package contacts resolves and manages WhatsApp contacts.
package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/bbdeals/wacrm/internal/db"
	"github.com/bbdeals/wacrm/internal/db/sqlc"
)

type queries interface {
	GetContactByID(ctx context.Context, id pgtype.UUID) (sqlc.Contact, error)
	GetContactByPhone(ctx context.Context, phone string) (sqlc.Contact, error)
	CreateContact(ctx context.Context, arg sqlc.CreateContactParams) (sqlc.Contact, error)
	TouchContact(ctx context.Context, arg sqlc.TouchContactParams) (sqlc.Contact, error)
	ListContacts(ctx context.Context, arg sqlc.ListContactsParams) ([]sqlc.Contact, error)
	UpdateContact(ctx context.Context, arg sqlc.UpdateContactParams) (sqlc.Contact, error)
}

type Service struct {
	queries queries
	logger  *slog.Logger
}

func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	return newService(log, queries)
}

func newService(log *slog.Logger, q queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: q,
		logger:  log.With(slog.String("service", "contacts")),
	}
}

// ResolveByPhone returns the contact for a normalized phone, creating it on first sight.
// Existing contacts get their name and JID filled only when previously unset; last_seen_at is always refreshed.
// A concurrent creator losing the unique-index race re-reads the winner's row.
func (s *Service) ResolveByPhone(ctx context.Context, in ResolveInput) (Contact, error) {
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return Contact{}, fmt.Errorf("resolve contact: phone is required")
	}
	row, err := s.queries.GetContactByPhone(ctx, phone)
	if err == nil {
		return s.touch(ctx, row, in)
	}
	if !dbpkg.IsNotFound(err) {
		return Contact{}, fmt.Errorf("get contact by phone: %w", err)
	}

	row, err = s.queries.CreateContact(ctx, sqlc.CreateContactParams{
		PhoneNumber: phone,
		Jid:         dbpkg.ToPgText(in.JID),
		DisplayName: dbpkg.ToPgText(in.PushName),
	})
	if err == nil {
		s.logger.Info("contact created", slog.String("contact_id", dbpkg.UUIDToString(row.ID)), slog.String("phone", phone))
		return toContact(row), nil
	}
	if !dbpkg.IsUniqueViolation(err) {
		return Contact{}, fmt.Errorf("create contact: %w", err)
	}

	s.logger.Debug("contact create raced, re-reading", slog.String("phone", phone))
	row, err = s.queries.GetContactByPhone(ctx, phone)
	if err != nil {
		return Contact{}, fmt.Errorf("re-read contact after conflict: %w", err)
	}
	return s.touch(ctx, row, in)
}

func (s *Service) touch(ctx context.Context, row sqlc.Contact, in ResolveInput) (Contact, error) {
	updated, err := s.queries.TouchContact(ctx, sqlc.TouchContactParams{
		DisplayName: dbpkg.ToPgText(in.PushName),
		Jid:         dbpkg.ToPgText(in.JID),
		ID:          row.ID,
	})
	if err != nil {
		return Contact{}, fmt.Errorf("touch contact: %w", err)
	}
	return toContact(updated), nil
}

func (s *Service) GetByID(ctx context.Context, contactID string) (Contact, error) {
	pgID, err := dbpkg.ParseUUID(contactID)
	if err != nil {
		return Contact{}, ErrContactNotFound
	}
	row, err := s.queries.GetContactByID(ctx, pgID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, err
	}
	return toContact(row), nil
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Contact, error) {
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	var query pgtype.Text
	if trimmed := strings.TrimSpace(req.Query); trimmed != "" {
		query = pgtype.Text{String: "%" + trimmed + "%", Valid: true}
	}
	rows, err := s.queries.ListContacts(ctx, sqlc.ListContactsParams{
		Query:    query,
		MaxCount: limit,
		Skip:     offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]Contact, 0, len(rows))
	for _, row := range rows {
		items = append(items, toContact(row))
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, contactID string, req UpdateRequest) (Contact, error) {
	pgID, err := dbpkg.ParseUUID(contactID)
	if err != nil {
		return Contact{}, ErrContactNotFound
	}
	var displayName pgtype.Text
	if req.DisplayName != nil {
		displayName = dbpkg.ToPgText(*req.DisplayName)
	}
	var isActive pgtype.Bool
	if req.IsActive != nil {
		isActive = pgtype.Bool{Bool: *req.IsActive, Valid: true}
	}
	row, err := s.queries.UpdateContact(ctx, sqlc.UpdateContactParams{
		DisplayName: displayName,
		IsActive:    isActive,
		ID:          pgID,
	})
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, err
	}
	return toContact(row), nil
}

func toContact(row sqlc.Contact) Contact {
	return Contact{
		ID:          dbpkg.UUIDToString(row.ID),
		PhoneNumber: row.PhoneNumber,
		JID:         dbpkg.TextToString(row.Jid),
		DisplayName: dbpkg.TextToString(row.DisplayName),
		IsActive:    row.IsActive,
		LastSeenAt:  dbpkg.TimePtrFromPg(row.LastSeenAt),
		CreatedAt:   dbpkg.TimeFromPg(row.CreatedAt),
		UpdatedAt:   dbpkg.TimeFromPg(row.UpdatedAt),
	}
}
