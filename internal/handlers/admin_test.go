package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bbdeals/wacrm/internal/contacts"
	"github.com/bbdeals/wacrm/internal/conversation"
)

type fakeContactService struct {
	listReq   contacts.ListRequest
	updateReq contacts.UpdateRequest
}

func (f *fakeContactService) List(_ context.Context, req contacts.ListRequest) ([]contacts.Contact, error) {
	f.listReq = req
	return []contacts.Contact{{ID: "c1", PhoneNumber: "+31612345678"}}, nil
}

func (f *fakeContactService) GetByID(_ context.Context, id string) (contacts.Contact, error) {
	if id != "c1" {
		return contacts.Contact{}, contacts.ErrContactNotFound
	}
	return contacts.Contact{ID: "c1"}, nil
}

func (f *fakeContactService) Update(_ context.Context, id string, req contacts.UpdateRequest) (contacts.Contact, error) {
	f.updateReq = req
	if id != "c1" {
		return contacts.Contact{}, contacts.ErrContactNotFound
	}
	return contacts.Contact{ID: "c1", DisplayName: *req.DisplayName}, nil
}

type fakeConversationService struct {
	assistant conversation.AssistantRequest
	listReq   conversation.ListRequest
}

func (f *fakeConversationService) Get(_ context.Context, id string) (conversation.Conversation, error) {
	if id != "v1" {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	return conversation.Conversation{ID: id, UnreadCount: 3}, nil
}

func (f *fakeConversationService) List(_ context.Context, req conversation.ListRequest) ([]conversation.ListItem, error) {
	f.listReq = req
	return nil, nil
}

func (f *fakeConversationService) MarkRead(ctx context.Context, id string) (conversation.Conversation, error) {
	c, err := f.Get(ctx, id)
	c.UnreadCount = 0
	return c, err
}

func (f *fakeConversationService) AssignAssistant(ctx context.Context, id string, req conversation.AssistantRequest) (conversation.Conversation, error) {
	f.assistant = req
	return f.Get(ctx, id)
}

func (f *fakeConversationService) Archive(ctx context.Context, id string) (conversation.Conversation, error) {
	c, err := f.Get(ctx, id)
	c.Status = conversation.StatusArchived
	return c, err
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestContactsRoutes(t *testing.T) {
	t.Parallel()

	svc := &fakeContactService{}
	e := echo.New()
	NewContactsHandler(discardLogger(), svc).Register(e)

	rec := do(e, http.MethodGet, "/contacts?q=ana&limit=10&offset=20", "")
	expectStatus(t, rec, http.StatusOK)
	if want := (contacts.ListRequest{Query: "ana", Limit: 10, Offset: 20}); svc.listReq != want {
		t.Fatalf("expected %#v, got %#v", want, svc.listReq)
	}
	if !strings.Contains(rec.Body.String(), "+31612345678") {
		t.Fatalf("expected phone in body, got %s", rec.Body.String())
	}

	expectStatus(t, do(e, http.MethodGet, "/contacts/c1", ""), http.StatusOK)
	expectStatus(t, do(e, http.MethodGet, "/contacts/zz", ""), http.StatusNotFound)

	rec = do(e, http.MethodPatch, "/contacts/c1", `{"display_name":"Ana B"}`)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "Ana B") {
		t.Fatalf("expected updated name in body, got %s", rec.Body.String())
	}
	if svc.updateReq.IsActive != nil {
		t.Fatalf("expected is_active untouched, got %v", *svc.updateReq.IsActive)
	}

	expectStatus(t, do(e, http.MethodPatch, "/contacts/c1", `{}`), http.StatusBadRequest)
}

func TestConversationsRoutes(t *testing.T) {
	t.Parallel()

	svc := &fakeConversationService{}
	e := echo.New()
	NewConversationsHandler(discardLogger(), svc).Register(e)

	expectStatus(t, do(e, http.MethodGet, "/conversations?status=active", ""), http.StatusOK)
	if svc.listReq.Status != "active" {
		t.Fatalf("expected status filter active, got %q", svc.listReq.Status)
	}
	expectStatus(t, do(e, http.MethodGet, "/conversations?status=deleted", ""), http.StatusBadRequest)
	expectStatus(t, do(e, http.MethodGet, "/conversations/nope", ""), http.StatusNotFound)

	rec := do(e, http.MethodPost, "/conversations/v1/read", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"unread_count":0`) {
		t.Fatalf("expected unread reset, got %s", rec.Body.String())
	}

	rec = do(e, http.MethodPut, "/conversations/v1/assistant", `{"assistant_id":"asst_1","enabled":true}`)
	expectStatus(t, rec, http.StatusOK)
	if want := (conversation.AssistantRequest{AssistantID: "asst_1", Enabled: true}); svc.assistant != want {
		t.Fatalf("expected %#v, got %#v", want, svc.assistant)
	}
	expectStatus(t, do(e, http.MethodPut, "/conversations/v1/assistant", `{"enabled":true}`), http.StatusBadRequest)

	rec = do(e, http.MethodPost, "/conversations/v1/archive", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"status":"archived"`) {
		t.Fatalf("expected archived status, got %s", rec.Body.String())
	}
}
