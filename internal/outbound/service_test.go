package outbound

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/bbdeals/wacrm/internal/contacts"
	"github.com/bbdeals/wacrm/internal/conversation"
	"github.com/bbdeals/wacrm/internal/message"
	"github.com/bbdeals/wacrm/internal/whatsapp"
)

type fakeDeps struct {
	conv     conversation.Conversation
	contact  contacts.Contact
	recorded []message.RecordInput
	statuses []string
	attached string
	sendTo   string
	sendErr  error
	sendID   string
	msg      message.Message
	// onSend runs while the provider call is in flight.
	onSend func(f *fakeDeps)
}

func (f *fakeDeps) Get(_ context.Context, id string) (conversation.Conversation, error) {
	if id != f.conv.ID {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	return f.conv, nil
}

func (f *fakeDeps) GetByID(_ context.Context, id string) (contacts.Contact, error) {
	if id != f.contact.ID {
		return contacts.Contact{}, contacts.ErrContactNotFound
	}
	return f.contact, nil
}

func (f *fakeDeps) Record(_ context.Context, in message.RecordInput) (message.RecordResult, error) {
	f.recorded = append(f.recorded, in)
	f.msg = message.Message{ID: "msg-1", ConversationID: in.ConversationID, Content: in.Content, Direction: in.Direction, Status: in.Status}
	return message.RecordResult{Message: f.msg, TotalMessages: 1}, nil
}

func (f *fakeDeps) AttachProviderID(_ context.Context, _, providerID string, _ map[string]any) (message.Message, error) {
	f.attached = providerID
	f.msg.WhatsAppMessageID = providerID
	return f.msg, nil
}

func (f *fakeDeps) AdvanceStatus(_ context.Context, _, from, to string) (message.Message, bool, error) {
	if f.msg.Status != from {
		return f.msg, false, nil
	}
	f.statuses = append(f.statuses, to)
	f.msg.Status = to
	return f.msg, true, nil
}

func (f *fakeDeps) SendText(_ context.Context, to, _ string) (whatsapp.SendResult, error) {
	f.sendTo = to
	if f.onSend != nil {
		f.onSend(f)
	}
	if f.sendErr != nil {
		return whatsapp.SendResult{}, f.sendErr
	}
	return whatsapp.SendResult{ProviderMessageID: f.sendID}, nil
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		conv:    conversation.Conversation{ID: "conv-1", ContactID: "contact-1"},
		contact: contacts.Contact{ID: "contact-1", PhoneNumber: "+31612345678"},
	}
}

func TestSendTextRecordsPendingThenSent(t *testing.T) {
	t.Parallel()

	deps := newFakeDeps()
	deps.sendID = "WA-OUT-1"
	svc := newService(nil, deps, deps, deps, deps)

	msg, err := svc.SendText(context.Background(), "conv-1", "Deals are live")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(deps.recorded) != 1 {
		t.Fatalf("expected one recorded message, got %d", len(deps.recorded))
	}
	in := deps.recorded[0]
	if in.Status != whatsapp.StatusPending || in.Direction != message.DirectionOutbound || !in.FromMe {
		t.Fatalf("expected pending outbound fromMe record, got %#v", in)
	}
	if deps.sendTo != "+31612345678" {
		t.Fatalf("expected send to contact phone, got %q", deps.sendTo)
	}
	if deps.attached != "WA-OUT-1" {
		t.Fatalf("expected provider id attached, got %q", deps.attached)
	}
	if !reflect.DeepEqual(deps.statuses, []string{whatsapp.StatusSent}) {
		t.Fatalf("expected single transition to sent, got %#v", deps.statuses)
	}
	if msg.Status != whatsapp.StatusSent {
		t.Fatalf("expected sent, got %q", msg.Status)
	}
}

func TestSendTextKeepsReceiptThatArrivedDuringSend(t *testing.T) {
	t.Parallel()

	deps := newFakeDeps()
	deps.sendID = "WA-OUT-2"
	deps.onSend = func(f *fakeDeps) { f.msg.Status = whatsapp.StatusDelivered }
	svc := newService(nil, deps, deps, deps, deps)

	msg, err := svc.SendText(context.Background(), "conv-1", "Flash sale")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.Status != whatsapp.StatusDelivered {
		t.Fatalf("expected delivered to survive, got %q", msg.Status)
	}
	if len(deps.statuses) != 0 {
		t.Fatalf("expected no status transition, got %#v", deps.statuses)
	}
}

func TestSendTextWithoutProviderIDLeavesIDForWebhook(t *testing.T) {
	t.Parallel()

	deps := newFakeDeps()
	svc := newService(nil, deps, deps, deps, deps)

	msg, err := svc.SendText(context.Background(), "conv-1", "hi")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if deps.attached != "" || msg.WhatsAppMessageID != "" {
		t.Fatalf("expected no provider id, got attached=%q msg=%q", deps.attached, msg.WhatsAppMessageID)
	}
}

func TestSendTextProviderFailureMarksError(t *testing.T) {
	t.Parallel()

	deps := newFakeDeps()
	deps.sendErr = errors.New("status 500")
	svc := newService(nil, deps, deps, deps, deps)

	msg, err := svc.SendText(context.Background(), "conv-1", "hi")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
	if msg.Status != whatsapp.StatusError {
		t.Fatalf("expected error status, got %q", msg.Status)
	}
	if !reflect.DeepEqual(deps.statuses, []string{whatsapp.StatusError}) {
		t.Fatalf("expected single transition to error, got %#v", deps.statuses)
	}
}

func TestSendTextValidation(t *testing.T) {
	t.Parallel()

	deps := newFakeDeps()
	svc := newService(nil, deps, deps, deps, deps)

	if _, err := svc.SendText(context.Background(), "conv-1", "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := svc.SendText(context.Background(), "other", "hi"); !errors.Is(err, conversation.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if len(deps.recorded) != 0 {
		t.Fatalf("expected nothing recorded, got %#v", deps.recorded)
	}
}
