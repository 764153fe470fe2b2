package event

import (
	"testing"
	"time"
)

func TestHubPublishScopedByConversation(t *testing.T) {
	hub := NewHub()
	_, convA, cancelA := hub.Subscribe("conv-a", 8)
	defer cancelA()
	_, convB, cancelB := hub.Subscribe("conv-b", 8)
	defer cancelB()

	hub.Publish(Event{Type: TypeMessageCreated, ConversationID: "conv-a"})

	select {
	case ev := <-convA:
		if ev.Type != TypeMessageCreated {
			t.Fatalf("unexpected event type %q", ev.Type)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected event for conv-a subscriber")
	}

	select {
	case <-convB:
		t.Fatalf("did not expect conv-b subscriber to receive conv-a event")
	case <-time.After(120 * time.Millisecond):
	}
}

func TestHubCancelUnsubscribe(t *testing.T) {
	hub := NewHub()
	_, stream, cancel := hub.Subscribe("conv-a", 8)
	if got := hub.Subscribers("conv-a"); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}
	cancel()
	cancel()

	select {
	case _, ok := <-stream:
		if ok {
			t.Fatalf("expected stream to be closed after cancel")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for stream close")
	}
	if got := hub.Subscribers("conv-a"); got != 0 {
		t.Fatalf("expected no subscribers after cancel, got %d", got)
	}
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	_, stream, cancel := hub.Subscribe("conv-a", 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		hub.Publish(Event{Type: TypeMessageCreated, ConversationID: "conv-a"})
		hub.Publish(Event{Type: TypeMessageStatus, ConversationID: "conv-a"})
		hub.Publish(Event{Type: TypeMessageStatus, ConversationID: "conv-a"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("publish blocked on a full subscriber")
	}
	select {
	case <-stream:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected at least one event in buffer")
	}
}

func TestHubIgnoresEmptyConversation(t *testing.T) {
	hub := NewHub()
	id, stream, cancel := hub.Subscribe("  ", 4)
	defer cancel()
	if id != "" {
		t.Fatalf("expected empty stream id, got %q", id)
	}
	if _, ok := <-stream; ok {
		t.Fatalf("expected closed stream for empty conversation id")
	}
	hub.Publish(Event{Type: TypeMessageCreated})
}
