package whatsapp

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseUpsertShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      string
		wantShape Shape
		wantCount int
		wantErr   bool
	}{
		{"absent data", ``, ShapeAbsent, 0, false},
		{"null data", `null`, ShapeAbsent, 0, false},
		{"no messages field", `{"instance":"main"}`, ShapeAbsent, 0, false},
		{"empty array", `{"messages":[]}`, ShapeAbsent, 0, false},
		{"single object", `{"messages":{"key":{"id":"A1","remoteJid":"316@s.whatsapp.net"}}}`, ShapeObject, 1, false},
		{"array", `{"messages":[{"key":{"id":"A1"}},{"key":{"id":"A2"}}]}`, ShapeArray, 2, false},
		{"string messages", `{"messages":"oops"}`, ShapeAbsent, 0, true},
		{"number messages", `{"messages":42}`, ShapeAbsent, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := ParseUpsert(json.RawMessage(tt.data))
			if tt.wantErr {
				if !errors.Is(err, ErrUnrecognizedShape) {
					t.Fatalf("expected ErrUnrecognizedShape, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if batch.Shape != tt.wantShape {
				t.Fatalf("expected shape %v, got %v", tt.wantShape, batch.Shape)
			}
			if len(batch.Messages) != tt.wantCount {
				t.Fatalf("expected %d messages, got %d", tt.wantCount, len(batch.Messages))
			}
		})
	}
}

func TestUpsertBatchFirstUsesFirstElement(t *testing.T) {
	t.Parallel()

	batch, err := ParseUpsert(json.RawMessage(`{"messages":[{"key":{"id":"first"}},{"key":{"id":"second"}}]}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	msg, ok := batch.First()
	if !ok || msg.Key.ID != "first" {
		t.Fatalf("expected first element, got ok=%v id=%q", ok, msg.Key.ID)
	}
	if _, ok := (UpsertBatch{}).First(); ok {
		t.Fatalf("expected empty batch to have no first message")
	}
}

func TestProviderMessageKeepsRaw(t *testing.T) {
	t.Parallel()

	raw := `{"key":{"id":"ABC","fromMe":true,"remoteJid":"31612345678@s.whatsapp.net"},"message":{"conversation":"hi"},"messageTimestamp":1700000000,"pushName":"Ana","extra":{"x":1}}`
	var msg ProviderMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Key.ID != "ABC" || !msg.Key.FromMe || msg.PushName != "Ana" {
		t.Fatalf("unexpected key fields: %#v", msg.Key)
	}
	if msg.Message == nil || msg.Message.Conversation != "hi" {
		t.Fatalf("expected conversation text, got %#v", msg.Message)
	}

	var want, got any
	if err := json.Unmarshal([]byte(raw), &want); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if err := json.Unmarshal(msg.Raw, &got); err != nil {
		t.Fatalf("decode kept raw: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("expected raw payload kept, got %s", msg.Raw)
	}
}

func TestTimestampUnion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    int64
		set     bool
		wantErr bool
	}{
		{"number", `1700000000`, 1700000000, true, false},
		{"float", `1700000000.9`, 1700000000, true, false},
		{"string", `"1700000000"`, 1700000000, true, false},
		{"milliseconds", `1700000000123`, 1700000000, true, false},
		{"long object", `{"low":1700000000,"high":0,"unsigned":true}`, 1700000000, true, false},
		{"long object negative low", `{"low":-1,"high":0,"unsigned":true}`, 4294967295, true, false},
		{"null", `null`, 0, false, false},
		{"empty string", `""`, 0, false, false},
		{"garbage string", `"soon"`, 0, false, true},
		{"boolean", `true`, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.raw), &ts)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tt.raw, err)
			}
			if ts.Seconds != tt.want || ts.Set != tt.set {
				t.Fatalf("expected seconds=%d set=%v, got %#v", tt.want, tt.set, ts)
			}
		})
	}
}

func TestTimestampTimeFallback(t *testing.T) {
	t.Parallel()

	fallback := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := (Timestamp{}).Time(fallback); !got.Equal(fallback) {
		t.Fatalf("expected fallback %s, got %s", fallback, got)
	}
	want := time.Unix(1700000000, 0).UTC()
	if got := (Timestamp{Seconds: 1700000000, Set: true}).Time(fallback); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestParseStatusUpdates(t *testing.T) {
	t.Parallel()

	records, shape, err := ParseStatusUpdates(json.RawMessage(`{"key":{"id":"M1"},"update":{"status":3}}`))
	if err != nil {
		t.Fatalf("parse object: %v", err)
	}
	if shape != ShapeObject || len(records) != 1 {
		t.Fatalf("expected one object record, got shape=%v len=%d", shape, len(records))
	}
	if status := records[0].Update.Update.Status; status == nil || *status != 3 {
		t.Fatalf("expected status 3, got %v", status)
	}

	records, shape, err = ParseStatusUpdates(json.RawMessage(`[{"key":{"id":"M1"},"update":{"status":4}},{"key":"broken"},{"key":{"id":"M3"},"update":{}}]`))
	if err != nil {
		t.Fatalf("parse array: %v", err)
	}
	if shape != ShapeArray || len(records) != 3 {
		t.Fatalf("expected three array records, got shape=%v len=%d", shape, len(records))
	}
	if records[0].Err != nil {
		t.Fatalf("expected first record valid, got %v", records[0].Err)
	}
	if records[1].Err == nil {
		t.Fatalf("expected broken record to carry an error")
	}
	if records[2].Update.Update.Status != nil {
		t.Fatalf("expected missing status, got %v", *records[2].Update.Update.Status)
	}

	if _, _, err = ParseStatusUpdates(json.RawMessage(`"nope"`)); !errors.Is(err, ErrUnrecognizedShape) {
		t.Fatalf("expected ErrUnrecognizedShape, got %v", err)
	}

	records, shape, err = ParseStatusUpdates(nil)
	if err != nil || shape != ShapeAbsent || len(records) != 0 {
		t.Fatalf("expected absent empty result, got shape=%v len=%d err=%v", shape, len(records), err)
	}
}
