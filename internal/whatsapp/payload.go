// Package whatsapp models the messaging provider's webhook payloads and send API.
package whatsapp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// EventType is the webhook `event` discriminator.
type EventType string

const (
	EventTest           EventType = "webhook.test"
	EventMessagesUpsert EventType = "messages.upsert"
	EventMessagesUpdate EventType = "messages.update"
)

// ErrUnrecognizedShape is returned when a one-or-many field holds neither an object nor an array.
var ErrUnrecognizedShape = errors.New("unrecognized payload shape")

// Envelope is the top-level webhook body.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Shape tells how a one-or-many field was encoded on the wire.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeObject
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	default:
		return "absent"
	}
}

// Key identifies a provider message.
type Key struct {
	ID        string `json:"id"`
	FromMe    bool   `json:"fromMe"`
	RemoteJID string `json:"remoteJid"`
}

// ProviderMessage is one entry of messages.upsert. Raw keeps the original bytes for audit.
type ProviderMessage struct {
	Key              Key             `json:"key"`
	Message          *Content        `json:"message"`
	MessageTimestamp Timestamp       `json:"messageTimestamp"`
	PushName         string          `json:"pushName"`
	Raw              json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the message and retains a copy of the raw object.
func (m *ProviderMessage) UnmarshalJSON(data []byte) error {
	type alias ProviderMessage
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*m = ProviderMessage(decoded)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Timestamp accepts a number of seconds, a digit string, or the long encoding {low, high, unsigned}.
type Timestamp struct {
	Seconds int64
	Set     bool
}

// UnmarshalJSON implements the number | string | long-object union.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*t = Timestamp{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '{':
		var long struct {
			Low      int64 `json:"low"`
			High     int64 `json:"high"`
			Unsigned bool  `json:"unsigned"`
		}
		if err := json.Unmarshal(trimmed, &long); err != nil {
			return fmt.Errorf("timestamp object: %w", err)
		}
		t.Seconds = long.High<<32 | int64(uint32(long.Low))
	case '"':
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp string: %w", err)
		}
		t.Seconds = parsed
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		t.Seconds = int64(math.Trunc(f))
	}
	// Some gateways report milliseconds.
	if t.Seconds > 1e12 {
		t.Seconds /= 1000
	}
	t.Set = t.Seconds > 0
	return nil
}

// Time returns the timestamp, or fallback when it was absent.
func (t Timestamp) Time(fallback time.Time) time.Time {
	if !t.Set {
		return fallback
	}
	return time.Unix(t.Seconds, 0).UTC()
}

// StatusUpdate is one entry of messages.update.
type StatusUpdate struct {
	Key    Key `json:"key"`
	Update struct {
		Status *int `json:"status"`
	} `json:"update"`
}

// UpsertBatch is the decoded data.messages field of messages.upsert.
type UpsertBatch struct {
	Shape    Shape
	Messages []ProviderMessage
}

// First returns the message to process. Only the first element of an array is used.
func (b UpsertBatch) First() (ProviderMessage, bool) {
	if len(b.Messages) == 0 {
		return ProviderMessage{}, false
	}
	return b.Messages[0], true
}

// ParseUpsert decodes messages.upsert data. A missing data object or messages field is ShapeAbsent.
func ParseUpsert(data json.RawMessage) (UpsertBatch, error) {
	if isAbsent(data) {
		return UpsertBatch{Shape: ShapeAbsent}, nil
	}
	var wrapper struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return UpsertBatch{}, fmt.Errorf("decode upsert data: %w", err)
	}
	items, shape, err := splitOneOrMany(wrapper.Messages)
	if err != nil {
		return UpsertBatch{}, fmt.Errorf("messages: %w", err)
	}
	batch := UpsertBatch{Shape: shape}
	for _, item := range items {
		var msg ProviderMessage
		if err := json.Unmarshal(item, &msg); err != nil {
			return UpsertBatch{}, fmt.Errorf("decode message: %w", err)
		}
		batch.Messages = append(batch.Messages, msg)
	}
	if len(batch.Messages) == 0 {
		batch.Shape = ShapeAbsent
	}
	return batch, nil
}

// StatusRecord is a decoded status entry, or the error that made it undecodable.
type StatusRecord struct {
	Update StatusUpdate
	Err    error
}

// ParseStatusUpdates decodes messages.update data, which is a single object or an array.
// Records that fail to decode are returned with Err set so callers can log and skip them.
func ParseStatusUpdates(data json.RawMessage) ([]StatusRecord, Shape, error) {
	items, shape, err := splitOneOrMany(data)
	if err != nil {
		return nil, shape, fmt.Errorf("status data: %w", err)
	}
	records := make([]StatusRecord, 0, len(items))
	for _, item := range items {
		var update StatusUpdate
		if err := json.Unmarshal(item, &update); err != nil {
			records = append(records, StatusRecord{Err: err})
			continue
		}
		records = append(records, StatusRecord{Update: update})
	}
	return records, shape, nil
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func splitOneOrMany(data json.RawMessage) ([]json.RawMessage, Shape, error) {
	if isAbsent(data) {
		return nil, ShapeAbsent, nil
	}
	trimmed := bytes.TrimSpace(data)
	switch trimmed[0] {
	case '{':
		return []json.RawMessage{trimmed}, ShapeObject, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, ShapeArray, err
		}
		if len(items) == 0 {
			return nil, ShapeAbsent, nil
		}
		return items, ShapeArray, nil
	default:
		return nil, ShapeAbsent, ErrUnrecognizedShape
	}
}
