// Package realtime carries row change events from the usecases to every
// service instance and on to websocket subscribers.
package realtime

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

const (
	TableBusinesses   = "businesses"
	TableProfiles     = "profiles"
	TableProducts     = "products"
	TableTransactions = "transactions"
	TableInvites      = "invites"
)

type Event struct {
	Type            EventType              `json:"type"`
	Table           string                 `json:"table"`
	BusinessID      string                 `json:"business_id"`
	Record          map[string]interface{} `json:"record,omitempty"`
	OldRecord       map[string]interface{} `json:"old_record,omitempty"`
	CommitTimestamp time.Time              `json:"commit_timestamp"`
}

// NewEvent flattens record and old into JSON-shaped maps.
func NewEvent(typ EventType, table, businessID string, record, old interface{}) (Event, error) {
	ev := Event{
		Type:            typ,
		Table:           table,
		BusinessID:      businessID,
		CommitTimestamp: time.Now().UTC(),
	}
	var err error
	if ev.Record, err = toMap(record); err != nil {
		return Event{}, fmt.Errorf("encode record: %w", err)
	}
	if ev.OldRecord, err = toMap(old); err != nil {
		return Event{}, fmt.Errorf("encode old record: %w", err)
	}
	return ev, nil
}

// RecordID is the id of the row the event is about.
func (e Event) RecordID() string {
	for _, m := range []map[string]interface{}{e.Record, e.OldRecord} {
		if id, ok := m["id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// Marshal encodes the event as a protobuf Struct.
func (e Event) Marshal() ([]byte, error) {
	m, err := toMap(e)
	if err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

func Unmarshal(data []byte) (Event, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return Event{}, err
	}
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		return Event{}, err
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Decode converts the event record into T.
func Decode[T any](record map[string]interface{}) (T, error) {
	var out T
	raw, err := json.Marshal(record)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

func toMap(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		return m, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
