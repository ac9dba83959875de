package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tables that emit change events
const (
	TableOrders        = "orders"
	TableExchangeRates = "exchange_rates"
	TableNotifications = "notifications"
	TableUsers         = "users"
	TableKYCDocuments  = "kyc_documents"
)

// ChangeType is the row operation carried by a change event
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent is a committed row change fanned out to live views.
type ChangeEvent struct {
	Table     string          `json:"table"`
	Type      ChangeType      `json:"type"`
	RecordID  string          `json:"record_id"`
	OwnerID   *uuid.UUID      `json:"owner_id,omitempty"`
	New       json.RawMessage `json:"new,omitempty"`
	Old       json.RawMessage `json:"old,omitempty"`
	Timestamp time.Time       `json:"commit_timestamp"`
}

// NewChangeEvent builds an event for a row owned by owner (nil when the row
// is public or admin-only).
func NewChangeEvent(table string, typ ChangeType, recordID string, owner *uuid.UUID, newRow, oldRow interface{}) (*ChangeEvent, error) {
	ev := &ChangeEvent{
		Table:     table,
		Type:      typ,
		RecordID:  recordID,
		OwnerID:   owner,
		Timestamp: time.Now().UTC(),
	}
	if newRow != nil {
		raw, err := json.Marshal(newRow)
		if err != nil {
			return nil, err
		}
		ev.New = raw
	}
	if oldRow != nil {
		raw, err := json.Marshal(oldRow)
		if err != nil {
			return nil, err
		}
		ev.Old = raw
	}
	return ev, nil
}
