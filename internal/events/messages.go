// Package events publishes and consumes ledger change events over
// AMQP. Messages carry only the entry ID; a consumer treats them as a
// nudge and re-reads pending state from the database, so a replayed or
// lost event never corrupts anything.
package events

import (
	"encoding/json"
	"time"
)

// Event kinds.
const (
	KindExpenseCreated = "expense_created"
	KindExpenseDeleted = "expense_deleted"
)

// LedgerEvent is the wire message for one ledger mutation.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	ExpenseID int64     `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind string, expenseID int64) *LedgerEvent {
	return &LedgerEvent{Kind: kind, ExpenseID: expenseID, Timestamp: time.Now().UTC()}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
