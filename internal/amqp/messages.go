package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType names the mutation an ExpenseEvent reports.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

func (t EventType) valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// ExpenseEvent tells other instances that an owner's expenses changed.
// Receivers refetch what they need; the event carries no record data.
type ExpenseEvent struct {
	Type      EventType `json:"type"`
	ExpenseID string    `json:"expense_id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(t EventType, expenseID, ownerID string) ExpenseEvent {
	return ExpenseEvent{
		Type:      t,
		ExpenseID: expenseID,
		OwnerID:   ownerID,
		Timestamp: time.Now().UTC(),
	}
}

func (m ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and validates an event body.
func ExpenseEventFromJSON(data []byte) (ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return ExpenseEvent{}, err
	}
	if !msg.Type.valid() {
		return ExpenseEvent{}, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.OwnerID == "" {
		return ExpenseEvent{}, errors.New("event without owner_id")
	}
	return msg, nil
}
