package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Message types, carried in the AMQP "type" property.
const (
	MessageTypeSync   = "expense.sync"
	MessageTypeDelete = "expense.delete"
)

// ExpenseSyncMessage asks the worker to mirror a stored expense. It carries
// only identifiers; the worker reads the current record from the database.
type ExpenseSyncMessage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ExpenseDeleteMessage asks the worker to drop a mirrored expense.
type ExpenseDeleteMessage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

var errMissingID = errors.New("message without expense id")

func NewExpenseSyncMessage(id, ownerID string) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{ID: id, OwnerID: ownerID, Timestamp: time.Now()}
}

func NewExpenseDeleteMessage(id, ownerID string) *ExpenseDeleteMessage {
	return &ExpenseDeleteMessage{ID: id, OwnerID: ownerID, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ExpenseDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseSyncMessageFromJSON decodes a sync message and rejects empty IDs.
func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errMissingID
	}
	return &msg, nil
}

func ExpenseDeleteMessageFromJSON(data []byte) (*ExpenseDeleteMessage, error) {
	var msg ExpenseDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errMissingID
	}
	return &msg, nil
}
