package amqp

import (
	"encoding/json"
	"time"
)

// Change kinds carried by an ExpenseChangedMessage.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ExpenseChangedMessage tells the export worker that an expense needs
// to be re-synced. It carries only the ID and the kind of change; the
// worker fetches the current row itself, so a stale message can never
// overwrite a newer write.
type ExpenseChangedMessage struct {
	ID        string    `json:"id"`
	Change    string    `json:"change"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseChangedMessage(id, change string) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		ID:        id,
		Change:    change,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
