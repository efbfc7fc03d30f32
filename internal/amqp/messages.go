package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEventMessage notifies consumers that a transaction changed.
// Contains only the operation and ID, the worker will read the full
// state from the snapshot store.
type LedgerEventMessage struct {
	Op            string    `json:"op"`
	TransactionID string    `json:"transactionId"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates a new event message
func NewLedgerEventMessage(op, transactionID string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Op:            op,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
