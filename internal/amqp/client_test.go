package amqp

import (
	"testing"
	"time"
)

func TestNewLedgerEventMessage(t *testing.T) {
	msg := NewLedgerEventMessage("created", "tx-123")

	if msg.Op != "created" {
		t.Errorf("NewLedgerEventMessage() Op = %v, want created", msg.Op)
	}
	if msg.TransactionID != "tx-123" {
		t.Errorf("NewLedgerEventMessage() TransactionID = %v, want tx-123", msg.TransactionID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewLedgerEventMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewLedgerEventMessage() Timestamp should be recent")
	}
}

func TestLedgerEventMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &LedgerEventMessage{
		Op:            "updated",
		TransactionID: "tx-42",
		Timestamp:     timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := LedgerEventMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("LedgerEventMessageFromJSON() error = %v", err)
	}

	if parsedMsg.Op != msg.Op {
		t.Errorf("Parsed Op = %v, want %v", parsedMsg.Op, msg.Op)
	}
	if parsedMsg.TransactionID != msg.TransactionID {
		t.Errorf("Parsed TransactionID = %v, want %v", parsedMsg.TransactionID, msg.TransactionID)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestLedgerEventMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"op": 7, "transactionId": true}`)

	_, err := LedgerEventMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("LedgerEventMessageFromJSON() should fail with invalid JSON")
	}
}
