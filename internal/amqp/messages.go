package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change reasons carried by LedgerChangedMessage.
const (
	ReasonCreate = "create"
	ReasonUpdate = "update"
	ReasonDelete = "delete"
	ReasonClear  = "clear"
	ReasonExport = "export"
)

// LedgerChangedMessage tells the worker the ledger was written. It carries
// no transaction data; the worker reloads the store and exports everything.
type LedgerChangedMessage struct {
	Reason        string    `json:"reason"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Count         int       `json:"count"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message stamped with the current time.
func NewLedgerChangedMessage(reason string, id int64, count int) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Reason:        reason,
		TransactionID: id,
		Count:         count,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message, rejecting unknown reasons.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Reason {
	case ReasonCreate, ReasonUpdate, ReasonDelete, ReasonClear, ReasonExport:
	default:
		return nil, fmt.Errorf("unknown ledger change reason %q", msg.Reason)
	}
	return &msg, nil
}
