package amqp

import (
	"encoding/json"
	"time"
)

// EventTransactionRecorded is the message type set on published deliveries.
const EventTransactionRecorded = "transaction.recorded"

// TransactionRecordedMessage announces a stored transaction. It carries only
// the ID: the consumer loads the row from the database.
type TransactionRecordedMessage struct {
	ID         int64     `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewTransactionRecordedMessage stamps a message for the transaction id.
func NewTransactionRecordedMessage(id int64, recordedAt time.Time) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:         id,
		RecordedAt: recordedAt,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON decodes a delivery body.
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
