package amqp

import (
	"encoding/json"
	"time"
)

// ExportMessage nudges the export worker to pick up a queued row. It
// carries only the queue row id; the worker fetches the payload from the
// database, so a lost message is recovered by the periodic sweep.
type ExportMessage struct {
	RowID     int64     `json:"row_id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// ReminderMessage asks the platform notifier to fire a local reminder. The
// Handle is the opaque token the core stores so the reminder can be
// cancelled later.
type ReminderMessage struct {
	Handle    string    `json:"handle"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	FireAt    time.Time `json:"fire_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReminderCancelMessage withdraws a previously scheduled reminder.
type ReminderCancelMessage struct {
	Handle    string    `json:"handle"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportMessage(rowID int64, kind string) *ExportMessage {
	return &ExportMessage{RowID: rowID, Kind: kind, Timestamp: time.Now()}
}

func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ReminderCancelMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
