package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DatasetReplacedMessage announces that the active dataset changed. It only
// carries identifiers; consumers load the rows from the dataset store.
type DatasetReplacedMessage struct {
	MessageID string    `json:"message_id"`
	DatasetID int64     `json:"dataset_id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Years     []int     `json:"years"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetReplacedMessage stamps a fresh message id and timestamp.
func NewDatasetReplacedMessage(datasetID int64, name, source string, rows int, years []int) *DatasetReplacedMessage {
	return &DatasetReplacedMessage{
		MessageID: uuid.NewString(),
		DatasetID: datasetID,
		Name:      name,
		Source:    source,
		Rows:      rows,
		Years:     years,
		Timestamp: time.Now().UTC(),
	}
}

func (m *DatasetReplacedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetReplacedMessageFromJSON decodes a message body.
func DatasetReplacedMessageFromJSON(data []byte) (*DatasetReplacedMessage, error) {
	var msg DatasetReplacedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
