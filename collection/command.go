package collection

import "github.com/go-json-experiment/json/jsontext"

const (
	CommandInsert = "insert"
	CommandRemove = "remove"
	CommandIndex  = "index"
)

type Command struct {
	Name      string         `json:"name"`
	Uuid      string         `json:"uuid"`
	Timestamp int64          `json:"timestamp"`
	StartByte int64          `json:"start_byte"`
	Payload   jsontext.Value `json:"payload"`
}
