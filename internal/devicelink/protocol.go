package devicelink

import "encoding/json"

type Op string

const (
	OpHello   Op = "hello"
	OpScan    Op = "scan"
	OpScanAck Op = "scan-ack"
	OpPing    Op = "ping"
	OpPong    Op = "pong"
	OpError   Op = "error"
)

// Message 是所有消息的载体 — one newline-terminated JSON object per frame.
type Message struct {
	ID          string `json:"id"`
	Op          Op     `json:"op"`
	From        string `json:"from,omitempty"`
	UID         string `json:"uid,omitempty"`
	Status      string `json:"status,omitempty"`
	PetName     string `json:"pet_name,omitempty"`
	PortionTime int    `json:"portion_time,omitempty"`
	FeedsToday  int    `json:"feeds_today,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (m *Message) Encode() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func Decode(b []byte) (*Message, error) {
	var m Message
	err := json.Unmarshal(b, &m)
	return &m, err
}
