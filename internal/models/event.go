package models

import "time"

// Direction indicates which peer produced a message.
type Direction int

const (
	ClientToServer Direction = iota
	ServerToClient
)

func (d Direction) String() string {
	if d == ClientToServer {
		return "client-to-server"
	}
	return "server-to-client"
}

// PayloadKind distinguishes text frames from binary frames.
type PayloadKind int

const (
	PayloadText PayloadKind = iota
	PayloadBinary
)

// Event is one intercepted message, immutable once constructed.
// Text payloads live in Text; binary payloads in Data.
type Event struct {
	ConnectionID  int64
	ConnectionURL string
	Direction     Direction
	Timestamp     time.Time
	Kind          PayloadKind
	Text          string
	Data          []byte
}

// RecorderStats tracks ingestion counters for the status endpoint.
type RecorderStats struct {
	RecordedEvents int64     `json:"recorded_events"`
	DroppedEvents  int64     `json:"dropped_events"`
	RecordedBytes  int64     `json:"recorded_bytes"`
	ClientToServer int64     `json:"client_to_server"`
	ServerToClient int64     `json:"server_to_client"`
	Connections    int64     `json:"connections"`
	LastEvent      time.Time `json:"last_event"`
}
