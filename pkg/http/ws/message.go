package ws

import "encoding/json"

// MessageType constants for the WebSocket protocol.
const (
	// Server -> Client
	TypeProgressUpdate    = "progress_update"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"

	// Client -> Server
	TypePing = "ping"
	TypePong = "pong"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LeaderboardUpdatePayload carries the current standings.
type LeaderboardUpdatePayload struct {
	Top         []LeaderboardEntry `json:"top"`
	RetrievedAt string             `json:"retrievedAt"`
}

// LeaderboardEntry is one row of the contest standings. Key is the progress
// document key.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Key      string `json:"key"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// ErrorPayload reports a protocol-level failure to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
