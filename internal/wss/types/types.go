package wsstypes

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// Session is the per-connection identity established by a successful
// join-room. It lives for the lifetime of the connection; later events on the
// same socket act as this user in this room.
type Session struct {
	UserID string
	RoomID string
	Name   string
}

func (s *Session) Established() bool {
	return s.UserID != "" && s.RoomID != ""
}

// WsContext is handed to every event handler. Payload is the raw message
// payload; each handler decodes it into its own typed struct.
type WsContext struct {
	Conn    *websocket.Conn
	ConnID  string
	Payload json.RawMessage
	Session *Session
}

// WsMessage is the inbound wire envelope.
type WsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Token  string `json:"token,omitempty"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

type CancelRoomPayload struct {
	RoomID string `json:"roomId"`
}

type StartMatchPayload struct {
	RoomID   string         `json:"roomId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type SyncCodePayload struct {
	ProblemID string `json:"problemId"`
	Language  string `json:"language"`
	Code      string `json:"code"`
}

type CodeSubmittedPayload struct {
	MatchID   string `json:"matchId"`
	ProblemID string `json:"problemId"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

type ChangeProblemPayload struct {
	ProblemIndex int `json:"problemIndex"`
}

type SendMessagePayload struct {
	Text string `json:"text"`
}

// AckPayload is the direct reply to the sender of an inbound event, wrapped
// in an Event envelope carrying the inbound event's own name.
type AckPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}
