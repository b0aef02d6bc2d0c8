package model

import "time"

// Room-scoped realtime event names. Inbound names are what clients send over
// the websocket; outbound names are what the bus fans out. One payload struct
// per name, so handlers never pass raw maps past the boundary.

// Inbound.
const (
	EvtJoinRoom      = "join-room"
	EvtLeaveRoom     = "leave-room"
	EvtCancelRoom    = "cancel-room"
	EvtStartMatch    = "start-match"
	EvtSyncCode      = "sync-code"
	EvtCodeSubmitted = "code-submitted"
	EvtChangeProblem = "change-problem"
	EvtSendMessage   = "send-message"
)

// Outbound.
const (
	EvtOpponentJoined         = "opponent-joined"
	EvtOpponentLeft           = "opponent-left"
	EvtOpponentDisconnected   = "opponent-disconnected"
	EvtRoomCancelled          = "room-cancelled"
	EvtMatchStarted           = "match-started"
	EvtMatchEnded             = "match-ended"
	EvtReceiveMessage         = "receive-message"
	EvtCodeUpdated            = "code-updated"
	EvtOpponentSubmitted      = "opponent-submitted"
	EvtOpponentChangedProblem = "opponent-changed-problem"
	EvtBattleProgress         = "battleProgress"
	EvtSubmissionResult       = "submissionResult"
)

// Event is the wire envelope for a single fanout message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type OpponentJoinedPayload struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL,omitempty"`
}

type OpponentLeftPayload struct {
	UserID string `json:"userId"`
}

type OpponentDisconnectedPayload struct {
	UserID string `json:"userId"`
}

type RoomCancelledPayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type MatchStartedPayload struct {
	RoomID string `json:"roomId"`
	// StartTime is the server clock in unix milliseconds; both clients compute
	// elapsed time from it so neither side drifts.
	StartTime int64          `json:"startTime"`
	MatchID   string         `json:"matchId"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type MatchEndedPayload struct {
	RoomID  string `json:"roomId"`
	MatchID string `json:"matchId"`
}

type ReceiveMessagePayload struct {
	Sender    string    `json:"sender"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type CodeUpdatedPayload struct {
	ProblemID string `json:"problemId"`
	Language  string `json:"language"`
	Code      string `json:"code"`
	UserID    string `json:"userId"`
}

type OpponentSubmittedPayload struct {
	UserID    string `json:"userId"`
	ProblemID string `json:"problemId"`
	Result    any    `json:"result"`
}

type OpponentChangedProblemPayload struct {
	ProblemIndex int    `json:"problemIndex"`
	UserID       string `json:"userId"`
}

// ParticipantProgressView is the per-user slice of battleProgress.
type ParticipantProgressView struct {
	UserID     string            `json:"userId"`
	Problems   []ProblemProgress `json:"problems"`
	TotalScore int               `json:"totalScore"`
}

type BattleProgressPayload struct {
	MatchID  string                    `json:"matchId"`
	Progress []ParticipantProgressView `json:"progress"`
}

// ProgressSummary is the solved/attempted/total counts attached to a
// submission result.
type ProgressSummary struct {
	Solved    int `json:"solved"`
	Attempted int `json:"attempted"`
	Total     int `json:"total"`
}

type SubmissionResultPayload struct {
	UserID         string          `json:"userId"`
	ProblemID      string          `json:"problemId"`
	Status         ProblemStatus   `json:"status"`
	PreviousStatus ProblemStatus   `json:"previousStatus"`
	Message        string          `json:"message"`
	Progress       ProgressSummary `json:"progress"`
}
