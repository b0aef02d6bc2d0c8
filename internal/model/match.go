package model

import "time"

type MatchStatus string

const (
	MatchInProgress MatchStatus = "in-progress"
	MatchCompleted  MatchStatus = "completed"
)

// WinnerRole tags the match outcome by role rather than raw user id, so the
// record stays meaningful even if user identities are reassigned upstream.
type WinnerRole string

const (
	WinnerHost       WinnerRole = "host"
	WinnerChallenger WinnerRole = "challenger"
	WinnerDraw       WinnerRole = "draw"
)

// Match is the durable record of a contest. A row is cut in-progress when the
// room starts, and is immutable after the finalizer marks it completed.
type Match struct {
	MatchID         string      `gorm:"column:match_id;primaryKey" json:"matchId"`
	RoomID          string      `gorm:"column:room_id;index" json:"roomId"`
	Host            string      `gorm:"column:host" json:"host"`
	Challenger      string      `gorm:"column:challenger" json:"challenger"`
	Problems        []string    `gorm:"column:problems;serializer:json;type:jsonb" json:"problems"`
	ScoreHost       int         `gorm:"column:score_host" json:"scoreHost"`
	ScoreChallenger int         `gorm:"column:score_challenger" json:"scoreChallenger"`
	Duration        int64       `gorm:"column:duration" json:"duration"`
	Winner          WinnerRole  `gorm:"column:winner" json:"winner"`
	Status          MatchStatus `gorm:"column:status" json:"status"`
	StartedAt       time.Time   `gorm:"column:started_at" json:"startedAt"`
	EndedAt         *time.Time  `gorm:"column:ended_at" json:"endedAt"`
	CreatedAt       time.Time   `gorm:"column:created_at" json:"createdAt"`
}

func (Match) TableName() string { return "matches" }
