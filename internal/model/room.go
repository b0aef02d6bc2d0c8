package model

import "time"

type RoomStatus string

const (
	StatusWaiting   RoomStatus = "waiting"
	StatusActive    RoomStatus = "active"
	StatusStarted   RoomStatus = "started"
	StatusCompleted RoomStatus = "completed"
)

// Room is the ephemeral matchmaking/session record, keyed by a short public
// token. It lives in mongo only while the contest does; ending or cancelling
// a room deletes the document. Invariants the store enforces:
//   - Opponent is set iff Status is active/started/completed.
//   - Host never equals Opponent.
//   - A waiting room never has an opponent bound.
type Room struct {
	RoomID   string     `bson:"roomId" json:"roomId"`
	Host     string     `bson:"host" json:"host"`
	Opponent *string    `bson:"opponent" json:"opponent"`
	Problems []string   `bson:"problems" json:"problems"`
	Status   RoomStatus `bson:"status" json:"status"`
	// Duration is the intended match length in seconds.
	Duration int64 `bson:"duration" json:"duration"`
	// MatchID is set when the room transitions to started and an in-progress
	// match record is cut.
	MatchID string `bson:"matchId,omitempty" json:"matchId,omitempty"`
	// CreatedAt is re-stamped when the match starts and becomes the
	// authoritative start time both clients compute elapsed time from.
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// OpponentID returns the bound opponent or "".
func (r *Room) OpponentID() string {
	if r.Opponent == nil {
		return ""
	}
	return *r.Opponent
}

// IsMember reports whether userID is the host or the bound opponent.
func (r *Room) IsMember(userID string) bool {
	return r.Host == userID || (r.Opponent != nil && *r.Opponent == userID)
}
