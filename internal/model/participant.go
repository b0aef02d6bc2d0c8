package model

import "time"

type ProblemStatus string

// Per-problem status only moves forward. A failing submission after a solve
// never regresses the entry; the store predicates enforce this, not the
// caller.
const (
	ProblemNotAttempted ProblemStatus = "not_attempted"
	ProblemAttempted    ProblemStatus = "attempted"
	ProblemSolved       ProblemStatus = "solved"
)

type ParticipantStatus string

const (
	ParticipantJoined       ParticipantStatus = "joined"
	ParticipantReady        ParticipantStatus = "ready"
	ParticipantActive       ParticipantStatus = "active"
	ParticipantCompleted    ParticipantStatus = "completed"
	ParticipantDisconnected ParticipantStatus = "disconnected"
)

type ProblemProgress struct {
	ProblemID          string        `bson:"problemId" json:"problemId"`
	Status             ProblemStatus `bson:"status" json:"status"`
	Attempts           int           `bson:"attempts" json:"attempts"`
	LastSubmissionTime time.Time     `bson:"lastSubmissionTime,omitempty" json:"lastSubmissionTime,omitempty"`
	BestScore          int           `bson:"bestScore" json:"bestScore"`
}

// MatchParticipant tracks one user's live progress inside a match. Unique per
// (matchId, userId); mutated only by the submission pipeline, read by the
// finalizer.
type MatchParticipant struct {
	UserID   string            `bson:"userId" json:"userId"`
	MatchID  string            `bson:"matchId" json:"matchId"`
	Problems []ProblemProgress `bson:"problems" json:"problems"`
	TotalScore int `bson:"totalScore" json:"totalScore"`
	// TotalTime is the elapsed time in milliseconds at the moment of the last
	// solve; the finalizer's tie-break.
	TotalTime int64             `bson:"totalTime" json:"totalTime"`
	Status    ParticipantStatus `bson:"status" json:"status"`
	Rank      int               `bson:"rank" json:"rank"`
	CreatedAt time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// SolvedCount returns how many problems this participant has fully solved.
func (p *MatchParticipant) SolvedCount() int {
	n := 0
	for _, pr := range p.Problems {
		if pr.Status == ProblemSolved {
			n++
		}
	}
	return n
}

// AttemptedCount returns problems currently in the attempted state.
func (p *MatchParticipant) AttemptedCount() int {
	n := 0
	for _, pr := range p.Problems {
		if pr.Status == ProblemAttempted {
			n++
		}
	}
	return n
}
