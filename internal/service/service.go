// Package service holds the match/room orchestration core: the room state
// machine, the join arbiter, the submission pipeline, and the match
// finalizer. Stores are consumed through narrow interfaces; the repo package
// provides the mongo/postgres implementations.
package service

import (
	"context"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/model"
)

// RoomStore is the conditional-update surface the registry and arbiter need.
// Implementations must make ClaimRoom, MarkStarted and DeleteWaitingRoom
// single atomic operations; the correctness of join arbitration and presence
// cleanup rests on that.
type RoomStore interface {
	InsertRoom(ctx context.Context, room *model.Room) error
	RoomIDExists(ctx context.Context, roomID string) (bool, error)
	GetRoom(ctx context.Context, roomID string) (*model.Room, error)
	ClaimRoom(ctx context.Context, roomID, opponentID string) (*model.Room, error)
	MarkStarted(ctx context.Context, roomID, hostID, matchID string, startTime time.Time) (*model.Room, error)
	DeleteRoomIfMember(ctx context.Context, roomID, userID string) (*model.Room, error)
	DeleteRoom(ctx context.Context, roomID string) (*model.Room, error)
	DeleteWaitingRoom(ctx context.Context, roomID string) (bool, error)
}

type UserStore interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}

type ProblemStore interface {
	GetProblem(ctx context.Context, problemID string) (*model.Problem, error)
}

type ParticipantStore interface {
	CreateForMatch(ctx context.Context, matchID string, userIDs, problemIDs []string) error
	Get(ctx context.Context, matchID, userID string) (*model.MatchParticipant, error)
	ListByMatch(ctx context.Context, matchID string) ([]model.MatchParticipant, error)
	EnsureProgressEntry(ctx context.Context, matchID, userID, problemID string) error
	RecordAttempt(ctx context.Context, matchID, userID, problemID string, at time.Time) error
	MarkSolved(ctx context.Context, matchID, userID, problemID string, award int, elapsedMillis int64, at time.Time) (bool, error)
	MarkAttempted(ctx context.Context, matchID, userID, problemID string, at time.Time) error
	FinalizeRanks(ctx context.Context, matchID string, ranks map[string]int) error
}

type MatchStore interface {
	CreateMatch(match *model.Match) error
	GetMatch(matchID string) (*model.Match, error)
	CompleteMatch(matchID string, winner model.WinnerRole, scoreHost, scoreChallenger int, endedAt time.Time) (bool, error)
}

type SubmissionStore interface {
	Append(sub *model.Submission) error
	ListByMatch(matchID string) ([]model.Submission, error)
	ListByMatchUser(matchID, userID string) ([]model.Submission, error)
}

// Publisher is the event-fanout surface, satisfied by *bus.Bus.
type Publisher interface {
	Publish(ctx context.Context, roomID string, event model.Event)
	PublishExcept(ctx context.Context, roomID, exceptConnID string, event model.Event)
	DisconnectRoom(ctx context.Context, roomID string)
}
