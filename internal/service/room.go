package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/apperr"
	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/repo"
	"github.com/google/uuid"
)

// RoomTokenLength is the length of the public room code.
const RoomTokenLength = 8

// RoomService is the room registry plus the join arbiter. It owns every
// transition of the room state machine:
//
//	waiting --(join)--> active --(host starts)--> started --(end)--> deleted, match recorded
//
// with cancellation deleting the room from any state. No transition ever
// moves backward.
type RoomService struct {
	rooms        RoomStore
	users        UserStore
	matches      MatchStore
	participants ParticipantStore
	bus          Publisher
	finalizer    *Finalizer
}

func NewRoomService(rooms RoomStore, users UserStore, matches MatchStore, participants ParticipantStore, bus Publisher, finalizer *Finalizer) *RoomService {
	return &RoomService{
		rooms:        rooms,
		users:        users,
		matches:      matches,
		participants: participants,
		bus:          bus,
		finalizer:    finalizer,
	}
}

// NormalizeRoomID maps user-typed room codes onto the stored form.
func NormalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

// generateRoomID produces the short shareable token.
func generateRoomID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:RoomTokenLength])
}

// CreateRoom creates a waiting room for the host. The token loop retries
// until the store confirms a collision-free code; the unique index backs it
// up if two creates race on the same token.
func (s *RoomService) CreateRoom(ctx context.Context, hostID string, problemIDs []string, duration int64) (*model.Room, error) {
	if hostID == "" {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("host ID is required"))
	}
	if len(problemIDs) == 0 {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("at least one problem is required"))
	}

	exists, err := s.users.UserExists(ctx, hostID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !exists {
		return nil, apperr.New(apperr.CodeNotFound, apperr.WithMessagef("host user not found"))
	}

	for {
		roomID := generateRoomID()
		taken, err := s.rooms.RoomIDExists(ctx, roomID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if taken {
			continue
		}

		room := &model.Room{
			RoomID:    roomID,
			Host:      hostID,
			Opponent:  nil,
			Problems:  problemIDs,
			Status:    model.StatusWaiting,
			Duration:  duration,
			CreatedAt: time.Now(),
		}

		if err := s.rooms.InsertRoom(ctx, room); err != nil {
			// Lost a token race to a concurrent create; roll again.
			if repo.IsDuplicateKey(err) {
				continue
			}
			return nil, apperr.Internal(err)
		}

		log.Printf("[Room] created %s by host %s", roomID, hostID)
		return room, nil
	}
}

// GetRoom fetches a room by its public code.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rooms.GetRoom(ctx, NormalizeRoomID(roomID))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, apperr.WithMessagef("room not found"))
		}
		return nil, apperr.Internal(err)
	}
	return room, nil
}

// JoinRoom is the arbiter for the only race-sensitive operation in the
// system. However many callers target the same waiting room, the single
// conditional update in ClaimRoom lets exactly one of them through; everyone
// else gets the same not-available answer, which deliberately does not say
// whether the room was missing, full, already active, or the caller's own.
//
// The user-existence check up front is advisory: it can go stale between
// check and commit, and that is fine because the claim predicate alone
// decides the final state.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, opponentID string) (*model.Room, error) {
	if roomID == "" || opponentID == "" {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("room ID and opponent ID are required"))
	}

	normalized := NormalizeRoomID(roomID)

	exists, err := s.users.UserExists(ctx, opponentID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !exists {
		return nil, apperr.New(apperr.CodeNotFound, apperr.WithMessagef("opponent user not found"))
	}

	room, err := s.rooms.ClaimRoom(ctx, normalized, opponentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Printf("[Room] join rejected for %s: not available", normalized)
			return nil, apperr.New(apperr.CodeNotFound,
				apperr.WithMessagef("room not found, already full, or you cannot join this room"))
		}
		return nil, apperr.Internal(err)
	}

	log.Printf("[Room] opponent %s joined %s", opponentID, normalized)
	return room, nil
}

// CancelRoom deletes the room on behalf of a member, at any status, and
// forces everyone out. Used both for a host cancelling a waiting room and a
// player leaving an active one.
func (s *RoomService) CancelRoom(ctx context.Context, roomID, requesterID string) error {
	if roomID == "" || requesterID == "" {
		return apperr.New(apperr.CodeValidation, apperr.WithMessagef("room ID and user ID are required"))
	}

	normalized := NormalizeRoomID(roomID)

	// The lookup only classifies the failure; the delete below re-checks
	// membership atomically.
	room, err := s.rooms.GetRoom(ctx, normalized)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.CodeNotFound, apperr.WithMessagef("room not found"))
		}
		return apperr.Internal(err)
	}
	if !room.IsMember(requesterID) {
		return apperr.New(apperr.CodeForbidden, apperr.WithMessagef("you are not in this room"))
	}

	if _, err := s.rooms.DeleteRoomIfMember(ctx, normalized, requesterID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.CodeNotFound, apperr.WithMessagef("room not found"))
		}
		return apperr.Internal(err)
	}

	s.bus.Publish(ctx, normalized, model.Event{
		Type: model.EvtRoomCancelled,
		Payload: model.RoomCancelledPayload{
			RoomID:  normalized,
			Message: "The room has been cancelled or left by a player.",
		},
	})
	s.bus.DisconnectRoom(ctx, normalized)

	log.Printf("[Room] %s cancelled by %s", normalized, requesterID)
	return nil
}

// StartMatch transitions active -> started for the host, cuts the in-progress
// match record plus both progress documents, and broadcasts the server start
// time so both clients share one clock.
func (s *RoomService) StartMatch(ctx context.Context, roomID, requesterID string, metadata map[string]any) (*model.Room, error) {
	if roomID == "" || requesterID == "" {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("room ID and host ID are required"))
	}

	normalized := NormalizeRoomID(roomID)

	room, err := s.rooms.GetRoom(ctx, normalized)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, apperr.WithMessagef("room not found"))
		}
		return nil, apperr.Internal(err)
	}
	if room.Host != requesterID {
		return nil, apperr.New(apperr.CodeForbidden, apperr.WithMessagef("only the host can start the match"))
	}
	if room.Status != model.StatusActive || room.Opponent == nil {
		return nil, apperr.New(apperr.CodeConflict,
			apperr.WithMessagef("room is not in 'active' state (state is %s)", room.Status))
	}

	matchID := uuid.New().String()
	startTime := time.Now()

	started, err := s.rooms.MarkStarted(ctx, normalized, requesterID, matchID, startTime)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// The room moved out of active between the check and the
			// transition; report the conflict, never retry.
			return nil, apperr.New(apperr.CodeConflict, apperr.WithMessagef("room is no longer startable"))
		}
		return nil, apperr.Internal(err)
	}

	match := &model.Match{
		MatchID:    matchID,
		RoomID:     started.RoomID,
		Host:       started.Host,
		Challenger: started.OpponentID(),
		Problems:   started.Problems,
		Duration:   started.Duration,
		Status:     model.MatchInProgress,
		StartedAt:  startTime,
		CreatedAt:  startTime,
	}
	if err := s.matches.CreateMatch(match); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.participants.CreateForMatch(ctx, matchID, []string{match.Host, match.Challenger}, match.Problems); err != nil {
		return nil, apperr.Internal(err)
	}

	s.bus.Publish(ctx, normalized, model.Event{
		Type: model.EvtMatchStarted,
		Payload: model.MatchStartedPayload{
			RoomID:    normalized,
			StartTime: startTime.UnixMilli(),
			MatchID:   matchID,
			Metadata:  metadata,
		},
	})

	if started.Duration > 0 {
		s.finalizer.ScheduleExpiry(matchID, time.Duration(started.Duration)*time.Second)
	}

	log.Printf("[Room] match %s started in %s", matchID, normalized)
	return started, nil
}

// EndRoom force-ends a contest on a client's say-so: the room is deleted and
// the match is finalized from the caller-supplied scores. Identities always
// come from the room's own host/opponent fields, never the request, so a
// caller cannot record a match on someone else's behalf. The advisory
// winnerID is logged and otherwise ignored; the recorded winner is computed
// from the scores.
func (s *RoomService) EndRoom(ctx context.Context, roomID, winnerID string, scoreHost, scoreChallenger int) (*model.Match, error) {
	if roomID == "" {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("room ID is required"))
	}

	normalized := NormalizeRoomID(roomID)

	room, err := s.rooms.DeleteRoom(ctx, normalized)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, apperr.WithMessagef("room not found"))
		}
		return nil, apperr.Internal(err)
	}

	if room.Opponent == nil {
		return nil, apperr.New(apperr.CodeConflict,
			apperr.WithMessagef("cannot record match for a room without two players"))
	}

	if winnerID != "" && winnerID != room.Host && winnerID != room.OpponentID() {
		log.Printf("[Room] end %s: advisory winner %s is not a player, ignoring", normalized, winnerID)
	}

	winner := winnerFromScores(scoreHost, scoreChallenger)
	now := time.Now()

	var match *model.Match
	if room.MatchID != "" {
		match, err = s.finalizer.ForceFinalize(ctx, room.MatchID, winner, scoreHost, scoreChallenger)
		if err != nil {
			return nil, err
		}
	} else {
		// The room never started; record the completed match directly.
		match = &model.Match{
			MatchID:         uuid.New().String(),
			RoomID:          room.RoomID,
			Host:            room.Host,
			Challenger:      room.OpponentID(),
			Problems:        room.Problems,
			ScoreHost:       scoreHost,
			ScoreChallenger: scoreChallenger,
			Duration:        room.Duration,
			Winner:          winner,
			Status:          model.MatchCompleted,
			StartedAt:       room.CreatedAt,
			EndedAt:         &now,
			CreatedAt:       now,
		}
		if err := s.matches.CreateMatch(match); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	s.bus.Publish(ctx, normalized, model.Event{
		Type: model.EvtMatchEnded,
		Payload: model.MatchEndedPayload{
			RoomID:  normalized,
			MatchID: match.MatchID,
		},
	})
	s.bus.DisconnectRoom(ctx, normalized)

	log.Printf("[Room] %s ended, match recorded: %s", normalized, match.MatchID)
	return match, nil
}

// ReclaimIfAbandoned deletes the room if, and only if, it is still waiting.
// Called by the connection layer when a room's live membership drops to zero;
// the status predicate in the store keeps an active or started room safe even
// if a join lands between the recount and the delete.
func (s *RoomService) ReclaimIfAbandoned(ctx context.Context, roomID string) (bool, error) {
	deleted, err := s.rooms.DeleteWaitingRoom(ctx, NormalizeRoomID(roomID))
	if err != nil {
		return false, apperr.Internal(err)
	}
	if deleted {
		log.Printf("[Room] reclaimed abandoned waiting room %s", roomID)
	}
	return deleted, nil
}

func winnerFromScores(scoreHost, scoreChallenger int) model.WinnerRole {
	switch {
	case scoreHost > scoreChallenger:
		return model.WinnerHost
	case scoreChallenger > scoreHost:
		return model.WinnerChallenger
	default:
		return model.WinnerDraw
	}
}
