package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/apperr"
	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/repo"
)

// Finalizer closes out matches. Three paths converge here: a participant
// solving the full problem set, the duration watchdog firing, and a client
// force-ending the room. Whichever arrives first wins; CompleteMatch's status
// guard makes the others no-ops.
type Finalizer struct {
	rooms        RoomStore
	matches      MatchStore
	participants ParticipantStore
	bus          Publisher

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewFinalizer(rooms RoomStore, matches MatchStore, participants ParticipantStore, bus Publisher) *Finalizer {
	return &Finalizer{
		rooms:        rooms,
		matches:      matches,
		participants: participants,
		bus:          bus,
		timers:       make(map[string]*time.Timer),
	}
}

// ComputeOutcome derives the match result from participant progress. Highest
// total score wins; on equal scores the lower total time (milliseconds at the
// last solve) wins; a full tie is a draw. A participant with no document
// counts as zero.
func ComputeOutcome(hostID, challengerID string, participants []model.MatchParticipant) (model.WinnerRole, int, int) {
	var hostScore, challengerScore int
	var hostTime, challengerTime int64

	for _, p := range participants {
		switch p.UserID {
		case hostID:
			hostScore = p.TotalScore
			hostTime = p.TotalTime
		case challengerID:
			challengerScore = p.TotalScore
			challengerTime = p.TotalTime
		}
	}

	switch {
	case hostScore > challengerScore:
		return model.WinnerHost, hostScore, challengerScore
	case challengerScore > hostScore:
		return model.WinnerChallenger, hostScore, challengerScore
	case hostTime != challengerTime && hostTime < challengerTime:
		return model.WinnerHost, hostScore, challengerScore
	case hostTime != challengerTime:
		return model.WinnerChallenger, hostScore, challengerScore
	default:
		return model.WinnerDraw, hostScore, challengerScore
	}
}

// rankParticipants orders by score desc, then total time asc, and assigns
// 1-based ranks. Exact ties share a rank.
func rankParticipants(participants []model.MatchParticipant) map[string]int {
	sorted := make([]model.MatchParticipant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalScore != sorted[j].TotalScore {
			return sorted[i].TotalScore > sorted[j].TotalScore
		}
		return sorted[i].TotalTime < sorted[j].TotalTime
	})

	ranks := make(map[string]int, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && p.TotalScore == sorted[i-1].TotalScore && p.TotalTime == sorted[i-1].TotalTime {
			rank = ranks[sorted[i-1].UserID]
		}
		ranks[p.UserID] = rank
	}
	return ranks
}

// CheckCompletion finalizes the match once every participant has solved every
// problem. Called by the submission pipeline after each accepted verdict.
func (f *Finalizer) CheckCompletion(ctx context.Context, matchID string) error {
	match, err := f.matches.GetMatch(matchID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return apperr.Internal(err)
	}
	if match.Status != model.MatchInProgress {
		return nil
	}

	participants, err := f.participants.ListByMatch(ctx, matchID)
	if err != nil {
		return apperr.Internal(err)
	}

	done := len(participants) > 0
	for _, p := range participants {
		if p.SolvedCount() != len(match.Problems) {
			done = false
			break
		}
	}
	if !done {
		return nil
	}

	return f.finalize(ctx, match, participants, "completion")
}

// ScheduleExpiry arms the duration watchdog for a started match. The timer is
// best-effort per process; the status guard on CompleteMatch keeps a late or
// duplicate firing harmless.
func (f *Finalizer) ScheduleExpiry(matchID string, after time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.timers[matchID]; ok {
		t.Stop()
	}
	f.timers[matchID] = time.AfterFunc(after, func() {
		f.expire(matchID)
	})
}

func (f *Finalizer) expire(matchID string) {
	f.mu.Lock()
	delete(f.timers, matchID)
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	match, err := f.matches.GetMatch(matchID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			log.Printf("[Finalizer] expiry lookup failed for %s: %v", matchID, err)
		}
		return
	}
	if match.Status != model.MatchInProgress {
		return
	}

	participants, err := f.participants.ListByMatch(ctx, matchID)
	if err != nil {
		log.Printf("[Finalizer] expiry progress read failed for %s: %v", matchID, err)
		return
	}

	if err := f.finalize(ctx, match, participants, "expiry"); err != nil {
		log.Printf("[Finalizer] expiry finalize failed for %s: %v", matchID, err)
	}
}

// ForceFinalize completes a match from caller-supplied scores, used by the
// end-room path. Returns the completed match row.
func (f *Finalizer) ForceFinalize(ctx context.Context, matchID string, winner model.WinnerRole, scoreHost, scoreChallenger int) (*model.Match, error) {
	won, err := f.matches.CompleteMatch(matchID, winner, scoreHost, scoreChallenger, time.Now())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !won {
		log.Printf("[Finalizer] match %s already completed, force-finalize ignored", matchID)
	}
	f.cancelTimer(matchID)

	match, err := f.matches.GetMatch(matchID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if won {
		participants, perr := f.participants.ListByMatch(ctx, matchID)
		if perr != nil {
			log.Printf("[Finalizer] rank read failed for %s: %v", matchID, perr)
		} else if err := f.participants.FinalizeRanks(ctx, matchID, rankParticipants(participants)); err != nil {
			log.Printf("[Finalizer] rank write failed for %s: %v", matchID, err)
		}
	}
	return match, nil
}

// finalize is the single completion path: record the outcome, stamp ranks,
// tear the room down, tell everyone. Only the first caller past CompleteMatch
// does any of it.
func (f *Finalizer) finalize(ctx context.Context, match *model.Match, participants []model.MatchParticipant, reason string) error {
	winner, scoreHost, scoreChallenger := ComputeOutcome(match.Host, match.Challenger, participants)

	won, err := f.matches.CompleteMatch(match.MatchID, winner, scoreHost, scoreChallenger, time.Now())
	if err != nil {
		return apperr.Internal(err)
	}
	if !won {
		return nil
	}
	f.cancelTimer(match.MatchID)

	if err := f.participants.FinalizeRanks(ctx, match.MatchID, rankParticipants(participants)); err != nil {
		log.Printf("[Finalizer] rank write failed for %s: %v", match.MatchID, err)
	}

	if _, err := f.rooms.DeleteRoom(ctx, match.RoomID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		log.Printf("[Finalizer] room delete failed for %s: %v", match.RoomID, err)
	}

	f.bus.Publish(ctx, match.RoomID, model.Event{
		Type: model.EvtMatchEnded,
		Payload: model.MatchEndedPayload{
			RoomID:  match.RoomID,
			MatchID: match.MatchID,
		},
	})
	f.bus.DisconnectRoom(ctx, match.RoomID)

	log.Printf("[Finalizer] match %s completed (%s), winner: %s", match.MatchID, reason, winner)
	return nil
}

func (f *Finalizer) cancelTimer(matchID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.timers[matchID]; ok {
		t.Stop()
		delete(f.timers, matchID)
	}
}
