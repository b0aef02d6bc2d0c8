package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/judge"
	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/repo"
)

// In-memory stores mirroring the conditional-update semantics of the mongo
// and postgres repositories, so the orchestration logic can be exercised
// without either database.

type fakeRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[string]*model.Room)}
}

func cloneRoom(r *model.Room) *model.Room {
	cp := *r
	if r.Opponent != nil {
		o := *r.Opponent
		cp.Opponent = &o
	}
	cp.Problems = append([]string(nil), r.Problems...)
	return &cp
}

func (s *fakeRoomStore) InsertRoom(_ context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.RoomID] = cloneRoom(room)
	return nil
}

func (s *fakeRoomStore) RoomIDExists(_ context.Context, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok, nil
}

func (s *fakeRoomStore) GetRoom(_ context.Context, roomID string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return cloneRoom(room), nil
}

func (s *fakeRoomStore) ClaimRoom(_ context.Context, roomID, opponentID string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || room.Status != model.StatusWaiting || room.Opponent != nil || room.Host == opponentID {
		return nil, repo.ErrNotFound
	}
	room.Opponent = &opponentID
	room.Status = model.StatusActive
	return cloneRoom(room), nil
}

func (s *fakeRoomStore) MarkStarted(_ context.Context, roomID, hostID, matchID string, startTime time.Time) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || room.Host != hostID || room.Status != model.StatusActive || room.Opponent == nil {
		return nil, repo.ErrNotFound
	}
	room.Status = model.StatusStarted
	room.MatchID = matchID
	room.CreatedAt = startTime
	return cloneRoom(room), nil
}

func (s *fakeRoomStore) DeleteRoomIfMember(_ context.Context, roomID, userID string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || !room.IsMember(userID) {
		return nil, repo.ErrNotFound
	}
	delete(s.rooms, roomID)
	return cloneRoom(room), nil
}

func (s *fakeRoomStore) DeleteRoom(_ context.Context, roomID string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	delete(s.rooms, roomID)
	return cloneRoom(room), nil
}

func (s *fakeRoomStore) DeleteWaitingRoom(_ context.Context, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || room.Status != model.StatusWaiting {
		return false, nil
	}
	delete(s.rooms, roomID)
	return true, nil
}

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore(ids ...string) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*model.User)}
	for _, id := range ids {
		s.users[id] = &model.User{UserID: id, Name: "user-" + id}
	}
	return s
}

func (s *fakeUserStore) GetUser(_ context.Context, userID string) (*model.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UserExists(_ context.Context, userID string) (bool, error) {
	_, ok := s.users[userID]
	return ok, nil
}

type fakeProblemStore struct {
	problems map[string]*model.Problem
}

func newFakeProblemStore(ids ...string) *fakeProblemStore {
	s := &fakeProblemStore{problems: make(map[string]*model.Problem)}
	for _, id := range ids {
		s.problems[id] = &model.Problem{ProblemID: id, Title: "problem " + id}
	}
	return s
}

func (s *fakeProblemStore) GetProblem(_ context.Context, problemID string) (*model.Problem, error) {
	p, ok := s.problems[problemID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return p, nil
}

type fakeMatchStore struct {
	mu      sync.Mutex
	matches map[string]*model.Match
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{matches: make(map[string]*model.Match)}
}

func (s *fakeMatchStore) CreateMatch(match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *match
	s.matches[match.MatchID] = &cp
	return nil
}

func (s *fakeMatchStore) GetMatch(matchID string) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMatchStore) CompleteMatch(matchID string, winner model.WinnerRole, scoreHost, scoreChallenger int, endedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok || m.Status != model.MatchInProgress {
		return false, nil
	}
	m.Status = model.MatchCompleted
	m.Winner = winner
	m.ScoreHost = scoreHost
	m.ScoreChallenger = scoreChallenger
	m.EndedAt = &endedAt
	return true, nil
}

type fakeParticipantStore struct {
	mu           sync.Mutex
	participants map[string]*model.MatchParticipant
}

func newFakeParticipantStore() *fakeParticipantStore {
	return &fakeParticipantStore{participants: make(map[string]*model.MatchParticipant)}
}

func participantKey(matchID, userID string) string { return matchID + "/" + userID }

func (s *fakeParticipantStore) CreateForMatch(_ context.Context, matchID string, userIDs, problemIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, uid := range userIDs {
		progress := make([]model.ProblemProgress, 0, len(problemIDs))
		for _, pid := range problemIDs {
			progress = append(progress, model.ProblemProgress{ProblemID: pid, Status: model.ProblemNotAttempted})
		}
		s.participants[participantKey(matchID, uid)] = &model.MatchParticipant{
			UserID:    uid,
			MatchID:   matchID,
			Problems:  progress,
			Status:    model.ParticipantActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return nil
}

func (s *fakeParticipantStore) Get(_ context.Context, matchID, userID string) (*model.MatchParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantKey(matchID, userID)]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	cp.Problems = append([]model.ProblemProgress(nil), p.Problems...)
	return &cp, nil
}

func (s *fakeParticipantStore) ListByMatch(_ context.Context, matchID string) ([]model.MatchParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.MatchParticipant
	for _, p := range s.participants {
		if p.MatchID == matchID {
			cp := *p
			cp.Problems = append([]model.ProblemProgress(nil), p.Problems...)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (s *fakeParticipantStore) EnsureProgressEntry(_ context.Context, matchID, userID, problemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantKey(matchID, userID)]
	if !ok {
		return nil
	}
	for _, pr := range p.Problems {
		if pr.ProblemID == problemID {
			return nil
		}
	}
	p.Problems = append(p.Problems, model.ProblemProgress{ProblemID: problemID, Status: model.ProblemNotAttempted})
	return nil
}

func (s *fakeParticipantStore) RecordAttempt(_ context.Context, matchID, userID, problemID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantKey(matchID, userID)]
	if !ok {
		return nil
	}
	for i := range p.Problems {
		if p.Problems[i].ProblemID == problemID {
			p.Problems[i].Attempts++
			p.Problems[i].LastSubmissionTime = at
			p.UpdatedAt = at
		}
	}
	return nil
}

func (s *fakeParticipantStore) MarkSolved(_ context.Context, matchID, userID, problemID string, award int, elapsedMillis int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantKey(matchID, userID)]
	if !ok {
		return false, nil
	}
	for i := range p.Problems {
		if p.Problems[i].ProblemID == problemID && p.Problems[i].Status != model.ProblemSolved {
			p.Problems[i].Status = model.ProblemSolved
			p.Problems[i].BestScore = award
			p.TotalScore += award
			p.TotalTime = elapsedMillis
			p.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeParticipantStore) MarkAttempted(_ context.Context, matchID, userID, problemID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantKey(matchID, userID)]
	if !ok {
		return nil
	}
	for i := range p.Problems {
		if p.Problems[i].ProblemID == problemID && p.Problems[i].Status == model.ProblemNotAttempted {
			p.Problems[i].Status = model.ProblemAttempted
			p.UpdatedAt = at
		}
	}
	return nil
}

func (s *fakeParticipantStore) FinalizeRanks(_ context.Context, matchID string, ranks map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, rank := range ranks {
		if p, ok := s.participants[participantKey(matchID, userID)]; ok {
			p.Rank = rank
			p.Status = model.ParticipantCompleted
		}
	}
	return nil
}

type fakeSubmissionStore struct {
	mu         sync.Mutex
	appendErr  error
	submission []model.Submission
}

func (s *fakeSubmissionStore) Append(sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.submission = append(s.submission, *sub)
	return nil
}

func (s *fakeSubmissionStore) ListByMatch(matchID string) ([]model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Submission
	for i := len(s.submission) - 1; i >= 0; i-- {
		if s.submission[i].MatchID == matchID {
			out = append(out, s.submission[i])
		}
	}
	return out, nil
}

func (s *fakeSubmissionStore) ListByMatchUser(matchID, userID string) ([]model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Submission
	for i := len(s.submission) - 1; i >= 0; i-- {
		if s.submission[i].MatchID == matchID && s.submission[i].UserID == userID {
			out = append(out, s.submission[i])
		}
	}
	return out, nil
}

type published struct {
	RoomID string
	Except string
	Event  model.Event
}

// fakeBus records fanout instead of delivering it.
type fakeBus struct {
	mu           sync.Mutex
	events       []published
	disconnected []string
}

func (b *fakeBus) Publish(_ context.Context, roomID string, event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{RoomID: roomID, Event: event})
}

func (b *fakeBus) PublishExcept(_ context.Context, roomID, exceptConnID string, event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{RoomID: roomID, Except: exceptConnID, Event: event})
}

func (b *fakeBus) DisconnectRoom(_ context.Context, roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, roomID)
}

func (b *fakeBus) eventsOfType(eventType string) []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []published
	for _, e := range b.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeJudge struct {
	verdict *judge.Verdict
	err     error
}

func (j *fakeJudge) Evaluate(_ context.Context, _ *model.Problem, _, _ string) (*judge.Verdict, error) {
	if j.err != nil {
		return nil, j.err
	}
	v := *j.verdict
	return &v, nil
}
