package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/apperr"
	"github.com/devdual/BattleRoomManagerService/internal/judge"
	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/repo"
	"github.com/google/uuid"
)

// SolveAward is the score granted for each first solve of a problem.
const SolveAward = 1

// SubmitRequest is one evaluation attempt.
type SubmitRequest struct {
	MatchID   string `json:"matchId"`
	UserID    string `json:"userId"`
	ProblemID string `json:"problemId"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

// SubmitResult is what the caller gets back; the same data also fans out to
// the room as submissionResult and battleProgress events.
type SubmitResult struct {
	Submission *model.Submission             `json:"submission"`
	Verdict    *judge.Verdict                `json:"verdict"`
	Progress   model.ProgressSummary         `json:"progress"`
	Payload    model.SubmissionResultPayload `json:"-"`
}

// SubmissionService runs the pipeline: validate, evaluate, append to the
// audit log, advance progress, fan out, check completion. The audit append is
// the one durable step; everything after it is best-effort and logged rather
// than failed, so a flaky progress write never loses the record of a verdict.
type SubmissionService struct {
	matches      MatchStore
	problems     ProblemStore
	participants ParticipantStore
	submissions  SubmissionStore
	judge        judge.Judge
	bus          Publisher
	finalizer    *Finalizer
}

func NewSubmissionService(matches MatchStore, problems ProblemStore, participants ParticipantStore, submissions SubmissionStore, j judge.Judge, bus Publisher, finalizer *Finalizer) *SubmissionService {
	return &SubmissionService{
		matches:      matches,
		problems:     problems,
		participants: participants,
		submissions:  submissions,
		judge:        j,
		bus:          bus,
		finalizer:    finalizer,
	}
}

func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.MatchID == "" || req.UserID == "" || req.ProblemID == "" {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("match ID, user ID and problem ID are required"))
	}
	if req.Code == "" {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("code cannot be empty"))
	}
	if !model.IsSupportedLanguage(req.Language) {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("unsupported language: %s", req.Language))
	}

	match, err := s.matches.GetMatch(req.MatchID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, apperr.WithMessagef("match not found"))
		}
		return nil, apperr.Internal(err)
	}
	if match.Status != model.MatchInProgress {
		return nil, apperr.New(apperr.CodeConflict, apperr.WithMessagef("match is not in progress"))
	}
	if req.UserID != match.Host && req.UserID != match.Challenger {
		return nil, apperr.New(apperr.CodeNotFound, apperr.WithMessagef("participant not found in match"))
	}
	if !containsProblem(match.Problems, req.ProblemID) {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("problem is not part of this match"))
	}

	problem, err := s.problems.GetProblem(ctx, req.ProblemID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, apperr.WithMessagef("problem not found"))
		}
		return nil, apperr.Internal(err)
	}

	// The pre-verdict snapshot supplies previousStatus; a failed read just
	// means the event reports not_attempted.
	previousStatus := model.ProblemNotAttempted
	if snap, err := s.participants.Get(ctx, req.MatchID, req.UserID); err == nil {
		for _, pr := range snap.Problems {
			if pr.ProblemID == req.ProblemID {
				previousStatus = pr.Status
				break
			}
		}
	}

	verdict, err := s.judge.Evaluate(ctx, problem, req.Code, req.Language)
	if err != nil {
		log.Printf("[Submission] evaluation failed for %s/%s: %v", req.MatchID, req.UserID, err)
		return nil, apperr.New(apperr.CodeEvaluation,
			apperr.WithMessagef("evaluation failed, please retry"), apperr.WithCause(err))
	}

	now := time.Now()
	sub := &model.Submission{
		SubmissionID: uuid.New().String(),
		UserID:       req.UserID,
		ProblemID:    req.ProblemID,
		MatchID:      req.MatchID,
		Code:         req.Code,
		Language:     req.Language,
		Status:       verdict.Status,
		TestsPassed:  verdict.TestsPassed,
		TestsTotal:   verdict.TestsTotal,
		Error:        verdict.Error,
		Results:      verdict.Raw,
		SubmittedAt:  now,
	}
	if err := s.submissions.Append(sub); err != nil {
		return nil, apperr.Internal(err)
	}

	s.advanceProgress(ctx, match, req, verdict, now)

	status := previousStatus
	if verdict.Passed {
		status = model.ProblemSolved
	} else if status == model.ProblemNotAttempted {
		status = model.ProblemAttempted
	}

	progress := s.progressSummary(ctx, match, req.UserID)

	payload := model.SubmissionResultPayload{
		UserID:         req.UserID,
		ProblemID:      req.ProblemID,
		Status:         status,
		PreviousStatus: previousStatus,
		Message:        verdictMessage(verdict),
		Progress:       progress,
	}
	s.bus.Publish(ctx, match.RoomID, model.Event{Type: model.EvtSubmissionResult, Payload: payload})
	s.publishBattleProgress(ctx, match)

	if verdict.Passed {
		if err := s.finalizer.CheckCompletion(ctx, req.MatchID); err != nil {
			log.Printf("[Submission] completion check failed for %s: %v", req.MatchID, err)
		}
	}

	return &SubmitResult{
		Submission: sub,
		Verdict:    verdict,
		Progress:   progress,
		Payload:    payload,
	}, nil
}

// advanceProgress applies the verdict to the participant document. Every step
// is conditional in the store, so a stale or duplicate submission can only
// ever leave progress where it already was.
func (s *SubmissionService) advanceProgress(ctx context.Context, match *model.Match, req SubmitRequest, verdict *judge.Verdict, at time.Time) {
	if err := s.participants.EnsureProgressEntry(ctx, req.MatchID, req.UserID, req.ProblemID); err != nil {
		log.Printf("[Submission] ensure progress failed for %s/%s: %v", req.MatchID, req.UserID, err)
	}
	if err := s.participants.RecordAttempt(ctx, req.MatchID, req.UserID, req.ProblemID, at); err != nil {
		log.Printf("[Submission] record attempt failed for %s/%s: %v", req.MatchID, req.UserID, err)
	}

	if verdict.Passed {
		elapsed := at.Sub(match.StartedAt).Milliseconds()
		awarded, err := s.participants.MarkSolved(ctx, req.MatchID, req.UserID, req.ProblemID, SolveAward, elapsed, at)
		if err != nil {
			log.Printf("[Submission] mark solved failed for %s/%s: %v", req.MatchID, req.UserID, err)
		} else if !awarded {
			log.Printf("[Submission] repeat solve of %s by %s, no score change", req.ProblemID, req.UserID)
		}
		return
	}

	if err := s.participants.MarkAttempted(ctx, req.MatchID, req.UserID, req.ProblemID, at); err != nil {
		log.Printf("[Submission] mark attempted failed for %s/%s: %v", req.MatchID, req.UserID, err)
	}
}

func (s *SubmissionService) progressSummary(ctx context.Context, match *model.Match, userID string) model.ProgressSummary {
	summary := model.ProgressSummary{Total: len(match.Problems)}
	p, err := s.participants.Get(ctx, match.MatchID, userID)
	if err != nil {
		return summary
	}
	summary.Solved = p.SolvedCount()
	summary.Attempted = p.AttemptedCount()
	return summary
}

func (s *SubmissionService) publishBattleProgress(ctx context.Context, match *model.Match) {
	participants, err := s.participants.ListByMatch(ctx, match.MatchID)
	if err != nil {
		log.Printf("[Submission] progress read failed for %s: %v", match.MatchID, err)
		return
	}

	views := make([]model.ParticipantProgressView, 0, len(participants))
	for _, p := range participants {
		views = append(views, model.ParticipantProgressView{
			UserID:     p.UserID,
			Problems:   p.Problems,
			TotalScore: p.TotalScore,
		})
	}

	s.bus.Publish(ctx, match.RoomID, model.Event{
		Type:    model.EvtBattleProgress,
		Payload: model.BattleProgressPayload{MatchID: match.MatchID, Progress: views},
	})
}

// ListByMatch returns the full audit trail of a match, newest first.
func (s *SubmissionService) ListByMatch(matchID string) ([]model.Submission, error) {
	if matchID == "" {
		return nil, apperr.New(apperr.CodeValidation, apperr.WithMessagef("match ID is required"))
	}
	subs, err := s.submissions.ListByMatch(matchID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return subs, nil
}

// UserStats summarizes one player's submissions within a match.
type UserStats struct {
	UserID      string `json:"userId"`
	Submissions int    `json:"submissions"`
	Accepted    int    `json:"accepted"`
}

// MatchStats aggregates the audit log per player.
func (s *SubmissionService) MatchStats(matchID string) ([]UserStats, error) {
	subs, err := s.ListByMatch(matchID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*UserStats)
	order := make([]string, 0, 2)
	for _, sub := range subs {
		st, ok := byUser[sub.UserID]
		if !ok {
			st = &UserStats{UserID: sub.UserID}
			byUser[sub.UserID] = st
			order = append(order, sub.UserID)
		}
		st.Submissions++
		if sub.Status == model.VerdictAccepted {
			st.Accepted++
		}
	}

	stats := make([]UserStats, 0, len(order))
	for _, id := range order {
		stats = append(stats, *byUser[id])
	}
	return stats, nil
}

func verdictMessage(v *judge.Verdict) string {
	if v.Passed {
		return "All test cases passed"
	}
	if v.Error != "" {
		return v.Error
	}
	return v.Status
}

func containsProblem(problems []string, problemID string) bool {
	for _, p := range problems {
		if p == problemID {
			return true
		}
	}
	return false
}
