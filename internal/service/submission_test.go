package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devdual/BattleRoomManagerService/internal/apperr"
	"github.com/devdual/BattleRoomManagerService/internal/judge"
	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/service"
)

type submissionFixture struct {
	*roomFixture
	problems    *fakeProblemStore
	submissions *fakeSubmissionStore
	judge       *fakeJudge
	svc         *service.SubmissionService
	matchID     string
	roomID      string
}

func newSubmissionFixture(t *testing.T, verdict *judge.Verdict) *submissionFixture {
	t.Helper()

	rf := newRoomFixture("host1", "opp1")
	f := &submissionFixture{
		roomFixture: rf,
		problems:    newFakeProblemStore("p1", "p2"),
		submissions: &fakeSubmissionStore{},
		judge:       &fakeJudge{verdict: verdict},
	}

	room, err := rf.svc.CreateRoom(context.Background(), "host1", []string{"p1", "p2"}, 0)
	require.NoError(t, err)
	_, err = rf.svc.JoinRoom(context.Background(), room.RoomID, "opp1")
	require.NoError(t, err)
	started, err := rf.svc.StartMatch(context.Background(), room.RoomID, "host1", nil)
	require.NoError(t, err)

	f.matchID = started.MatchID
	f.roomID = started.RoomID

	finalizer := service.NewFinalizer(rf.rooms, rf.matches, rf.participants, rf.bus)
	f.svc = service.NewSubmissionService(rf.matches, f.problems, rf.participants, f.submissions, f.judge, rf.bus, finalizer)
	return f
}

func accepted() *judge.Verdict {
	return &judge.Verdict{Status: model.VerdictAccepted, Passed: true, TestsPassed: 3, TestsTotal: 3}
}

func wrongAnswer() *judge.Verdict {
	return &judge.Verdict{Status: model.VerdictWrongAnswer, TestsPassed: 1, TestsTotal: 3}
}

func submitReq(f *submissionFixture, userID, problemID string) service.SubmitRequest {
	return service.SubmitRequest{
		MatchID:   f.matchID,
		UserID:    userID,
		ProblemID: problemID,
		Code:      "print(42)",
		Language:  "python3",
	}
}

func TestSubmit_Accepted(t *testing.T) {
	f := newSubmissionFixture(t, accepted())

	result, err := f.svc.Submit(context.Background(), submitReq(f, "host1", "p1"))
	require.NoError(t, err)
	require.True(t, result.Verdict.Passed)
	require.Equal(t, 1, result.Progress.Solved)

	subs, err := f.submissions.ListByMatch(f.matchID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, model.VerdictAccepted, subs[0].Status)

	p, err := f.participants.Get(context.Background(), f.matchID, "host1")
	require.NoError(t, err)
	require.Equal(t, 1, p.TotalScore)
	require.Equal(t, 1, p.SolvedCount())

	results := f.bus.eventsOfType(model.EvtSubmissionResult)
	require.Len(t, results, 1)
	require.Equal(t, f.roomID, results[0].RoomID)
	payload, ok := results[0].Event.Payload.(model.SubmissionResultPayload)
	require.True(t, ok)
	require.Equal(t, model.ProblemSolved, payload.Status)
	require.Equal(t, model.ProblemNotAttempted, payload.PreviousStatus)

	require.Len(t, f.bus.eventsOfType(model.EvtBattleProgress), 1)
}

func TestSubmit_RepeatSolveNoDoubleAward(t *testing.T) {
	f := newSubmissionFixture(t, accepted())

	_, err := f.svc.Submit(context.Background(), submitReq(f, "host1", "p1"))
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), submitReq(f, "host1", "p1"))
	require.NoError(t, err)

	p, err := f.participants.Get(context.Background(), f.matchID, "host1")
	require.NoError(t, err)
	require.Equal(t, 1, p.TotalScore, "repeat solve must not double-award")

	// Both attempts are in the audit log regardless.
	subs, err := f.submissions.ListByMatch(f.matchID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
}

func TestSubmit_WrongAnswerMarksAttempted(t *testing.T) {
	f := newSubmissionFixture(t, wrongAnswer())

	result, err := f.svc.Submit(context.Background(), submitReq(f, "opp1", "p1"))
	require.NoError(t, err)
	require.False(t, result.Verdict.Passed)
	require.Equal(t, 0, result.Progress.Solved)
	require.Equal(t, 1, result.Progress.Attempted)

	p, err := f.participants.Get(context.Background(), f.matchID, "opp1")
	require.NoError(t, err)
	require.Equal(t, 0, p.TotalScore)
	require.Equal(t, 1, p.Problems[0].Attempts)
	require.Equal(t, model.ProblemAttempted, p.Problems[0].Status)
}

func TestSubmit_FailureAfterSolveKeepsSolved(t *testing.T) {
	f := newSubmissionFixture(t, accepted())

	_, err := f.svc.Submit(context.Background(), submitReq(f, "host1", "p1"))
	require.NoError(t, err)

	f.judge.verdict = wrongAnswer()
	result, err := f.svc.Submit(context.Background(), submitReq(f, "host1", "p1"))
	require.NoError(t, err)
	require.Equal(t, model.ProblemSolved, result.Payload.PreviousStatus)

	p, err := f.participants.Get(context.Background(), f.matchID, "host1")
	require.NoError(t, err)
	require.Equal(t, model.ProblemSolved, p.Problems[0].Status, "status never moves backward")
	require.Equal(t, 1, p.TotalScore)
}

func TestSubmit_Validation(t *testing.T) {
	f := newSubmissionFixture(t, accepted())

	req := submitReq(f, "host1", "p1")
	req.Language = "cobol"
	_, err := f.svc.Submit(context.Background(), req)
	require.True(t, apperr.Is(err, apperr.CodeValidation))

	req = submitReq(f, "host1", "p1")
	req.Code = ""
	_, err = f.svc.Submit(context.Background(), req)
	require.True(t, apperr.Is(err, apperr.CodeValidation))

	req = submitReq(f, "stranger", "p1")
	_, err = f.svc.Submit(context.Background(), req)
	require.True(t, apperr.Is(err, apperr.CodeNotFound))

	req = submitReq(f, "host1", "p999")
	_, err = f.svc.Submit(context.Background(), req)
	require.True(t, apperr.Is(err, apperr.CodeValidation))

	req = submitReq(f, "host1", "p1")
	req.MatchID = "missing"
	_, err = f.svc.Submit(context.Background(), req)
	require.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestSubmit_JudgeFailure(t *testing.T) {
	f := newSubmissionFixture(t, nil)
	f.judge.err = errors.New("upstream timeout")

	_, err := f.svc.Submit(context.Background(), submitReq(f, "host1", "p1"))
	require.True(t, apperr.Is(err, apperr.CodeEvaluation))

	// A failed evaluation leaves no audit row and no progress change.
	subs, err := f.submissions.ListByMatch(f.matchID)
	require.NoError(t, err)
	require.Empty(t, subs)

	p, err := f.participants.Get(context.Background(), f.matchID, "host1")
	require.NoError(t, err)
	require.Equal(t, 0, p.Problems[0].Attempts)
}

func TestSubmit_FullSolveFinalizesMatch(t *testing.T) {
	f := newSubmissionFixture(t, accepted())

	_, err := f.svc.Submit(context.Background(), submitReq(f, "host1", "p1"))
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), submitReq(f, "host1", "p2"))
	require.NoError(t, err)

	// One finished board does not end the match.
	match, err := f.matches.GetMatch(f.matchID)
	require.NoError(t, err)
	require.Equal(t, model.MatchInProgress, match.Status)
	require.Empty(t, f.bus.eventsOfType(model.EvtMatchEnded))

	_, err = f.svc.Submit(context.Background(), submitReq(f, "opp1", "p1"))
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), submitReq(f, "opp1", "p2"))
	require.NoError(t, err)

	match, err = f.matches.GetMatch(f.matchID)
	require.NoError(t, err)
	require.Equal(t, model.MatchCompleted, match.Status)
	require.Equal(t, 2, match.ScoreHost)
	require.Equal(t, 2, match.ScoreChallenger)

	require.Len(t, f.bus.eventsOfType(model.EvtMatchEnded), 1)
}

func TestSubmit_AuditAppendFailureIsFatal(t *testing.T) {
	f := newSubmissionFixture(t, accepted())
	f.submissions.appendErr = errors.New("disk full")

	_, err := f.svc.Submit(context.Background(), submitReq(f, "host1", "p1"))
	require.True(t, apperr.Is(err, apperr.CodeInternal))

	p, err := f.participants.Get(context.Background(), f.matchID, "host1")
	require.NoError(t, err)
	require.Equal(t, 0, p.TotalScore, "no award without the audit record")
}

func TestSubmit_ClosedMatchRejected(t *testing.T) {
	f := newSubmissionFixture(t, accepted())

	for _, userID := range []string{"host1", "opp1"} {
		_, err := f.svc.Submit(context.Background(), submitReq(f, userID, "p1"))
		require.NoError(t, err)
		_, err = f.svc.Submit(context.Background(), submitReq(f, userID, "p2"))
		require.NoError(t, err)
	}

	// The match completed above; further submissions bounce.
	_, err := f.svc.Submit(context.Background(), submitReq(f, "opp1", "p1"))
	require.True(t, apperr.Is(err, apperr.CodeConflict))
}

func TestMatchStats(t *testing.T) {
	f := newSubmissionFixture(t, accepted())

	_, err := f.svc.Submit(context.Background(), submitReq(f, "host1", "p1"))
	require.NoError(t, err)
	f.judge.verdict = wrongAnswer()
	_, err = f.svc.Submit(context.Background(), submitReq(f, "opp1", "p1"))
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), submitReq(f, "opp1", "p2"))
	require.NoError(t, err)

	stats, err := f.svc.MatchStats(f.matchID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byUser := make(map[string]service.UserStats)
	for _, st := range stats {
		byUser[st.UserID] = st
	}
	require.Equal(t, 1, byUser["host1"].Submissions)
	require.Equal(t, 1, byUser["host1"].Accepted)
	require.Equal(t, 2, byUser["opp1"].Submissions)
	require.Equal(t, 0, byUser["opp1"].Accepted)
}
