package handlers

import (
	"net/http"

	"github.com/devdual/BattleRoomManagerService/internal/apperr"
	"github.com/devdual/BattleRoomManagerService/internal/service"
	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	submissions *service.SubmissionService
}

func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

type submitRequest struct {
	MatchID   string `json:"matchId"`
	ProblemID string `json:"problemId"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

// Submit handles POST /api/submissions/submit. The user always comes from the
// token, never the body.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.CodeValidation, apperr.WithMessagef("invalid request body")))
		return
	}

	result, err := h.submissions.Submit(c.Request.Context(), service.SubmitRequest{
		MatchID:   req.MatchID,
		UserID:    userID(c),
		ProblemID: req.ProblemID,
		Code:      req.Code,
		Language:  req.Language,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{
		"submissionId": result.Submission.SubmissionID,
		"verdict":      result.Verdict,
		"progress":     result.Progress,
	})
}

// ListByMatch handles GET /api/submissions/match/:matchId.
func (h *SubmissionHandler) ListByMatch(c *gin.Context) {
	subs, err := h.submissions.ListByMatch(c.Param("matchId"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, subs)
}

// MatchStats handles GET /api/submissions/stats/:matchId.
func (h *SubmissionHandler) MatchStats(c *gin.Context) {
	stats, err := h.submissions.MatchStats(c.Param("matchId"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, stats)
}
