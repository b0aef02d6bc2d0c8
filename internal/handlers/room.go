package handlers

import (
	"net/http"

	"github.com/devdual/BattleRoomManagerService/internal/apperr"
	"github.com/devdual/BattleRoomManagerService/internal/service"
	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	rooms *service.RoomService
}

func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type createRoomRequest struct {
	ProblemIDs []string `json:"problemIds"`
	Duration   int64    `json:"duration"`
}

// CreateRoom handles POST /api/rooms/create. The authenticated caller becomes
// the host of a new waiting room.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.CodeValidation, apperr.WithMessagef("invalid request body")))
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), userID(c), req.ProblemIDs, req.Duration)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusCreated, room)
}

type joinRoomRequest struct {
	RoomID string `json:"roomId"`
}

// JoinRoom handles POST /api/rooms/join: the HTTP face of the join arbiter.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.CodeValidation, apperr.WithMessagef("invalid request body")))
		return
	}

	room, err := h.rooms.JoinRoom(c.Request.Context(), req.RoomID, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, room)
}

// GetRoom handles GET /api/rooms/:roomId.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, room)
}

type startMatchRequest struct {
	RoomID   string         `json:"roomId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StartMatch handles POST /api/rooms/start, host only.
func (h *RoomHandler) StartMatch(c *gin.Context) {
	var req startMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.CodeValidation, apperr.WithMessagef("invalid request body")))
		return
	}

	room, err := h.rooms.StartMatch(c.Request.Context(), req.RoomID, userID(c), req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{
		"roomId":  room.RoomID,
		"matchId": room.MatchID,
	})
}

type endRoomRequest struct {
	RoomID          string `json:"roomId"`
	WinnerID        string `json:"winnerId,omitempty"`
	ScoreHost       int    `json:"scoreHost"`
	ScoreChallenger int    `json:"scoreChallenger"`
}

// EndRoom handles POST /api/rooms/end: force-finish the contest and record
// the match.
func (h *RoomHandler) EndRoom(c *gin.Context) {
	var req endRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.CodeValidation, apperr.WithMessagef("invalid request body")))
		return
	}

	match, err := h.rooms.EndRoom(c.Request.Context(), req.RoomID, req.WinnerID, req.ScoreHost, req.ScoreChallenger)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, match)
}

type cancelRoomRequest struct {
	RoomID string `json:"roomId"`
}

// CancelRoom handles DELETE /api/rooms/cancel for a member of the room.
func (h *RoomHandler) CancelRoom(c *gin.Context) {
	var req cancelRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.CodeValidation, apperr.WithMessagef("invalid request body")))
		return
	}

	if err := h.rooms.CancelRoom(c.Request.Context(), req.RoomID, userID(c)); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{"roomId": service.NormalizeRoomID(req.RoomID)})
}
