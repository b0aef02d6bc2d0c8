package handlers

import (
	"net/http"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/apperr"
	"github.com/devdual/BattleRoomManagerService/internal/jwt"
	"github.com/devdual/BattleRoomManagerService/internal/service"
	"github.com/gin-gonic/gin"
)

// tokenTTL bounds a session token; room-scoped tokens issued at join time get
// their own lifetime from the room duration.
const tokenTTL = 12 * time.Hour

// AuthHandler exchanges a known user id for a bearer token. Credentials are
// the identity service's business upstream of this service; here we only
// check the user exists before minting.
type AuthHandler struct {
	users      service.UserStore
	jwtManager *jwt.JWTManager
}

func NewAuthHandler(users service.UserStore, jwtManager *jwt.JWTManager) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtManager}
}

type issueTokenRequest struct {
	UserID string `json:"userId"`
}

func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		writeError(c, apperr.New(apperr.CodeValidation, apperr.WithMessagef("user ID is required")))
		return
	}

	exists, err := h.users.UserExists(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, apperr.Internal(err))
		return
	}
	if !exists {
		writeError(c, apperr.New(apperr.CodeNotFound, apperr.WithMessagef("user not found")))
		return
	}

	token, err := h.jwtManager.GenerateToken(req.UserID, "", tokenTTL)
	if err != nil {
		writeError(c, apperr.Internal(err))
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{"token": token})
}
