package handlers

import (
	"net/http"

	"github.com/devdual/BattleRoomManagerService/internal/jwt"
	"github.com/gin-gonic/gin"
)

// Router wires the REST and websocket surfaces. Identity lives upstream;
// tokens arrive via /api/auth/token and every room or submission route runs
// behind the auth middleware.
func Router(jwtManager *jwt.JWTManager, auth *AuthHandler, rooms *RoomHandler, submissions *SubmissionHandler, ws http.HandlerFunc) *gin.Engine {
	r := gin.Default()

	r.GET("/ws", gin.WrapF(ws))

	api := r.Group("/api")
	{
		api.POST("/auth/token", auth.IssueToken)

		authed := api.Group("", Auth(jwtManager))
		{
			authed.POST("/rooms/create", rooms.CreateRoom)
			authed.POST("/rooms/join", rooms.JoinRoom)
			authed.POST("/rooms/start", rooms.StartMatch)
			authed.POST("/rooms/end", rooms.EndRoom)
			authed.DELETE("/rooms/cancel", rooms.CancelRoom)
			authed.GET("/rooms/:roomId", rooms.GetRoom)

			authed.POST("/submissions/submit", submissions.Submit)
			authed.GET("/submissions/match/:matchId", submissions.ListByMatch)
			authed.GET("/submissions/stats/:matchId", submissions.MatchStats)
		}
	}

	return r
}
