package wsshandler

import (
	"context"
	"log"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/presence"
	wsstypes "github.com/devdual/BattleRoomManagerService/internal/wss/types"
)

// JoinRoom attaches the connection to a room and, when the caller is not yet
// a member, runs it through the join arbiter. Everything race-sensitive lives
// in the single conditional claim inside the room service; this handler only
// binds presence and fans out the outcome.
func (h *Handlers) JoinRoom(ctx *wsstypes.WsContext) error {
	payload, err := decode[wsstypes.JoinRoomPayload](ctx)
	if err != nil {
		return h.nack(ctx, model.EvtJoinRoom, "invalid payload format")
	}

	userID := payload.UserID
	if payload.Token != "" {
		claims, err := h.Jwt.ValidateToken(payload.Token)
		if err != nil {
			return h.nack(ctx, model.EvtJoinRoom, "invalid token")
		}
		userID = claims.UserID
	}
	if userID == "" || payload.RoomID == "" {
		return h.nack(ctx, model.EvtJoinRoom, "room ID and user ID are required")
	}

	bg := context.Background()

	room, err := h.Rooms.GetRoom(bg, payload.RoomID)
	if err != nil {
		return h.nackErr(ctx, model.EvtJoinRoom, err)
	}

	// A member reconnecting just rebinds; anyone else goes through the claim.
	claimed := false
	if !room.IsMember(userID) {
		room, err = h.Rooms.JoinRoom(bg, payload.RoomID, userID)
		if err != nil {
			return h.nackErr(ctx, model.EvtJoinRoom, err)
		}
		claimed = true
	}

	var name, photoURL string
	if user, err := h.Users.GetUser(bg, userID); err == nil {
		name = user.Name
		photoURL = user.PhotoURL
	}

	if _, err := h.Tracker.Bind(bg, presence.Binding{
		ConnID:   ctx.ConnID,
		RoomID:   room.RoomID,
		UserID:   userID,
		Name:     name,
		PhotoURL: photoURL,
	}); err != nil {
		log.Printf("[JoinRoom] presence bind failed for %s: %v", ctx.ConnID, err)
		return h.nack(ctx, model.EvtJoinRoom, "failed to join room")
	}

	*ctx.Session = wsstypes.Session{UserID: userID, RoomID: room.RoomID, Name: name}

	if claimed {
		h.Bus.PublishExcept(bg, room.RoomID, ctx.ConnID, model.Event{
			Type: model.EvtOpponentJoined,
			Payload: model.OpponentJoinedPayload{
				UserID:   userID,
				Name:     name,
				PhotoURL: photoURL,
			},
		})
	}

	token, err := h.Jwt.GenerateToken(userID, room.RoomID, time.Duration(room.Duration)*time.Second+tokenBuffer)
	if err != nil {
		log.Printf("[JoinRoom] token issue failed for %s: %v", userID, err)
	}

	return h.ack(ctx, model.EvtJoinRoom, map[string]any{
		"room":  room,
		"token": token,
	})
}
