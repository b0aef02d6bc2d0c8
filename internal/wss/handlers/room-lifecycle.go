package wsshandler

import (
	"context"
	"log"

	"github.com/devdual/BattleRoomManagerService/internal/model"
	wsstypes "github.com/devdual/BattleRoomManagerService/internal/wss/types"
)

// LeaveRoom unbinds the connection and tells the room. An abandoned waiting
// room is reclaimed on the spot; an active or started room stays up so the
// remaining player can claim the win or wait out a reconnect.
func (h *Handlers) LeaveRoom(ctx *wsstypes.WsContext) error {
	if !h.requireSession(ctx, model.EvtLeaveRoom) {
		return nil
	}

	bg := context.Background()

	binding, remaining, err := h.Tracker.Unbind(bg, ctx.ConnID)
	if err != nil {
		log.Printf("[LeaveRoom] unbind failed for %s: %v", ctx.ConnID, err)
		return h.nack(ctx, model.EvtLeaveRoom, "failed to leave room")
	}

	roomID := ctx.Session.RoomID
	userID := ctx.Session.UserID
	*ctx.Session = wsstypes.Session{}

	if binding != nil {
		h.Bus.Publish(bg, roomID, model.Event{
			Type:    model.EvtOpponentLeft,
			Payload: model.OpponentLeftPayload{UserID: userID},
		})
		if remaining == 0 {
			if _, err := h.Rooms.ReclaimIfAbandoned(bg, roomID); err != nil {
				log.Printf("[LeaveRoom] reclaim failed for %s: %v", roomID, err)
			}
		}
	}

	return h.ack(ctx, model.EvtLeaveRoom, nil)
}

// CancelRoom deletes the room on the session user's behalf. The service
// broadcasts room-cancelled and force-disconnects everyone, this connection
// included, right after the ack goes out.
func (h *Handlers) CancelRoom(ctx *wsstypes.WsContext) error {
	if !h.requireSession(ctx, model.EvtCancelRoom) {
		return nil
	}

	payload, err := decode[wsstypes.CancelRoomPayload](ctx)
	if err != nil {
		return h.nack(ctx, model.EvtCancelRoom, "invalid payload format")
	}
	roomID := payload.RoomID
	if roomID == "" {
		roomID = ctx.Session.RoomID
	}

	if err := h.Rooms.CancelRoom(context.Background(), roomID, ctx.Session.UserID); err != nil {
		return h.nackErr(ctx, model.EvtCancelRoom, err)
	}

	// The service already broadcast the cancellation and closed the room's
	// connections, ours included; this ack is best-effort.
	h.ack(ctx, model.EvtCancelRoom, nil)
	return nil
}

// StartMatch moves the room to started. Only the host's session gets past the
// service check; the match-started broadcast reaches everyone, including the
// host, through the bus.
func (h *Handlers) StartMatch(ctx *wsstypes.WsContext) error {
	if !h.requireSession(ctx, model.EvtStartMatch) {
		return nil
	}

	payload, err := decode[wsstypes.StartMatchPayload](ctx)
	if err != nil {
		return h.nack(ctx, model.EvtStartMatch, "invalid payload format")
	}
	roomID := payload.RoomID
	if roomID == "" {
		roomID = ctx.Session.RoomID
	}

	room, err := h.Rooms.StartMatch(context.Background(), roomID, ctx.Session.UserID, payload.Metadata)
	if err != nil {
		return h.nackErr(ctx, model.EvtStartMatch, err)
	}

	return h.ack(ctx, model.EvtStartMatch, map[string]any{
		"roomId":  room.RoomID,
		"matchId": room.MatchID,
	})
}
