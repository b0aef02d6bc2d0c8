package wsshandler

import (
	"context"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/model"
	wsstypes "github.com/devdual/BattleRoomManagerService/internal/wss/types"
)

// The relay events carry transient collaboration state between the two
// players. Nothing here touches storage; the room is the only scope and the
// sender is always excluded from the fanout.

func (h *Handlers) SyncCode(ctx *wsstypes.WsContext) error {
	if !h.requireSession(ctx, model.EvtSyncCode) {
		return nil
	}

	payload, err := decode[wsstypes.SyncCodePayload](ctx)
	if err != nil {
		return h.nack(ctx, model.EvtSyncCode, "invalid payload format")
	}

	h.Bus.PublishExcept(context.Background(), ctx.Session.RoomID, ctx.ConnID, model.Event{
		Type: model.EvtCodeUpdated,
		Payload: model.CodeUpdatedPayload{
			ProblemID: payload.ProblemID,
			Language:  payload.Language,
			Code:      payload.Code,
			UserID:    ctx.Session.UserID,
		},
	})
	return nil
}

func (h *Handlers) ChangeProblem(ctx *wsstypes.WsContext) error {
	if !h.requireSession(ctx, model.EvtChangeProblem) {
		return nil
	}

	payload, err := decode[wsstypes.ChangeProblemPayload](ctx)
	if err != nil {
		return h.nack(ctx, model.EvtChangeProblem, "invalid payload format")
	}

	h.Bus.PublishExcept(context.Background(), ctx.Session.RoomID, ctx.ConnID, model.Event{
		Type: model.EvtOpponentChangedProblem,
		Payload: model.OpponentChangedProblemPayload{
			ProblemIndex: payload.ProblemIndex,
			UserID:       ctx.Session.UserID,
		},
	})
	return nil
}

func (h *Handlers) SendMessage(ctx *wsstypes.WsContext) error {
	if !h.requireSession(ctx, model.EvtSendMessage) {
		return nil
	}

	payload, err := decode[wsstypes.SendMessagePayload](ctx)
	if err != nil {
		return h.nack(ctx, model.EvtSendMessage, "invalid payload format")
	}
	if payload.Text == "" {
		return h.nack(ctx, model.EvtSendMessage, "message text is required")
	}

	h.Bus.PublishExcept(context.Background(), ctx.Session.RoomID, ctx.ConnID, model.Event{
		Type: model.EvtReceiveMessage,
		Payload: model.ReceiveMessagePayload{
			Sender:    ctx.Session.UserID,
			Name:      ctx.Session.Name,
			Text:      payload.Text,
			Timestamp: time.Now(),
		},
	})
	return h.ack(ctx, model.EvtSendMessage, nil)
}
